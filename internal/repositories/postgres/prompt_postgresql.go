package postgres

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type PromptPostgreSQL struct {
	db *gorm.DB
}

func NewPromptPostgreSQL(db *gorm.DB) repositories.PromptRepository {
	return &PromptPostgreSQL{db: db}
}

func (p *PromptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, prompt *models.Prompt) error {
	return getDB(p.db, tx).WithContext(ctx).Omit("Questions").Create(prompt).Error
}

func (p *PromptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := getDB(p.db, tx).WithContext(ctx).First(&prompt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &prompt, nil
}

// GetByIDWithQuestions loads the prompt with its questions in display order.
func (p *PromptPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Prompt, error) {
	var prompt models.Prompt
	err := getDB(p.db, tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&prompt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (p *PromptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, prompt *models.Prompt) error {
	return getDB(p.db, tx).WithContext(ctx).Omit("Questions").Save(prompt).Error
}

func (p *PromptPostgreSQL) CreateVersion(ctx context.Context, tx *gorm.DB, version *models.PromptVersion) error {
	return getDB(p.db, tx).WithContext(ctx).Create(version).Error
}

func (p *PromptPostgreSQL) GetVersion(ctx context.Context, tx *gorm.DB, id string) (*models.PromptVersion, error) {
	var version models.PromptVersion
	if err := getDB(p.db, tx).WithContext(ctx).First(&version, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &version, nil
}

func (p *PromptPostgreSQL) SetActiveVersion(ctx context.Context, tx *gorm.DB, promptID, versionID string) error {
	result := getDB(p.db, tx).WithContext(ctx).
		Model(&models.Prompt{}).
		Where("id = ?", promptID).
		Update("active_version_id", versionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
