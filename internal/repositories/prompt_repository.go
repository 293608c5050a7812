package repositories

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

type PromptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, prompt *models.Prompt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Prompt, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Prompt, error)
	Update(ctx context.Context, tx *gorm.DB, prompt *models.Prompt) error

	// Versions
	CreateVersion(ctx context.Context, tx *gorm.DB, version *models.PromptVersion) error
	GetVersion(ctx context.Context, tx *gorm.DB, id string) (*models.PromptVersion, error)
	SetActiveVersion(ctx context.Context, tx *gorm.DB, promptID, versionID string) error
}
