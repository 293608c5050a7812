package postgres

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return getDB(q.db, tx).WithContext(ctx).CreateInBatches(questions, 100).Error
}

func (q *QuestionPostgreSQL) GetByPrompt(ctx context.Context, tx *gorm.DB, promptID string) ([]*models.Question, error) {
	var questions []*models.Question
	err := getDB(q.db, tx).WithContext(ctx).
		Where("prompt_id = ?", promptID).
		Order("order_index ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// DeleteByPrompt removes the questions and their keys.
func (q *QuestionPostgreSQL) DeleteByPrompt(ctx context.Context, tx *gorm.DB, promptID string) error {
	db := getDB(q.db, tx).WithContext(ctx)
	sub := db.Model(&models.Question{}).Select("id").Where("prompt_id = ?", promptID)
	if err := db.Where("question_id IN (?)", sub).Delete(&models.AnswerKey{}).Error; err != nil {
		return err
	}
	return db.Where("prompt_id = ?", promptID).Delete(&models.Question{}).Error
}

func (q *QuestionPostgreSQL) CreateAnswerKeys(ctx context.Context, tx *gorm.DB, keys []*models.AnswerKey) error {
	if len(keys) == 0 {
		return nil
	}
	return getDB(q.db, tx).WithContext(ctx).Create(keys).Error
}

func (q *QuestionPostgreSQL) GetAnswerKeys(ctx context.Context, tx *gorm.DB, questionIDs []string) (map[string]models.AnswerKey, error) {
	keys := make(map[string]models.AnswerKey, len(questionIDs))
	if len(questionIDs) == 0 {
		return keys, nil
	}

	var rows []models.AnswerKey
	if err := getDB(q.db, tx).WithContext(ctx).Where("question_id IN ?", questionIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		keys[row.QuestionID] = row
	}
	return keys, nil
}
