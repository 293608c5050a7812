package repositories

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByPrompt(ctx context.Context, tx *gorm.DB, promptID string) ([]*models.Question, error)
	DeleteByPrompt(ctx context.Context, tx *gorm.DB, promptID string) error

	// Answer keys are never serialized to learners.
	CreateAnswerKeys(ctx context.Context, tx *gorm.DB, keys []*models.AnswerKey) error
	GetAnswerKeys(ctx context.Context, tx *gorm.DB, questionIDs []string) (map[string]models.AnswerKey, error)
}
