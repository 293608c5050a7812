package repositories

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Attempt, error)
	GetNextAttemptNumber(ctx context.Context, tx *gorm.DB, userID, promptID string, mode models.AttemptMode) (int, error)
}
