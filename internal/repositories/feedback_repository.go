package repositories

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

type FeedbackRepository interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error
	GetLatestBySubmission(ctx context.Context, tx *gorm.DB, submissionID string) (*models.Feedback, error)
	GetLatestBySubmissions(ctx context.Context, tx *gorm.DB, submissionIDs []string) (map[string]*models.Feedback, error)
}
