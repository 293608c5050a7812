package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Submission, error)
	// GetOpenDraft returns the newest draft for the user, prompt and mode.
	GetOpenDraft(ctx context.Context, tx *gorm.DB, userID, promptID string, mode models.AttemptMode) (*models.Submission, error)
	List(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.Submission, int64, error)

	// Conditional state changes. The bool reports whether a row changed.
	UpdateDraft(ctx context.Context, tx *gorm.DB, id string, update DraftUpdate) (bool, error)
	MarkSubmitted(ctx context.Context, tx *gorm.DB, id string, update SubmitUpdate) (bool, error)
	MarkReturned(ctx context.Context, tx *gorm.DB, id string, returnedAt time.Time) (bool, error)
	// IncrementPlayCount adds one play while below maxPlays; maxPlays <= 0 means unlimited.
	IncrementPlayCount(ctx context.Context, tx *gorm.DB, id string, maxPlays int) (bool, error)

	// Review
	ListReviewQueue(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Submission, int64, error)
}
