package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ===== AGGREGATE =====

// Repository groups the per-entity repositories. Every method takes an
// optional transaction; nil means the shared connection.
type Repository interface {
	Prompt() PromptRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Submission() SubmissionRepository
	Feedback() FeedbackRepository
	Audit() AuditRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type SubmissionFilters struct {
	PromptID  string                   `json:"prompt_id"`
	UserID    string                   `json:"user_id"`
	Status    *models.SubmissionStatus `json:"status"`
	Mode      *models.AttemptMode      `json:"mode"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED HELPER STRUCTS =====

// DraftUpdate is applied only while the submission is a draft and seq is
// newer than the stored one.
type DraftUpdate struct {
	ContentText string
	Responses   datatypes.JSON
	WordCount   int
	Seq         int64
}

type SubmitUpdate struct {
	ContentText     string
	Responses       datatypes.JSON
	WordCount       int
	LengthViolation bool
	ScoreBreakdown  datatypes.JSON
	NeedsReview     bool
	Seq             int64
	SubmittedAt     time.Time
}
