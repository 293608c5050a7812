package postgres

import (
	"context"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type FeedbackPostgreSQL struct {
	db *gorm.DB
}

func NewFeedbackPostgreSQL(db *gorm.DB) repositories.FeedbackRepository {
	return &FeedbackPostgreSQL{db: db}
}

func (f *FeedbackPostgreSQL) Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error {
	return getDB(f.db, tx).WithContext(ctx).Create(feedback).Error
}

func (f *FeedbackPostgreSQL) GetLatestBySubmission(ctx context.Context, tx *gorm.DB, submissionID string) (*models.Feedback, error) {
	var feedback models.Feedback
	err := getDB(f.db, tx).WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		First(&feedback).Error
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

// GetLatestBySubmissions keys the newest feedback row by submission id.
func (f *FeedbackPostgreSQL) GetLatestBySubmissions(ctx context.Context, tx *gorm.DB, submissionIDs []string) (map[string]*models.Feedback, error) {
	latest := make(map[string]*models.Feedback, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return latest, nil
	}

	var rows []*models.Feedback
	err := getDB(f.db, tx).WithContext(ctx).
		Where("submission_id IN ?", submissionIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		latest[row.SubmissionID] = row
	}
	return latest, nil
}
