package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	return getDB(s.db, tx).WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Submission, error) {
	var submission models.Submission
	if err := getDB(s.db, tx).WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetOpenDraft(ctx context.Context, tx *gorm.DB, userID, promptID string, mode models.AttemptMode) (*models.Submission, error) {
	var submission models.Submission
	err := getDB(s.db, tx).WithContext(ctx).
		Where("user_id = ? AND prompt_id = ? AND mode = ? AND status = ?", userID, promptID, mode, models.SubmissionDraft).
		Order("attempt_number DESC").
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	var submissions []*models.Submission
	var total int64

	query := s.applyFilters(getDB(s.db, tx).WithContext(ctx).Model(&models.Submission{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.applyPaginationAndSort(query, filters)
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) UpdateDraft(ctx context.Context, tx *gorm.DB, id string, update repositories.DraftUpdate) (bool, error) {
	result := getDB(s.db, tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ? AND autosave_seq < ?", id, models.SubmissionDraft, update.Seq).
		Updates(map[string]interface{}{
			"content_text": update.ContentText,
			"responses":    update.Responses,
			"word_count":   update.WordCount,
			"autosave_seq": update.Seq,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *SubmissionPostgreSQL) MarkSubmitted(ctx context.Context, tx *gorm.DB, id string, update repositories.SubmitUpdate) (bool, error) {
	result := getDB(s.db, tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionDraft).
		Updates(map[string]interface{}{
			"status":           models.SubmissionSubmitted,
			"content_text":     update.ContentText,
			"responses":        update.Responses,
			"word_count":       update.WordCount,
			"length_violation": update.LengthViolation,
			"score_breakdown":  update.ScoreBreakdown,
			"needs_review":     update.NeedsReview,
			"autosave_seq":     gorm.Expr("GREATEST(autosave_seq, ?)", update.Seq),
			"submitted_at":     update.SubmittedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *SubmissionPostgreSQL) MarkReturned(ctx context.Context, tx *gorm.DB, id string, returnedAt time.Time) (bool, error) {
	result := getDB(s.db, tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionSubmitted).
		Updates(map[string]interface{}{
			"status":       models.SubmissionReturned,
			"needs_review": false,
			"returned_at":  returnedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *SubmissionPostgreSQL) IncrementPlayCount(ctx context.Context, tx *gorm.DB, id string, maxPlays int) (bool, error) {
	query := getDB(s.db, tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionDraft)
	if maxPlays > 0 {
		query = query.Where("play_count < ?", maxPlays)
	}

	result := query.Update("play_count", gorm.Expr("play_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListReviewQueue returns submitted work waiting for a reviewer, oldest first.
func (s *SubmissionPostgreSQL) ListReviewQueue(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Submission, int64, error) {
	status := models.SubmissionSubmitted
	filters := repositories.SubmissionFilters{
		Status:    &status,
		Limit:     limit,
		Offset:    offset,
		SortOrder: "asc",
	}

	var submissions []*models.Submission
	var total int64
	query := s.applyFilters(getDB(s.db, tx).WithContext(ctx).Model(&models.Submission{}), filters).
		Where("needs_review = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.applyPaginationAndSort(query, filters).Find(&submissions).Error; err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.PromptID != "" {
		query = query.Where("prompt_id = ?", filters.PromptID)
	}
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Mode != nil {
		query = query.Where("mode = ?", *filters.Mode)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	return query
}

func (s *SubmissionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order("submitted_at " + order).Order("created_at " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
