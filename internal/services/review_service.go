package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultQueueLimit = 20

type reviewService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewReviewService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ReviewService {
	return &reviewService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) Queue(ctx context.Context, req *ReviewQueueRequest) (*ReviewQueueResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultQueueLimit
	}

	submissions, total, err := s.repo.Submission().ListReviewQueue(ctx, nil, limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	return &ReviewQueueResponse{
		Submissions: submissions,
		Total:       total,
		Limit:       limit,
		Offset:      req.Offset,
	}, nil
}

// ScoreRubric applies the length penalty to Task Achievement, floored at 0,
// and returns the adjusted rubric with the mean of all criteria rounded to two
// decimals.
func ScoreRubric(rubric map[string]float64, lengthViolation bool) (map[string]float64, float64, bool) {
	adjusted := make(map[string]float64, len(models.RubricCriteria))
	for _, c := range models.RubricCriteria {
		adjusted[c] = rubric[c]
	}

	applied := false
	if lengthViolation {
		adjusted[models.CriterionTaskAchievement] = math.Max(0, adjusted[models.CriterionTaskAchievement]-models.LengthPenalty)
		applied = true
	}

	var sum float64
	for _, c := range models.RubricCriteria {
		sum += adjusted[c]
	}
	overall := math.Round(sum/float64(len(models.RubricCriteria))*100) / 100
	return adjusted, overall, applied
}

// ReturnFeedback records the reviewer's scores and returns the submission to
// the learner in one transaction.
func (s *reviewService) ReturnFeedback(ctx context.Context, submissionID string, req *ReturnFeedbackRequest, reviewerID string) (*FeedbackResponse, error) {
	s.logger.Info("Returning feedback",
		"submission_id", submissionID,
		"reviewer_id", reviewerID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	sub, err := s.repo.Submission().GetByID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if sub.Status != models.SubmissionSubmitted {
		return nil, ErrSubmissionNotSubmitted
	}

	rubric, overall, applied := ScoreRubric(req.Rubric, sub.LengthViolation)
	raw, err := json.Marshal(rubric)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rubric: %w", err)
	}

	now := s.now()
	fb := &models.Feedback{
		ID:                   uuid.NewString(),
		SubmissionID:         sub.ID,
		Rubric:               datatypes.JSON(raw),
		OverallScore:         overall,
		LengthPenaltyApplied: applied,
		CommentsText:         req.Comments,
		ReviewerID:           reviewerID,
		CreatedAt:            now,
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		changed, err := s.repo.Submission().MarkReturned(ctx, tx, sub.ID, now)
		if err != nil {
			return fmt.Errorf("failed to return submission: %w", err)
		}
		if !changed {
			return ErrSubmissionNotSubmitted
		}
		if err := s.repo.Feedback().Create(ctx, tx, fb); err != nil {
			return fmt.Errorf("failed to create feedback: %w", err)
		}
		entry := models.NewAuditLog(models.AuditFeedbackReturned, reviewerID, "submission", sub.ID,
			"Feedback returned", map[string]interface{}{"feedback_id": fb.ID, "overall_score": overall})
		if err := s.repo.Audit().Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Feedback returned successfully",
		"submission_id", sub.ID,
		"feedback_id", fb.ID,
		"overall_score", overall,
		"length_penalty_applied", applied)

	if s.publisher != nil {
		event := events.NewSubmissionReturnedEvent(events.SubmissionReturnedEvent{
			SubmissionID:         sub.ID,
			UserID:               sub.UserID,
			ReviewerID:           reviewerID,
			OverallScore:         overall,
			LengthPenaltyApplied: applied,
			ReturnedAt:           now,
		})
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
		}
	}

	return feedbackResponse(fb), nil
}
