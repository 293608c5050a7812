package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/scoring"
	"github.com/SAP-F-2025/practice-service/internal/validator"
)

type writingService struct {
	*practiceFlow
}

func NewWritingService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) WritingService {
	return &writingService{
		practiceFlow: newPracticeFlow(repo, publisher, logger, validator),
	}
}

func (s *writingService) GetPrompt(ctx context.Context, promptID string) (*WritingPromptResponse, error) {
	prompt, err := s.publishedPrompt(ctx, promptID, models.PromptWriting)
	if err != nil {
		return nil, err
	}
	settings, version, err := s.settings(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp := &WritingPromptResponse{
		ID:           prompt.ID,
		TaskType:     prompt.TaskType,
		Title:        prompt.Title,
		Genre:        prompt.Genre,
		PromptText:   prompt.PromptText,
		WordMin:      settings.WordMin,
		WordMax:      settings.WordMax,
		TimerSeconds: settings.TimerSeconds,
	}
	if version != nil {
		resp.VersionID = &version.ID
		resp.PromptText = version.PromptText
	}
	return resp, nil
}

func (s *writingService) StartAttempt(ctx context.Context, promptID string, req *StartAttemptRequest, userID string) (*AttemptResponse, error) {
	s.logger.Info("Starting writing attempt",
		"prompt_id", promptID,
		"user_id", userID,
		"mode", req.Mode)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	prompt, err := s.publishedPrompt(ctx, promptID, models.PromptWriting)
	if err != nil {
		return nil, err
	}
	return s.startAttempt(ctx, prompt, req.Mode, userID)
}

func (s *writingService) Autosave(ctx context.Context, submissionID string, req *AutosaveRequest, userID string) (*AutosaveResponse, error) {
	return s.autosave(ctx, submissionID, req, userID)
}

// Submit stores the final text with its word count and whether it missed the
// word band. Every writing submission is queued for review.
func (s *writingService) Submit(ctx context.Context, submissionID string, req *SubmitRequest, userID string) (*SubmissionResult, error) {
	s.logger.Info("Submitting writing attempt",
		"submission_id", submissionID,
		"user_id", userID,
		"reason", req.Reason)

	sub, err := s.prepareSubmit(ctx, submissionID, req, userID)
	if err != nil {
		return nil, err
	}

	prompt, err := s.repo.Prompt().GetByID(ctx, nil, sub.PromptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	settings, _, err := s.settings(ctx, prompt)
	if err != nil {
		return nil, err
	}

	wordCount := scoring.CountWords(req.ContentText)
	violation := !scoring.WithinBand(wordCount, settings.WordMin, settings.WordMax)
	submittedAt := s.now()

	err = s.markSubmitted(ctx, sub, repositories.SubmitUpdate{
		ContentText:     req.ContentText,
		WordCount:       wordCount,
		LengthViolation: violation,
		NeedsReview:     true,
		Seq:             req.Seq,
		SubmittedAt:     submittedAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Writing attempt submitted successfully",
		"submission_id", sub.ID,
		"word_count", wordCount,
		"length_violation", violation)

	s.publish(ctx, events.NewSubmissionSubmittedEvent(events.SubmissionSubmittedEvent{
		SubmissionID:    sub.ID,
		AttemptID:       sub.AttemptID,
		PromptID:        sub.PromptID,
		UserID:          userID,
		Mode:            string(sub.Mode),
		Reason:          string(req.Reason),
		WordCount:       wordCount,
		LengthViolation: violation,
		SubmittedAt:     submittedAt,
	}))
	s.publish(ctx, events.NewReviewRequiredEvent(events.ReviewRequiredEvent{
		SubmissionID: sub.ID,
		PromptID:     sub.PromptID,
		UserID:       userID,
	}))

	return &SubmissionResult{
		SubmissionID:    sub.ID,
		Status:          models.SubmissionSubmitted,
		SubmittedAt:     submittedAt,
		WordCount:       wordCount,
		LengthViolation: violation,
		NeedsReview:     true,
	}, nil
}

func (s *writingService) LatestFeedback(ctx context.Context, submissionID, userID string) (*FeedbackResponse, error) {
	if _, err := s.ownedSubmission(ctx, submissionID, userID); err != nil {
		return nil, err
	}

	fb, err := s.repo.Feedback().GetLatestBySubmission(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return feedbackResponse(fb), nil
}

func feedbackResponse(fb *models.Feedback) *FeedbackResponse {
	return &FeedbackResponse{
		ID:                   fb.ID,
		SubmissionID:         fb.SubmissionID,
		Rubric:               fb.RubricScores(),
		OverallScore:         fb.OverallScore,
		LengthPenaltyApplied: fb.LengthPenaltyApplied,
		Comments:             fb.CommentsText,
		ReviewerID:           fb.ReviewerID,
		CreatedAt:            fb.CreatedAt,
	}
}
