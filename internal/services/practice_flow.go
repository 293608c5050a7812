package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/scoring"
	"github.com/SAP-F-2025/practice-service/internal/session"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// practiceFlow holds the attempt and submission lifecycle shared by the
// listening and writing services.
type practiceFlow struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	starts    singleflight.Group
	now       func() time.Time
}

func newPracticeFlow(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) *practiceFlow {
	return &practiceFlow{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// publishedPrompt loads a prompt a learner may practice on.
func (f *practiceFlow) publishedPrompt(ctx context.Context, promptID string, kind models.PromptKind) (*models.Prompt, error) {
	prompt, err := f.repo.Prompt().GetByID(ctx, nil, promptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	if prompt.Kind != kind {
		return nil, ErrPromptKindMismatch
	}
	if !prompt.IsPublished {
		return nil, ErrPromptNotPublished
	}
	return prompt, nil
}

// settings resolves the word band and timer, honoring the active version.
func (f *practiceFlow) settings(ctx context.Context, prompt *models.Prompt) (models.TaskSettings, *models.PromptVersion, error) {
	if prompt.ActiveVersionID == nil {
		return models.EffectiveSettings(prompt, nil), nil, nil
	}
	version, err := f.repo.Prompt().GetVersion(ctx, nil, *prompt.ActiveVersionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			f.logger.Warn("Active prompt version missing, using prompt settings",
				"prompt_id", prompt.ID,
				"version_id", *prompt.ActiveVersionID)
			return models.EffectiveSettings(prompt, nil), nil, nil
		}
		return models.TaskSettings{}, nil, fmt.Errorf("failed to get prompt version: %w", err)
	}
	return models.EffectiveSettings(prompt, version), version, nil
}

// startAttempt returns the learner's open draft for the prompt and mode, or
// creates the next attempt. Concurrent starts for the same key share one call.
func (f *practiceFlow) startAttempt(ctx context.Context, prompt *models.Prompt, mode models.AttemptMode, userID string) (*AttemptResponse, error) {
	settings, version, err := f.settings(ctx, prompt)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s::%s", userID, session.Key{Mode: mode, PromptID: prompt.ID})
	v, err, _ := f.starts.Do(key, func() (interface{}, error) {
		return f.openOrCreate(ctx, prompt, version, mode, userID)
	})
	if err != nil {
		return nil, err
	}

	// Copy so callers sharing the flight do not share the struct.
	resp := *(v.(*AttemptResponse))
	resp.TimerSeconds = settings.TimerSeconds
	resp.WordMin = settings.WordMin
	resp.WordMax = settings.WordMax
	return &resp, nil
}

func (f *practiceFlow) openOrCreate(ctx context.Context, prompt *models.Prompt, version *models.PromptVersion, mode models.AttemptMode, userID string) (*AttemptResponse, error) {
	existing, err := f.repo.Submission().GetOpenDraft(ctx, nil, userID, prompt.ID, mode)
	if err == nil {
		f.logger.Info("Resuming existing draft",
			"submission_id", existing.ID,
			"attempt_id", existing.AttemptID)
		return f.attemptResponse(existing, true)
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up draft: %w", err)
	}

	now := f.now()
	attempt := &models.Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		PromptID:  prompt.ID,
		Mode:      mode,
		StartedAt: now,
	}
	if version != nil {
		attempt.VersionID = &version.ID
	}
	submission := &models.Submission{
		ID:        uuid.NewString(),
		AttemptID: attempt.ID,
		UserID:    userID,
		PromptID:  prompt.ID,
		Mode:      mode,
		Status:    models.SubmissionDraft,
	}

	err = f.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		number, err := f.repo.Attempt().GetNextAttemptNumber(ctx, tx, userID, prompt.ID, mode)
		if err != nil {
			return fmt.Errorf("failed to get next attempt number: %w", err)
		}
		attempt.AttemptNumber = number
		submission.AttemptNumber = number

		if err := f.repo.Attempt().Create(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		if err := f.repo.Submission().Create(ctx, tx, submission); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.Info("Attempt started successfully",
		"attempt_id", attempt.ID,
		"submission_id", submission.ID,
		"prompt_id", prompt.ID,
		"mode", mode,
		"attempt_number", attempt.AttemptNumber)

	f.publish(ctx, events.NewAttemptStartedEvent(events.AttemptStartedEvent{
		AttemptID:     attempt.ID,
		SubmissionID:  submission.ID,
		PromptID:      prompt.ID,
		UserID:        userID,
		Mode:          string(mode),
		AttemptNumber: attempt.AttemptNumber,
		StartedAt:     now,
	}))

	resp, err := f.attemptResponse(submission, false)
	if err != nil {
		return nil, err
	}
	resp.StartedAt = now
	return resp, nil
}

func (f *practiceFlow) attemptResponse(sub *models.Submission, resumed bool) (*AttemptResponse, error) {
	responses, err := sub.ResponseList()
	if err != nil {
		return nil, err
	}
	return &AttemptResponse{
		AttemptRef: session.AttemptRef{
			AttemptID:     sub.AttemptID,
			SubmissionID:  sub.ID,
			AttemptNumber: sub.AttemptNumber,
		},
		PromptID:    sub.PromptID,
		Mode:        sub.Mode,
		Status:      sub.Status,
		Resumed:     resumed,
		ContentText: sub.ContentText,
		Responses:   responses,
		AutosaveSeq: sub.AutosaveSeq,
		PlayCount:   sub.PlayCount,
		StartedAt:   sub.CreatedAt,
	}, nil
}

// ownedSubmission loads a submission and checks that userID owns it.
func (f *practiceFlow) ownedSubmission(ctx context.Context, submissionID, userID string) (*models.Submission, error) {
	sub, err := f.repo.Submission().GetByID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if sub.UserID != userID {
		return nil, NewPermissionError(userID, submissionID, "submission", "access", "not owned by user")
	}
	return sub, nil
}

func (f *practiceFlow) autosave(ctx context.Context, submissionID string, req *AutosaveRequest, userID string) (*AutosaveResponse, error) {
	if err := f.validator.Validate(req); err != nil {
		return nil, err
	}

	sub, err := f.ownedSubmission(ctx, submissionID, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsDraft() {
		return nil, ErrSubmissionNotDraft
	}

	responses, err := models.EncodeResponses(req.Responses)
	if err != nil {
		return nil, err
	}
	wordCount := scoring.CountWords(req.ContentText)

	accepted, err := f.repo.Submission().UpdateDraft(ctx, nil, submissionID, repositories.DraftUpdate{
		ContentText: req.ContentText,
		Responses:   responses,
		WordCount:   wordCount,
		Seq:         req.Seq,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	if accepted {
		return &AutosaveResponse{Accepted: true, Seq: req.Seq, WordCount: wordCount}, nil
	}

	// Nothing changed: either a newer write won or the submission moved on.
	current, err := f.ownedSubmission(ctx, submissionID, userID)
	if err != nil {
		return nil, err
	}
	if !current.IsDraft() {
		return nil, ErrSubmissionNotDraft
	}
	f.logger.Debug("Ignoring stale autosave",
		"submission_id", submissionID,
		"seq", req.Seq,
		"stored_seq", current.AutosaveSeq)
	return &AutosaveResponse{Accepted: false, Seq: current.AutosaveSeq, WordCount: current.WordCount}, nil
}

// markSubmitted moves a draft to submitted exactly once.
func (f *practiceFlow) markSubmitted(ctx context.Context, sub *models.Submission, update repositories.SubmitUpdate) error {
	changed, err := f.repo.Submission().MarkSubmitted(ctx, nil, sub.ID, update)
	if err != nil {
		return fmt.Errorf("failed to submit: %w", err)
	}
	if !changed {
		return ErrSubmissionAlreadySubmitted
	}
	return nil
}

func (f *practiceFlow) prepareSubmit(ctx context.Context, submissionID string, req *SubmitRequest, userID string) (*models.Submission, error) {
	if err := f.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Reason == "" {
		req.Reason = session.ReasonManual
	}

	sub, err := f.ownedSubmission(ctx, submissionID, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsDraft() {
		return nil, ErrSubmissionAlreadySubmitted
	}
	return sub, nil
}

// publish sends an event. Failures are logged and never fail the request.
func (f *practiceFlow) publish(ctx context.Context, event *events.PracticeEvent) {
	if f.publisher == nil {
		return
	}
	if err := f.publisher.PublishEvent(ctx, event); err != nil {
		f.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
