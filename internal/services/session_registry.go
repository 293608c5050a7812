package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/session"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"gorm.io/datatypes"
)

// DraftStores hands out a per-user draft cache.
type DraftStores interface {
	ForUser(userID string) session.DraftStore
}

type OpenSessionRequest struct {
	Mode models.AttemptMode `json:"mode" validate:"required,attempt_mode"`
}

type SessionContentRequest struct {
	Content string `json:"content" validate:"max=20000"`
}

type SessionModeRequest struct {
	Mode models.AttemptMode `json:"mode" validate:"required,attempt_mode"`
}

type SessionResponse struct {
	session.State
	Content string `json:"content"`
}

// SessionRegistry hosts live writing sessions, one per user and prompt. Each
// session runs the same engine a client would: debounced autosave, the exam
// countdown with auto-submit and the redis draft cache.
type SessionRegistry struct {
	writing   WritingService
	drafts    DraftStores
	debounce  time.Duration
	clock     session.Clock
	logger    *slog.Logger
	validator *validator.Validator

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func NewSessionRegistry(writing WritingService, drafts DraftStores, debounce time.Duration, logger *slog.Logger, validator *validator.Validator) *SessionRegistry {
	return &SessionRegistry{
		writing:   writing,
		drafts:    drafts,
		debounce:  debounce,
		clock:     session.RealClock(),
		logger:    logger,
		validator: validator,
		sessions:  make(map[string]*session.Session),
	}
}

func registryKey(userID, promptID string) string {
	return userID + "::" + promptID
}

// Open returns the user's live session for the prompt, creating it and
// restoring any cached draft when none is open.
func (r *SessionRegistry) Open(ctx context.Context, promptID string, req *OpenSessionRequest, userID string) (*SessionResponse, error) {
	if err := r.validator.Validate(req); err != nil {
		return nil, err
	}

	key := registryKey(userID, promptID)
	r.mu.Lock()
	s, ok := r.sessions[key]
	r.mu.Unlock()
	if ok {
		r.refreshFeedback(ctx, s, userID)
		return sessionResponse(s), nil
	}

	prompt, err := r.writing.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, err
	}

	cfg := session.Config{
		PromptID:         promptID,
		Mode:             req.Mode,
		TimerSeconds:     prompt.TimerSeconds,
		WordMin:          prompt.WordMin,
		WordMax:          prompt.WordMax,
		AutosaveDebounce: r.debounce,
		Backend:          NewSessionBackend(r.writing, userID),
		Clock:            r.clock,
		Logger:           r.logger.With("user_id", userID),
	}
	if r.drafts != nil {
		cfg.Drafts = r.drafts.ForUser(userID)
	}
	created := session.New(cfg)

	r.mu.Lock()
	if existing, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		return sessionResponse(existing), nil
	}
	r.sessions[key] = created
	r.mu.Unlock()

	restored, err := created.Restore(ctx)
	if err != nil {
		r.logger.Warn("Failed to restore cached draft", "prompt_id", promptID, "user_id", userID, "error", err)
	}
	r.logger.Info("Writing session opened",
		"prompt_id", promptID,
		"user_id", userID,
		"mode", req.Mode,
		"restored", restored)

	return sessionResponse(created), nil
}

func (r *SessionRegistry) get(userID, promptID string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[registryKey(userID, promptID)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRegistry) State(ctx context.Context, promptID, userID string) (*SessionResponse, error) {
	s, err := r.get(userID, promptID)
	if err != nil {
		return nil, err
	}
	r.refreshFeedback(ctx, s, userID)
	return sessionResponse(s), nil
}

// refreshFeedback moves a submitted session to returned once a reviewer has
// left feedback on its submission.
func (r *SessionRegistry) refreshFeedback(ctx context.Context, s *session.Session, userID string) {
	st := s.State()
	if st.Status != session.StatusSubmitted || st.SubmissionID == "" {
		return
	}
	fb, err := r.writing.LatestFeedback(ctx, st.SubmissionID, userID)
	if errors.Is(err, ErrFeedbackNotFound) {
		return
	}
	if err != nil {
		r.logger.Warn("Failed to load feedback", "submission_id", st.SubmissionID, "error", err)
		return
	}
	model, err := feedbackModel(fb)
	if err != nil {
		r.logger.Warn("Failed to decode feedback", "submission_id", st.SubmissionID, "error", err)
		return
	}
	if err := s.ApplyFeedback(model); err != nil {
		r.logger.Debug("Feedback arrived after the session moved on", "submission_id", st.SubmissionID, "error", err)
	}
}

func feedbackModel(fb *FeedbackResponse) (*models.Feedback, error) {
	rubric, err := json.Marshal(fb.Rubric)
	if err != nil {
		return nil, err
	}
	return &models.Feedback{
		ID:                   fb.ID,
		SubmissionID:         fb.SubmissionID,
		Rubric:               datatypes.JSON(rubric),
		OverallScore:         fb.OverallScore,
		LengthPenaltyApplied: fb.LengthPenaltyApplied,
		CommentsText:         fb.Comments,
		ReviewerID:           fb.ReviewerID,
		CreatedAt:            fb.CreatedAt,
	}, nil
}

func (r *SessionRegistry) Edit(ctx context.Context, promptID string, req *SessionContentRequest, userID string) (*SessionResponse, error) {
	if err := r.validator.Validate(req); err != nil {
		return nil, err
	}
	return r.apply(ctx, promptID, userID, func(s *session.Session) error {
		return s.Edit(ctx, req.Content)
	})
}

func (r *SessionRegistry) Start(ctx context.Context, promptID, userID string) (*SessionResponse, error) {
	return r.apply(ctx, promptID, userID, func(s *session.Session) error {
		return s.Start(ctx)
	})
}

func (r *SessionRegistry) Submit(ctx context.Context, promptID, userID string) (*SessionResponse, error) {
	return r.apply(ctx, promptID, userID, func(s *session.Session) error {
		return s.Submit(ctx, session.ReasonManual)
	})
}

func (r *SessionRegistry) SetMode(ctx context.Context, promptID string, req *SessionModeRequest, userID string) (*SessionResponse, error) {
	if err := r.validator.Validate(req); err != nil {
		return nil, err
	}
	return r.apply(ctx, promptID, userID, func(s *session.Session) error {
		return s.SetMode(ctx, req.Mode)
	})
}

func (r *SessionRegistry) NewAttempt(ctx context.Context, promptID, userID string) (*SessionResponse, error) {
	return r.apply(ctx, promptID, userID, func(s *session.Session) error {
		return s.NewAttempt()
	})
}

// Close forgets the session. A running exam countdown still submits on expiry.
func (r *SessionRegistry) Close(promptID, userID string) {
	r.mu.Lock()
	delete(r.sessions, registryKey(userID, promptID))
	r.mu.Unlock()
}

func (r *SessionRegistry) apply(ctx context.Context, promptID, userID string, fn func(*session.Session) error) (*SessionResponse, error) {
	s, err := r.get(userID, promptID)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return sessionResponse(s), nil
}

func sessionResponse(s *session.Session) *SessionResponse {
	return &SessionResponse{State: s.State(), Content: s.Content()}
}
