package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/scoring"
)

// DefaultAutosaveDebounce is the inactivity period before a draft is persisted.
const DefaultAutosaveDebounce = 5 * time.Second

type Status string

const (
	StatusIdle      Status = "idle"
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusReturned  Status = "returned"
)

type SubmitReason string

const (
	ReasonManual  SubmitReason = "manual"
	ReasonTimeout SubmitReason = "timeout"
)

// Draft is the content sent on autosave and submit. Seq grows with every write
// so the store can drop writes older than the latest it accepted.
type Draft struct {
	Content   string            `json:"content,omitempty"`
	Responses []models.Response `json:"responses,omitempty"`
	Seq       int64             `json:"seq"`
}

// Backend persists attempts and submissions.
type Backend interface {
	StartAttempt(ctx context.Context, key Key, attemptNumber int) (AttemptRef, error)
	Autosave(ctx context.Context, submissionID string, draft Draft) error
	Submit(ctx context.Context, submissionID string, draft Draft, reason SubmitReason) error
}

// DraftKey addresses the locally cached draft of one attempt.
type DraftKey struct {
	PromptID string
	Mode     models.AttemptMode
	Attempt  int
}

func (k DraftKey) String() string {
	return fmt.Sprintf("writing_draft::%s::%s::%d", k.PromptID, k.Mode, k.Attempt)
}

// DraftStore caches unsent content so it survives a reload.
type DraftStore interface {
	Save(ctx context.Context, key DraftKey, content string) error
	Load(ctx context.Context, key DraftKey) (string, bool, error)
	Clear(ctx context.Context, key DraftKey) error
}

type Config struct {
	PromptID         string
	Mode             models.AttemptMode
	TimerSeconds     int
	WordMin          int
	WordMax          int
	MaxPlays         int
	AutosaveDebounce time.Duration

	Backend Backend
	Drafts  DraftStore
	Clock   Clock
	Logger  *slog.Logger
}

// State is a point-in-time view of a session.
type State struct {
	Status              Status             `json:"status"`
	Mode                models.AttemptMode `json:"mode"`
	PromptID            string             `json:"prompt_id"`
	AttemptNumber       int                `json:"attempt_number"`
	SubmissionID        string             `json:"submission_id,omitempty"`
	SecondsLeft         int                `json:"seconds_left"`
	TimerRunning        bool               `json:"timer_running"`
	ReadOnly            bool               `json:"read_only"`
	Plays               int                `json:"plays"`
	CanPlay             bool               `json:"can_play"`
	CanRevealTranscript bool               `json:"can_reveal_transcript"`
	WordCount           int                `json:"word_count"`
	LengthViolation     bool               `json:"length_violation"`
	SubmittedAt         *time.Time         `json:"submitted_at,omitempty"`
	Feedback            *models.Feedback   `json:"feedback,omitempty"`
}

// Session drives one learner through a prompt: lazy attempt creation, debounced
// autosave, the exam countdown and the one-way submit.
type Session struct {
	cfg     Config
	backend Backend
	drafts  DraftStore
	clock   Clock
	logger  *slog.Logger
	ensurer *Ensurer
	replay  *ReplayGate

	mu            sync.Mutex
	status        Status
	mode          models.AttemptMode
	attemptNumber int
	ref           *AttemptRef
	content       string
	responses     map[string]models.Response
	seq           int64
	secondsLeft   int
	timerRunning  bool
	tick          Timer
	autosaveTimer Timer
	submitting    bool
	submittedAt   *time.Time
	feedback      *models.Feedback
}

func New(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.AutosaveDebounce <= 0 {
		cfg.AutosaveDebounce = DefaultAutosaveDebounce
	}
	if cfg.Mode == "" {
		cfg.Mode = models.ModePractice
	}

	return &Session{
		cfg:           cfg,
		backend:       cfg.Backend,
		drafts:        cfg.Drafts,
		clock:         cfg.Clock,
		logger:        cfg.Logger.With("prompt_id", cfg.PromptID),
		ensurer:       NewEnsurer(),
		replay:        NewReplayGate(cfg.MaxPlays),
		status:        StatusIdle,
		mode:          cfg.Mode,
		attemptNumber: 1,
		responses:     make(map[string]models.Response),
		secondsLeft:   cfg.TimerSeconds,
	}
}

func (s *Session) key() Key {
	return Key{Mode: s.mode, PromptID: s.cfg.PromptID}
}

func (s *Session) draftKey() DraftKey {
	return DraftKey{PromptID: s.cfg.PromptID, Mode: s.mode, Attempt: s.attemptNumber}
}

func (s *Session) readOnlyLocked() bool {
	return s.submitting || s.status == StatusSubmitted || s.status == StatusReturned
}

// ensure creates the attempt once per key and moves the session to draft.
// On failure the session stays idle so a later call can retry.
func (s *Session) ensure(ctx context.Context) (AttemptRef, error) {
	s.mu.Lock()
	key := s.key()
	number := s.attemptNumber
	s.mu.Unlock()

	ref, err := s.ensurer.Ensure(ctx, key.String(), func(ctx context.Context) (AttemptRef, error) {
		return s.backend.StartAttempt(ctx, key, number)
	})
	if err != nil {
		s.logger.Error("Failed to start attempt", "mode", key.Mode, "attempt_number", number, "error", err)
		return AttemptRef{}, fmt.Errorf("failed to start attempt: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key() != key || s.attemptNumber != number {
		return AttemptRef{}, fmt.Errorf("attempt %d was replaced while starting", number)
	}
	if s.status == StatusIdle || s.ref == nil {
		s.status = StatusDraft
		s.ref = &ref
		s.logger.Info("Attempt started", "mode", key.Mode, "submission_id", ref.SubmissionID, "attempt_number", number)
	}
	return *s.ref, nil
}

// Edit replaces the written content. The first edit creates the attempt.
// In exam mode editing is only possible once the countdown has started.
func (s *Session) Edit(ctx context.Context, content string) error {
	s.mu.Lock()
	if s.readOnlyLocked() {
		s.mu.Unlock()
		return ErrLocked
	}
	if s.mode == models.ModeExam && !s.timerRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.content = content
	idle := s.status == StatusIdle
	dk := s.draftKey()
	s.scheduleAutosaveLocked()
	s.mu.Unlock()

	s.cacheDraft(ctx, dk, content)

	if idle {
		if _, err := s.ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SetResponse records the answer to one question. The first answer creates the attempt.
func (s *Session) SetResponse(ctx context.Context, resp models.Response) error {
	s.mu.Lock()
	if s.readOnlyLocked() {
		s.mu.Unlock()
		return ErrLocked
	}
	if s.mode == models.ModeExam && !s.timerRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.responses[resp.QuestionID] = resp
	idle := s.status == StatusIdle
	s.scheduleAutosaveLocked()
	s.mu.Unlock()

	if idle {
		if _, err := s.ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Start creates the attempt if needed and, in exam mode, starts the countdown.
// Starting twice is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.readOnlyLocked() {
		s.mu.Unlock()
		return ErrLocked
	}
	if s.timerRunning {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if _, err := s.ensure(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == models.ModeExam && !s.timerRunning && !s.readOnlyLocked() && s.secondsLeft > 0 {
		s.timerRunning = true
		s.tick = s.clock.AfterFunc(time.Second, s.onTick)
		s.logger.Info("Exam countdown started", "seconds_left", s.secondsLeft)
	}
	return nil
}

func (s *Session) onTick() {
	s.mu.Lock()
	if !s.timerRunning {
		s.mu.Unlock()
		return
	}
	s.secondsLeft--
	if s.secondsLeft > 0 {
		s.tick = s.clock.AfterFunc(time.Second, s.onTick)
		s.mu.Unlock()
		return
	}
	s.timerRunning = false
	s.tick = nil
	s.mu.Unlock()

	if err := s.Submit(context.Background(), ReasonTimeout); err != nil {
		s.logger.Error("Failed to auto-submit on timeout", "error", err)
	}
}

func (s *Session) stopTimerLocked() {
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
	s.timerRunning = false
}

func (s *Session) scheduleAutosaveLocked() {
	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
	}
	s.autosaveTimer = s.clock.AfterFunc(s.cfg.AutosaveDebounce, s.autosave)
}

func (s *Session) stopAutosaveLocked() {
	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
		s.autosaveTimer = nil
	}
}

func (s *Session) autosave() {
	s.mu.Lock()
	if s.status != StatusDraft || s.submitting || s.ref == nil {
		s.mu.Unlock()
		return
	}
	s.seq++
	draft := s.draftLocked()
	id := s.ref.SubmissionID
	s.autosaveTimer = nil
	s.mu.Unlock()

	if err := s.backend.Autosave(context.Background(), id, draft); err != nil {
		s.logger.Warn("Autosave failed", "submission_id", id, "seq", draft.Seq, "error", err)
		return
	}
	s.logger.Debug("Draft autosaved", "submission_id", id, "seq", draft.Seq)
}

func (s *Session) draftLocked() Draft {
	d := Draft{Content: s.content, Seq: s.seq}
	if len(s.responses) > 0 {
		d.Responses = make([]models.Response, 0, len(s.responses))
		for _, r := range s.responses {
			d.Responses = append(d.Responses, r)
		}
		sort.Slice(d.Responses, func(i, j int) bool {
			return d.Responses[i].QuestionID < d.Responses[j].QuestionID
		})
	}
	return d
}

// Submit is the single entry point for manual and timed-out submission. The
// session is read-only from the moment Submit starts; if the write fails it
// returns to draft so the learner can retry.
func (s *Session) Submit(ctx context.Context, reason SubmitReason) error {
	s.mu.Lock()
	switch {
	case s.status == StatusSubmitted || s.status == StatusReturned:
		s.mu.Unlock()
		return ErrAlreadySubmitted
	case s.submitting:
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.submitting = true
	resumeTimer := s.timerRunning
	s.stopTimerLocked()
	s.stopAutosaveLocked()
	s.mu.Unlock()

	s.logger.Info("Submitting attempt", "reason", reason)

	ref, err := s.ensure(ctx)
	if err == nil {
		s.mu.Lock()
		s.seq++
		draft := s.draftLocked()
		s.mu.Unlock()

		err = s.backend.Submit(ctx, ref.SubmissionID, draft, reason)
	}

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		if resumeTimer && s.secondsLeft > 0 {
			s.timerRunning = true
			s.tick = s.clock.AfterFunc(time.Second, s.onTick)
		}
		s.mu.Unlock()
		s.logger.Error("Failed to submit attempt", "reason", reason, "error", err)
		return fmt.Errorf("failed to submit: %w", err)
	}
	now := s.clock.Now()
	s.status = StatusSubmitted
	s.submittedAt = &now
	dk := s.draftKey()
	s.mu.Unlock()

	if s.drafts != nil {
		if err := s.drafts.Clear(ctx, dk); err != nil {
			s.logger.Warn("Failed to clear draft cache", "key", dk.String(), "error", err)
		}
	}

	s.logger.Info("Attempt submitted successfully", "submission_id", ref.SubmissionID, "reason", reason)
	return nil
}

// SetMode switches between practice and exam. It is refused while the countdown
// runs and after submission. Switching discards the unsent local state of the
// current mode and restores any cached draft of the new one.
func (s *Session) SetMode(ctx context.Context, mode models.AttemptMode) error {
	s.mu.Lock()
	if s.readOnlyLocked() {
		s.mu.Unlock()
		return ErrLocked
	}
	if s.timerRunning {
		s.mu.Unlock()
		return ErrTimerRunning
	}
	if mode == s.mode {
		s.mu.Unlock()
		return nil
	}
	s.stopTimerLocked()
	s.stopAutosaveLocked()
	s.mode = mode
	s.resetLocked()
	s.mu.Unlock()

	_, err := s.Restore(ctx)
	return err
}

// NewAttempt abandons local state and starts counting a fresh attempt.
// Feedback shown for the previous attempt is kept. An open draft must be
// submitted first, since the server resumes it instead of allocating the next
// attempt number.
func (s *Session) NewAttempt() error {
	s.mu.Lock()
	if s.timerRunning {
		s.mu.Unlock()
		return ErrTimerRunning
	}
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	if s.status == StatusDraft {
		s.mu.Unlock()
		return ErrDraftOpen
	}
	s.stopAutosaveLocked()
	key := s.key()
	s.attemptNumber++
	s.resetLocked()
	number := s.attemptNumber
	s.mu.Unlock()

	s.ensurer.Forget(key.String())
	s.logger.Info("New attempt", "attempt_number", number)
	return nil
}

func (s *Session) resetLocked() {
	s.status = StatusIdle
	s.ref = nil
	s.content = ""
	s.responses = make(map[string]models.Response)
	s.secondsLeft = s.cfg.TimerSeconds
	s.submittedAt = nil
	s.replay.Reset()
}

// Restore loads a cached draft for the current attempt into an idle session.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.drafts == nil {
		return false, nil
	}
	s.mu.Lock()
	dk := s.draftKey()
	s.mu.Unlock()

	content, ok, err := s.drafts.Load(ctx, dk)
	if err != nil {
		return false, fmt.Errorf("failed to load draft: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draftKey() != dk || s.readOnlyLocked() {
		return false, nil
	}
	s.content = content
	return true, nil
}

func (s *Session) cacheDraft(ctx context.Context, key DraftKey, content string) {
	if s.drafts == nil {
		return
	}
	if err := s.drafts.Save(ctx, key, content); err != nil {
		s.logger.Warn("Failed to cache draft", "key", key.String(), "error", err)
	}
}

// PlaybackEnded records a playback that reached the end of the recording.
func (s *Session) PlaybackEnded() int {
	return s.replay.Ended()
}

// ApplyFeedback attaches reviewer feedback and moves a submitted attempt to returned.
func (s *Session) ApplyFeedback(fb *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusSubmitted && s.status != StatusReturned {
		return ErrNotSubmitted
	}
	s.status = StatusReturned
	s.feedback = fb
	return nil
}

func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	wc := scoring.CountWords(s.content)
	st := State{
		Status:              s.status,
		Mode:                s.mode,
		PromptID:            s.cfg.PromptID,
		AttemptNumber:       s.attemptNumber,
		SecondsLeft:         s.secondsLeft,
		TimerRunning:        s.timerRunning,
		ReadOnly:            s.readOnlyLocked(),
		Plays:               s.replay.Plays(),
		CanPlay:             s.replay.CanPlay(),
		CanRevealTranscript: s.replay.CanRevealTranscript(s.mode),
		WordCount:           wc,
		SubmittedAt:         s.submittedAt,
		Feedback:            s.feedback,
	}
	if s.cfg.WordMin > 0 || s.cfg.WordMax > 0 {
		st.LengthViolation = !scoring.WithinBand(wc, s.cfg.WordMin, s.cfg.WordMax)
	}
	if s.ref != nil {
		st.SubmissionID = s.ref.SubmissionID
	}
	return st
}
