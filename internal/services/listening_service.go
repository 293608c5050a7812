package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/SAP-F-2025/practice-service/internal/cloze"
	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/repositories"
	"github.com/SAP-F-2025/practice-service/internal/scoring"
	"github.com/SAP-F-2025/practice-service/internal/session"
	"github.com/SAP-F-2025/practice-service/internal/storage"
	"github.com/SAP-F-2025/practice-service/internal/validator"
	"gorm.io/datatypes"
)

// areasToWorkLimit caps how many weak categories a result lists.
const areasToWorkLimit = 2

type listeningService struct {
	*practiceFlow
	signer   *storage.AudioSigner
	maxPlays int
}

func NewListeningService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	signer *storage.AudioSigner,
	maxPlays int,
	logger *slog.Logger,
	validator *validator.Validator,
) ListeningService {
	if maxPlays <= 0 {
		maxPlays = session.DefaultMaxPlays
	}
	return &listeningService{
		practiceFlow: newPracticeFlow(repo, publisher, logger, validator),
		signer:       signer,
		maxPlays:     maxPlays,
	}
}

// scoreRecord is what gets stored in Submission.ScoreBreakdown.
type scoreRecord struct {
	Summary     scoring.Summary       `json:"summary"`
	Items       []scoring.ItemResult  `json:"items"`
	AreasToWork []models.QuestionType `json:"areas_to_work"`
}

func (s *listeningService) GetTest(ctx context.Context, promptID string) (*ListeningTestResponse, error) {
	prompt, err := s.publishedPrompt(ctx, promptID, models.PromptListening)
	if err != nil {
		return nil, err
	}
	questions, err := s.repo.Question().GetByPrompt(ctx, nil, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	settings, _, err := s.settings(ctx, prompt)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, 0, len(questions))
	var bindings []cloze.Binding
	for _, q := range questions {
		view, err := questionView(q)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
		if q.Type == models.QuestionCloze {
			bindings = append(bindings, cloze.Binding{GapIndex: view.GapIndex, QuestionID: q.ID, OrderIndex: q.OrderIndex})
		}
	}
	rendered := cloze.Render(prompt.ClozeTemplate, bindings, nil)

	return &ListeningTestResponse{
		ID:            prompt.ID,
		Title:         prompt.Title,
		Genre:         prompt.Genre,
		ClozeTemplate: prompt.ClozeTemplate,
		Segments:      rendered.Segments,
		ClozeFallback: rendered.Fallback,
		TimerSeconds:  settings.TimerSeconds,
		MaxPlays:      s.maxPlays,
		Questions:     views,
	}, nil
}

// questionView strips everything a learner must not see.
func questionView(q *models.Question) (QuestionView, error) {
	view := QuestionView{
		ID:         q.ID,
		Type:       q.Type,
		StemText:   q.StemText,
		OrderIndex: q.OrderIndex,
	}
	payload, err := q.Payload()
	if err != nil {
		return QuestionView{}, err
	}
	switch p := payload.(type) {
	case models.MCQMeta:
		view.Options = p.Options
	case models.ClozeMeta:
		view.GapIndex = p.GapIndex
	}
	return view, nil
}

func (s *listeningService) StartAttempt(ctx context.Context, promptID string, req *StartAttemptRequest, userID string) (*AttemptResponse, error) {
	s.logger.Info("Starting listening attempt",
		"prompt_id", promptID,
		"user_id", userID,
		"mode", req.Mode)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	prompt, err := s.publishedPrompt(ctx, promptID, models.PromptListening)
	if err != nil {
		return nil, err
	}
	return s.startAttempt(ctx, prompt, req.Mode, userID)
}

func (s *listeningService) playbackState(sub *models.Submission) *PlaybackResponse {
	gate := session.NewReplayGate(s.maxPlays)
	for i := 0; i < sub.PlayCount; i++ {
		gate.Ended()
	}
	return &PlaybackResponse{
		PlayCount:           gate.Plays(),
		MaxPlays:            s.maxPlays,
		CanPlay:             gate.CanPlay(),
		CanRevealTranscript: gate.CanRevealTranscript(sub.Mode),
	}
}

// RecordPlayback counts one completed playback and refuses once the limit is
// reached, whatever the mode.
func (s *listeningService) RecordPlayback(ctx context.Context, submissionID, userID string) (*PlaybackResponse, error) {
	sub, err := s.ownedSubmission(ctx, submissionID, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsDraft() {
		return nil, ErrSubmissionNotDraft
	}

	changed, err := s.repo.Submission().IncrementPlayCount(ctx, nil, submissionID, s.maxPlays)
	if err != nil {
		return nil, fmt.Errorf("failed to record playback: %w", err)
	}
	if !changed {
		return nil, newPlayLimitError(s.maxPlays)
	}

	sub.PlayCount++
	return s.playbackState(sub), nil
}

func (s *listeningService) RevealTranscript(ctx context.Context, submissionID, userID string) (*TranscriptResponse, error) {
	sub, err := s.ownedSubmission(ctx, submissionID, userID)
	if err != nil {
		return nil, err
	}
	if !s.playbackState(sub).CanRevealTranscript {
		return nil, ErrTranscriptLocked
	}

	prompt, err := s.repo.Prompt().GetByID(ctx, nil, sub.PromptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &TranscriptResponse{Transcript: prompt.TranscriptText}, nil
}

// AudioURL issues a single-use link to the recording while plays remain.
func (s *listeningService) AudioURL(ctx context.Context, submissionID, userID string) (*storage.SignedURL, error) {
	sub, err := s.ownedSubmission(ctx, submissionID, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsDraft() {
		return nil, ErrSubmissionNotDraft
	}
	if !s.playbackState(sub).CanPlay {
		return nil, ErrPlayLimitReached
	}

	prompt, err := s.repo.Prompt().GetByID(ctx, nil, sub.PromptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	signed, err := s.signer.Sign(prompt.AudioStoragePath, userID)
	if err != nil {
		return nil, err
	}
	return &signed, nil
}

func (s *listeningService) RedeemAudio(ctx context.Context, token string) (string, error) {
	path, err := s.signer.Redeem(ctx, token)
	switch {
	case errors.Is(err, storage.ErrTokenUsed):
		return "", ErrAudioURLUsed
	case errors.Is(err, storage.ErrTokenInvalid):
		return "", ErrAudioURLInvalid
	case err != nil:
		return "", err
	}
	return path, nil
}

func (s *listeningService) Autosave(ctx context.Context, submissionID string, req *AutosaveRequest, userID string) (*AutosaveResponse, error) {
	return s.autosave(ctx, submissionID, req, userID)
}

// Submit scores MCQ and CLOZE answers and queues OPEN answers for review.
func (s *listeningService) Submit(ctx context.Context, submissionID string, req *SubmitRequest, userID string) (*SubmissionResult, error) {
	s.logger.Info("Submitting listening attempt",
		"submission_id", submissionID,
		"user_id", userID,
		"reason", req.Reason)

	sub, err := s.prepareSubmit(ctx, submissionID, req, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().GetByPrompt(ctx, nil, sub.PromptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	ids := make([]string, len(questions))
	values := make([]models.Question, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		values[i] = *q
	}
	keys, err := s.repo.Question().GetAnswerKeys(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get answer keys: %w", err)
	}

	result, err := scoring.Aggregate(values, keys, req.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to score submission: %w", err)
	}
	record := scoreRecord{
		Summary:     result.Summary(),
		Items:       result.Items,
		AreasToWork: scoring.AreasToWork(result, areasToWorkLimit),
	}
	breakdown, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scores: %w", err)
	}
	responses, err := models.EncodeResponses(req.Responses)
	if err != nil {
		return nil, err
	}

	submittedAt := s.now()
	needsReview := len(result.ManualReview) > 0
	err = s.markSubmitted(ctx, sub, repositories.SubmitUpdate{
		ContentText:    req.ContentText,
		Responses:      responses,
		WordCount:      scoring.CountWords(req.ContentText),
		ScoreBreakdown: datatypes.JSON(breakdown),
		NeedsReview:    needsReview,
		Seq:            req.Seq,
		SubmittedAt:    submittedAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Listening attempt submitted successfully",
		"submission_id", sub.ID,
		"total", record.Summary.Total,
		"manual_review", len(result.ManualReview))

	s.publish(ctx, events.NewSubmissionSubmittedEvent(events.SubmissionSubmittedEvent{
		SubmissionID: sub.ID,
		AttemptID:    sub.AttemptID,
		PromptID:     sub.PromptID,
		UserID:       userID,
		Mode:         string(sub.Mode),
		Reason:       string(req.Reason),
		Scores:       record.Summary,
		SubmittedAt:  submittedAt,
	}))
	if needsReview {
		s.publish(ctx, events.NewReviewRequiredEvent(events.ReviewRequiredEvent{
			SubmissionID: sub.ID,
			PromptID:     sub.PromptID,
			UserID:       userID,
			QuestionIDs:  result.ManualReview,
		}))
	}

	out := &SubmissionResult{
		SubmissionID: sub.ID,
		Status:       models.SubmissionSubmitted,
		SubmittedAt:  submittedAt,
		NeedsReview:  needsReview,
	}
	// Exam results are released after review; the breakdown stays stored.
	if sub.Mode == models.ModePractice {
		out.Scores = &record.Summary
		out.Items = record.Items
		out.AreasToWork = record.AreasToWork
	}
	return out, nil
}

// transcriptLength is the transcript size in characters, the unit span offsets use.
func transcriptLength(transcript string) int {
	return utf8.RuneCountInString(transcript)
}
