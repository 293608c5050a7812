package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/cloze"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/scoring"
	"github.com/SAP-F-2025/practice-service/internal/session"
	"github.com/SAP-F-2025/practice-service/internal/storage"
)

// ===== SERVICE INTERFACES =====

type AuthoringService interface {
	BuildCloze(ctx context.Context, req *BuildClozeRequest) (*cloze.Template, error)
	SuggestGaps(ctx context.Context, req *SuggestGapsRequest) (*SuggestGapsResponse, error)
	PublishListeningTest(ctx context.Context, req *CreateListeningTestRequest, authorID string) (*models.Prompt, error)
	CreateWritingPrompt(ctx context.Context, req *CreateWritingPromptRequest, authorID string) (*models.Prompt, error)
	CreatePromptVersion(ctx context.Context, promptID string, req *CreatePromptVersionRequest, authorID string) (*models.PromptVersion, error)
}

type ListeningService interface {
	GetTest(ctx context.Context, promptID string) (*ListeningTestResponse, error)
	StartAttempt(ctx context.Context, promptID string, req *StartAttemptRequest, userID string) (*AttemptResponse, error)
	RecordPlayback(ctx context.Context, submissionID, userID string) (*PlaybackResponse, error)
	RevealTranscript(ctx context.Context, submissionID, userID string) (*TranscriptResponse, error)
	AudioURL(ctx context.Context, submissionID, userID string) (*storage.SignedURL, error)
	RedeemAudio(ctx context.Context, token string) (string, error)
	Autosave(ctx context.Context, submissionID string, req *AutosaveRequest, userID string) (*AutosaveResponse, error)
	Submit(ctx context.Context, submissionID string, req *SubmitRequest, userID string) (*SubmissionResult, error)
}

type WritingService interface {
	GetPrompt(ctx context.Context, promptID string) (*WritingPromptResponse, error)
	StartAttempt(ctx context.Context, promptID string, req *StartAttemptRequest, userID string) (*AttemptResponse, error)
	Autosave(ctx context.Context, submissionID string, req *AutosaveRequest, userID string) (*AutosaveResponse, error)
	Submit(ctx context.Context, submissionID string, req *SubmitRequest, userID string) (*SubmissionResult, error)
	LatestFeedback(ctx context.Context, submissionID, userID string) (*FeedbackResponse, error)
}

type ReviewService interface {
	Queue(ctx context.Context, req *ReviewQueueRequest) (*ReviewQueueResponse, error)
	ReturnFeedback(ctx context.Context, submissionID string, req *ReturnFeedbackRequest, reviewerID string) (*FeedbackResponse, error)
}

type ExportService interface {
	ExportResults(ctx context.Context, req *models.ExportRequest, w io.Writer) (*models.ExportSummary, error)
}

// ===== AUTHORING DTOs =====

type BuildClozeRequest struct {
	Transcript string       `json:"transcript" validate:"required"`
	Spans      []cloze.Span `json:"spans" validate:"dive"`
}

type SuggestGapsRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	Limit      int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

type SuggestGapsResponse struct {
	Spans    []cloze.Span   `json:"spans"`
	Template cloze.Template `json:"template"`
}

type CreateListeningTestRequest struct {
	Title            string                 `json:"title" validate:"required,min=1,max=200"`
	Genre            *string                `json:"genre" validate:"omitempty,max=100"`
	Transcript       string                 `json:"transcript" validate:"required"`
	AudioStoragePath string                 `json:"audio_storage_path" validate:"required,max=500"`
	SourceURL        *string                `json:"source_url" validate:"omitempty,url"`
	Spans            []cloze.Span           `json:"spans" validate:"dive"`
	ClozeTemplate    string                 `json:"cloze_template"`
	Questions        []models.QuestionDraft `json:"questions" validate:"required,min=1,dive"`
	Tags             []string               `json:"tags"`
	Publish          bool                   `json:"publish"`
}

type CreateWritingPromptRequest struct {
	TaskType     models.TaskType `json:"task_type" validate:"required,task_type"`
	Title        string          `json:"title" validate:"required,min=1,max=200"`
	Genre        *string         `json:"genre" validate:"omitempty,max=100"`
	PromptText   string          `json:"prompt_text" validate:"required"`
	WordMin      *int            `json:"word_min" validate:"omitempty,min=1"`
	WordMax      *int            `json:"word_max" validate:"omitempty,min=1"`
	TimerSeconds *int            `json:"timer_seconds" validate:"omitempty,min=60"`
	Tags         []string        `json:"tags"`
	Publish      bool            `json:"publish"`
}

type CreatePromptVersionRequest struct {
	PromptText   string `json:"prompt_text" validate:"required"`
	WordMin      *int   `json:"word_min" validate:"omitempty,min=1"`
	WordMax      *int   `json:"word_max" validate:"omitempty,min=1"`
	TimerSeconds *int   `json:"timer_seconds" validate:"omitempty,min=60"`
}

// ===== PRACTICE DTOs =====

type StartAttemptRequest struct {
	Mode models.AttemptMode `json:"mode" validate:"required,attempt_mode"`
}

// QuestionView is a question as a learner sees it: no keys, no evidence.
type QuestionView struct {
	ID         string              `json:"id"`
	Type       models.QuestionType `json:"type"`
	StemText   string              `json:"stem_text"`
	OrderIndex int                 `json:"order_index"`
	Options    []string            `json:"options,omitempty"`
	GapIndex   int                 `json:"gap_index,omitempty"`
}

type ListeningTestResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Genre         *string         `json:"genre,omitempty"`
	ClozeTemplate string          `json:"cloze_template"`
	Segments      []cloze.Segment `json:"segments"`
	ClozeFallback bool            `json:"cloze_fallback"`
	TimerSeconds  int             `json:"timer_seconds"`
	MaxPlays      int             `json:"max_plays"`
	Questions     []QuestionView  `json:"questions"`
}

type WritingPromptResponse struct {
	ID           string          `json:"id"`
	TaskType     models.TaskType `json:"task_type"`
	Title        string          `json:"title"`
	Genre        *string         `json:"genre,omitempty"`
	PromptText   string          `json:"prompt_text"`
	VersionID    *string         `json:"version_id,omitempty"`
	WordMin      int             `json:"word_min"`
	WordMax      int             `json:"word_max"`
	TimerSeconds int             `json:"timer_seconds"`
}

type AttemptResponse struct {
	session.AttemptRef
	PromptID     string                  `json:"prompt_id"`
	Mode         models.AttemptMode      `json:"mode"`
	Status       models.SubmissionStatus `json:"status"`
	Resumed      bool                    `json:"resumed"`
	ContentText  string                  `json:"content_text,omitempty"`
	Responses    []models.Response       `json:"responses,omitempty"`
	AutosaveSeq  int64                   `json:"autosave_seq"`
	PlayCount    int                     `json:"play_count"`
	TimerSeconds int                     `json:"timer_seconds"`
	WordMin      int                     `json:"word_min,omitempty"`
	WordMax      int                     `json:"word_max,omitempty"`
	StartedAt    time.Time               `json:"started_at"`
}

type AutosaveRequest struct {
	ContentText string            `json:"content_text"`
	Responses   []models.Response `json:"responses" validate:"dive"`
	Seq         int64             `json:"seq" validate:"min=1"`
}

// AutosaveResponse reports whether the write was kept. A write with a seq
// not newer than the stored one is ignored.
type AutosaveResponse struct {
	Accepted  bool  `json:"accepted"`
	Seq       int64 `json:"seq"`
	WordCount int   `json:"word_count"`
}

type SubmitRequest struct {
	ContentText string               `json:"content_text"`
	Responses   []models.Response    `json:"responses" validate:"dive"`
	Seq         int64                `json:"seq" validate:"min=0"`
	Reason      session.SubmitReason `json:"reason" validate:"omitempty,oneof=manual timeout"`
}

type SubmissionResult struct {
	SubmissionID    string                  `json:"submission_id"`
	Status          models.SubmissionStatus `json:"status"`
	SubmittedAt     time.Time               `json:"submitted_at"`
	WordCount       int                     `json:"word_count,omitempty"`
	LengthViolation bool                    `json:"length_violation,omitempty"`
	Scores          *scoring.Summary        `json:"scores,omitempty"`
	Items           []scoring.ItemResult    `json:"items,omitempty"`
	AreasToWork     []models.QuestionType   `json:"areas_to_work,omitempty"`
	NeedsReview     bool                    `json:"needs_review"`
}

type PlaybackResponse struct {
	PlayCount           int  `json:"play_count"`
	MaxPlays            int  `json:"max_plays"`
	CanPlay             bool `json:"can_play"`
	CanRevealTranscript bool `json:"can_reveal_transcript"`
}

type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

// ===== REVIEW DTOs =====

type ReviewQueueRequest struct {
	Limit  int `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}

type ReviewQueueResponse struct {
	Submissions []*models.Submission `json:"submissions"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

type ReturnFeedbackRequest struct {
	Rubric   map[string]float64 `json:"rubric" validate:"required,len=4,dive,keys,oneof=TaskAchievement Coherence Lexical Grammar,endkeys,rubric_score"`
	Comments string             `json:"comments" validate:"max=10000"`
}

type FeedbackResponse struct {
	ID                   string             `json:"id"`
	SubmissionID         string             `json:"submission_id"`
	Rubric               map[string]float64 `json:"rubric"`
	OverallScore         float64            `json:"overall_score"`
	LengthPenaltyApplied bool               `json:"length_penalty_applied"`
	Comments             string             `json:"comments"`
	ReviewerID           string             `json:"reviewer_id"`
	CreatedAt            time.Time          `json:"created_at"`
}
