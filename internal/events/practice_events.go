package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAttemptStarted      EventType = "attempt.started"
	EventSubmissionSubmitted EventType = "submission.submitted"
	EventSubmissionReturned  EventType = "submission.returned"
	EventReviewRequired      EventType = "review.required"
)

const (
	eventSource  = "practice-service"
	eventVersion = "1.0"
)

// PracticeEvent is the envelope every event is published in.
type PracticeEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Key       string                 `json:"-"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptStartedEvent struct {
	AttemptID     string    `json:"attempt_id"`
	SubmissionID  string    `json:"submission_id"`
	PromptID      string    `json:"prompt_id"`
	UserID        string    `json:"user_id"`
	Mode          string    `json:"mode"`
	AttemptNumber int       `json:"attempt_number"`
	StartedAt     time.Time `json:"started_at"`
}

type SubmissionSubmittedEvent struct {
	SubmissionID    string      `json:"submission_id"`
	AttemptID       string      `json:"attempt_id"`
	PromptID        string      `json:"prompt_id"`
	UserID          string      `json:"user_id"`
	Mode            string      `json:"mode"`
	Reason          string      `json:"reason"`
	WordCount       int         `json:"word_count,omitempty"`
	LengthViolation bool        `json:"length_violation,omitempty"`
	Scores          interface{} `json:"scores,omitempty"`
	SubmittedAt     time.Time   `json:"submitted_at"`
}

type SubmissionReturnedEvent struct {
	SubmissionID         string    `json:"submission_id"`
	UserID               string    `json:"user_id"`
	ReviewerID           string    `json:"reviewer_id"`
	OverallScore         float64   `json:"overall_score"`
	LengthPenaltyApplied bool      `json:"length_penalty_applied"`
	ReturnedAt           time.Time `json:"returned_at"`
}

type ReviewRequiredEvent struct {
	SubmissionID string   `json:"submission_id"`
	PromptID     string   `json:"prompt_id"`
	UserID       string   `json:"user_id"`
	QuestionIDs  []string `json:"question_ids"`
}

func newEvent(eventType EventType, key string, data interface{}) *PracticeEvent {
	return &PracticeEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Key:       key,
		Data:      data,
	}
}

func NewAttemptStartedEvent(data AttemptStartedEvent) *PracticeEvent {
	return newEvent(EventAttemptStarted, data.UserID, data)
}

func NewSubmissionSubmittedEvent(data SubmissionSubmittedEvent) *PracticeEvent {
	return newEvent(EventSubmissionSubmitted, data.UserID, data)
}

func NewSubmissionReturnedEvent(data SubmissionReturnedEvent) *PracticeEvent {
	return newEvent(EventSubmissionReturned, data.UserID, data)
}

func NewReviewRequiredEvent(data ReviewRequiredEvent) *PracticeEvent {
	return newEvent(EventReviewRequired, data.PromptID, data)
}
