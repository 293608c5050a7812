package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type AttemptMode string

const (
	ModePractice AttemptMode = "practice"
	ModeExam     AttemptMode = "exam"
)

type SubmissionStatus string

const (
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionReturned  SubmissionStatus = "returned"
)

// Attempt is one engagement of a learner with a prompt in a given mode.
type Attempt struct {
	ID            string      `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        string      `json:"user_id" gorm:"not null;size:255;index:idx_attempt_owner"`
	PromptID      string      `json:"prompt_id" gorm:"not null;type:uuid;index:idx_attempt_owner"`
	VersionID     *string     `json:"version_id" gorm:"type:uuid"`
	Mode          AttemptMode `json:"mode" gorm:"not null;size:20;index:idx_attempt_owner" validate:"required,attempt_mode"`
	AttemptNumber int         `json:"attempt_number" gorm:"not null;default:1"`
	StartedAt     time.Time   `json:"started_at"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// Response is a learner answer to one question. MCQ uses SelectedOption,
// CLOZE and OPEN use ResponseText.
type Response struct {
	QuestionID     string  `json:"question_id" validate:"required"`
	SelectedOption *string `json:"selected_option,omitempty" validate:"omitempty,option_letter"`
	ResponseText   *string `json:"response_text,omitempty"`
}

// Submission carries the content of an attempt through review.
type Submission struct {
	ID              string           `json:"id" gorm:"primaryKey;type:uuid"`
	AttemptID       string           `json:"attempt_id" gorm:"not null;type:uuid;uniqueIndex"`
	UserID          string           `json:"user_id" gorm:"not null;size:255;index"`
	PromptID        string           `json:"prompt_id" gorm:"not null;type:uuid;index"`
	AttemptNumber   int              `json:"attempt_number" gorm:"not null;default:1"`
	Mode            AttemptMode      `json:"mode" gorm:"not null;size:20"`
	Status          SubmissionStatus `json:"status" gorm:"not null;size:20;default:draft;index"`
	ContentText     string           `json:"content_text" gorm:"type:text"`
	Responses       datatypes.JSON   `json:"responses" gorm:"type:jsonb"` // []Response
	WordCount       int              `json:"word_count" gorm:"default:0"`
	LengthViolation bool             `json:"length_violation" gorm:"default:false"`
	AutosaveSeq     int64            `json:"autosave_seq" gorm:"default:0"`
	PlayCount       int              `json:"play_count" gorm:"default:0"`
	ScoreBreakdown  datatypes.JSON   `json:"score_breakdown" gorm:"type:jsonb"`
	NeedsReview     bool             `json:"needs_review" gorm:"default:false;index"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ReturnedAt  *time.Time `json:"returned_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) IsDraft() bool {
	return s.Status == SubmissionDraft
}

// ResponseList decodes the stored responses.
func (s *Submission) ResponseList() ([]Response, error) {
	if len(s.Responses) == 0 {
		return nil, nil
	}
	var out []Response
	if err := json.Unmarshal(s.Responses, &out); err != nil {
		return nil, fmt.Errorf("failed to decode responses: %w", err)
	}
	return out, nil
}

func EncodeResponses(responses []Response) (datatypes.JSON, error) {
	if responses == nil {
		responses = []Response{}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}
	return datatypes.JSON(raw), nil
}
