package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMCQ   QuestionType = "MCQ"
	QuestionOpen  QuestionType = "OPEN"
	QuestionCloze QuestionType = "CLOZE"
)

// MCQOptionCount is the number of choices every multiple choice question carries.
const MCQOptionCount = 4

// Question is the student-visible part of a question. Answer keys live in AnswerKey.
type Question struct {
	ID         string         `json:"id" gorm:"primaryKey;type:uuid"`
	PromptID   string         `json:"prompt_id" gorm:"not null;type:uuid;index"`
	Type       QuestionType   `json:"type" gorm:"not null;size:10" validate:"required,question_type"`
	StemText   string         `json:"stem_text" gorm:"type:text"`
	OrderIndex int            `json:"order_index" gorm:"not null;default:0"`
	Meta       datatypes.JSON `json:"meta" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}

// QuestionPayload is the variant-specific part of a question.
type QuestionPayload interface {
	QuestionType() QuestionType
}

type MCQMeta struct {
	Options []string `json:"options"`
}

type ClozeMeta struct {
	GapIndex int `json:"gap_index"`
}

// EvidenceSpan points into the transcript. Informational only.
type EvidenceSpan struct {
	Start int    `json:"start_idx"`
	End   int    `json:"end_idx"`
	Note  string `json:"note,omitempty"`
}

type OpenMeta struct {
	Evidence []EvidenceSpan `json:"evidence,omitempty"`
}

func (MCQMeta) QuestionType() QuestionType   { return QuestionMCQ }
func (ClozeMeta) QuestionType() QuestionType { return QuestionCloze }
func (OpenMeta) QuestionType() QuestionType  { return QuestionOpen }

// Payload decodes Meta into the struct matching Type.
func (q *Question) Payload() (QuestionPayload, error) {
	switch q.Type {
	case QuestionMCQ:
		var m MCQMeta
		if err := decodeMeta(q.Meta, &m); err != nil {
			return nil, err
		}
		return m, nil
	case QuestionCloze:
		var m ClozeMeta
		if err := decodeMeta(q.Meta, &m); err != nil {
			return nil, err
		}
		return m, nil
	case QuestionOpen:
		var m OpenMeta
		if err := decodeMeta(q.Meta, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", q.Type)
	}
}

func decodeMeta(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode question meta: %w", err)
	}
	return nil
}

// NewQuestion builds a question row from a typed payload.
func NewQuestion(id, promptID, stem string, order int, payload QuestionPayload) (*Question, error) {
	meta, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question meta: %w", err)
	}
	return &Question{
		ID:         id,
		PromptID:   promptID,
		Type:       payload.QuestionType(),
		StemText:   stem,
		OrderIndex: order,
		Meta:       datatypes.JSON(meta),
	}, nil
}

// AnswerKey is the authoritative answer for a question and is never sent to learners.
type AnswerKey struct {
	QuestionID   string         `json:"question_id" gorm:"primaryKey;type:uuid"`
	CorrectIndex *int           `json:"correct_index"`
	Answer       string         `json:"answer" gorm:"type:text"`
	Variants     datatypes.JSON `json:"variants" gorm:"type:jsonb"` // []string
}

func (AnswerKey) TableName() string {
	return "answer_keys"
}

// CorrectLetter maps the 0-based correct index to its option letter (A-D).
func (k *AnswerKey) CorrectLetter() (string, bool) {
	if k.CorrectIndex == nil || *k.CorrectIndex < 0 || *k.CorrectIndex >= MCQOptionCount {
		return "", false
	}
	return OptionLetter(*k.CorrectIndex), true
}

// VariantList decodes the accepted alternative answers.
func (k *AnswerKey) VariantList() []string {
	var variants []string
	if len(k.Variants) == 0 {
		return nil
	}
	if err := json.Unmarshal(k.Variants, &variants); err != nil {
		return nil
	}
	return variants
}

// OptionLetter returns "A" for 0, "B" for 1 and so on.
func OptionLetter(index int) string {
	return string(rune('A' + index))
}
