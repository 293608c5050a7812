package models

// QuestionDraft is an authored question before it is split into a Question
// and its AnswerKey. Only the fields of its Type are meaningful.
type QuestionDraft struct {
	Type       QuestionType `json:"type" validate:"required,question_type"`
	StemText   string       `json:"stem_text" validate:"max=2000"`
	OrderIndex int          `json:"order_index" validate:"min=0"`

	// MCQ
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`

	// CLOZE
	GapIndex int `json:"gap_index,omitempty"`

	// CLOZE and OPEN
	Answer   string   `json:"answer,omitempty"`
	Variants []string `json:"variants,omitempty"`

	// OPEN
	Evidence []EvidenceSpan `json:"evidence,omitempty"`
}

// Payload returns the student-visible variant payload of the draft.
func (d QuestionDraft) Payload() QuestionPayload {
	switch d.Type {
	case QuestionMCQ:
		return MCQMeta{Options: d.Options}
	case QuestionCloze:
		return ClozeMeta{GapIndex: d.GapIndex}
	default:
		return OpenMeta{Evidence: d.Evidence}
	}
}
