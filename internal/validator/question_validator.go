package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/cloze"
	apperrors "github.com/SAP-F-2025/practice-service/internal/errors"
	"github.com/SAP-F-2025/practice-service/internal/models"
)

// QuestionValidator checks authored question sets against their transcript and template.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateSet checks every draft and the set as a whole: MCQ carries four
// options and a correct index, each CLOZE gap is unique and present in the
// template, and OPEN evidence stays inside the transcript.
func (v *QuestionValidator) ValidateSet(drafts []models.QuestionDraft, template string, transcriptLength int) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors

	markers := make(map[int]bool)
	for _, m := range cloze.ParseMarkers(template) {
		markers[m.GapIndex] = true
	}
	gaps := make(map[int]int)

	for i, d := range drafts {
		field := func(name string) string { return fmt.Sprintf("questions[%d].%s", i, name) }

		switch d.Type {
		case models.QuestionMCQ:
			errs = append(errs, v.validateMCQ(d, field)...)
		case models.QuestionCloze:
			if d.GapIndex < 1 {
				errs = append(errs, *apperrors.NewValidationError(field("gap_index"), "must be at least 1", d.GapIndex))
				continue
			}
			if prev, dup := gaps[d.GapIndex]; dup {
				errs = append(errs, *apperrors.NewValidationError(field("gap_index"),
					fmt.Sprintf("duplicates gap of questions[%d]", prev), d.GapIndex))
			}
			gaps[d.GapIndex] = i
			if strings.TrimSpace(template) != "" && !markers[d.GapIndex] {
				errs = append(errs, *apperrors.NewValidationError(field("gap_index"), "has no marker in the cloze template", d.GapIndex))
			}
			if strings.TrimSpace(d.Answer) == "" {
				errs = append(errs, *apperrors.NewValidationError(field("answer"), "is required", nil))
			}
		case models.QuestionOpen:
			for j, e := range d.Evidence {
				if e.Start < 0 || e.End <= e.Start || e.End > transcriptLength {
					errs = append(errs, *apperrors.NewValidationError(field(fmt.Sprintf("evidence[%d]", j)),
						"must be a non-empty range inside the transcript", e))
				}
			}
		default:
			errs = append(errs, *apperrors.NewValidationErrorWithRule(field("type"), "must be MCQ, OPEN or CLOZE", "question_type", d.Type))
		}
	}

	return errs
}

func (v *QuestionValidator) validateMCQ(d models.QuestionDraft, field func(string) string) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors
	if len(d.Options) != models.MCQOptionCount {
		errs = append(errs, *apperrors.NewValidationError(field("options"),
			fmt.Sprintf("must have exactly %d options", models.MCQOptionCount), len(d.Options)))
	}
	for j, opt := range d.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, *apperrors.NewValidationError(field(fmt.Sprintf("options[%d]", j)), "is required", nil))
		}
	}
	if d.CorrectIndex == nil || *d.CorrectIndex < 0 || *d.CorrectIndex >= models.MCQOptionCount {
		errs = append(errs, *apperrors.NewValidationError(field("correct_index"),
			fmt.Sprintf("must be between 0 and %d", models.MCQOptionCount-1), d.CorrectIndex))
	}
	return errs
}
