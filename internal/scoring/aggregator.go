package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// Tally is the per-category count used by result breakdowns.
type Tally struct {
	Answered     int `json:"answered"`
	CorrectCount int `json:"correct_count"`
	AutoTotal    int `json:"auto_total"`
}

// Accuracy is CorrectCount over AutoTotal, or 0 when nothing was auto-scored.
func (t Tally) Accuracy() float64 {
	if t.AutoTotal == 0 {
		return 0
	}
	return float64(t.CorrectCount) / float64(t.AutoTotal)
}

type ItemResult struct {
	QuestionID  string              `json:"question_id"`
	Type        models.QuestionType `json:"type"`
	Answered    bool                `json:"answered"`
	IsCorrect   *bool               `json:"is_correct,omitempty"`
	NeedsReview bool                `json:"needs_review"`
}

type Result struct {
	Categories   map[models.QuestionType]Tally `json:"categories"`
	Items        []ItemResult                  `json:"items"`
	ManualReview []string                      `json:"manual_review"`
}

// Summary mirrors the result panel: correct counts per category plus the total.
type Summary struct {
	MCQ   int `json:"mcq_score"`
	Cloze int `json:"cloze_score"`
	Open  int `json:"open_score"`
	Total int `json:"total"`
}

func (r Result) Summary() Summary {
	s := Summary{
		MCQ:   r.Categories[models.QuestionMCQ].CorrectCount,
		Cloze: r.Categories[models.QuestionCloze].CorrectCount,
		Open:  r.Categories[models.QuestionOpen].CorrectCount,
	}
	s.Total = s.MCQ + s.Cloze + s.Open
	return s
}

// Aggregate scores responses against the answer keys. MCQ compares the selected
// letter exactly; CLOZE matches the expected answer or a variant; OPEN is never
// auto-scored and is listed for manual review. Questions whose key is missing
// are also sent to review.
func Aggregate(questions []models.Question, keys map[string]models.AnswerKey, responses []models.Response) (Result, error) {
	byQuestion := make(map[string]models.Response, len(responses))
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}

	ordered := make([]models.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	res := Result{
		Categories: map[models.QuestionType]Tally{
			models.QuestionMCQ:   {},
			models.QuestionCloze: {},
			models.QuestionOpen:  {},
		},
		ManualReview: []string{},
	}

	for i := range ordered {
		q := &ordered[i]
		payload, err := q.Payload()
		if err != nil {
			return Result{}, fmt.Errorf("question %s: %w", q.ID, err)
		}

		resp, hasResp := byQuestion[q.ID]
		key, hasKey := keys[q.ID]
		item := ItemResult{QuestionID: q.ID, Type: q.Type}
		tally := res.Categories[q.Type]

		switch payload.(type) {
		case models.MCQMeta:
			item.Answered = hasResp && resp.SelectedOption != nil && strings.TrimSpace(*resp.SelectedOption) != ""
			letter, ok := "", false
			if hasKey {
				letter, ok = key.CorrectLetter()
			}
			if !ok {
				item.NeedsReview = true
				break
			}
			tally.AutoTotal++
			correct := item.Answered && strings.TrimSpace(*resp.SelectedOption) == letter
			item.IsCorrect = &correct
			if correct {
				tally.CorrectCount++
			}
		case models.ClozeMeta:
			item.Answered = hasResp && resp.ResponseText != nil && strings.TrimSpace(*resp.ResponseText) != ""
			if !hasKey || strings.TrimSpace(key.Answer) == "" {
				item.NeedsReview = true
				break
			}
			tally.AutoTotal++
			correct := item.Answered && AnswerMatches(*resp.ResponseText, key.Answer, key.VariantList())
			item.IsCorrect = &correct
			if correct {
				tally.CorrectCount++
			}
		case models.OpenMeta:
			item.Answered = hasResp && resp.ResponseText != nil && strings.TrimSpace(*resp.ResponseText) != ""
			item.NeedsReview = true
		default:
			return Result{}, fmt.Errorf("question %s: unsupported payload %T", q.ID, payload)
		}

		if item.Answered {
			tally.Answered++
		}
		res.Categories[q.Type] = tally
		if item.NeedsReview {
			res.ManualReview = append(res.ManualReview, q.ID)
		}
		res.Items = append(res.Items, item)
	}

	return res, nil
}

// AreasToWork returns up to limit auto-scored categories below full marks,
// weakest first.
func AreasToWork(r Result, limit int) []models.QuestionType {
	var weak []models.QuestionType
	for _, c := range []models.QuestionType{models.QuestionMCQ, models.QuestionCloze} {
		t := r.Categories[c]
		if t.AutoTotal > 0 && t.CorrectCount < t.AutoTotal {
			weak = append(weak, c)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		return r.Categories[weak[i]].Accuracy() < r.Categories[weak[j]].Accuracy()
	})
	if len(weak) > limit {
		weak = weak[:limit]
	}
	return weak
}
