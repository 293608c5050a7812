package cloze

import (
	"fmt"
	"strings"
)

// DropReason explains why the builder did not turn a span into a gap.
type DropReason string

const (
	DropOverlap    DropReason = "overlap"
	DropOutOfRange DropReason = "out_of_range"
)

// GapItem is one gap of a built template. GapIndex is 1-based and sequential.
type GapItem struct {
	GapIndex   int    `json:"gap_index"`
	AnswerText string `json:"answer_text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

type DroppedSpan struct {
	Span   Span       `json:"span"`
	Reason DropReason `json:"reason"`
}

// Template is the serializable gap template plus its answer key.
type Template struct {
	Text     string        `json:"template"`
	GapItems []GapItem     `json:"gap_items"`
	Dropped  []DroppedSpan `json:"dropped,omitempty"`
}

// Marker renders the in-template placeholder for a gap.
func Marker(gapIndex int) string {
	return fmt.Sprintf("[ %d ]", gapIndex)
}

// Build replaces every retained span of transcript with a gap marker. Spans are
// placed in start order; a span starting before the end of an already placed span
// is skipped and reported in Dropped. Answers are taken from the transcript itself
// so that re-inserting them reconstructs the original text.
func Build(transcript string, spans []Span) Template {
	runes := []rune(transcript)

	seen := make(map[spanKey]struct{}, len(spans))
	unique := make([]Span, 0, len(spans))
	var dropped []DroppedSpan
	for _, s := range spans {
		if _, ok := seen[s.key()]; ok {
			continue
		}
		seen[s.key()] = struct{}{}
		if s.Start < 0 || s.End > len(runes) || s.Start >= s.End {
			dropped = append(dropped, DroppedSpan{Span: s, Reason: DropOutOfRange})
			continue
		}
		unique = append(unique, s)
	}

	var b strings.Builder
	items := make([]GapItem, 0, len(unique))
	cursor := 0
	for _, s := range sortedByStart(unique) {
		if s.Start < cursor {
			dropped = append(dropped, DroppedSpan{Span: s, Reason: DropOverlap})
			continue
		}
		b.WriteString(string(runes[cursor:s.Start]))

		idx := len(items) + 1
		b.WriteString(Marker(idx))
		items = append(items, GapItem{
			GapIndex:   idx,
			AnswerText: string(runes[s.Start:s.End]),
			Start:      s.Start,
			End:        s.End,
		})
		cursor = s.End
	}
	b.WriteString(string(runes[cursor:]))

	return Template{
		Text:     b.String(),
		GapItems: items,
		Dropped:  dropped,
	}
}

// Fill substitutes each marker with the answer of its gap. Markers without an
// answer are left untouched.
func Fill(template string, answers map[int]string) string {
	return markerPattern.ReplaceAllStringFunc(template, func(m string) string {
		idx, ok := markerIndex(m)
		if !ok {
			return m
		}
		if a, found := answers[idx]; found {
			return a
		}
		return m
	})
}

// Answers indexes gap items by gap index.
func (t Template) Answers() map[int]string {
	out := make(map[int]string, len(t.GapItems))
	for _, g := range t.GapItems {
		out[g.GapIndex] = g.AnswerText
	}
	return out
}
