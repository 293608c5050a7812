package cloze

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// markerPattern matches a gap marker. Whitespace inside the brackets is insignificant.
var markerPattern = regexp.MustCompile(`\[\s*(\d+)\s*\]`)

type SegmentKind string

const (
	SegmentLiteral SegmentKind = "literal"
	SegmentField   SegmentKind = "field"
)

// Segment is either literal text or an editable field bound to a question.
// A field whose gap has no bound question is Disabled.
type Segment struct {
	Kind       SegmentKind `json:"kind"`
	Text       string      `json:"text,omitempty"`
	GapIndex   int         `json:"gap_index,omitempty"`
	QuestionID string      `json:"question_id,omitempty"`
	Value      string      `json:"value,omitempty"`
	Disabled   bool        `json:"disabled,omitempty"`
}

// Binding ties a gap index to the cloze question answering it.
type Binding struct {
	GapIndex   int    `json:"gap_index"`
	QuestionID string `json:"question_id"`
	OrderIndex int    `json:"order_index"`
}

type Rendered struct {
	Segments []Segment `json:"segments"`
	// Fallback is set when the template had no markers and one plain field
	// per cloze question was produced instead.
	Fallback bool `json:"fallback"`
}

// Fields returns the field segments in display order.
func (r Rendered) Fields() []Segment {
	var fields []Segment
	for _, s := range r.Segments {
		if s.Kind == SegmentField {
			fields = append(fields, s)
		}
	}
	return fields
}

// MarkerRef is one marker occurrence in a template. Start and End are byte offsets.
type MarkerRef struct {
	GapIndex int
	Start    int
	End      int
}

// ParseMarkers lists marker occurrences in template order.
func ParseMarkers(template string) []MarkerRef {
	var refs []MarkerRef
	for _, m := range markerPattern.FindAllStringSubmatchIndex(template, -1) {
		idx, err := strconv.Atoi(template[m[2]:m[3]])
		if err != nil {
			continue
		}
		refs = append(refs, MarkerRef{GapIndex: idx, Start: m[0], End: m[1]})
	}
	return refs
}

// ContainsMarker reports whether text already holds marker-shaped content.
// Such text cannot be templated, since its brackets would render as fields.
func ContainsMarker(text string) bool {
	return markerPattern.MatchString(text)
}

func markerIndex(marker string) (int, bool) {
	sub := markerPattern.FindStringSubmatch(marker)
	if len(sub) < 2 {
		return 0, false
	}
	idx, err := strconv.Atoi(sub[1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

// Render turns a template into literal and field segments. values holds the
// current responses keyed by question id. A repeated marker index keeps only
// its first occurrence as a field; later ones stay literal.
func Render(template string, bindings []Binding, values map[string]string) Rendered {
	byGap := make(map[int]string, len(bindings))
	for _, b := range bindings {
		if _, ok := byGap[b.GapIndex]; !ok {
			byGap[b.GapIndex] = b.QuestionID
		}
	}

	refs := ParseMarkers(template)
	if len(refs) == 0 {
		if len(bindings) > 0 {
			return renderFallback(template, bindings, values)
		}
		return Rendered{Segments: literal(nil, template)}
	}

	var segments []Segment
	emitted := make(map[int]struct{}, len(refs))
	prev := 0
	for _, ref := range refs {
		if _, dup := emitted[ref.GapIndex]; dup {
			continue
		}
		emitted[ref.GapIndex] = struct{}{}

		segments = literal(segments, template[prev:ref.Start])
		field := Segment{Kind: SegmentField, GapIndex: ref.GapIndex}
		if qid, ok := byGap[ref.GapIndex]; ok {
			field.QuestionID = qid
			field.Value = values[qid]
		} else {
			field.Disabled = true
		}
		segments = append(segments, field)
		prev = ref.End
	}
	segments = literal(segments, template[prev:])

	return Rendered{Segments: segments}
}

func renderFallback(template string, bindings []Binding, values map[string]string) Rendered {
	ordered := make([]Binding, len(bindings))
	copy(ordered, bindings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	segments := literal(nil, template)
	for _, b := range ordered {
		segments = append(segments, Segment{
			Kind:       SegmentField,
			GapIndex:   b.GapIndex,
			QuestionID: b.QuestionID,
			Value:      values[b.QuestionID],
		})
	}
	return Rendered{Segments: segments, Fallback: true}
}

func literal(segments []Segment, text string) []Segment {
	if text == "" {
		return segments
	}
	return append(segments, Segment{Kind: SegmentLiteral, Text: text})
}

// PlainText renders the segments back to text, using field values (or the
// marker when empty) in place of fields.
func (r Rendered) PlainText() string {
	var b strings.Builder
	for _, s := range r.Segments {
		if s.Kind == SegmentLiteral {
			b.WriteString(s.Text)
			continue
		}
		if s.Value != "" {
			b.WriteString(s.Value)
		} else {
			b.WriteString(Marker(s.GapIndex))
		}
	}
	return b.String()
}
