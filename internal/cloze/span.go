package cloze

import "sort"

// Span is a contiguous run of transcript text chosen by an author.
// Two spans are the same selection when their offsets match.
type Span struct {
	Start int    `json:"start" validate:"min=0"`
	End   int    `json:"end" validate:"gtfield=Start"`
	Text  string `json:"text"`
}

type spanKey struct{ start, end int }

func (s Span) key() spanKey { return spanKey{s.Start, s.End} }

// Overlaps reports whether the two half-open ranges intersect.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Selection is an insertion-ordered set of spans keyed by offset pair.
type Selection struct {
	order []spanKey
	spans map[spanKey]Span
}

func NewSelection(spans ...Span) *Selection {
	sel := &Selection{spans: make(map[spanKey]Span)}
	for _, s := range spans {
		sel.Add(s)
	}
	return sel
}

// Add inserts span unless a span with the same offsets is already selected.
func (sel *Selection) Add(s Span) bool {
	if sel.spans == nil {
		sel.spans = make(map[spanKey]Span)
	}
	k := s.key()
	if _, ok := sel.spans[k]; ok {
		return false
	}
	sel.spans[k] = s
	sel.order = append(sel.order, k)
	return true
}

func (sel *Selection) Remove(s Span) bool {
	k := s.key()
	if _, ok := sel.spans[k]; !ok {
		return false
	}
	delete(sel.spans, k)
	for i, o := range sel.order {
		if o == k {
			sel.order = append(sel.order[:i], sel.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle flips a word token in or out of the selection and reports whether
// it is selected afterwards. Non-word tokens are ignored.
func (sel *Selection) Toggle(t Token) bool {
	if !t.IsWord {
		return false
	}
	if sel.Contains(t.Span()) {
		sel.Remove(t.Span())
		return false
	}
	sel.Add(t.Span())
	return true
}

func (sel *Selection) Contains(s Span) bool {
	_, ok := sel.spans[s.key()]
	return ok
}

// Replace discards the current selection and selects spans instead.
func (sel *Selection) Replace(spans []Span) {
	sel.order = nil
	sel.spans = make(map[spanKey]Span, len(spans))
	for _, s := range spans {
		sel.Add(s)
	}
}

func (sel *Selection) Clear() {
	sel.Replace(nil)
}

func (sel *Selection) Len() int {
	return len(sel.order)
}

// Spans returns the selected spans in insertion order.
func (sel *Selection) Spans() []Span {
	out := make([]Span, 0, len(sel.order))
	for _, k := range sel.order {
		out = append(out, sel.spans[k])
	}
	return out
}

// sortedByStart returns a copy of spans ordered by start offset. Ties keep input order.
func sortedByStart(spans []Span) []Span {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}
