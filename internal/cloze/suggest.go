package cloze

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSuggestLimit     = 10
	DefaultSuggestMinLength = 5
)

// DefaultStopWords are function words never offered as gaps.
var DefaultStopWords = []string{
	"the", "and", "for", "that", "with", "this", "from", "have", "they", "you",
	"your", "our", "are", "was", "were", "but", "not", "has", "had", "she",
	"him", "her", "their", "them", "his", "its", "it's", "of", "to", "in",
	"on", "as", "at", "by", "be", "or", "an", "a", "is", "it", "we", "i",
}

type SuggestOptions struct {
	StopWords []string
	Limit     int
	MinLength int
}

// DefaultSuggestOptions returns the authoring tool defaults.
func DefaultSuggestOptions() SuggestOptions {
	return SuggestOptions{
		StopWords: DefaultStopWords,
		Limit:     DefaultSuggestLimit,
		MinLength: DefaultSuggestMinLength,
	}
}

// Suggest picks candidate gaps: unique word tokens (first occurrence of each
// lower-case form) that are not stop words and have at least MinLength
// characters, longest first, at most Limit of them.
func Suggest(tokens []Token, opts SuggestOptions) []Span {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSuggestLimit
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultSuggestMinLength
	}

	stop := make(map[string]struct{}, len(opts.StopWords))
	for _, w := range opts.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var candidates []Token
	for _, t := range tokens {
		if !t.IsWord {
			continue
		}
		lower := strings.ToLower(t.Text)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		if _, isStop := stop[lower]; isStop {
			continue
		}
		if utf8.RuneCountInString(t.Text) < opts.MinLength {
			continue
		}
		candidates = append(candidates, t)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i].Text) > utf8.RuneCountInString(candidates[j].Text)
	})
	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	spans := make([]Span, 0, len(candidates))
	for _, t := range candidates {
		spans = append(spans, t.Span())
	}
	return spans
}

// ApplySuggestion replaces the selection with the suggested spans.
func ApplySuggestion(sel *Selection, tokens []Token, opts SuggestOptions) []Span {
	spans := Suggest(tokens, opts)
	sel.Replace(spans)
	return spans
}
