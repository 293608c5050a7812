package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeAnswer prepares a cloze answer for comparison: compatibility
// normalization and case folding, then punctuation is trimmed from both ends
// of each word and whitespace is collapsed. Inner apostrophes and hyphens stay,
// as do accents, since they are part of the spelling being tested.
func NormalizeAnswer(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if w = strings.TrimFunc(w, unicode.IsPunct); w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// AnswerMatches reports whether response equals the expected answer or one of
// its variants after normalization. An empty response never matches.
func AnswerMatches(response, expected string, variants []string) bool {
	got := NormalizeAnswer(response)
	if got == "" {
		return false
	}
	if got == NormalizeAnswer(expected) {
		return true
	}
	for _, v := range variants {
		if got == NormalizeAnswer(v) {
			return true
		}
	}
	return false
}
