package scoring

import "strings"

// CountWords counts whitespace separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// WithinBand reports min <= count <= max. A zero max means no upper bound.
func WithinBand(count, min, max int) bool {
	if count < min {
		return false
	}
	return max <= 0 || count <= max
}
