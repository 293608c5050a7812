package cloze

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// tokenPattern splits text into word runs, whitespace runs and everything else.
// A word starts with a letter and may carry interior apostrophes or hyphens.
var tokenPattern = regexp.MustCompile(`\p{L}[\p{L}\p{M}'’-]*|\s+|[^\s\p{L}]+`)

// Token is a slice of a transcript addressed by half-open character offsets.
type Token struct {
	Text   string `json:"text"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	IsWord bool   `json:"is_word"`
}

// Span returns the token as a selectable span.
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.End, Text: t.Text}
}

// Tokenize partitions text into tokens. Offsets count characters (runes), not bytes,
// and the tokens cover the input with no gaps or overlaps.
func Tokenize(text string) []Token {
	matches := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(matches))

	runeOffset := 0
	byteOffset := 0
	for _, m := range matches {
		// The pattern is total over its alphabet, so matches are contiguous.
		runeOffset += utf8.RuneCountInString(text[byteOffset:m[0]])
		chunk := text[m[0]:m[1]]
		n := utf8.RuneCountInString(chunk)

		first, _ := utf8.DecodeRuneInString(chunk)
		tokens = append(tokens, Token{
			Text:   chunk,
			Start:  runeOffset,
			End:    runeOffset + n,
			IsWord: unicode.IsLetter(first),
		})

		runeOffset += n
		byteOffset = m[1]
	}

	return tokens
}

// Words returns only the word tokens.
func Words(tokens []Token) []Token {
	words := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.IsWord {
			words = append(words, t)
		}
	}
	return words
}
