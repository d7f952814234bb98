// Package tokenizer normalises raw page text into index terms. It
// lower-cases alphanumeric runes, replaces every other non-whitespace rune
// with a single space, and splits on whitespace. There is deliberately no
// stop-word removal and no stemming: the same text must always produce the
// same term sequence, and a query term must match a page term byte for byte.
package tokenizer

import (
	"strings"
	"unicode"
)

// Normalize lower-cases alphanumeric runes and replaces every rune that is
// neither alphanumeric nor whitespace with a single space. Whitespace runs
// are kept as-is; splitting happens in Tokenize.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Tokenize splits normalised text on whitespace, discarding empty tokens.
// The returned terms preserve left-to-right input order. Empty input yields
// an empty slice.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}
