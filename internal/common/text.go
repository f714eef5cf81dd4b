package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks from a string (é -> e, ç -> c).
func StripDiacritics(s string) string {
	// A transform chain is stateful; build one per call so callers can
	// run concurrently.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldText strips diacritics, uppercases and trims surrounding whitespace.
// Used wherever two Portuguese-language strings must compare loosely.
func FoldText(s string) string {
	return strings.ToUpper(strings.TrimSpace(StripDiacritics(s)))
}
