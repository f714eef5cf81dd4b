package registry

import (
	"strings"
	"unicode"

	"github.com/gdm-fiscal/nfd-processor/internal/common"
)

// NormalizeKey folds a source header name so that "CNPJ Emitente",
// "cnpj_emitente" and "CNPJ EMITENTE;" all map to "cnpjemitente".
func NormalizeKey(key string) string {
	var b strings.Builder
	for _, r := range common.StripDiacritics(key) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// NormalizeTaxID reduces a CNPJ to its digits and hyphens so that
// formatted and unformatted identifiers compare equal.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
