// Package naming derives the canonical archived filename for a processed
// invoice from its extracted fields and resolved client identity.
package naming

import (
	"path/filepath"
	"strings"

	"github.com/gdm-fiscal/nfd-processor/internal/extract"
	"github.com/gdm-fiscal/nfd-processor/internal/registry"
)

// invalidChars maps every character that is unsafe in a filename on any
// supported filesystem to an underscore.
var invalidChars = strings.NewReplacer(
	"/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// Synthesize builds the archived filename. Deterministic and total: missing
// components degrade to their sentinel text, never to an error, so even a
// partially extracted document gets a usable name. The original file's
// extension is preserved.
func Synthesize(f extract.Fields, client registry.Client, originalName string) string {
	var b strings.Builder

	b.WriteString("NFD ")
	b.WriteString(f.InvoiceNumber)
	b.WriteString(" - ")

	if client.DisplayName != "" {
		b.WriteString(client.DisplayName)
		if client.AgentName != "" {
			b.WriteString(" - ")
			b.WriteString(client.AgentName)
		}
		b.WriteString(" - ")
	} else {
		b.WriteString(f.IssuerName)
		b.WriteString(" - ")
	}

	b.WriteString(strings.ReplaceAll(f.IssueDate, "/", "-"))
	b.WriteString(" - R$ ")
	b.WriteString(f.TotalValue)

	if f.ReferenceNumber != "" && f.ReasonText != "" {
		b.WriteString(" - REF. ")
		b.WriteString(f.ReferenceNumber)
		b.WriteString(" - MOT. ")
		b.WriteString(f.ReasonText)
	}

	return invalidChars.Replace(b.String()) + filepath.Ext(originalName)
}
