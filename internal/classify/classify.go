// Package classify decides whether an extracted invoice is in scope for
// archival: its operation code must be whitelisted or its operation nature
// must read as a devolution.
package classify

import (
	"fmt"
	"strings"

	"github.com/gdm-fiscal/nfd-processor/internal/common"
	"github.com/gdm-fiscal/nfd-processor/internal/extract"
)

// devolutionPrefix marks return/devolution operations in the free-text
// operation nature, matched after diacritic folding.
const devolutionPrefix = "DEV"

// Decision is the accept/reject outcome for one extracted record.
type Decision struct {
	Accepted bool
	Reason   string
}

// Classifier holds the configured operation-code whitelist.
type Classifier struct {
	valid map[string]struct{}
}

func New(validCodes []string) *Classifier {
	valid := make(map[string]struct{}, len(validCodes))
	for _, c := range validCodes {
		if c = digitsOnly(c); c != "" {
			valid[c] = struct{}{}
		}
	}
	return &Classifier{valid: valid}
}

// Classify is pure and total: every record yields a decision, never an
// error. The rejection reason carries the offending code and nature
// verbatim for the caller's report.
func (c *Classifier) Classify(f extract.Fields) Decision {
	if _, ok := c.valid[digitsOnly(f.OperationCode)]; ok {
		return Decision{Accepted: true}
	}
	if strings.HasPrefix(common.FoldText(f.OperationNature), devolutionPrefix) {
		return Decision{Accepted: true}
	}
	return Decision{
		Reason: fmt.Sprintf("invalid operation code: %s or operation nature: %s", f.OperationCode, f.OperationNature),
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
