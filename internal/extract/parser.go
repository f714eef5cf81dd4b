package extract

import (
	"regexp"
	"strings"
)

// Anchor patterns for the fixed NFD layout family. Each field has a primary
// anchor and, where the layout drifts between emitters, a fallback; fields
// fail independently so one missing anchor never blocks the others.
var (
	reIssuer     = regexp.MustCompile(`IDENTIFICA[ÇC][ÃA]O DO EMITENTE\n([A-Z0-9\s/\-.]+)\n`)
	reInvoiceNum = regexp.MustCompile(`(?i)N[ºo.]*\s*([0-9.]+)`)
	reNature     = regexp.MustCompile(`(?i)NATUREZA DA OP[ÊE]RA[ÇC][ÃA]O[\s:]*([A-Z\s]+)`)
	reNatureDev  = regexp.MustCompile(`(?i)\n\s*(DEV\w+)`)
	reTaxID      = regexp.MustCompile(`(?i)CNPJ[\s:]*([0-9./\-]+)`)
	reIssueDate  = regexp.MustCompile(`(?i)DATA DA EMISS[ÃA]O[\s:]*([0-9]{2}/[0-9]{2}/[0-9]{4})`)
	reTotal      = regexp.MustCompile(`(?i)V\.\s*TOTAL DA NOTA[\s:]*([0-9.,]+)`)
	reComplement = regexp.MustCompile(`(?i)INFORMA[ÇC][ÕO]ES COMPLEMENTARES[\s\S]*?N[ºo.]*\s*([0-9]+)[\s\S]*?Motivo:\s*([A-Za-z\s]+)`)
	reReference  = regexp.MustCompile(`(?i)Ref\.\s*NF:\s*([0-9]+),\s*Serie\s*[0-9]+,\s*de\s*[0-9]{2}/[0-9]{2}/[0-9]{4}`)
	reReason     = regexp.MustCompile(`(?i)Motivo:\s*([^\n-]+)\s*-`)
	reCodeAnchor = regexp.MustCompile(`(?i)CFOP\s*([0-9]{4})`)

	nonDigits   = regexp.MustCompile(`\D`)
	nonNumerics = regexp.MustCompile(`[^0-9,.]`)
)

// Parser extracts invoice fields from raw document text.
type Parser struct {
	codeScan *regexp.Regexp
}

// NewParser builds a parser whose whole-text operation-code scan matches
// the configured whitelist. The same set drives classification, so the two
// never disagree about which codes exist.
func NewParser(validCodes []string) *Parser {
	p := &Parser{}
	if len(validCodes) > 0 {
		quoted := make([]string, len(validCodes))
		for i, c := range validCodes {
			quoted[i] = regexp.QuoteMeta(strings.TrimSpace(c))
		}
		p.codeScan = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	}
	return p
}

// Parse converts document text into a Fields record. It is a pure function
// of its input and total: a missing anchor yields the field's sentinel,
// never an error.
func (p *Parser) Parse(text string) Fields {
	var f Fields

	if m := reIssuer.FindStringSubmatch(text); m != nil {
		f.IssuerName = strings.TrimSpace(m[1])
	}

	if m := reInvoiceNum.FindStringSubmatch(text); m != nil {
		f.InvoiceNumber = nonDigits.ReplaceAllString(m[1], "")
	} else {
		f.InvoiceNumber = NotAvailable
	}

	if m := reNature.FindStringSubmatch(text); m != nil {
		first, _, _ := strings.Cut(m[1], "\n")
		f.OperationNature = strings.TrimSpace(first)
	} else if m := reNatureDev.FindStringSubmatch(text); m != nil {
		f.OperationNature = strings.TrimSpace(m[1])
	} else {
		f.OperationNature = NotAvailable
	}

	if m := reTaxID.FindStringSubmatch(text); m != nil {
		f.TaxID = m[1]
	} else {
		f.TaxID = NotAvailable
	}

	if m := reIssueDate.FindStringSubmatch(text); m != nil {
		f.IssueDate = m[1]
	} else {
		f.IssueDate = NotAvailable
	}

	if m := reTotal.FindStringSubmatch(text); m != nil {
		f.TotalValue = nonNumerics.ReplaceAllString(m[1], "")
	} else {
		f.TotalValue = NotAvailable
	}

	// Reference and reason share a primary anchor in the complementary
	// information block; outside it they are matched independently and
	// default to empty, not to the sentinel.
	if m := reComplement.FindStringSubmatch(text); m != nil {
		f.ReferenceNumber = m[1]
		f.ReasonText = strings.TrimSpace(m[2])
	} else {
		if m := reReference.FindStringSubmatch(text); m != nil {
			f.ReferenceNumber = m[1]
		}
		if m := reReason.FindStringSubmatch(text); m != nil {
			f.ReasonText = strings.TrimSpace(m[1])
		}
	}

	// An explicit CFOP anchor overrides the whole-text whitelist scan.
	f.OperationCode = NotAvailable
	if m := reCodeAnchor.FindStringSubmatch(text); m != nil {
		f.OperationCode = m[1]
	} else if p.codeScan != nil {
		if m := p.codeScan.FindString(text); m != "" {
			f.OperationCode = m
		}
	}

	return f
}
