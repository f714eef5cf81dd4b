package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gdm-fiscal/nfd-processor/internal/extract"
	"github.com/gdm-fiscal/nfd-processor/internal/registry"
)

func TestSynthesize_ResolvedClientWithAgent(t *testing.T) {
	f := extract.Fields{
		InvoiceNumber: "1234",
		IssueDate:     "10/05/2024",
		TotalValue:    "167,01",
	}
	c := registry.Client{DisplayName: "ACME", AgentName: "JOAO"}

	got := Synthesize(f, c, "upload.pdf")
	assert.Equal(t, "NFD 1234 - ACME - JOAO - 10-05-2024 - R$ 167,01.pdf", got)
}

func TestSynthesize_ResolvedClientWithoutAgent(t *testing.T) {
	f := extract.Fields{
		InvoiceNumber: "88",
		IssueDate:     "01/02/2023",
		TotalValue:    "9,99",
	}
	c := registry.Client{DisplayName: "BETA LTDA"}

	got := Synthesize(f, c, "doc.txt")
	assert.Equal(t, "NFD 88 - BETA LTDA - 01-02-2023 - R$ 9,99.txt", got)
}

func TestSynthesize_UnresolvedFallsBackToIssuer(t *testing.T) {
	f := extract.Fields{
		InvoiceNumber: "55",
		IssuerName:    "FORNECEDOR XPTO LTDA",
		IssueDate:     "15/07/2024",
		TotalValue:    "1.500,00",
	}

	got := Synthesize(f, registry.Client{}, "a.pdf")
	assert.Equal(t, "NFD 55 - FORNECEDOR XPTO LTDA - 15-07-2024 - R$ 1.500,00.pdf", got)
}

func TestSynthesize_ReferenceAndReasonSuffix(t *testing.T) {
	f := extract.Fields{
		InvoiceNumber:   "12",
		IssueDate:       "03/04/2024",
		TotalValue:      "40,00",
		ReferenceNumber: "9981",
		ReasonText:      "PRODUTO DANIFICADO",
	}
	c := registry.Client{DisplayName: "ACME"}

	got := Synthesize(f, c, "x.pdf")
	assert.Equal(t, "NFD 12 - ACME - 03-04-2024 - R$ 40,00 - REF. 9981 - MOT. PRODUTO DANIFICADO.pdf", got)
}

func TestSynthesize_SuffixNeedsBothReferenceAndReason(t *testing.T) {
	f := extract.Fields{
		InvoiceNumber:   "12",
		IssueDate:       "03/04/2024",
		TotalValue:      "40,00",
		ReferenceNumber: "9981",
	}

	got := Synthesize(f, registry.Client{DisplayName: "ACME"}, "x.pdf")
	assert.NotContains(t, got, "REF.")
	assert.NotContains(t, got, "MOT.")
}

func TestSynthesize_SanitizesUnsafeCharacters(t *testing.T) {
	f := extract.Fields{
		InvoiceNumber: "7",
		IssuerName:    `A/B:C*D?E"F<G>H|I`,
		IssueDate:     "10/05/2024",
		TotalValue:    "1,00",
	}

	got := Synthesize(f, registry.Client{}, "weird.pdf")
	for _, bad := range []string{":", "*", "?", `"`, "<", ">", "|"} {
		assert.NotContains(t, got, bad)
	}
	// Slashes survive only as the date separators already rewritten to dashes.
	assert.NotContains(t, got, "/")
	assert.Equal(t, "NFD 7 - A_B_C_D_E_F_G_H_I - 10-05-2024 - R$ 1,00.pdf", got)
}

func TestSynthesize_TotalWithSentinels(t *testing.T) {
	f := extract.Fields{
		InvoiceNumber: extract.NotAvailable,
		IssuerName:    extract.NotAvailable,
		IssueDate:     extract.NotAvailable,
		TotalValue:    extract.NotAvailable,
	}

	// The date's slashes are rewritten to dashes before sanitization, so its
	// sentinel degrades to N-A while the others become N_A.
	got := Synthesize(f, registry.Client{}, "blank.txt")
	assert.Equal(t, "NFD N_A - N_A - N-A - R$ N_A.txt", got)
	assert.True(t, strings.HasSuffix(got, ".txt"))
}
