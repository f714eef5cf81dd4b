package extract

// NotAvailable is the sentinel for required fields whose anchor was not
// found in the document text. Optional fields degrade to "" instead.
const NotAvailable = "N/A"

// Fields is the structured record extracted from one invoice document.
// All values are kept verbatim as matched (after the per-field cleanup
// rules); none of them is ever re-derived after extraction.
type Fields struct {
	IssuerName      string `json:"issuerName"`
	InvoiceNumber   string `json:"invoiceNumber"`
	OperationNature string `json:"operationNature"`
	TaxID           string `json:"taxId"`
	IssueDate       string `json:"issueDate"`
	TotalValue      string `json:"totalValue"`
	ReferenceNumber string `json:"referenceNumber"`
	ReasonText      string `json:"reasonText"`
	OperationCode   string `json:"operationCode"`
}
