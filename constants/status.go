package constants

// Status is the terminal outcome for one uploaded document.
type Status string

const (
	// StatusProcessed means the document was accepted, renamed and archived.
	StatusProcessed Status = "Processed"
	// StatusIgnored means the document was out of scope (classification rejection).
	StatusIgnored Status = "Ignored"
	// StatusError means the document failed extraction or archival.
	StatusError Status = "Error"
)
