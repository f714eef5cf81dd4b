package pipeline

import (
	"github.com/gdm-fiscal/nfd-processor/constants"
	"github.com/gdm-fiscal/nfd-processor/internal/extract"
)

// Item is one uploaded document pending processing. StoragePath points at
// the temporary copy the upload transport wrote; the pipeline consumes and
// deletes it on every terminal outcome.
type Item struct {
	OriginalName string
	StoragePath  string
	SizeBytes    int64
}

// Result is the terminal, externally visible outcome for one item.
type Result struct {
	OriginalName string           `json:"originalName"`
	Status       constants.Status `json:"status"`
	Message      string           `json:"message,omitempty"`
	Fields       *extract.Fields  `json:"extractedData,omitempty"`
	NewName      string           `json:"newName,omitempty"`
	DownloadPath string           `json:"downloadPath,omitempty"`
}

// Stats aggregates one batch run. Always folded from the result list,
// never stored independently, so it cannot drift.
type Stats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
	Errors    int `json:"errors"`
}

// Summarize folds a result list into its aggregate counts.
func Summarize(results []Result) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case constants.StatusProcessed:
			s.Processed++
		case constants.StatusIgnored:
			s.Ignored++
		case constants.StatusError:
			s.Errors++
		}
	}
	return s
}
