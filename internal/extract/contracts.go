package extract

import "context"

// TextExtractor turns a stored document into raw text. Implementations
// must honor ctx so one pathological document cannot stall a batch.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
