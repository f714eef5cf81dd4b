package pdftext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/gdm-fiscal/nfd-processor/constants"
)

// Extractor produces raw text from a stored invoice document. PDF pages
// are parsed through their content streams; plain-text files pass through.
type Extractor struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log}
}

// Extract reads the document at path and returns its text. The work runs in
// a goroutine so that ctx cancellation or deadline expiry bounds worst-case
// latency even while the PDF parser is inside a long page.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	start := time.Now()
	ch := make(chan outcome, 1)
	go func() {
		text, err := e.extract(path)
		ch <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		e.log.Warn("pdftext.extract.canceled", "path", path, "elapsed_ms", time.Since(start).Milliseconds(), "err", ctx.Err())
		return "", fmt.Errorf("text extraction: %w", ctx.Err())
	case o := <-ch:
		if o.err != nil {
			return "", o.err
		}
		e.log.Debug("pdftext.extract.ok", "path", path, "chars", len(o.text), "elapsed_ms", time.Since(start).Milliseconds())
		return o.text, nil
	}
}

func (e *Extractor) extract(path string) (string, error) {
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(data), nil
	case "pdf":
		return extractPDF(path)
	default:
		return "", fmt.Errorf("unsupported document format: %q", filepath.Ext(path))
	}
}

// extractPDF walks every page's content stream and decodes the text
// operators. Layout fidelity is best effort; the field parser's anchors
// only need line-level structure.
func extractPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var b strings.Builder
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		page := decodeContentStream(data)
		if page == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(page)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("no text content found in pdf")
	}
	return b.String(), nil
}
