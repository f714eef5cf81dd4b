package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gdm-fiscal/nfd-processor/constants"
	"github.com/gdm-fiscal/nfd-processor/internal/archive"
	"github.com/gdm-fiscal/nfd-processor/internal/classify"
	"github.com/gdm-fiscal/nfd-processor/internal/extract"
	"github.com/gdm-fiscal/nfd-processor/internal/naming"
	"github.com/gdm-fiscal/nfd-processor/internal/registry"
)

// Processor runs one uploaded document through text extraction, field
// parsing, identity resolution, classification, naming and archival.
type Processor struct {
	Text           extract.TextExtractor
	Parser         *extract.Parser
	Registry       *registry.Registry
	Classifier     *classify.Classifier
	Archive        *archive.Store
	Log            *slog.Logger
	ExtractTimeout time.Duration
	AcceptedExts   map[string]struct{}
}

// NewProcessor wires a per-item processor. acceptedExts come without dots;
// nil falls back to the package defaults.
func NewProcessor(text extract.TextExtractor, parser *extract.Parser, reg *registry.Registry,
	cls *classify.Classifier, store *archive.Store, extractTimeout time.Duration,
	acceptedExts []string, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	exts := constants.AllowedExtensions
	if len(acceptedExts) > 0 {
		exts = make(map[string]struct{}, len(acceptedExts))
		for _, e := range acceptedExts {
			exts[constants.NormalizeExt(e)] = struct{}{}
		}
	}
	if extractTimeout <= 0 {
		extractTimeout = 30 * time.Second
	}
	return &Processor{
		Text:           text,
		Parser:         parser,
		Registry:       reg,
		Classifier:     cls,
		Archive:        store,
		Log:            log,
		ExtractTimeout: extractTimeout,
		AcceptedExts:   exts,
	}
}

// Process takes an item to its terminal state and returns exactly one
// Result. The temporary copy is deleted on every outcome; deletion is
// idempotent, so an item can never be orphaned or double-freed. A panic in
// any stage is contained as an Error result for this item only.
func (p *Processor) Process(ctx context.Context, item Item) (res Result) {
	res = Result{OriginalName: item.OriginalName}

	defer func() {
		if err := os.Remove(item.StoragePath); err != nil && !os.IsNotExist(err) {
			p.Log.Warn("pipeline.tempfile.remove_failed", "path", item.StoragePath, "err", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			res.Status = constants.StatusError
			res.Message = fmt.Sprintf("panic while processing: %v", r)
			p.Log.Error("pipeline.item.panic", "file", item.OriginalName, "panic", r)
		}
	}()

	ext := constants.NormalizeExt(filepath.Ext(item.OriginalName))
	if _, ok := p.AcceptedExts[ext]; !ok {
		res.Status = constants.StatusIgnored
		res.Message = fmt.Sprintf("not a supported invoice document: %q", filepath.Ext(item.OriginalName))
		return res
	}

	if _, err := os.Stat(item.StoragePath); err != nil {
		res.Status = constants.StatusError
		res.Message = fmt.Sprintf("temporary file not found: %s", item.StoragePath)
		return res
	}

	ectx, cancel := context.WithTimeout(ctx, p.ExtractTimeout)
	text, err := p.Text.Extract(ectx, item.StoragePath)
	cancel()
	if err != nil {
		res.Status = constants.StatusError
		res.Message = err.Error()
		p.Log.Error("pipeline.extract.failed", "file", item.OriginalName, "err", err)
		return res
	}

	fields := p.Parser.Parse(text)
	res.Fields = &fields
	if err := extract.ValidateFields(fields); err != nil {
		// Advisory only: a shape mismatch flags the record, it never
		// blocks classification.
		p.Log.Warn("pipeline.fields.schema_mismatch", "file", item.OriginalName, "err", err)
	}

	var client registry.Client
	if fields.TaxID != extract.NotAvailable {
		client, _ = p.Registry.Lookup(fields.TaxID)
	}

	decision := p.Classifier.Classify(fields)
	if !decision.Accepted {
		res.Status = constants.StatusIgnored
		res.Message = decision.Reason
		p.Log.Info("pipeline.item.rejected", "file", item.OriginalName, "reason", decision.Reason)
		return res
	}

	newName := naming.Synthesize(fields, client, item.OriginalName)
	if err := p.Archive.Write(newName, item.StoragePath); err != nil {
		res.Status = constants.StatusError
		res.Message = fmt.Sprintf("archive write: %v", err)
		p.Log.Error("pipeline.archive.failed", "file", item.OriginalName, "err", err)
		return res
	}

	res.Status = constants.StatusProcessed
	res.NewName = newName
	res.DownloadPath = "/download/" + url.PathEscape(newName)
	p.Log.Info("pipeline.item.ok", "file", item.OriginalName, "new_name", newName)
	return res
}
