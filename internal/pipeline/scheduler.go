package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gdm-fiscal/nfd-processor/internal/archive"
)

// Options control batching and pacing for one Run.
type Options struct {
	// BatchSize is how many items form one sequential batch.
	BatchSize int
	// ConcurrencyLimit caps how many items of a batch run in parallel.
	ConcurrencyLimit int
	// BatchPause is the idle window between batches, a backpressure valve
	// for memory and downstream I/O on large uploads.
	BatchPause time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.ConcurrencyLimit <= 0 {
		o.ConcurrencyLimit = 5
	}
	return o
}

// Scheduler drives the per-item processor over submitted items in
// sequential batches with bounded intra-batch concurrency.
type Scheduler struct {
	Proc  *Processor
	Index *archive.Index // optional history sink
	Log   *slog.Logger
}

func NewScheduler(proc *Processor, index *archive.Index, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{Proc: proc, Index: index, Log: log}
}

// Run processes every item and returns exactly one result per item, in
// submission order. Item failures never abort siblings; batch N's pause
// strictly precedes batch N+1's start. Each result slot is written by
// exactly one goroutine, so the pre-sized slice needs no locking.
func (s *Scheduler) Run(ctx context.Context, items []Item, opts Options) []Result {
	opts = opts.withDefaults()
	results := make([]Result, len(items))
	totalBatches := (len(items) + opts.BatchSize - 1) / opts.BatchSize

	for start := 0; start < len(items); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(items))
		batchNr := start/opts.BatchSize + 1
		s.Log.Info("pipeline.batch.start", "batch", batchNr, "of", totalBatches, "items", end-start)

		var g errgroup.Group
		g.SetLimit(opts.ConcurrencyLimit)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = s.Proc.Process(ctx, items[i])
				return nil
			})
		}
		_ = g.Wait()

		s.Log.Info("pipeline.batch.done", "batch", batchNr, "of", totalBatches)

		if end < len(items) && opts.BatchPause > 0 {
			select {
			case <-time.After(opts.BatchPause):
			case <-ctx.Done():
				// The request is gone; finish remaining batches without
				// pacing so their temp files still get consumed.
			}
		}
	}

	s.record(ctx, results)
	return results
}

// record persists every terminal outcome to the history index, best effort.
func (s *Scheduler) record(ctx context.Context, results []Result) {
	if s.Index == nil {
		return
	}
	for i := range results {
		e := archive.Entry{
			OriginalName: results[i].OriginalName,
			NewName:      results[i].NewName,
			Status:       string(results[i].Status),
			Message:      results[i].Message,
		}
		if f := results[i].Fields; f != nil {
			e.InvoiceNumber = f.InvoiceNumber
			e.TaxID = f.TaxID
			e.IssueDate = f.IssueDate
			e.TotalValue = f.TotalValue
		}
		if err := s.Index.Record(ctx, e); err != nil {
			s.Log.Warn("pipeline.history.record_failed", "file", results[i].OriginalName, "err", err)
		}
	}
}

// Sweep removes every item's temporary storage, best effort. Used when the
// batch itself cannot be enumerated and the normal per-item cleanup will
// never run.
func Sweep(items []Item, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	for _, it := range items {
		if it.StoragePath == "" {
			continue
		}
		if err := os.Remove(it.StoragePath); err != nil && !os.IsNotExist(err) {
			log.Warn("pipeline.sweep.remove_failed", "path", it.StoragePath, "err", err)
		}
	}
}

// SweepDir removes every regular file under dir, best effort.
func SweepDir(dir string, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("pipeline.sweep.readdir_failed", "dir", dir, "err", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			log.Warn("pipeline.sweep.remove_failed", "path", e.Name(), "err", err)
		}
	}
}
