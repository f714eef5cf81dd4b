package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gdm-fiscal/nfd-processor/constants"
	"github.com/gdm-fiscal/nfd-processor/internal/archive"
	"github.com/gdm-fiscal/nfd-processor/internal/classify"
	"github.com/gdm-fiscal/nfd-processor/internal/common"
	"github.com/gdm-fiscal/nfd-processor/internal/extract"
	"github.com/gdm-fiscal/nfd-processor/internal/extract/pdftext"
	"github.com/gdm-fiscal/nfd-processor/internal/pipeline"
	"github.com/gdm-fiscal/nfd-processor/internal/registry"
	"github.com/gdm-fiscal/nfd-processor/internal/report"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory of invoice documents to process (required)")
		processed = flag.String("processed", "", "archival directory (defaults to <dir>/processed)")
		out       = flag.String("report", "", "write an XLSX run report to this path (optional)")
		xlsxPath  = flag.String("clients-xlsx", "", "client registry spreadsheet (optional)")
		csvPath   = flag.String("clients-csv", "", "client registry text table (optional)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *processed == "" {
		*processed = filepath.Join(*dir, "processed")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *xlsxPath != "" {
		cfg.Registry.SpreadsheetPath = *xlsxPath
	}
	if *csvPath != "" {
		cfg.Registry.TablePath = *csvPath
	}

	store, err := archive.NewStore(*processed, logger)
	if err != nil {
		logger.Error("failed to prepare archival directory", "error", err)
		os.Exit(1)
	}

	reg := registry.Load(cfg.Registry.SpreadsheetPath, cfg.Registry.TablePath, logger)
	logger.Info("client registry ready", "records", reg.Len())

	proc := pipeline.NewProcessor(
		pdftext.New(logger),
		extract.NewParser(cfg.Pipeline.ValidOperationCodes),
		reg,
		classify.New(cfg.Pipeline.ValidOperationCodes),
		store,
		cfg.Pipeline.ExtractTimeout,
		cfg.Files.AcceptedExtensions,
		logger,
	)
	sched := pipeline.NewScheduler(proc, nil, logger)

	// The pipeline consumes its temporary copies, so the originals are
	// staged into a scratch directory first.
	items, err := stageDirectory(*dir)
	if err != nil {
		logger.Error("failed to stage input directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("No invoice documents found.")
		return
	}
	logger.Info("staged input files", "count", len(items))

	start := time.Now()
	results := sched.Run(ctx, items, pipeline.Options{
		BatchSize:        cfg.Pipeline.BatchSize,
		ConcurrencyLimit: cfg.Pipeline.ConcurrencyLimit,
		BatchPause:       cfg.Pipeline.BatchPause,
	})
	stats := pipeline.Summarize(results)

	if *out != "" {
		data, err := report.ResultsXLSX(results, logger)
		if err != nil {
			logger.Error("failed to build report", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			logger.Error("failed to write report", "path", *out, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("batch processing complete",
		"total", stats.Total,
		"processed", stats.Processed,
		"ignored", stats.Ignored,
		"errors", stats.Errors,
		"elapsed_ms", time.Since(start).Milliseconds())

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Total: %d\n", stats.Total)
	fmt.Printf("- Processed: %d\n", stats.Processed)
	fmt.Printf("- Ignored: %d\n", stats.Ignored)
	fmt.Printf("- Errors: %d\n", stats.Errors)
	if *out != "" {
		fmt.Printf("- Report: %s\n", *out)
	}
}

// stageDirectory copies every supported document under dir into a scratch
// staging area and returns the corresponding pipeline items. Subdirectories
// (including a nested archival directory) are not descended into.
func stageDirectory(dir string) ([]pipeline.Item, error) {
	staging, err := os.MkdirTemp("", "nfd-batch-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var items []pipeline.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(dir, e.Name())
		ext := constants.NormalizeExt(filepath.Ext(e.Name()))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dst := filepath.Join(staging, e.Name())
		if err := copyFile(src, dst); err != nil {
			return items, fmt.Errorf("stage %s: %w", e.Name(), err)
		}
		items = append(items, pipeline.Item{
			OriginalName: e.Name(),
			StoragePath:  dst,
			SizeBytes:    info.Size(),
		})
	}
	return items, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
