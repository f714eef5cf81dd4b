package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/gdm-fiscal/nfd-processor/internal/archive"
	"github.com/gdm-fiscal/nfd-processor/internal/classify"
	"github.com/gdm-fiscal/nfd-processor/internal/common"
	"github.com/gdm-fiscal/nfd-processor/internal/extract"
	"github.com/gdm-fiscal/nfd-processor/internal/extract/pdftext"
	"github.com/gdm-fiscal/nfd-processor/internal/pipeline"
	"github.com/gdm-fiscal/nfd-processor/internal/registry"
	"github.com/gdm-fiscal/nfd-processor/internal/server"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Sugar()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(slogger)

	// Config
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Directories
	if err := archive.EnsureDir(cfg.Files.UploadDir); err != nil {
		log.Fatalf("upload dir: %v", err)
	}
	store, err := archive.NewStore(cfg.Files.ProcessedDir, slogger)
	if err != nil {
		log.Fatalf("archive dir: %v", err)
	}

	// Processed-file history
	index, err := archive.OpenIndex(cfg.Files.HistoryDBPath, slogger)
	if err != nil {
		log.Fatalf("history db: %v", err)
	}
	defer func() {
		_ = index.Close()
	}()

	// Client registry: best effort, an empty registry only disables
	// identity resolution.
	reg := registry.Load(cfg.Registry.SpreadsheetPath, cfg.Registry.TablePath, slogger)
	log.Infow("client registry ready", "records", reg.Len())

	// Pipeline
	parser := extract.NewParser(cfg.Pipeline.ValidOperationCodes)
	classifier := classify.New(cfg.Pipeline.ValidOperationCodes)
	extractor := pdftext.New(slogger)
	proc := pipeline.NewProcessor(extractor, parser, reg, classifier, store,
		cfg.Pipeline.ExtractTimeout, cfg.Files.AcceptedExtensions, slogger)
	sched := pipeline.NewScheduler(proc, index, slogger)

	// HTTP server
	svc := server.New(cfg, sched, store, index, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("HTTP serving on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}

	// Anything still staged belongs to no request anymore.
	pipeline.SweepDir(cfg.Files.UploadDir, slogger)
	log.Info("stopped.")
}
