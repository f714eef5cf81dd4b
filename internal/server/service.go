package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gdm-fiscal/nfd-processor/internal/archive"
	"github.com/gdm-fiscal/nfd-processor/internal/common"
	"github.com/gdm-fiscal/nfd-processor/internal/pipeline"
)

const apiVersion = "1.0.0"

// Service wires the HTTP boundary to the processing pipeline.
type Service struct {
	cfg       *common.Config
	scheduler *pipeline.Scheduler
	archive   *archive.Store
	index     *archive.Index
	logger    *zap.Logger
}

func New(cfg *common.Config, sched *pipeline.Scheduler, store *archive.Store, index *archive.Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		scheduler: sched,
		archive:   store,
		index:     index,
		logger:    logger,
	}
}

// Router builds the HTTP routing table.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	r.Use(s.corsMiddleware)
	r.Use(securityHeaders)

	r.Get("/", s.handleInfo)
	r.Get("/healthz", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/files", s.handleListFiles)
	r.Get("/history", s.handleHistory)
	r.Get("/download/{filename}", s.handleDownload)
	r.Get("/download-all", s.handleDownloadAll)
	r.Delete("/files", s.handleClearFiles)
	return r
}

func (s *Service) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "NFD processor is running",
		"version": apiVersion,
		"endpoints": map[string]string{
			"upload":      "/upload",
			"files":       "/files",
			"history":     "/history",
			"download":    "/download/{filename}",
			"downloadAll": "/download-all",
		},
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
