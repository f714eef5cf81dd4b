package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gdm-fiscal/nfd-processor/internal/common"
)

type archivedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

func (s *Service) handleListFiles(w http.ResponseWriter, _ *http.Request) {
	files, err := s.archive.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list files", err)
		return
	}
	out := make([]archivedFile, 0, len(files))
	for _, f := range files {
		out = append(out, archivedFile{
			Name: f.Name,
			Path: "/download/" + url.PathEscape(f.Name),
			Size: f.Size,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	entries, err := s.index.Recent(r.Context(), 100)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read history", err)
		return
	}
	if entries == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid filename", err)
		return
	}
	path, err := s.archive.Open(name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "file not found", nil)
			return
		}
		if errors.Is(err, common.ErrInvalidInput) {
			s.writeError(w, http.StatusBadRequest, "invalid filename", nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to open file", err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// handleDownloadAll streams a zip of the whole archival area. The bundle is
// built on the fly; nothing is written next to the archived files.
func (s *Service) handleDownloadAll(w http.ResponseWriter, _ *http.Request) {
	files, err := s.archive.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list files", err)
		return
	}
	if len(files) == 0 {
		s.writeError(w, http.StatusNotFound, "no files to download", nil)
		return
	}

	zipName := fmt.Sprintf("notas-fiscais-%s.zip", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", zipName))

	count, err := s.archive.WriteZip(w)
	if err != nil {
		// Headers are gone; all we can do is log and drop the connection.
		s.logger.Error("zip stream failed", zap.Int("written", count), zap.Error(err))
		return
	}
	s.logger.Info("zip bundle sent", zap.Int("files", count), zap.String("name", zipName))
}

func (s *Service) handleClearFiles(w http.ResponseWriter, _ *http.Request) {
	removed, err := s.archive.Clear()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to clear files", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "all archived files removed",
		"removed": removed,
	})
}
