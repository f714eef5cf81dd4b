package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gdm-fiscal/nfd-processor/constants"
	"github.com/gdm-fiscal/nfd-processor/internal/pipeline"
)

// errBadUpload marks client-side upload faults (bad part, oversized file,
// disallowed extension) as opposed to server-side staging failures.
var errBadUpload = errors.New("bad upload")

// handleUpload receives a multipart batch under the "files" field, stages
// every part in the upload directory under a unique name, runs the batch
// scheduler and reports per-item outcomes plus aggregate counts. Item
// failures never fail the request; only failing to enumerate the batch
// itself does, and then staged files are swept.
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Files.MaxFileSize*int64(s.cfg.Files.MaxFiles))

	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart request", err)
		return
	}

	items, err := s.stageUploads(reader)
	if err != nil {
		pipeline.Sweep(items, nil)
		status := http.StatusInternalServerError
		if errors.Is(err, errBadUpload) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, "failed to receive files", err)
		return
	}
	if len(items) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files uploaded", nil)
		return
	}

	s.logger.Info("upload received", zap.Int("files", len(items)))

	results := s.scheduler.Run(r.Context(), items, pipeline.Options{
		BatchSize:        s.cfg.Pipeline.BatchSize,
		ConcurrencyLimit: s.cfg.Pipeline.ConcurrencyLimit,
		BatchPause:       s.cfg.Pipeline.BatchPause,
	})
	stats := pipeline.Summarize(results)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("processed %d/%d files", stats.Processed, stats.Total),
		"files":   results,
		"stats":   stats,
	})
}

// stageUploads drains the multipart stream into the upload directory under
// unique temporary names. On error it returns the items staged so far, so
// the caller can sweep them.
func (s *Service) stageUploads(reader *multipart.Reader) ([]pipeline.Item, error) {
	var items []pipeline.Item

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return items, fmt.Errorf("%w: read multipart stream: %v", errBadUpload, err)
		}
		if part.FormName() != "files" || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		if len(items) >= s.cfg.Files.MaxFiles {
			_ = part.Close()
			return items, fmt.Errorf("%w: too many files (limit %d)", errBadUpload, s.cfg.Files.MaxFiles)
		}

		originalName := filepath.Base(part.FileName())
		ext := constants.NormalizeExt(filepath.Ext(originalName))
		if !s.extAccepted(ext) {
			_ = part.Close()
			return items, fmt.Errorf("%w: file type %q not allowed", errBadUpload, filepath.Ext(originalName))
		}

		item, err := s.stagePart(part, originalName, ext)
		_ = part.Close()
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}

func (s *Service) stagePart(part *multipart.Part, originalName, ext string) (pipeline.Item, error) {
	dst := filepath.Join(s.cfg.Files.UploadDir, uuid.New().String()+"."+ext)

	out, err := os.Create(dst)
	if err != nil {
		return pipeline.Item{}, fmt.Errorf("stage upload: %w", err)
	}
	written, err := io.Copy(out, io.LimitReader(part, s.cfg.Files.MaxFileSize+1))
	closeErr := out.Close()

	switch {
	case err != nil:
		_ = os.Remove(dst)
		return pipeline.Item{}, fmt.Errorf("stage upload %s: %w", originalName, err)
	case closeErr != nil:
		_ = os.Remove(dst)
		return pipeline.Item{}, fmt.Errorf("stage upload %s: %w", originalName, closeErr)
	case written > s.cfg.Files.MaxFileSize:
		_ = os.Remove(dst)
		return pipeline.Item{}, fmt.Errorf("%w: file %s exceeds the %d byte limit", errBadUpload, originalName, s.cfg.Files.MaxFileSize)
	}

	return pipeline.Item{
		OriginalName: originalName,
		StoragePath:  dst,
		SizeBytes:    written,
	}, nil
}

func (s *Service) extAccepted(ext string) bool {
	for _, e := range s.cfg.Files.AcceptedExtensions {
		if constants.NormalizeExt(e) == ext {
			return true
		}
	}
	return false
}
