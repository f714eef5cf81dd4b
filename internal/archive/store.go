package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gdm-fiscal/nfd-processor/internal/common"
)

// FileInfo describes one archived invoice copy.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Store manages the archival area for processed invoices. Writes are
// idempotent for identical names: synthesis is deterministic, so a
// same-name rewrite is an accepted overwrite.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore ensures the archival directory exists and is writable.
func NewStore(dir string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := EnsureDir(dir); err != nil {
		return nil, common.WrapError(err, "archive dir")
	}
	return &Store{dir: dir, log: log}, nil
}

// EnsureDir creates dir if needed and probes it for write permission.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("dir %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// Dir returns the archival directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Write copies the document at src into the archive under name.
func (s *Store) Write(name, src string) error {
	dst, err := s.Path(name)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write archive copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive copy: %w", err)
	}

	s.log.Info("archive.write.ok", "name", name)
	return nil
}

// Path resolves an archived name to its absolute path, rejecting anything
// that would escape the archival directory.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", common.NewAppError("BAD_NAME", fmt.Sprintf("invalid archive name %q", name), common.ErrInvalidInput)
	}
	return filepath.Join(s.dir, name), nil
}

// Open returns the path of an existing archived file.
func (s *Store) Open(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", common.NewAppError("NOT_FOUND", fmt.Sprintf("file %q not archived", name), common.ErrNotFound)
		}
		return "", err
	}
	return path, nil
}

// List enumerates the archived files sorted by name.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}
	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Clear removes every archived file and reports how many were deleted.
func (s *Store) Clear() (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(filepath.Join(s.dir, f.Name)); err != nil {
			s.log.Warn("archive.clear.remove_failed", "name", f.Name, "err", err)
			continue
		}
		removed++
	}
	s.log.Info("archive.clear.ok", "removed", removed)
	return removed, nil
}

// WriteZip streams a zip bundle of every archived file to w and returns the
// number of files included.
func (s *Store) WriteZip(w io.Writer) (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	zw := zip.NewWriter(w)
	count := 0
	for _, f := range files {
		src, err := os.Open(filepath.Join(s.dir, f.Name))
		if err != nil {
			s.log.Warn("archive.zip.skip", "name", f.Name, "err", err)
			continue
		}
		entry, err := zw.Create(f.Name)
		if err != nil {
			_ = src.Close()
			_ = zw.Close()
			return count, fmt.Errorf("zip entry %s: %w", f.Name, err)
		}
		if _, err := io.Copy(entry, src); err != nil {
			_ = src.Close()
			_ = zw.Close()
			return count, fmt.Errorf("zip copy %s: %w", f.Name, err)
		}
		_ = src.Close()
		count++
	}
	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("finalize zip: %w", err)
	}
	return count, nil
}
