package artifacts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store defines the persistence operations for finished report artifacts.
type Store interface {
	Save(userID, reportID, ext string, data []byte) error
	Exists(userID, reportID, ext string) bool
	Path(userID, reportID, ext string) string
	PurgeOlderThan(cutoff time.Time) (int, error)
}

// FileStore keeps artifacts on the local filesystem, one directory per user.
// A report becomes visible only once its write completed: data lands in a
// temp file first and is renamed into place.
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore builds a filesystem-backed artifact store rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, fmt.Errorf("artifact directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root %s: %w", dir, err)
	}
	return &FileStore{root: dir, logger: logger}, nil
}

// Path returns the artifact location for a user's report with the given
// extension (".pdf", ".xlsx").
func (s *FileStore) Path(userID, reportID, ext string) string {
	return filepath.Join(s.root, sanitize(userID), sanitize(reportID)+ext)
}

// Save writes one artifact atomically.
func (s *FileStore) Save(userID, reportID, ext string, data []byte) error {
	path := s.Path(userID, reportID, ext)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish artifact %s: %w", path, err)
	}

	s.logger.Debug("artifact saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// Exists reports whether the artifact is ready to serve.
func (s *FileStore) Exists(userID, reportID, ext string) bool {
	info, err := os.Stat(s.Path(userID, reportID, ext))
	return err == nil && info.Mode().IsRegular()
}

// PurgeOlderThan removes artifacts last modified before the cutoff and
// returns how many were deleted. Unreadable entries are skipped.
func (s *FileStore) PurgeOlderThan(cutoff time.Time) (int, error) {
	removed := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			s.logger.Warn("skipping unreadable artifact", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove expired artifact", zap.String("path", path), zap.Error(err))
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("walk artifact root %s: %w", s.root, err)
	}
	return removed, nil
}

// sanitize strips path separators and dot-dot segments from an id so the
// artifact path stays under the store root.
func sanitize(part string) string {
	part = strings.ReplaceAll(part, "/", "_")
	part = strings.ReplaceAll(part, "\\", "_")
	part = strings.ReplaceAll(part, "..", "_")
	if part == "" {
		return "_"
	}
	return part
}
