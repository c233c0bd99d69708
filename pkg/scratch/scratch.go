package scratch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store stages inbound upload files on local disk under a base directory.
// Staged files live only until the admission pipeline removes them.
type Store struct {
	baseDir string
}

// NewStore ensures the scratch directory exists and returns a handle.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = filepath.Join("uploads", "temp")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Stage copies the reader into a new scratch file and returns its path.
// The filename combines a nanosecond timestamp with the sanitized original
// name so concurrent requests never collide.
func (s *Store) Stage(originalName string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeName(originalName))
	path := filepath.Join(s.baseDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return path, nil
}

// Open returns a read-only handle for a staged file.
func (s *Store) Open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scratch file: %w", err)
	}
	return file, nil
}

// Remove deletes a staged file if present.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete scratch file: %w", err)
	}
	return nil
}

// Dir exposes the base directory (useful for debugging).
func (s *Store) Dir() string {
	return s.baseDir
}

func sanitizeName(raw string) string {
	raw = filepath.Base(raw)
	if raw == "" || raw == "." || raw == string(filepath.Separator) {
		return "upload"
	}
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "._")
	if name == "" {
		return "upload"
	}
	return name
}
