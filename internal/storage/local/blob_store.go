// Package local implements a filesystem blob store on top of afero.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Config captures the parameters for the local filesystem blob store.
type Config struct {
	// BaseDir is the directory relative object paths resolve against.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// BlobStore writes artifacts to a filesystem. Relative paths are resolved
// under BaseDir and may not escape it; absolute paths are used as given.
type BlobStore struct {
	fs      afero.Fs
	baseDir string
}

// New creates a blob store on the host filesystem.
func New(cfg Config) (*BlobStore, error) {
	return NewWithFs(afero.NewOsFs(), cfg)
}

// NewWithFs creates a blob store on fs. The base directory is created when
// missing and must be writable.
func NewWithFs(fs afero.Fs, cfg Config) (*BlobStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	baseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	info, err := fs.Stat(baseDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if mkErr := fs.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	marker := filepath.Join(baseDir, ".writable_test")
	if err := afero.WriteFile(fs, marker, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := fs.Remove(marker); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &BlobStore{fs: fs, baseDir: baseDir}, nil
}

// BaseDir is the resolved root directory.
func (s *BlobStore) BaseDir() string {
	return s.baseDir
}

func (s *BlobStore) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	local := filepath.FromSlash(path)
	if filepath.IsAbs(local) {
		return filepath.Clean(local), nil
	}
	full := filepath.Join(s.baseDir, local)
	if full != s.baseDir && !strings.HasPrefix(full, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", path)
	}
	return full, nil
}

// PutObject writes the content to a temporary sibling and renames it over
// the target, so readers never observe a partial file. It returns a file://
// URI.
func (s *BlobStore) PutObject(_ context.Context, path string, _ string, data io.Reader) (string, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("failed to create parent directories: %w", err)
	}

	byteData, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read data from reader: %w", err)
	}

	tmp := fullPath + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, byteData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := s.fs.Rename(tmp, fullPath); err != nil {
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	return fmt.Sprintf("file://%s", fullPath), nil
}

// ListObjects lists the regular files directly inside dir.
func (s *BlobStore) ListObjects(_ context.Context, dir string) ([]string, error) {
	fullDir, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(s.fs, fullDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", fullDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// DeleteObject removes the file at path.
func (s *BlobStore) DeleteObject(_ context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", fullPath, err)
	}
	return nil
}
