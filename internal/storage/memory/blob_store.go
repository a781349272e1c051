// Package memory stores blob content in-memory for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"
)

// BlobStore stores artifacts in-memory and returns pseudo URIs.
type BlobStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string][]byte),
	}
}

// PutObject persists a copy of the content and returns a memory:// URI.
func (s *BlobStore) PutObject(_ context.Context, p string, _ string, data io.Reader) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	byteData, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read data from reader: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path.Clean(p)] = byteData
	return fmt.Sprintf("memory://%s", path.Clean(p)), nil
}

// ListObjects returns the names of objects whose parent is dir.
func (s *BlobStore) ListObjects(_ context.Context, dir string) ([]string, error) {
	dir = path.Clean(dir)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for key := range s.data {
		if path.Dir(key) == dir {
			names = append(names, path.Base(key))
		}
	}
	sort.Strings(names)
	return names, nil
}

// DeleteObject drops the object at p.
func (s *BlobStore) DeleteObject(_ context.Context, p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path.Clean(p))
	return nil
}

// Get returns a copy of the stored content.
func (s *BlobStore) Get(p string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[path.Clean(p)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Paths lists every stored path, sorted.
func (s *BlobStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.data))
	for key := range s.data {
		paths = append(paths, key)
	}
	sort.Strings(paths)
	return paths
}
