// Package storage defines the blob store contract used to publish generated
// artifacts. Implementations live in the local, memory and gcs subpackages.
package storage

import (
	"context"
	"io"
)

// ContentTypeJSON is the content type of every generated artifact.
const ContentTypeJSON = "application/json"

// BlobStore persists named objects. Paths are slash separated and relative to
// the store root unless the implementation says otherwise.
type BlobStore interface {
	// PutObject writes the object at path, replacing any previous content,
	// and returns a URI identifying it.
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
	// ListObjects returns the base names of the objects directly inside dir,
	// sorted. A missing dir yields an empty list.
	ListObjects(ctx context.Context, dir string) ([]string, error)
	// DeleteObject removes the object at path. Deleting a missing object is
	// not an error.
	DeleteObject(ctx context.Context, path string) error
}

// NoOpStore discards writes. It backs dry runs.
type NoOpStore struct{}

// PutObject drops the content and returns a noop:// URI.
func (NoOpStore) PutObject(_ context.Context, path string, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "noop://" + path, nil
}

// ListObjects always reports an empty directory.
func (NoOpStore) ListObjects(context.Context, string) ([]string, error) {
	return nil, nil
}

// DeleteObject does nothing.
func (NoOpStore) DeleteObject(context.Context, string) error {
	return nil
}
