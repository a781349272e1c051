// Package artifact writes derived JSON documents through a storage.BlobStore.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coroscristianos/contentgen/internal/storage"
)

// ErrWriteFailed marks a batch in which at least one document could not be
// cleared or written.
var ErrWriteFailed = errors.New("artifact write failed")

// DefaultConcurrency bounds simultaneous writes within a batch.
const DefaultConcurrency = 16

// Document is one named artifact. Data is encoded as JSON: indented unless
// Compact is set.
type Document struct {
	Name    string
	Data    any
	Compact bool
}

// Batch is a set of documents replacing the previous generation in Dir.
type Batch struct {
	Dir string
	// ClearPattern selects, with path.Match, the existing files in Dir that
	// are deleted before writing. Empty leaves Dir untouched.
	ClearPattern string
	Documents    []Document
}

// Artifact describes a written document.
type Artifact struct {
	Name   string `json:"name"`
	URI    string `json:"uri"`
	Bytes  int    `json:"bytes"`
	Digest string `json:"digest"`
}

// Failure describes a document that could not be written.
type Failure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// Result summarises one Replace call.
type Result struct {
	Dir       string
	Cleared   int
	Written   int
	Failed    int
	Bytes     int64
	Artifacts []Artifact
	Failures  []Failure
}

// Hasher fingerprints artifact bodies.
type Hasher interface {
	Digest(data []byte) string
}

// Options tunes a Writer.
type Options struct {
	Concurrency int
}

// Writer encodes and stores artifact batches.
type Writer struct {
	store       storage.BlobStore
	hasher      Hasher
	logger      *zap.Logger
	concurrency int
}

// NewWriter builds a Writer.
func NewWriter(store storage.BlobStore, hasher Hasher, logger *zap.Logger, opts Options) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Writer{
		store:       store,
		hasher:      hasher,
		logger:      logger,
		concurrency: opts.Concurrency,
	}
}

// Encode renders v the way every artifact is stored: UTF-8 JSON without HTML
// escaping, two-space indented unless compact, newline terminated.
func Encode(v any, compact bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Replace clears the files of the previous generation, then writes every
// document. A failed clear aborts the batch before anything is written. A
// failed document write does not stop its siblings; all failures are
// returned joined under ErrWriteFailed once every write has been attempted.
func (w *Writer) Replace(ctx context.Context, b Batch) (Result, error) {
	res := Result{Dir: b.Dir}
	if b.ClearPattern != "" {
		cleared, err := w.clear(ctx, b.Dir, b.ClearPattern)
		res.Cleared = cleared
		if err != nil {
			return res, fmt.Errorf("%w: clear %s: %w", ErrWriteFailed, b.Dir, err)
		}
	}

	var (
		mu        sync.Mutex
		artifacts = make([]*Artifact, len(b.Documents))
		failures  = make([]error, len(b.Documents))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, doc := range b.Documents {
		i, doc := i, doc
		g.Go(func() error {
			art, err := w.write(gctx, b.Dir, doc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[i] = err
				return nil
			}
			artifacts[i] = &art
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, doc := range b.Documents {
		if err := failures[i]; err != nil {
			res.Failed++
			res.Failures = append(res.Failures, Failure{Name: doc.Name, Err: err})
			errs = append(errs, err)
			w.logger.Error("artifact write failed",
				zap.String("dir", b.Dir),
				zap.String("name", doc.Name),
				zap.Error(err),
			)
			continue
		}
		art := artifacts[i]
		res.Written++
		res.Bytes += int64(art.Bytes)
		res.Artifacts = append(res.Artifacts, *art)
	}
	if len(errs) > 0 {
		return res, fmt.Errorf("%w: %d of %d documents in %s: %w",
			ErrWriteFailed, res.Failed, len(b.Documents), b.Dir, errors.Join(errs...))
	}
	return res, nil
}

func (w *Writer) clear(ctx context.Context, dir, pattern string) (int, error) {
	names, err := w.store.ListObjects(ctx, dir)
	if err != nil {
		return 0, err
	}
	cleared := 0
	for _, name := range names {
		ok, err := path.Match(pattern, name)
		if err != nil {
			return cleared, fmt.Errorf("bad clear pattern %q: %w", pattern, err)
		}
		if !ok {
			continue
		}
		if err := w.store.DeleteObject(ctx, path.Join(dir, name)); err != nil {
			return cleared, err
		}
		cleared++
	}
	if cleared > 0 {
		w.logger.Debug("cleared previous artifacts", zap.String("dir", dir), zap.Int("count", cleared))
	}
	return cleared, nil
}

func (w *Writer) write(ctx context.Context, dir string, doc Document) (Artifact, error) {
	if doc.Name == "" {
		return Artifact{}, fmt.Errorf("document name is required")
	}
	data, err := Encode(doc.Data, doc.Compact)
	if err != nil {
		return Artifact{}, fmt.Errorf("encode %s: %w", doc.Name, err)
	}
	target := path.Join(dir, doc.Name)
	uri, err := w.store.PutObject(ctx, target, storage.ContentTypeJSON, bytes.NewReader(data))
	if err != nil {
		return Artifact{}, fmt.Errorf("write %s: %w", target, err)
	}
	art := Artifact{Name: doc.Name, URI: uri, Bytes: len(data)}
	if w.hasher != nil {
		art.Digest = w.hasher.Digest(data)
	}
	return art, nil
}
