// Package ratelimit throttles artifact mutations with per-directory token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/coroscristianos/contentgen/internal/storage"
)

// Limiter manages one token bucket per key.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
	waited       time.Duration
}

// Config holds rate limiter configuration. A non-positive RPS disables limiting.
type Config struct {
	RPS   float64
	Burst int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for key, respecting the context.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if d := time.Since(start); d > time.Millisecond {
		l.mu.Lock()
		l.waited += d
		l.mu.Unlock()
	}
	return nil
}

// Waited is the total time callers spent blocked.
func (l *Limiter) Waited() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waited
}

// Store limits writes and deletes on a BlobStore, keyed by the object's
// directory. Listing is not limited.
type Store struct {
	storage.BlobStore
	limiter *Limiter
}

// Wrap returns store unchanged when cfg disables limiting.
func Wrap(store storage.BlobStore, cfg Config) storage.BlobStore {
	if cfg.RPS <= 0 {
		return store
	}
	return &Store{BlobStore: store, limiter: New(cfg)}
}

// Limiter exposes the underlying limiter.
func (s *Store) Limiter() *Limiter {
	return s.limiter
}

// PutObject waits for a token for the object's directory.
func (s *Store) PutObject(ctx context.Context, p, contentType string, r io.Reader) (string, error) {
	if err := s.limiter.Wait(ctx, path.Dir(p)); err != nil {
		return "", err
	}
	return s.BlobStore.PutObject(ctx, p, contentType, r)
}

// DeleteObject waits for a token for the object's directory.
func (s *Store) DeleteObject(ctx context.Context, p string) error {
	if err := s.limiter.Wait(ctx, path.Dir(p)); err != nil {
		return err
	}
	return s.BlobStore.DeleteObject(ctx, p)
}
