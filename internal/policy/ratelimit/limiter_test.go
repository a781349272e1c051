package ratelimit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coroscristianos/contentgen/internal/storage/memory"
)

func TestLimiterWait(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 20, Burst: 1})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "content/artists"))
	require.NoError(t, l.Wait(ctx, "content/artists"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Positive(t, l.Waited())

	// Separate keys have separate buckets.
	start = time.Now()
	require.NoError(t, l.Wait(ctx, "public/lyrics"))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiterWaitCanceled(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.001, Burst: 1})
	require.NoError(t, l.Wait(context.Background(), "dir"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorContains(t, l.Wait(ctx, "dir"), "rate limit wait")
}

func TestWrap(t *testing.T) {
	t.Parallel()

	inner := memory.NewBlobStore()
	assert.Same(t, inner, Wrap(inner, Config{}))

	wrapped := Wrap(inner, Config{RPS: 1000, Burst: 10})
	limited, ok := wrapped.(*Store)
	require.True(t, ok)

	ctx := context.Background()
	_, err := limited.PutObject(ctx, "lyrics/a.json", "", strings.NewReader("{}"))
	require.NoError(t, err)
	names, err := limited.ListObjects(ctx, "lyrics")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json"}, names)
	require.NoError(t, limited.DeleteObject(ctx, "lyrics/a.json"))
	assert.Empty(t, inner.Paths())
	assert.NotNil(t, limited.Limiter())
}
