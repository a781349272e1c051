package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coroscristianos/contentgen/internal/config"
	"github.com/coroscristianos/contentgen/internal/generate"
	"github.com/coroscristianos/contentgen/internal/policy/ratelimit"
	memorypublisher "github.com/coroscristianos/contentgen/internal/publisher/memory"
	"github.com/coroscristianos/contentgen/internal/storage/memory"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Source.Dir = "posts"
	cfg.Sync.UpstreamDir = "upstream"
	cfg.Sync.Fallbacks = nil
	cfg.Storage.Backend = config.BackendMemory
	cfg.Generate.SourceDateEpoch = "1714564800"
	return cfg
}

func seed(t *testing.T, fs afero.Fs, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(dir, 0o750))
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, name), []byte(body), 0o600))
	}
}

func TestAppGenerateWithMemoryBackend(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, "posts", map[string]string{
		"a.json": `{"slug":"a","title":"Song A","author":"Ana"}`,
		"b.json": `{"slug":"b","title":"Song B","author":"Ana, Luis"}`,
	})
	a, err := New(context.Background(), testConfig(t), WithFs(fs), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	summary, err := a.Generate(context.Background(), 0, generate.StepArtists, generate.StepSearch)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", summary.GeneratedAt)
	assert.Equal(t, 2, summary.SongsLoaded)

	store, ok := a.Store().(*memory.BlobStore)
	require.True(t, ok)
	assert.Equal(t, []string{
		"content/artists/ana.json",
		"content/artists/index.json",
		"content/artists/luis.json",
		"public/search-index.json",
	}, store.Paths())

	pub, ok := a.Publisher().(*memorypublisher.Publisher)
	require.True(t, ok)
	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, generate.EventCompleted, msgs[0].Event)
}

func TestAppGenerateLogsLocalNotification(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, "posts", map[string]string{
		"a.json": `{"slug":"a","title":"Song A","author":"Ana"}`,
	})
	core, logs := observer.New(zapcore.DebugLevel)
	a, err := New(context.Background(), testConfig(t), WithFs(fs), WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Generate(context.Background(), 0, generate.StepSearch)
	require.NoError(t, err)

	entries := logs.FilterMessage("run notification kept in process").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, generate.EventCompleted, entries[0].ContextMap()["event"])
	assert.Equal(t, "local-1", entries[0].ContextMap()["id"])
}

func TestAppGeneratePerPageOverride(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, "posts", map[string]string{
		"a.json": `{"slug":"a","title":"Song A","author":"Ana"}`,
		"b.json": `{"slug":"b","title":"Song B","author":"Ana"}`,
		"c.json": `{"slug":"c","title":"Song C","author":"Ana"}`,
	})
	a, err := New(context.Background(), testConfig(t), WithFs(fs), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Generate(context.Background(), 2, generate.StepHome)
	require.NoError(t, err)

	store := a.Store().(*memory.BlobStore)
	_, ok := store.Get("content/home-pages/home_1.json")
	assert.True(t, ok)
	assert.Equal(t, 2, a.GenerateOptions(2).PerPage)
	assert.Equal(t, 20, a.GenerateOptions(0).PerPage)
}

func TestAppLocalBackendWritesUnderBaseDir(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, "posts", map[string]string{"a.json": `{"slug":"a","title":"Song A","author":"Ana"}`})
	cfg := testConfig(t)
	cfg.Storage.Backend = config.BackendLocal
	cfg.Storage.BaseDir = "/site"

	a, err := New(context.Background(), cfg, WithFs(fs), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Generate(context.Background(), 0, generate.StepLyrics)
	require.NoError(t, err)
	exists, err := afero.Exists(fs, "/site/public/lyrics/a.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAppSync(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, "upstream", map[string]string{"a.json": `{"slug":"a","title":"Song A"}`})
	a, err := New(context.Background(), testConfig(t), WithFs(fs), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "upstream", res.Upstream)
	assert.Equal(t, 1, res.Copied)
	exists, err := afero.Exists(fs, "posts/a.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAppRejectsBadEpoch(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Generate.SourceDateEpoch = "yesterday"
	_, err := New(context.Background(), cfg, WithFs(afero.NewMemMapFs()), WithLogger(zap.NewNop()))
	assert.ErrorContains(t, err, "source_date_epoch")
}

func TestAppThrottlesWritesWhenConfigured(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, "posts", map[string]string{"a.json": `{"slug":"a","title":"Song A","author":"Ana"}`})
	cfg := testConfig(t)
	cfg.Storage.MaxWritesPerSecond = 500

	core, logs := observer.New(zapcore.InfoLevel)
	a, err := New(context.Background(), cfg, WithFs(fs), WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Store().(*ratelimit.Store)
	require.True(t, ok)
	summary, err := a.Generate(context.Background(), 0, generate.StepLyrics)
	require.NoError(t, err)

	entries := logs.FilterMessage("artifact writes throttled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, summary.RunID, entries[0].ContextMap()["run_id"])
	assert.Contains(t, entries[0].ContextMap(), "waited")
}

func TestAppNoopBackendDiscardsArtifacts(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seed(t, fs, "posts", map[string]string{"a.json": `{"slug":"a","title":"Song A","author":"Ana"}`})
	cfg := testConfig(t)
	cfg.Storage.Backend = config.BackendNoop

	a, err := New(context.Background(), cfg, WithFs(fs), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	summary, err := a.Generate(context.Background(), 0, generate.StepArtists)
	require.NoError(t, err)
	require.NotEmpty(t, summary.Manifest())
	assert.Equal(t, "noop://content/artists/ana.json", summary.Manifest()[0].URI)
}
