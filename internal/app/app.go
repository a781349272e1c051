// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	gcsstorage "cloud.google.com/go/storage"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/coroscristianos/contentgen/internal/artifact"
	"github.com/coroscristianos/contentgen/internal/catalog"
	"github.com/coroscristianos/contentgen/internal/clock/system"
	"github.com/coroscristianos/contentgen/internal/config"
	"github.com/coroscristianos/contentgen/internal/generate"
	"github.com/coroscristianos/contentgen/internal/hash/sha256"
	"github.com/coroscristianos/contentgen/internal/id/uuid"
	"github.com/coroscristianos/contentgen/internal/logging"
	"github.com/coroscristianos/contentgen/internal/metrics"
	"github.com/coroscristianos/contentgen/internal/policy/ratelimit"
	memorypublisher "github.com/coroscristianos/contentgen/internal/publisher/memory"
	"github.com/coroscristianos/contentgen/internal/publisher/pubsub"
	"github.com/coroscristianos/contentgen/internal/song"
	"github.com/coroscristianos/contentgen/internal/source"
	"github.com/coroscristianos/contentgen/internal/storage"
	"github.com/coroscristianos/contentgen/internal/storage/gcs"
	"github.com/coroscristianos/contentgen/internal/storage/local"
	"github.com/coroscristianos/contentgen/internal/storage/memory"
	"github.com/coroscristianos/contentgen/internal/storage/postgres"
)

// App holds the services shared by every command.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	fs        afero.Fs
	store     storage.BlobStore
	metrics   *metrics.Recorder
	publisher generate.Publisher
	runs      generate.RunRecorder
	generator *generate.Generator
	closers   []func()
}

// Option customizes App construction.
type Option func(*App)

// WithFs reads source records (and local artifacts) through fs instead of the OS.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithLogger replaces the configured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithStore replaces the configured blob store.
func WithStore(store storage.BlobStore) Option {
	return func(a *App) { a.store = store }
}

// WithPublisher replaces the configured run notification publisher.
func WithPublisher(p generate.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

// WithRunRecorder replaces the configured run ledger.
func WithRunRecorder(r generate.RunRecorder) Option {
	return func(a *App) { a.runs = r }
}

// New builds every service described by cfg. On error, services opened so
// far are released.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		a.logger = logger
	}
	if a.fs == nil {
		a.fs = afero.NewOsFs()
	}
	a.metrics = metrics.New()

	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.cfg
	if a.store == nil {
		store, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		a.store = ratelimit.Wrap(store, ratelimit.Config{
			RPS:   cfg.Storage.MaxWritesPerSecond,
			Burst: cfg.Storage.WriteBurst,
		})
	}

	switch {
	case a.publisher != nil:
	case !cfg.PubSub.Enabled():
		a.publisher = memorypublisher.New()
	default:
		pub, client, err := pubsub.Open(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return fmt.Errorf("init pubsub: %w", err)
		}
		a.logger.Info("publishing run notifications", zap.String("topic", cfg.PubSub.TopicName))
		a.publisher = pub
		a.closers = append(a.closers, pub.Close, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("close pubsub client", zap.Error(err))
			}
		})
	}

	if a.runs == nil && cfg.DB.DSN != "" {
		runs, err := postgres.NewRunStore(ctx, postgres.RunStoreConfig{
			DSN:             cfg.DB.DSN,
			Table:           cfg.DB.Table,
			MaxConns:        cfg.DB.MaxConns,
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("init run store: %w", err)
		}
		a.closers = append(a.closers, runs.Close)
		if cfg.DB.AutoMigrate {
			if err := runs.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("migrate run store: %w", err)
			}
		}
		a.runs = runs
	}

	var clock generate.Clock = system.New()
	if cfg.Generate.SourceDateEpoch != "" {
		at, err := system.ParseEpoch(cfg.Generate.SourceDateEpoch)
		if err != nil {
			return fmt.Errorf("generate.source_date_epoch: %w", err)
		}
		clock = system.NewFixed(at)
	}

	normalizer := song.NewNormalizer(song.Options{
		PreviewLength: cfg.Generate.ArtistPreviewLength,
		StanzaGap:     cfg.Generate.StanzaGap,
		ThumbnailTier: cfg.Generate.ThumbnailTier,
	})
	reader := source.NewReader(a.fs, source.Config{
		Dir:       cfg.Source.Dir,
		BatchSize: cfg.Source.BatchSize,
	}, normalizer, a.logger.Named("source"))
	writer := artifact.NewWriter(a.store, sha256.New(), a.logger.Named("artifact"), artifact.Options{
		Concurrency: cfg.Generate.WriteConcurrency,
	})

	deps := generate.Deps{
		Loader:    reader,
		Writer:    writer,
		Clock:     clock,
		IDs:       uuid.New(),
		Publisher: a.publisher,
		Runs:      a.runs,
		Metrics:   a.metrics,
		Logger:    a.logger.Named("generate"),
	}
	gen, err := generate.New(deps, a.GenerateOptions(0))
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}
	a.generator = gen
	return nil
}

func (a *App) openStore(ctx context.Context) (storage.BlobStore, error) {
	cfg := a.cfg.Storage
	switch cfg.Backend {
	case config.BackendGCS:
		client, err := gcsstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("close gcs client", zap.Error(err))
			}
		})
		a.logger.Info("using gcs storage", zap.String("bucket", cfg.GCSBucket), zap.String("prefix", cfg.Prefix))
		return gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket, Prefix: cfg.Prefix, CacheControl: cfg.CacheControl})
	case config.BackendNoop:
		a.logger.Info("using no-op storage; artifacts are discarded")
		return storage.NoOpStore{}, nil
	case config.BackendMemory:
		a.logger.Info("using in-memory storage; artifacts are discarded on exit")
		return memory.NewBlobStore(), nil
	default:
		store, err := local.NewWithFs(a.fs, local.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		a.logger.Debug("using local storage", zap.String("base_dir", store.BaseDir()))
		return store, nil
	}
}

// GenerateOptions maps configuration onto generator options. A positive
// perPage overrides generate.per_page.
func (a *App) GenerateOptions(perPage int) generate.Options {
	g := a.cfg.Generate
	if perPage <= 0 {
		perPage = g.PerPage
	}
	return generate.Options{
		Paths: generate.Paths{
			ArtistsDir: a.cfg.Output.ArtistsDir,
			HomeDir:    a.cfg.Output.HomeDir,
			SearchPath: a.cfg.Output.SearchPath,
			VideosPath: a.cfg.Output.VideosPath,
			LyricsDir:  a.cfg.Output.LyricsDir,
		},
		PerPage:             perPage,
		ArtistPreviewLength: g.ArtistPreviewLength,
		HomePreviewLength:   g.HomePreviewLength,
		RecentLimit:         g.RecentLimit,
		Videos: catalog.VideoOptions{
			MaxPerArtist:  g.MaxVideosPerArtist,
			MinToQualify:  g.MinVideosToQualify,
			MinIDLength:   g.MinVideoIDLength,
			ExcludedSlugs: g.ExcludedVideoArtists,
			ThumbnailTier: g.ThumbnailTier,
		},
	}
}

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the artifact blob store.
func (a *App) Store() storage.BlobStore { return a.store }

// Publisher returns the run notification publisher. Without a Pub/Sub topic
// notifications stay in process and are only logged at debug level.
func (a *App) Publisher() generate.Publisher { return a.publisher }

// Metrics returns the run metrics recorder.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// Generate runs steps with the configured generator, or with a per-page
// override when perPage is positive.
func (a *App) Generate(ctx context.Context, perPage int, steps ...generate.Step) (generate.Summary, error) {
	gen := a.generator
	if perPage > 0 && perPage != a.cfg.Generate.PerPage {
		var err error
		gen, err = a.generator.WithOptions(a.GenerateOptions(perPage))
		if err != nil {
			return generate.Summary{}, err
		}
	}
	summary, err := gen.Run(ctx, steps...)
	if limited, ok := a.store.(*ratelimit.Store); ok {
		a.logger.Info("artifact writes throttled",
			zap.String("run_id", summary.RunID),
			zap.Duration("waited", limited.Limiter().Waited()),
		)
	}
	if local, ok := a.publisher.(*memorypublisher.Publisher); ok {
		if n, ok := local.Last(); ok {
			a.logger.Debug("run notification kept in process",
				zap.String("id", n.ID),
				zap.String("event", n.Event),
			)
		}
	}
	a.writeMetrics()
	return summary, err
}

// Sync mirrors the upstream song posts into the source directory.
func (a *App) Sync(ctx context.Context) (source.SyncResult, error) {
	return source.Sync(ctx, a.fs, a.cfg.Sync.Upstreams(), a.cfg.Source.Dir, a.logger.Named("sync"))
}

func (a *App) writeMetrics() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(filepath.Clean(path)); err != nil {
		a.logger.Warn("write metrics textfile", zap.String("path", path), zap.Error(err))
	}
}

// Close releases services in reverse order of creation and flushes the logger.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
