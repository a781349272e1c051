// Package generate runs the content generation steps over one source
// snapshot and publishes the results.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/coroscristianos/contentgen/internal/artifact"
	"github.com/coroscristianos/contentgen/internal/catalog"
	"github.com/coroscristianos/contentgen/internal/metrics"
	"github.com/coroscristianos/contentgen/internal/song"
	"github.com/coroscristianos/contentgen/internal/source"
)

// TimestampLayout renders generatedAt stamps: UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Paths places every artifact.
type Paths struct {
	ArtistsDir string
	HomeDir    string
	SearchPath string
	VideosPath string
	LyricsDir  string
}

// Options tunes the derived views.
type Options struct {
	Paths               Paths
	PerPage             int
	ArtistPreviewLength int
	HomePreviewLength   int
	RecentLimit         int
	Videos              catalog.VideoOptions
}

// Deps are the collaborators of a Generator. Loader, Writer, Clock and IDs
// are required; the rest may be nil.
type Deps struct {
	Loader    Loader
	Writer    ArtifactWriter
	Clock     Clock
	IDs       IDGenerator
	Publisher Publisher
	Runs      RunRecorder
	Metrics   Metrics
	Logger    *zap.Logger
}

// Generator derives and writes the published views.
type Generator struct {
	deps Deps
	opts Options
}

// New validates deps and builds a Generator.
func New(deps Deps, opts Options) (*Generator, error) {
	switch {
	case deps.Loader == nil:
		return nil, fmt.Errorf("loader is required")
	case deps.Writer == nil:
		return nil, fmt.Errorf("artifact writer is required")
	case deps.Clock == nil:
		return nil, fmt.Errorf("clock is required")
	case deps.IDs == nil:
		return nil, fmt.Errorf("id generator is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.PerPage <= 0 {
		opts.PerPage = catalog.DefaultPerPage
	}
	if opts.ArtistPreviewLength <= 0 {
		opts.ArtistPreviewLength = song.DefaultPreviewLength
	}
	if opts.HomePreviewLength <= 0 {
		opts.HomePreviewLength = catalog.DefaultHomePreviewLength
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = catalog.DefaultRecentLimit
	}
	return &Generator{deps: deps, opts: opts}, nil
}

// WithOptions returns a Generator sharing g's collaborators with opts applied.
func (g *Generator) WithOptions(opts Options) (*Generator, error) {
	return New(g.deps, opts)
}

// run carries the state of one invocation. The snapshot is read once and
// shared by every step.
type run struct {
	generatedAt string
	snapshot    source.Snapshot
	artists     *catalog.ArtistSet
}

// Run loads the source once and executes steps in order. Every step runs
// even when an earlier one fails; the returned error joins all failures.
// Setup failures (missing or empty source) abort before any step.
func (g *Generator) Run(ctx context.Context, steps ...Step) (Summary, error) {
	if len(steps) == 0 {
		steps = AllSteps
	}
	logger := g.deps.Logger

	runID, err := g.deps.IDs.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	startedAt := g.deps.Clock.Now().UTC()
	r := &run{generatedAt: startedAt.Format(TimestampLayout)}
	summary := Summary{RunID: runID, GeneratedAt: r.generatedAt}
	logger = logger.With(zap.String("run_id", runID))

	start := RunStart{ID: runID, StartedAt: startedAt, Steps: steps}
	if d, ok := g.deps.Loader.(interface{ Dir() string }); ok {
		start.SourceDir = d.Dir()
	}
	g.startRun(ctx, start, logger)

	snap, err := g.deps.Loader.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load source: %w", err)
		g.finish(ctx, summary, steps, err, logger)
		return summary, err
	}
	r.snapshot = snap
	summary.SourceDir = snap.Dir
	summary.FilesRead = snap.Files
	summary.SongsLoaded = len(snap.Songs)
	summary.Skipped = snap.Skipped
	summary.Issues = snap.Issues
	if g.deps.Metrics != nil {
		g.deps.Metrics.ObserveSnapshot(len(snap.Songs), snap.Skipped)
	}
	logger.Info("source loaded",
		zap.String("dir", snap.Dir),
		zap.Int("files", snap.Files),
		zap.Int("songs", len(snap.Songs)),
		zap.Int("skipped", snap.Skipped),
	)

	var errs []error
	for _, step := range steps {
		report := g.runStep(ctx, r, step)
		summary.Steps = append(summary.Steps, report)
		if g.deps.Metrics != nil {
			g.deps.Metrics.ObserveStep(metrics.StepObservation{
				Step:     string(step),
				Written:  report.Written,
				Failed:   report.Failed,
				Bytes:    report.Bytes,
				Duration: report.Duration,
				Err:      report.Err,
				At:       g.deps.Clock.Now(),
			})
		}
		fields := []zap.Field{
			zap.String("step", string(step)),
			zap.Int("written", report.Written),
			zap.Int("failed", report.Failed),
			zap.Int("cleared", report.Cleared),
			zap.Duration("duration", report.Duration),
		}
		if report.Err != nil {
			logger.Error("step failed", append(fields, zap.Error(report.Err))...)
			errs = append(errs, fmt.Errorf("%s: %w", step, report.Err))
			continue
		}
		logger.Info("step complete", fields...)
	}

	runErr := errors.Join(errs...)
	g.finish(ctx, summary, steps, runErr, logger)
	return summary, runErr
}

func (g *Generator) runStep(ctx context.Context, r *run, step Step) StepReport {
	started := time.Now()
	report := StepReport{Step: step}
	batches, err := g.batches(r, step)
	if err != nil {
		report.Err = err
		report.Duration = time.Since(started)
		return report
	}
	var errs []error
	for _, batch := range batches {
		res, err := g.deps.Writer.Replace(ctx, batch)
		report.Cleared += res.Cleared
		report.Written += res.Written
		report.Failed += res.Failed
		report.Bytes += res.Bytes
		report.Artifacts = append(report.Artifacts, res.Artifacts...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	report.Err = errors.Join(errs...)
	report.Duration = time.Since(started)
	return report
}

func (g *Generator) batches(r *run, step Step) ([]artifact.Batch, error) {
	switch step {
	case StepArtists:
		return g.artistBatches(r), nil
	case StepHome:
		return g.homeBatches(r), nil
	case StepSearch:
		return []artifact.Batch{single(g.opts.Paths.SearchPath, catalog.BuildSearchIndex(r.snapshot.Songs), true)}, nil
	case StepVideos:
		buckets := catalog.CurateVideos(g.artistSet(r).ByName, g.opts.Videos)
		gallery := catalog.BuildGallery(buckets, r.generatedAt)
		return []artifact.Batch{single(g.opts.Paths.VideosPath, gallery, false)}, nil
	case StepLyrics:
		return g.lyricsBatches(r), nil
	default:
		return nil, fmt.Errorf("unknown step %q", step)
	}
}

func (g *Generator) artistSet(r *run) catalog.ArtistSet {
	if r.artists == nil {
		set := catalog.GroupArtists(r.snapshot.Songs)
		for _, d := range set.Dropped {
			g.deps.Logger.Warn("author attribution dropped",
				zap.String("song", d.SongSlug),
				zap.String("author", d.Author),
				zap.String("reason", d.Reason),
			)
		}
		r.artists = &set
	}
	return *r.artists
}

func (g *Generator) artistBatches(r *run) []artifact.Batch {
	set := g.artistSet(r)
	docs := make([]artifact.Document, 0, len(set.ByName)+1)
	for _, a := range set.ByName {
		docs = append(docs, artifact.Document{Name: a.FileName(), Data: a.Detail(g.opts.ArtistPreviewLength)})
	}
	docs = append(docs, artifact.Document{Name: catalog.IndexFile, Data: catalog.BuildArtistIndex(set, r.generatedAt)})
	return []artifact.Batch{{Dir: g.opts.Paths.ArtistsDir, ClearPattern: "*.json", Documents: docs}}
}

func (g *Generator) homeBatches(r *run) []artifact.Batch {
	pages := catalog.Paginate(r.snapshot.Songs, g.opts.PerPage, g.opts.HomePreviewLength)
	docs := make([]artifact.Document, 0, len(pages)+2)
	for _, p := range pages {
		docs = append(docs, artifact.Document{Name: catalog.PageFileName(p.Page), Data: p})
	}
	docs = append(docs,
		artifact.Document{Name: catalog.IndexFile, Data: catalog.BuildHomeIndex(pages, g.opts.PerPage, r.generatedAt)},
		artifact.Document{
			Name: catalog.RecentFile,
			Data: catalog.RecentSongs(r.snapshot.Songs, g.opts.RecentLimit, g.opts.HomePreviewLength, r.generatedAt),
		},
	)
	return []artifact.Batch{{Dir: g.opts.Paths.HomeDir, ClearPattern: catalog.PageFilePrefix + "*.json", Documents: docs}}
}

func (g *Generator) lyricsBatches(r *run) []artifact.Batch {
	lyrics := catalog.BuildLyrics(r.snapshot.Songs)
	docs := make([]artifact.Document, 0, len(lyrics))
	for _, doc := range lyrics {
		docs = append(docs, artifact.Document{Name: doc.FileName(), Data: doc})
	}
	return []artifact.Batch{{Dir: g.opts.Paths.LyricsDir, ClearPattern: "*.json", Documents: docs}}
}

func single(target string, data any, compact bool) artifact.Batch {
	return artifact.Batch{
		Dir:       path.Dir(target),
		Documents: []artifact.Document{{Name: path.Base(target), Data: data, Compact: compact}},
	}
}

func (g *Generator) startRun(ctx context.Context, start RunStart, logger *zap.Logger) {
	if g.deps.Runs == nil {
		return
	}
	if err := g.deps.Runs.StartRun(ctx, start); err != nil {
		logger.Warn("record run start failed", zap.Error(err))
	}
}

// finish closes the ledger entry and publishes the notification. Both are
// best effort: their failures are logged and never change the run outcome.
func (g *Generator) finish(ctx context.Context, summary Summary, steps []Step, runErr error, logger *zap.Logger) {
	status := RunSucceeded
	errText := ""
	if runErr != nil {
		status = RunFailed
		errText = runErr.Error()
	}
	manifest := summary.Manifest()

	if g.deps.Runs != nil {
		err := g.deps.Runs.FinishRun(ctx, RunFinish{
			ID:               summary.RunID,
			FinishedAt:       g.deps.Clock.Now().UTC(),
			Status:           status,
			FilesRead:        summary.FilesRead,
			SongsLoaded:      summary.SongsLoaded,
			RecordsSkipped:   summary.Skipped,
			ArtifactsWritten: summary.Written(),
			ArtifactsFailed:  summary.Failed(),
			Manifest:         manifest,
			Error:            errText,
		})
		if err != nil {
			logger.Warn("record run finish failed", zap.Error(err))
		}
	}

	if g.deps.Publisher != nil {
		event := EventCompleted
		if runErr != nil {
			event = EventFailed
		}
		id, err := g.deps.Publisher.Publish(ctx, event, Notification{
			RunID:       summary.RunID,
			Status:      status,
			GeneratedAt: summary.GeneratedAt,
			Steps:       steps,
			SongsLoaded: summary.SongsLoaded,
			Skipped:     summary.Skipped,
			Written:     summary.Written(),
			Failed:      summary.Failed(),
			Artifacts:   manifest,
			Error:       errText,
		})
		if err != nil {
			logger.Warn("publish run notification failed", zap.Error(err))
		} else {
			logger.Debug("run notification published", zap.String("message_id", id), zap.String("event", event))
		}
	}
}
