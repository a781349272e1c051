// Package source loads song-post records from a directory of JSON files.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coroscristianos/contentgen/internal/song"
)

// Errors returned for setup failures. Both abort a generation run.
var (
	ErrSourceMissing = errors.New("source directory not found")
	ErrSourceEmpty   = errors.New("source directory has no song posts")
)

// DefaultBatchSize bounds how many files are open at once while loading.
const DefaultBatchSize = 200

// Extension is the file suffix recognised as a song post.
const Extension = ".json"

// Config controls a Reader.
type Config struct {
	Dir       string
	BatchSize int
}

// Issue records why a file did not produce a song.
type Issue struct {
	File   string
	Reason string
}

// Snapshot is the immutable result of one Load call. It is owned by the
// caller and shared by every derivation step of a single run.
type Snapshot struct {
	Dir     string
	Files   int
	Songs   []song.Song
	Skipped int
	Issues  []Issue
	// Warnings are non-fatal notes about songs that were kept.
	Warnings []Issue
}

// Reader loads song posts. Files are processed in lexicographic order, in
// batches whose reads run concurrently.
type Reader struct {
	fs         afero.Fs
	cfg        Config
	normalizer *song.Normalizer
	logger     *zap.Logger
}

// NewReader builds a Reader over fs.
func NewReader(fs afero.Fs, cfg Config, normalizer *song.Normalizer, logger *zap.Logger) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if normalizer == nil {
		normalizer = song.NewNormalizer(song.Options{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		fs:         fs,
		cfg:        cfg,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Dir is the directory Load reads.
func (r *Reader) Dir() string {
	return r.cfg.Dir
}

type outcome struct {
	song    song.Song
	err     error
	warning string
}

// Load reads every song post in the configured directory. A missing or empty
// directory is fatal; unreadable, malformed or invalid files are skipped and
// reported in the snapshot.
func (r *Reader) Load(ctx context.Context) (Snapshot, error) {
	files, err := ListFiles(r.fs, r.cfg.Dir)
	if err != nil {
		return Snapshot{}, err
	}
	if len(files) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSourceEmpty, r.cfg.Dir)
	}

	snap := Snapshot{Dir: r.cfg.Dir, Files: len(files)}
	for start := 0; start < len(files); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(files))
		batch := files[start:end]
		results := make([]outcome, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, name := range batch {
			i, name := i, name
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("load %s: %w", name, err)
				}
				results[i] = r.loadFile(name)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Snapshot{}, err
		}

		for i, res := range results {
			name := batch[i]
			if res.err != nil {
				snap.Skipped++
				snap.Issues = append(snap.Issues, Issue{File: name, Reason: res.err.Error()})
				r.logger.Warn("skipping song post", zap.String("file", name), zap.Error(res.err))
				continue
			}
			if res.warning != "" {
				snap.Warnings = append(snap.Warnings, Issue{File: name, Reason: res.warning})
				r.logger.Warn("song post lyrics ignored", zap.String("file", name), zap.String("reason", res.warning))
			}
			snap.Songs = append(snap.Songs, res.song)
		}
	}

	r.logger.Info("song posts loaded",
		zap.String("dir", r.cfg.Dir),
		zap.Int("files", snap.Files),
		zap.Int("songs", len(snap.Songs)),
		zap.Int("skipped", snap.Skipped),
	)
	return snap, nil
}

func (r *Reader) loadFile(name string) outcome {
	data, err := afero.ReadFile(r.fs, filepath.Join(r.cfg.Dir, name))
	if err != nil {
		return outcome{err: fmt.Errorf("read: %w", err)}
	}
	rec, err := song.DecodeRecord(data)
	if err != nil {
		return outcome{err: err}
	}
	s, err := r.normalizer.Normalize(rec)
	if err != nil {
		return outcome{err: err}
	}
	s.SourceFile = name
	var warning string
	if rec.Lyrics.Kind == song.LyricsUnsupported {
		warning = "unsupported lyrics shape"
	}
	return outcome{song: s, warning: warning}
}

// ListFiles returns the names of regular song-post files in dir, sorted
// lexicographically. A missing directory yields ErrSourceMissing.
func ListFiles(fs afero.Fs, dir string) ([]string, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, dir)
		}
		return nil, fmt.Errorf("stat source dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceMissing, dir)
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.Mode().IsRegular() && strings.HasSuffix(entry.Name(), Extension) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
