// Package postgres provides the Postgres-backed generation run ledger.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coroscristianos/contentgen/internal/artifact"
	"github.com/coroscristianos/contentgen/internal/generate"
)

// DefaultTable holds one row per generation run.
const DefaultTable = "generation_runs"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RunStoreConfig controls the Postgres connection pool used for run rows.
type RunStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RunStore records generation runs in Postgres.
type RunStore struct {
	pool  execCloser
	table string
}

// NewRunStore creates a Postgres-backed RunStore using the provided config.
func NewRunStore(ctx context.Context, cfg RunStoreConfig) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: pool, table: table}, nil
}

// NewRunStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRunStoreWithPool(pool execCloser, table string) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RunStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *RunStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the run table when it does not exist.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id                text PRIMARY KEY,
	status            text NOT NULL,
	steps             jsonb NOT NULL,
	source_dir        text NOT NULL DEFAULT '',
	started_at        timestamptz NOT NULL,
	finished_at       timestamptz,
	files_read        integer NOT NULL DEFAULT 0,
	songs_loaded      integer NOT NULL DEFAULT 0,
	records_skipped   integer NOT NULL DEFAULT 0,
	artifacts_written integer NOT NULL DEFAULT 0,
	artifacts_failed  integer NOT NULL DEFAULT 0,
	manifest          jsonb,
	error             text
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// StartRun inserts a row in the running state.
func (s *RunStore) StartRun(ctx context.Context, run generate.RunStart) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, status, steps, source_dir, started_at)
VALUES ($1,$2,$3,$4,$5)`, s.table)
	if _, err := s.pool.Exec(ctx, query,
		run.ID, string(generate.RunRunning), steps, run.SourceDir, run.StartedAt,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun closes the row for run.ID with its outcome and artifact manifest.
func (s *RunStore) FinishRun(ctx context.Context, run generate.RunFinish) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	manifest := run.Manifest
	if manifest == nil {
		manifest = []artifact.Artifact{}
	}
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	var runErr *string
	if run.Error != "" {
		runErr = &run.Error
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	status = $2,
	finished_at = $3,
	files_read = $4,
	songs_loaded = $5,
	records_skipped = $6,
	artifacts_written = $7,
	artifacts_failed = $8,
	manifest = $9,
	error = $10
WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query,
		run.ID,
		string(run.Status),
		run.FinishedAt,
		run.FilesRead,
		run.SongsLoaded,
		run.RecordsSkipped,
		run.ArtifactsWritten,
		run.ArtifactsFailed,
		manifestJSON,
		runErr,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}
