package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Dir != "content/song-posts" || cfg.Source.BatchSize != 200 {
		t.Fatalf("unexpected source defaults: %+v", cfg.Source)
	}
	if cfg.Generate.PerPage != 20 || cfg.Generate.StanzaGap != 4 {
		t.Fatalf("unexpected generate defaults: %+v", cfg.Generate)
	}
	if cfg.Generate.ArtistPreviewLength != 180 || cfg.Generate.HomePreviewLength != 220 {
		t.Fatalf("unexpected preview defaults: %+v", cfg.Generate)
	}
	if len(cfg.Generate.ExcludedVideoArtists) != 1 || cfg.Generate.ExcludedVideoArtists[0] != "desconocido" {
		t.Fatalf("unexpected excluded artists: %v", cfg.Generate.ExcludedVideoArtists)
	}
	if cfg.Output.SearchPath != "public/search-index.json" {
		t.Fatalf("unexpected search path %q", cfg.Output.SearchPath)
	}
	if cfg.Storage.Backend != BackendLocal || cfg.DB.Table != "generation_runs" {
		t.Fatalf("unexpected storage/db defaults: %+v %+v", cfg.Storage, cfg.DB)
	}
	if cfg.DB.MaxConnLifetime != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %v", cfg.DB.MaxConnLifetime)
	}
	if got := cfg.Sync.Upstreams(); len(got) != 1 || got[0] != "../song-posts" {
		t.Fatalf("unexpected upstreams %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
source:
  dir: /data/song-posts
  batch_size: 50
output:
  lyrics_dir: site/lyrics
generate:
  per_page: 30
  excluded_video_artists: [desconocido, varios]
storage:
  backend: gcs
  gcs_bucket: coros-site
  prefix: v2
pubsub:
  project_id: coros
  topic_name: content-runs
logging:
  development: false
  level: warn
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Dir != "/data/song-posts" || cfg.Source.BatchSize != 50 {
		t.Fatalf("expected source overrides to apply: %+v", cfg.Source)
	}
	if cfg.Output.LyricsDir != "site/lyrics" || cfg.Output.ArtistsDir != "content/artists" {
		t.Fatalf("expected partial output override: %+v", cfg.Output)
	}
	if cfg.Generate.PerPage != 30 || len(cfg.Generate.ExcludedVideoArtists) != 2 {
		t.Fatalf("expected generate overrides: %+v", cfg.Generate)
	}
	if cfg.Storage.GCSBucket != "coros-site" || !cfg.PubSub.Enabled() {
		t.Fatalf("expected storage and pubsub overrides: %+v %+v", cfg.Storage, cfg.PubSub)
	}
	if cfg.Logging.Development || cfg.Logging.Level != "warn" {
		t.Fatalf("expected logging overrides: %+v", cfg.Logging)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("SONG_POSTS_DIR", "/legacy/posts")
	t.Setenv("HOME_PAGES_DIR", "/legacy/home")
	t.Setenv("SONG_POSTS_SOURCE_DIR", "/upstream")
	t.Setenv("CONTENTGEN_GENERATE_PER_PAGE", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Dir != "/legacy/posts" || cfg.Output.HomeDir != "/legacy/home" {
		t.Fatalf("expected legacy env overrides: %+v %+v", cfg.Source, cfg.Output)
	}
	if cfg.Generate.PerPage != 12 {
		t.Fatalf("expected prefixed env override, got %d", cfg.Generate.PerPage)
	}
	if got := cfg.Sync.Upstreams(); len(got) != 2 || got[0] != "/upstream" {
		t.Fatalf("expected upstream env first, got %v", got)
	}
}

func TestLoadPrefixedEnvBeatsLegacy(t *testing.T) {
	t.Setenv("ARTISTS_DIR", "/legacy/artists")
	t.Setenv("CONTENTGEN_OUTPUT_ARTISTS_DIR", "/new/artists")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.ArtistsDir != "/new/artists" {
		t.Fatalf("expected prefixed env to win, got %q", cfg.Output.ArtistsDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected missing config file to fail")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "missing source", mutate: func(c *Config) { c.Source.Dir = " " }, want: "source.dir"},
		{name: "invalid batch", mutate: func(c *Config) { c.Source.BatchSize = 0 }, want: "source.batch_size"},
		{name: "missing lyrics dir", mutate: func(c *Config) { c.Output.LyricsDir = "" }, want: "output.lyrics_dir"},
		{name: "invalid per page", mutate: func(c *Config) { c.Generate.PerPage = -1 }, want: "generate.per_page"},
		{name: "invalid preview", mutate: func(c *Config) { c.Generate.HomePreviewLength = 0 }, want: "preview"},
		{name: "narrow stanza gap", mutate: func(c *Config) { c.Generate.StanzaGap = 1 }, want: "generate.stanza_gap"},
		{name: "invalid qualify", mutate: func(c *Config) { c.Generate.MinVideosToQualify = 0 }, want: "generate.min_videos_to_qualify"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }, want: "storage.backend"},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Storage.Backend = BackendGCS }, want: "storage.gcs_bucket"},
		{name: "negative write rate", mutate: func(c *Config) { c.Storage.MaxWritesPerSecond = -1 }, want: "storage.max_writes_per_second"},
		{name: "topic without project", mutate: func(c *Config) { c.PubSub.TopicName = "runs" }, want: "pubsub.project_id"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Generate.ExcludedVideoArtists = append([]string(nil), base.Generate.ExcludedVideoArtists...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("LYRICS_DIR", "/from/shell")
	path := filepath.Join(t.TempDir(), ".env")
	body := "SONG_POSTS_DIR=/from/dotenv\nLYRICS_DIR=/from/dotenv-lyrics\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("SONG_POSTS_DIR") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Dir != "/from/dotenv" {
		t.Fatalf("expected dotenv source dir, got %q", cfg.Source.Dir)
	}
	if cfg.Output.LyricsDir != "/from/shell" {
		t.Fatalf("expected shell env to win, got %q", cfg.Output.LyricsDir)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}
