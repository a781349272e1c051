// Package config loads and validates generator configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/coroscristianos/contentgen/internal/logging"
)

// EnvPrefix namespaces environment overrides (CONTENTGEN_SOURCE_DIR, ...).
const EnvPrefix = "CONTENTGEN"

// Storage backends.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
	BackendNoop   = "noop"
)

// Config captures all generator configuration knobs loaded via Viper.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Output   OutputConfig   `mapstructure:"output"`
	Generate GenerateConfig `mapstructure:"generate"`
	Storage  StorageConfig  `mapstructure:"storage"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	DB       DBConfig       `mapstructure:"db"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  logging.Config `mapstructure:"logging"`
}

// SourceConfig locates the song-post records.
type SourceConfig struct {
	Dir       string `mapstructure:"dir"`
	BatchSize int    `mapstructure:"batch_size"`
}

// SyncConfig locates the upstream song-post checkout.
type SyncConfig struct {
	// UpstreamDir wins when set; otherwise Fallbacks are tried in order.
	UpstreamDir string   `mapstructure:"upstream_dir"`
	Fallbacks   []string `mapstructure:"fallbacks"`
}

// Upstreams lists candidate upstream directories in priority order.
func (s SyncConfig) Upstreams() []string {
	var out []string
	if dir := strings.TrimSpace(s.UpstreamDir); dir != "" {
		out = append(out, dir)
	}
	return append(out, s.Fallbacks...)
}

// OutputConfig places every artifact relative to the storage root.
type OutputConfig struct {
	ArtistsDir string `mapstructure:"artists_dir"`
	HomeDir    string `mapstructure:"home_dir"`
	SearchPath string `mapstructure:"search_path"`
	VideosPath string `mapstructure:"videos_path"`
	LyricsDir  string `mapstructure:"lyrics_dir"`
}

// GenerateConfig tunes the derived views.
type GenerateConfig struct {
	PerPage              int      `mapstructure:"per_page"`
	ArtistPreviewLength  int      `mapstructure:"artist_preview_length"`
	HomePreviewLength    int      `mapstructure:"home_preview_length"`
	StanzaGap            int      `mapstructure:"stanza_gap"`
	ThumbnailTier        string   `mapstructure:"thumbnail_tier"`
	MaxVideosPerArtist   int      `mapstructure:"max_videos_per_artist"`
	MinVideosToQualify   int      `mapstructure:"min_videos_to_qualify"`
	MinVideoIDLength     int      `mapstructure:"min_video_id_length"`
	ExcludedVideoArtists []string `mapstructure:"excluded_video_artists"`
	RecentLimit          int      `mapstructure:"recent_limit"`
	WriteConcurrency     int      `mapstructure:"write_concurrency"`
	// SourceDateEpoch pins every generatedAt stamp (unix seconds or RFC 3339).
	SourceDateEpoch string `mapstructure:"source_date_epoch"`
}

// StorageConfig selects where artifacts are published.
type StorageConfig struct {
	Backend      string `mapstructure:"backend"`
	BaseDir      string `mapstructure:"base_dir"`
	GCSBucket    string `mapstructure:"gcs_bucket"`
	Prefix       string `mapstructure:"prefix"`
	CacheControl string `mapstructure:"cache_control"`
	// MaxWritesPerSecond throttles puts and deletes per directory; 0 disables.
	MaxWritesPerSecond float64 `mapstructure:"max_writes_per_second"`
	WriteBurst         int     `mapstructure:"write_burst"`
}

// PubSubConfig holds metadata for run notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Enabled reports whether notifications should be published.
func (p PubSubConfig) Enabled() bool {
	return p.TopicName != ""
}

// DBConfig controls the run ledger connection.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// MetricsConfig controls the Prometheus textfile dump.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// legacyEnv maps config keys to the environment names older deployments use.
var legacyEnv = map[string]string{
	"source.dir":                 "SONG_POSTS_DIR",
	"sync.upstream_dir":          "SONG_POSTS_SOURCE_DIR",
	"output.artists_dir":         "ARTISTS_DIR",
	"output.home_dir":            "HOME_PAGES_DIR",
	"output.videos_path":         "VIDEOS_PATH",
	"output.lyrics_dir":          "LYRICS_DIR",
	"output.search_path":         "SEARCH_INDEX_PATH",
	"generate.source_date_epoch": "SOURCE_DATE_EPOCH",
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadDotEnv exports the variables in a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.dir", "content/song-posts")
	v.SetDefault("source.batch_size", 200)
	v.SetDefault("sync.upstream_dir", "")
	v.SetDefault("sync.fallbacks", []string{"../song-posts"})
	v.SetDefault("output.artists_dir", "content/artists")
	v.SetDefault("output.home_dir", "content/home-pages")
	v.SetDefault("output.search_path", "public/search-index.json")
	v.SetDefault("output.videos_path", "content/videos.json")
	v.SetDefault("output.lyrics_dir", "public/lyrics")
	v.SetDefault("generate.per_page", 20)
	v.SetDefault("generate.artist_preview_length", 180)
	v.SetDefault("generate.home_preview_length", 220)
	v.SetDefault("generate.stanza_gap", 4)
	v.SetDefault("generate.thumbnail_tier", "hqdefault")
	v.SetDefault("generate.max_videos_per_artist", 5)
	v.SetDefault("generate.min_videos_to_qualify", 3)
	v.SetDefault("generate.min_video_id_length", 6)
	v.SetDefault("generate.excluded_video_artists", []string{"desconocido"})
	v.SetDefault("generate.recent_limit", 180)
	v.SetDefault("generate.write_concurrency", 16)
	v.SetDefault("generate.source_date_epoch", "")
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.base_dir", ".")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.cache_control", "")
	v.SetDefault("storage.max_writes_per_second", 0)
	v.SetDefault("storage.write_burst", 10)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "generation_runs")
	v.SetDefault("db.max_conns", 2)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.auto_migrate", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.Dir) == "" {
		return fmt.Errorf("source.dir is required")
	}
	if c.Source.BatchSize <= 0 {
		return fmt.Errorf("source.batch_size must be > 0")
	}
	for key, value := range map[string]string{
		"output.artists_dir": c.Output.ArtistsDir,
		"output.home_dir":    c.Output.HomeDir,
		"output.search_path": c.Output.SearchPath,
		"output.videos_path": c.Output.VideosPath,
		"output.lyrics_dir":  c.Output.LyricsDir,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	if c.Generate.PerPage <= 0 {
		return fmt.Errorf("generate.per_page must be > 0")
	}
	if c.Generate.ArtistPreviewLength <= 0 || c.Generate.HomePreviewLength <= 0 {
		return fmt.Errorf("generate preview lengths must be > 0")
	}
	if c.Generate.StanzaGap < 2 {
		return fmt.Errorf("generate.stanza_gap must be >= 2")
	}
	if c.Generate.MaxVideosPerArtist <= 0 {
		return fmt.Errorf("generate.max_videos_per_artist must be > 0")
	}
	if c.Generate.MinVideosToQualify < 1 {
		return fmt.Errorf("generate.min_videos_to_qualify must be >= 1")
	}
	if c.Generate.RecentLimit <= 0 {
		return fmt.Errorf("generate.recent_limit must be > 0")
	}
	if !slices.Contains([]string{BackendLocal, BackendGCS, BackendMemory, BackendNoop}, c.Storage.Backend) {
		return fmt.Errorf("storage.backend must be one of local, gcs, memory, noop (got %q)", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendGCS && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
	}
	if c.Storage.MaxWritesPerSecond < 0 {
		return fmt.Errorf("storage.max_writes_per_second must be >= 0")
	}
	if c.PubSub.Enabled() && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}
