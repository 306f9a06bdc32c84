// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Render    RenderConfig    `mapstructure:"render"`
	Snapshots SnapshotsConfig `mapstructure:"snapshots"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Recrawl   RecrawlConfig   `mapstructure:"recrawl"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs default crawl behavior; individual crawl requests
// may override the per-crawl knobs.
type CrawlerConfig struct {
	UserAgent       string `mapstructure:"user_agent"`
	MaxPages        int    `mapstructure:"max_pages"`
	MaxDepth        int    `mapstructure:"max_depth"`
	Concurrency     int    `mapstructure:"concurrency"`
	RespectRobots   bool   `mapstructure:"respect_robots"`
	PerPageMaxLen   int    `mapstructure:"per_page_max_len"`
	AggregateMaxLen int    `mapstructure:"aggregate_max_len"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// RenderConfig configures the headless rendering subsystem.
type RenderConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	MaxParallel    int  `mapstructure:"max_parallel"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds"`
}

// SnapshotsConfig selects and configures the snapshot store backend.
type SnapshotsConfig struct {
	Provider      string `mapstructure:"provider"`
	LocalDir      string `mapstructure:"local_dir"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	PostgresTable string `mapstructure:"postgres_table"`
	GCSBucket     string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for crawl-completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// RecrawlConfig controls the periodic staleness-based re-crawl loop.
type RecrawlConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	StalenessHours  int  `mapstructure:"staleness_hours"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITECRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.user_agent", "shopsage-bot/1.0 (+https://github.com/shopsage/crawler)")
	v.SetDefault("crawler.max_pages", 100)
	v.SetDefault("crawler.max_depth", 4)
	v.SetDefault("crawler.concurrency", 5)
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.per_page_max_len", 4000)
	v.SetDefault("crawler.aggregate_max_len", 100000)
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("render.enabled", false)
	v.SetDefault("render.max_parallel", 1)
	v.SetDefault("render.timeout_seconds", 20)
	v.SetDefault("snapshots.provider", "memory")
	v.SetDefault("snapshots.local_dir", "data/snapshots")
	v.SetDefault("snapshots.postgres_table", "site_snapshots")
	v.SetDefault("recrawl.enabled", false)
	v.SetDefault("recrawl.interval_minutes", 60)
	v.SetDefault("recrawl.staleness_hours", 24)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be > 0")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Render.Enabled && c.Render.MaxParallel <= 0 {
		return fmt.Errorf("render.max_parallel must be > 0 when rendering is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Snapshots.Provider {
	case "memory":
	case "local":
		if c.Snapshots.LocalDir == "" {
			return fmt.Errorf("snapshots.local_dir must be set for the local provider")
		}
	case "postgres":
		if c.Snapshots.PostgresDSN == "" {
			return fmt.Errorf("snapshots.postgres_dsn must be set for the postgres provider")
		}
	case "gcs":
		if c.Snapshots.GCSBucket == "" {
			return fmt.Errorf("snapshots.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("unknown snapshots.provider %q", c.Snapshots.Provider)
	}
	if c.Recrawl.Enabled {
		if c.Recrawl.IntervalMinutes <= 0 {
			return fmt.Errorf("recrawl.interval_minutes must be > 0 when recrawl is enabled")
		}
		if c.Recrawl.StalenessHours <= 0 {
			return fmt.Errorf("recrawl.staleness_hours must be > 0 when recrawl is enabled")
		}
	}
	return nil
}

// FetchTimeout converts the crawler timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// RenderTimeout converts the render timeout config into a duration.
func (c Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}
