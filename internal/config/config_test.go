package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 100, cfg.Crawler.MaxPages)
	require.Equal(t, 4, cfg.Crawler.MaxDepth)
	require.Equal(t, 5, cfg.Crawler.Concurrency)
	require.True(t, cfg.Crawler.RespectRobots)
	require.Equal(t, 4000, cfg.Crawler.PerPageMaxLen)
	require.Equal(t, 100000, cfg.Crawler.AggregateMaxLen)
	require.Equal(t, "memory", cfg.Snapshots.Provider)
	require.False(t, cfg.Render.Enabled)
	require.False(t, cfg.Recrawl.Enabled)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
	require.Equal(t, 20*time.Second, cfg.RenderTimeout())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte(`
server:
  port: 9090
crawler:
  max_pages: 25
  concurrency: 2
snapshots:
  provider: local
  local_dir: /tmp/snaps
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 25, cfg.Crawler.MaxPages)
	require.Equal(t, 2, cfg.Crawler.Concurrency)
	require.Equal(t, "local", cfg.Snapshots.Provider)
	require.Equal(t, "/tmp/snaps", cfg.Snapshots.LocalDir)
	// Untouched fields keep defaults.
	require.Equal(t, 4, cfg.Crawler.MaxDepth)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SITECRAWLER_CRAWLER_MAX_PAGES", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Crawler.MaxPages)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"empty user agent", func(c *Config) { c.Crawler.UserAgent = "" }},
		{"zero max pages", func(c *Config) { c.Crawler.MaxPages = 0 }},
		{"zero concurrency", func(c *Config) { c.Crawler.Concurrency = 0 }},
		{"auth without key", func(c *Config) { c.Auth.Enabled = true }},
		{"unknown provider", func(c *Config) { c.Snapshots.Provider = "s3" }},
		{"postgres without dsn", func(c *Config) { c.Snapshots.Provider = "postgres" }},
		{"gcs without bucket", func(c *Config) { c.Snapshots.Provider = "gcs" }},
		{"recrawl without interval", func(c *Config) {
			c.Recrawl.Enabled = true
			c.Recrawl.IntervalMinutes = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
