package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 1, cfg.HTTP.MaxRetries)
	assert.Equal(t, 8, cfg.Scrape.MaxPages)
	assert.Equal(t, "https://web.archive.org", cfg.Wayback.Base)
	assert.Equal(t, 2023, cfg.Wayback.FromYear)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, "config/venues.json", cfg.Venues.Path)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9001
http:
  timeout_seconds: 3
wayback:
  from_year: 2020
  limit: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 3, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, 2020, cfg.Wayback.FromYear)
	assert.Equal(t, 5, cfg.Wayback.Limit)
	assert.Equal(t, 8, cfg.Scrape.MaxPages, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.HTTP.TimeoutSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate(), "enabled auth requires a key")
	cfg.Auth.APIKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Venues.Path = ""
	assert.Error(t, cfg.Validate())
}
