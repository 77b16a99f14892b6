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
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Wayback WaybackConfig `mapstructure:"wayback"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Venues  VenuesConfig  `mapstructure:"venues"`
	Logging LoggingConfig `mapstructure:"logging"`
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

// HTTPConfig configures outbound HTTP client behavior.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	PerHost        int    `mapstructure:"per_host"`
	UserAgent      string `mapstructure:"user_agent"`
}

// ScrapeConfig governs gigography scraping.
type ScrapeConfig struct {
	MaxPages int `mapstructure:"max_pages"`
}

// WaybackConfig bounds the archive fallback.
type WaybackConfig struct {
	Base     string `mapstructure:"base"`
	FromYear int    `mapstructure:"from_year"`
	Limit    int    `mapstructure:"limit"`
}

// CacheConfig sizes the in-memory page cache.
type CacheConfig struct {
	TTLDays int `mapstructure:"ttl_days"`
	Size    int `mapstructure:"size"`
}

// VenuesConfig locates the per-metro venue allow-lists.
type VenuesConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ORACLE")
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
	v.SetDefault("server.port", 8000)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_retries", 1)
	v.SetDefault("http.per_host", 2)
	v.SetDefault("http.user_agent", "last-show-oracle/0.1")
	v.SetDefault("scrape.max_pages", 8)
	v.SetDefault("wayback.base", "https://web.archive.org")
	v.SetDefault("wayback.from_year", 2023)
	v.SetDefault("wayback.limit", 2)
	v.SetDefault("cache.ttl_days", 7)
	v.SetDefault("cache.size", 1024)
	v.SetDefault("venues.path", "config/venues.json")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be > 0")
	}
	if c.Wayback.Limit <= 0 {
		return fmt.Errorf("wayback.limit must be > 0")
	}
	if c.Venues.Path == "" {
		return fmt.Errorf("venues.path must be set")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// Timeout converts the configured HTTP timeout to a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL converts the configured cache lifetime to a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}
