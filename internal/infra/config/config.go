// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	History  HistoryConfig  `yaml:"history"`
	Stream   StreamConfig   `yaml:"stream"`
	Playback PlaybackConfig `yaml:"playback"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// AuthConfig represents request authentication configuration.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required"`
}

// CatalogConfig selects the track catalog adapter and its settings.
type CatalogConfig struct {
	Type     string         `yaml:"type" default:"memory" validate:"required,oneof=memory spotify"`
	Settings map[string]any `yaml:"settings"`
}

// HistoryConfig selects the history store adapter.
type HistoryConfig struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"required,oneof=sqlite memory"`
	DSN    string `yaml:"dsn" default:"musify.db"`
}

// StreamConfig represents the upstream stream source and its resilience
// thresholds.
type StreamConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	TimeoutMs         int           `yaml:"timeout_ms" default:"2000" validate:"gte=0,lte=30000"`
	FallbackURLPrefix string        `yaml:"fallback_url_prefix" default:"https://cdn.example/low-bitrate/"`
	Retry             RetryConfig   `yaml:"retry"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// RetryConfig represents the retry policy for stream resolution.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" default:"3" validate:"gte=1,lte=10"`
	DelayMs     int `yaml:"delay_ms" default:"200" validate:"gte=0,lte=10000"`
}

// BreakerConfig represents circuit breaker thresholds.
type BreakerConfig struct {
	WindowSize       int     `yaml:"window_size" default:"10" validate:"gte=1,lte=1000"`
	FailureRatePct   float64 `yaml:"failure_rate_pct" default:"50" validate:"gt=0,lte=100"`
	MinimumCalls     int     `yaml:"minimum_calls" default:"5" validate:"gte=1"`
	OpenDurationMs   int     `yaml:"open_duration_ms" default:"10000" validate:"gte=0"`
	HalfOpenMaxCalls int     `yaml:"half_open_max_calls" default:"3" validate:"gte=1"`
}

// PlaybackConfig represents playback behavior configuration.
type PlaybackConfig struct {
	RecommendationLimit int `yaml:"recommendation_limit" default:"5" validate:"gte=1,lte=20"`
}

// Load loads configuration from a YAML file. Environment variables take
// precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("STREAM_BASE_URL"); v != "" {
		c.Stream.BaseURL = v
	}
	if c.Catalog.Type == "spotify" {
		if c.Catalog.Settings == nil {
			c.Catalog.Settings = make(map[string]any)
		}
		if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
			c.Catalog.Settings["client_id"] = v
		}
		if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
			c.Catalog.Settings["client_secret"] = v
		}
		if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
			c.Catalog.Settings["refresh_token"] = v
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
