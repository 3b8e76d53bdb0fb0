package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: test-secret
stream:
  base_url: http://localhost:9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Catalog.Type)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, 2000, cfg.Stream.TimeoutMs)
	assert.Equal(t, "https://cdn.example/low-bitrate/", cfg.Stream.FallbackURLPrefix)
	assert.Equal(t, 3, cfg.Stream.Retry.MaxAttempts)
	assert.Equal(t, 10, cfg.Stream.Breaker.WindowSize)
	assert.Equal(t, float64(50), cfg.Stream.Breaker.FailureRatePct)
	assert.Equal(t, 5, cfg.Playback.RecommendationLimit)
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
auth:
  jwt_secret: test-secret
catalog:
  type: memory
  settings:
    file: config/tracks.yaml
history:
  driver: memory
stream:
  base_url: http://flaky-service:9090
  timeout_ms: 500
  retry:
    max_attempts: 5
    delay_ms: 50
  breaker:
    window_size: 20
    failure_rate_pct: 25
playback:
  recommendation_limit: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "config/tracks.yaml", cfg.Catalog.Settings["file"])
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, 500, cfg.Stream.TimeoutMs)
	assert.Equal(t, 5, cfg.Stream.Retry.MaxAttempts)
	assert.Equal(t, float64(25), cfg.Stream.Breaker.FailureRatePct)
	assert.Equal(t, 8, cfg.Playback.RecommendationLimit)
}

func TestLoad_MissingJWTSecretFails(t *testing.T) {
	path := writeConfig(t, `
stream:
  base_url: http://localhost:9090
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingStreamBaseURLFails(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: test-secret
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidCatalogTypeFails(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: test-secret
catalog:
  type: cassette
stream:
  base_url: http://localhost:9090
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("STREAM_BASE_URL", "http://override:9091")

	path := writeConfig(t, `
auth:
  jwt_secret: file-secret
stream:
  base_url: http://localhost:9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "http://override:9091", cfg.Stream.BaseURL)
}

func TestLoad_SpotifyEnvSettings(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "cid")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "csecret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "rtoken")

	path := writeConfig(t, `
auth:
  jwt_secret: test-secret
catalog:
  type: spotify
stream:
  base_url: http://localhost:9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cid", cfg.Catalog.Settings["client_id"])
	assert.Equal(t, "csecret", cfg.Catalog.Settings["client_secret"])
	assert.Equal(t, "rtoken", cfg.Catalog.Settings["refresh_token"])
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("does/not/exist.yaml")
	assert.Error(t, err)
}
