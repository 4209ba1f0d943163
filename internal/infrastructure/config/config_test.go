package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)

	assert.True(t, cfg.Navigation.KeepContentAlive)
	assert.Empty(t, cfg.Navigation.Home)

	assert.Equal(t, 30*time.Second, cfg.Loader.Timeout)
	assert.Equal(t, 3, cfg.Loader.MaxRetries)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	env := map[string]string{
		"PORT":              "9000",
		"HOST":              "127.0.0.1",
		"LOG_LEVEL":         "debug",
		"LOG_DEV":           "true",
		"RATE_LIMIT_RPS":    "500",
		"RATE_LIMIT_BURST":  "1000",
		"NAV_KEEP_ALIVE":    "false",
		"NAV_HOME":          "doc://home",
		"NAV_CONTENT_ROOT":  "/srv/content",
		"LOADER_TIMEOUT":    "5s",
		"LOADER_RETRIES":    "1",
		"LOADER_RPS":        "2.5",
		"LOADER_USER_AGENT": "test-agent",
		"CORS_ORIGINS":      "http://a.test,http://b.test",
	}
	for key, value := range env {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowOrigins)
	assert.False(t, cfg.Navigation.KeepContentAlive)
	assert.Equal(t, "doc://home", cfg.Navigation.Home)
	assert.Equal(t, "/srv/content", cfg.Navigation.ContentRoot)
	assert.Equal(t, 5*time.Second, cfg.Loader.Timeout)
	assert.Equal(t, 1, cfg.Loader.MaxRetries)
	assert.InDelta(t, 2.5, cfg.Loader.RateLimit, 1e-9)
	assert.Equal(t, "test-agent", cfg.Loader.UserAgent)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("LOADER_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 30*time.Second, cfg.Loader.Timeout)
}
