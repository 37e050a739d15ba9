package config

import (
	"testing"
	"time"

	"github.com/Sternrassler/nomad-cafes-client/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Defaults(t *testing.T) {
	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.URL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.API.MaxRetries)
	assert.Equal(t, time.Second, cfg.API.RetryBaseDelay)
	assert.Equal(t, "/auth/token/refresh/", cfg.API.RefreshPath)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Equal(t, ":8080", cfg.Proxy.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "stdout", cfg.Tracing.ExporterType)
	assert.Equal(t, 1.0, cfg.Tracing.SamplerRatio)
	assert.False(t, cfg.Proxy.RateLimit.Enabled)
	assert.Equal(t, 20, cfg.Proxy.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.Proxy.RateLimit.FailOpen)
}

func TestInit_FromEnvironment(t *testing.T) {
	t.Setenv("NOMAD_API_URL", "https://api.nomadcafes.app/api")
	t.Setenv("NOMAD_API_TIMEOUT", "3s")
	t.Setenv("NOMAD_CACHE_TTL", "30s")
	t.Setenv("NOMAD_MAX_RETRIES", "4")
	t.Setenv("NOMAD_RETRY_BASE_DELAY", "250ms")
	t.Setenv("NOMAD_LANGUAGE", "de")
	t.Setenv("NOMAD_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("NOMAD_LOG_LEVEL", "debug")
	t.Setenv("NOMAD_TRACING_ENABLED", "true")

	cfg, err := Init()
	require.NoError(t, err)

	clientCfg := cfg.ClientConfig()
	assert.Equal(t, "https://api.nomadcafes.app/api", clientCfg.BaseURL)
	assert.Equal(t, 3*time.Second, clientCfg.Timeout)
	assert.Equal(t, 30*time.Second, clientCfg.CacheTTL)
	assert.Equal(t, 4, clientCfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, clientCfg.RetryBaseDelay)
	assert.Equal(t, "de", clientCfg.AcceptLanguage)
	assert.True(t, clientCfg.EnableTracing)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)

	logCfg := cfg.LoggingConfig("nomad-proxy")
	assert.Equal(t, logging.LevelDebug, logCfg.Level)
	assert.Equal(t, "nomad-proxy", logCfg.Service)
}

func TestInit_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "NOMAD_API_TIMEOUT", "soon"},
		{"zero timeout", "NOMAD_API_TIMEOUT", "0s"},
		{"negative retries", "NOMAD_MAX_RETRIES", "-1"},
		{"zero ttl", "NOMAD_CACHE_TTL", "0s"},
		{"unknown log level", "NOMAD_LOG_LEVEL", "trace"},
		{"empty url", "NOMAD_API_URL", ""},
		{"sampler ratio above one", "NOMAD_TRACING_SAMPLER_RATIO", "1.5"},
		{"bad rate limit", "NOMAD_PROXY_RATE_LIMIT_RPS", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Init()
			assert.Error(t, err)
		})
	}
}
