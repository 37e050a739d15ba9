// Package config loads the runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/logging"
	"github.com/kelseyhightower/envconfig"
)

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

type (
	ServiceConfig struct {
		API     API     `json:"api"`
		Cache   Cache   `json:"cache"`
		Proxy   Proxy   `json:"proxy"`
		Logging Logging `json:"logging"`
		Tracing Tracing `json:"tracing"`
	}

	API struct {
		URL            string        `envconfig:"NOMAD_API_URL" default:"http://localhost:8000/api" json:"url"`
		Timeout        time.Duration `envconfig:"NOMAD_API_TIMEOUT" default:"10s" json:"timeout"`
		MaxRetries     int           `envconfig:"NOMAD_MAX_RETRIES" default:"2" json:"max_retries"`
		RetryBaseDelay time.Duration `envconfig:"NOMAD_RETRY_BASE_DELAY" default:"1s" json:"retry_base_delay"`
		RefreshPath    string        `envconfig:"NOMAD_REFRESH_PATH" default:"/auth/token/refresh/" json:"refresh_path"`
		UserAgent      string        `envconfig:"NOMAD_USER_AGENT" default:"nomad-cafes-client/1.0" json:"user_agent"`
		Language       string        `envconfig:"NOMAD_LANGUAGE" default:"" json:"language,omitempty"`
	}

	Cache struct {
		TTL      time.Duration `envconfig:"NOMAD_CACHE_TTL" default:"5s" json:"ttl"`
		RedisURL string        `envconfig:"NOMAD_REDIS_URL" default:"" json:"-"`
	}

	Proxy struct {
		Addr            string        `envconfig:"NOMAD_PROXY_ADDR" default:":8080" json:"addr"`
		ReadTimeout     time.Duration `envconfig:"NOMAD_PROXY_READ_TIMEOUT" default:"15s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"NOMAD_PROXY_WRITE_TIMEOUT" default:"30s" json:"write_timeout"`
		ShutdownTimeout time.Duration `envconfig:"NOMAD_PROXY_SHUTDOWN_TIMEOUT" default:"10s" json:"shutdown_timeout"`

		RateLimit RateLimit `json:"rate_limit"`
	}

	RateLimit struct {
		Enabled           bool `envconfig:"NOMAD_PROXY_RATE_LIMIT_ENABLED" default:"false" json:"enabled"`
		RequestsPerSecond int  `envconfig:"NOMAD_PROXY_RATE_LIMIT_RPS" default:"20" json:"requests_per_second"`
		Burst             int  `envconfig:"NOMAD_PROXY_RATE_LIMIT_BURST" default:"40" json:"burst"`
		MaxKeys           int  `envconfig:"NOMAD_PROXY_RATE_LIMIT_MAX_KEYS" default:"10000" json:"max_keys"`
		FailOpen          bool `envconfig:"NOMAD_PROXY_RATE_LIMIT_FAIL_OPEN" default:"true" json:"fail_open"`
	}

	Logging struct {
		Level  string `envconfig:"NOMAD_LOG_LEVEL" default:"info" json:"level"`
		Pretty bool   `envconfig:"NOMAD_LOG_PRETTY" default:"false" json:"pretty"`
	}

	Tracing struct {
		Enabled      bool    `envconfig:"NOMAD_TRACING_ENABLED" default:"false" json:"enabled"`
		ExporterType string  `envconfig:"NOMAD_TRACING_EXPORTER" default:"stdout" json:"exporter_type"`
		OTLPEndpoint string  `envconfig:"NOMAD_TRACING_OTLP_ENDPOINT" default:"localhost:4317" json:"otlp_endpoint"`
		SamplerRatio float64 `envconfig:"NOMAD_TRACING_SAMPLER_RATIO" default:"1.0" json:"sampler_ratio"`
	}
)

// Init reads the configuration from the environment and validates it.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values envconfig cannot check.
func (c *ServiceConfig) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("NOMAD_API_URL is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("NOMAD_API_TIMEOUT must be > 0")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("NOMAD_MAX_RETRIES must be >= 0")
	}
	if c.API.RetryBaseDelay <= 0 {
		return fmt.Errorf("NOMAD_RETRY_BASE_DELAY must be > 0")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("NOMAD_CACHE_TTL must be > 0")
	}
	if c.Proxy.RateLimit.Enabled && c.Proxy.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("NOMAD_PROXY_RATE_LIMIT_RPS must be > 0")
	}
	if c.Tracing.SamplerRatio < 0 || c.Tracing.SamplerRatio > 1 {
		return fmt.Errorf("NOMAD_TRACING_SAMPLER_RATIO must be within [0, 1]")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("NOMAD_LOG_LEVEL: %w", err)
	}

	return nil
}

// ClientConfig maps the settings onto the pipeline configuration. The cache
// store and transport are left for the caller to wire.
func (c *ServiceConfig) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.API.URL)
	cfg.Timeout = c.API.Timeout
	cfg.CacheTTL = c.Cache.TTL
	cfg.MaxRetries = c.API.MaxRetries
	cfg.RetryBaseDelay = c.API.RetryBaseDelay
	cfg.RefreshPath = c.API.RefreshPath
	cfg.UserAgent = c.API.UserAgent
	cfg.AcceptLanguage = c.API.Language
	cfg.EnableTracing = c.Tracing.Enabled

	return cfg
}

// LoggingConfig maps the settings onto the logger configuration.
func (c *ServiceConfig) LoggingConfig(service string) logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)

	return logging.Config{
		Level:   level,
		Pretty:  c.Logging.Pretty,
		Output:  os.Stderr,
		Service: service,
		Version: ServiceVersion,
	}
}
