// Package logging configures zerolog for the client, the proxy and the
// examples. Packages take a logger from NewLogger once Setup has run; until
// then they log through zerolog's default global logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as it appears in configuration.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Zerolog maps the level onto zerolog. Unknown names map to info.
func (l LogLevel) Zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer

	// Service and Version are added to every entry when set.
	Service string
	Version string
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.Level.Zerolog())

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	logCtx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		logCtx = logCtx.Str("service", cfg.Service)
	}
	if cfg.Version != "" {
		logCtx = logCtx.Str("version", cfg.Version)
	}
	logger := logCtx.Logger()

	log.Logger = logger

	return logger
}

// ParseLevel validates a level name from configuration. An empty name means
// info.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger derives a logger for one component from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Levels used across the module:
//
// Debug: cache hits, stores and invalidations; joins of in-flight
// requests; dispatches; rate limited proxy callers.
//
// Info: session refresh and replay; bulk cancellation; proxy startup and
// shutdown.
//
// Warn: 429 retries and exhaustion; failed session refresh; cache or rate
// limit store errors that the request survives.
//
// Error: requests that failed after the retry and refresh policy; transport
// failures.
//
// Common fields: request_id (req_<ms>_<n>), method, path, status,
// error_class, code, signature, attempt, backoff.
