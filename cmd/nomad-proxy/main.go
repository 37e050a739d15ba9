// Command nomad-proxy is a development proxy in front of the Nomad Cafes API.
// Every /api/* request runs through the client pipeline, so the proxy shares
// one cache, one session and one in-flight registry across its callers.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/nomad-cafes-client/internal/config"
	"github.com/Sternrassler/nomad-cafes-client/internal/telemetry"
	"github.com/Sternrassler/nomad-cafes-client/pkg/cache"
	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/logging"
	"github.com/Sternrassler/nomad-cafes-client/pkg/ratelimit"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/throttled/throttled/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func init() { _ = godotenv.Load() }

func main() {
	cfg, err := config.Init()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nomad-proxy: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LoggingConfig("nomad-proxy"))

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Proxy failed")
	}
}

func run(cfg *config.ServiceConfig, logger zerolog.Logger) error {
	ctx := context.Background()

	if cfg.Tracing.Enabled {
		_, shutdown, err := telemetry.NewTracerProvider("nomad-proxy", cfg.Tracing)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	clientCfg := cfg.ClientConfig()
	clientLogger := logger.With().Str("component", "nomad-client").Logger()
	clientCfg.Logger = &clientLogger

	var redisClient *redis.Client
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}

		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

		clientCfg.CacheStore = cache.NewRedisStore(redisClient, cfg.Cache.TTL)
	}

	pipeline, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer pipeline.Close()

	limit, err := newRateLimit(cfg.Proxy.RateLimit, redisClient, logger)
	if err != nil {
		return err
	}

	var handler http.Handler = newRouter(pipeline, redisClient, limit, logger)
	if cfg.Tracing.Enabled {
		handler = otelhttp.NewHandler(handler, "nomad-proxy")
	}

	server := &http.Server{
		Addr:         cfg.Proxy.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Proxy.ReadTimeout,
		WriteTimeout: cfg.Proxy.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Proxy.Addr).
			Str("api_url", cfg.API.URL).
			Str("version", config.ServiceVersion).
			Bool("redis", redisClient != nil).
			Msg("Starting Nomad proxy")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
	defer cancel()

	if n := pipeline.CancelAll(); n > 0 {
		logger.Info().Int("count", n).Msg("Cancelled in-flight requests")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("Proxy stopped")
	return nil
}

// newRateLimit builds the inbound limiter. With Redis configured the budget
// is shared by every proxy instance on that Redis.
func newRateLimit(cfg config.RateLimit, redisClient *redis.Client, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var store throttled.GCRAStoreCtx
	if redisClient != nil {
		store = ratelimit.NewRedisStore(redisClient)
	} else {
		memStore, err := ratelimit.NewMemoryStore(cfg.MaxKeys)
		if err != nil {
			return nil, err
		}
		store = memStore
	}

	limit, err := ratelimit.Middleware(ratelimit.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		FailOpen:          cfg.FailOpen,
	}, store, logger.With().Str("component", "ratelimit").Logger())
	if err != nil {
		return nil, fmt.Errorf("setup rate limit: %w", err)
	}

	logger.Info().
		Int("rps", cfg.RequestsPerSecond).
		Int("burst", cfg.Burst).
		Bool("shared", redisClient != nil).
		Msg("Inbound rate limit enabled")
	return limit, nil
}
