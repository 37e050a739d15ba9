package nomad

import (
	"context"
	"fmt"

	"github.com/Sternrassler/nomad-cafes-client/pkg/casing"
	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/logging"
	"github.com/rs/zerolog"
)

// Client is the typed API client.
type Client struct {
	pipeline *client.Client
	logger   zerolog.Logger
}

// New creates a typed client. The casing transport is layered over
// cfg.Transport.
func New(cfg client.Config) (*Client, error) {
	cfg.Transport = casing.NewTransport(cfg.Transport)

	pipeline, err := client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	logger := logging.NewLogger("nomad-api")
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "nomad-api").Logger()
	}

	return &Client{pipeline: pipeline, logger: logger}, nil
}

// Pipeline returns the underlying request pipeline.
func (c *Client) Pipeline() *client.Client {
	return c.pipeline
}

// Close releases the pipeline.
func (c *Client) Close() error {
	return c.pipeline.Close()
}

// invalidate drops cached responses under each prefix. Failures only cost
// freshness, so they are logged.
func (c *Client) invalidate(ctx context.Context, patterns ...string) {
	for _, pattern := range patterns {
		if _, err := c.pipeline.InvalidateByURLSubstring(ctx, pattern); err != nil {
			c.logger.Warn().Err(err).Str("pattern", pattern).Msg("Cache invalidation failed")
		}
	}
}
