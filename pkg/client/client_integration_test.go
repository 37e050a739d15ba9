//go:build integration

package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/nomad-cafes-client/internal/testutil"
	"github.com/Sternrassler/nomad-cafes-client/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_SharedRedisCache(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	backend := testutil.NewMockBackend()
	defer backend.Close()
	backend.SetResponse("/cafes/", testutil.NewJSONResponse(`{"count":2,"results":[]}`))

	store := cache.NewRedisStore(redisClient, 2*time.Second)
	first := newTestClient(t, backend.URL(), func(cfg *Config) { cfg.CacheStore = store })
	second := newTestClient(t, backend.URL(), func(cfg *Config) { cfg.CacheStore = store })
	ctx := context.Background()

	_, err := first.Get(ctx, "/cafes/", nil)
	require.NoError(t, err)

	resp, err := second.Get(ctx, "/cafes/", nil)
	require.NoError(t, err)
	assert.True(t, resp.Cached, "second client reads the shared entry")
	assert.Equal(t, 1, backend.PathCount(http.MethodGet, "/cafes/"))

	n, err := second.InvalidateByURLSubstring(ctx, "/cafes/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = first.Get(ctx, "/cafes/", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.PathCount(http.MethodGet, "/cafes/"))
}

func TestIntegration_RedisEntryExpires(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	backend := testutil.NewMockBackend()
	defer backend.Close()
	backend.SetResponse("/stats/", testutil.NewJSONResponse(`{"cafes":1}`))

	store := cache.NewRedisStore(redisClient, time.Second)
	c := newTestClient(t, backend.URL(), func(cfg *Config) { cfg.CacheStore = store })
	ctx := context.Background()

	_, err := c.Get(ctx, "/stats/", nil)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	resp, err := c.Get(ctx, "/stats/", nil)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 2, backend.PathCount(http.MethodGet, "/stats/"))
}
