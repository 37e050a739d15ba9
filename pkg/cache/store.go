package cache

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultTTL is how long a GET response stays valid when no TTL is configured
	DefaultTTL = 5 * time.Second
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is a time-bounded signature -> response map.
type Store interface {
	// Get returns a valid entry or ErrCacheMiss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set inserts or overwrites the entry for key.
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes the entry for key.
	Delete(ctx context.Context, key string) error

	// DeleteMatching removes every entry whose key contains substr and
	// returns how many were removed.
	DeleteMatching(ctx context.Context, substr string) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases background resources.
	Close() error
}
