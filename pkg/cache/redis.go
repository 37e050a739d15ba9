package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	layerRedis = "redis"

	// DefaultRedisPrefix namespaces cache keys inside a shared Redis database
	DefaultRedisPrefix = "nomad:cache:"

	scanBatch = 256
)

// RedisStore is a Store backed by Redis so several processes share one cache.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  redisClient,
		ttl:    ttl,
		prefix: DefaultRedisPrefix,
		now:    time.Now,
	}
}

// Get retrieves a cache entry by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(layerRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis expiry has millisecond granularity; the timestamp is authoritative.
	if entry.IsExpiredAt(s.ttl, s.now()) {
		_ = s.Delete(ctx, key)
		CacheEvictions.WithLabelValues(layerRedis).Inc()
		CacheMisses.WithLabelValues(layerRedis).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerRedis).Inc()
	return &entry, nil
}

// Set stores a cache entry that Redis expires once its TTL has elapsed.
func (s *RedisStore) Set(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = s.now()
	}

	ttl := entry.RemainingAt(s.ttl, s.now())
	if ttl <= 0 {
		// Already expired, don't cache
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a cache entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteMatching removes all entries whose key contains substr.
func (s *RedisStore) DeleteMatching(ctx context.Context, substr string) (int, error) {
	removed, err := s.deletePattern(ctx, s.prefix+"*"+escapeGlob(substr)+"*")
	CacheInvalidations.WithLabelValues(layerRedis).Add(float64(removed))
	return removed, err
}

// Clear removes every entry under the store prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	removed, err := s.deletePattern(ctx, s.prefix+"*")
	CacheInvalidations.WithLabelValues(layerRedis).Add(float64(removed))
	return err
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) deletePattern(ctx context.Context, pattern string) (int, error) {
	removed := 0
	iter := s.redis.Scan(ctx, 0, pattern, scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.redis.Del(ctx, batch...).Result()
		if err != nil {
			CacheErrors.WithLabelValues("delete").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return removed, fmt.Errorf("redis scan: %w", err)
	}

	return removed, flush()
}

// escapeGlob quotes the characters Redis MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
