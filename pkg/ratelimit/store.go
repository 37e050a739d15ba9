package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces the GCRA state in Redis.
const KeyPrefix = "nomad:ratelimit:"

var casScript = redis.NewScript(`
	local current = redis.call("GET", KEYS[1])
	if current == false or tonumber(current) ~= tonumber(ARGV[1]) then
		return 0
	end
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
`)

// RedisStore keeps the GCRA state in Redis so that several proxy instances
// share one budget per client. It implements throttled.GCRAStoreCtx.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a store on redisClient.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{
		redis:  redisClient,
		prefix: KeyPrefix,
	}
}

// GetWithTime returns the stored value, or -1 when the key does not exist,
// together with the current time.
func (s *RedisStore) GetWithTime(ctx context.Context, key string) (int64, time.Time, error) {
	now := time.Now()

	val, err := s.redis.Get(ctx, s.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, now, nil
		}
		storeErrorsTotal.WithLabelValues("get").Inc()
		return 0, now, fmt.Errorf("get %s: %w", key, err)
	}

	return val, now, nil
}

// SetIfNotExistsWithTTL sets key only when it does not exist yet.
func (s *RedisStore) SetIfNotExistsWithTTL(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.prefix+key, value, clampTTL(ttl)).Result()
	if err != nil {
		storeErrorsTotal.WithLabelValues("set").Inc()
		return false, fmt.Errorf("setnx %s: %w", key, err)
	}
	return ok, nil
}

// CompareAndSwapWithTTL replaces old with new atomically.
func (s *RedisStore) CompareAndSwapWithTTL(ctx context.Context, key string, old, new int64, ttl time.Duration) (bool, error) {
	result, err := casScript.Run(ctx, s.redis, []string{s.prefix + key}, old, new, clampTTL(ttl).Milliseconds()).Int64()
	if err != nil {
		storeErrorsTotal.WithLabelValues("cas").Inc()
		return false, fmt.Errorf("compare and swap %s: %w", key, err)
	}
	return result == 1, nil
}

// Redis rejects a zero PX.
func clampTTL(ttl time.Duration) time.Duration {
	if ttl < time.Millisecond {
		return time.Millisecond
	}
	return ttl
}
