package ratelimit

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

// Response headers set by the middleware.
const (
	// LimitHeader carries the number of requests allowed in one burst.
	LimitHeader = "RateLimit-Limit"

	// RemainingHeader carries how many requests the caller may still send now.
	RemainingHeader = "RateLimit-Remaining"

	// ResetHeader carries the seconds until the caller's budget is full again.
	ResetHeader = "RateLimit-Reset"

	// RetryAfterHeader carries the seconds to wait after a 429.
	RetryAfterHeader = "Retry-After"
)

// Config controls the inbound limit.
type Config struct {
	// RequestsPerSecond is the sustained rate per caller.
	RequestsPerSecond int

	// Burst is how many requests above the rate a caller may send at once.
	Burst int

	// FailOpen lets requests through when the store is unavailable.
	FailOpen bool
}

// NewMemoryStore returns a process local store holding up to maxKeys callers.
func NewMemoryStore(maxKeys int) (throttled.GCRAStoreCtx, error) {
	store, err := memstore.NewCtx(maxKeys)
	if err != nil {
		return nil, fmt.Errorf("create memory store: %w", err)
	}
	return store, nil
}

// Middleware rejects callers exceeding cfg, keyed by client IP.
func Middleware(cfg Config, store throttled.GCRAStoreCtx, logger zerolog.Logger) (func(http.Handler) http.Handler, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be > 0")
	}
	if cfg.Burst < 0 {
		return nil, fmt.Errorf("burst must be >= 0")
	}

	limiter, err := throttled.NewGCRARateLimiterCtx(store, throttled.RateQuota{
		MaxRate:  throttled.PerSec(cfg.RequestsPerSecond),
		MaxBurst: cfg.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			limited, result, err := limiter.RateLimitCtx(r.Context(), key, 1)
			if err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("Rate limit store error")
				if cfg.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"message": "rate limiting temporarily unavailable",
					"code":    "rate_limiter_unavailable",
				})
				return
			}

			setHeaders(w, result)

			if limited {
				limitedTotal.Inc()
				logger.Debug().
					Str("key", key).
					Dur("retry_after", result.RetryAfter).
					Msg("Request rate limited")

				w.Header().Set(RetryAfterHeader, strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
				writeJSON(w, http.StatusTooManyRequests, map[string]string{
					"message": "Request was throttled.",
					"code":    "throttled",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func setHeaders(w http.ResponseWriter, result throttled.RateLimitResult) {
	w.Header().Set(LimitHeader, strconv.Itoa(result.Limit))
	w.Header().Set(RemainingHeader, strconv.Itoa(result.Remaining))
	w.Header().Set(ResetHeader, strconv.Itoa(int(math.Ceil(result.ResetAfter.Seconds()))))
}

// Retry-After is whole seconds, at least one.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
