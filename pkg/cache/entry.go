package cache

import (
	"net/http"
	"time"
)

// Entry represents a cached API response.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds an entry stamped with the given time.
// Headers are cloned so later changes to the response do not leak into the cache.
func NewEntry(statusCode int, headers http.Header, data []byte, now time.Time) *Entry {
	return &Entry{
		Data:       data,
		StatusCode: statusCode,
		Headers:    headers.Clone(),
		CachedAt:   now,
	}
}

// IsExpiredAt reports whether the entry is no longer valid at now for the given TTL.
// An entry is valid only while now - CachedAt < ttl.
func (e *Entry) IsExpiredAt(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.CachedAt) >= ttl
}

// RemainingAt returns how long the entry stays valid after now.
// Returns 0 if already expired.
func (e *Entry) RemainingAt(ttl time.Duration, now time.Time) time.Duration {
	remaining := ttl - now.Sub(e.CachedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
