package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitBackOff(t *testing.T) {
	att := &attempt{}
	b := &rateLimitBackOff{base: time.Second, att: att}

	tests := []struct {
		retries  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
	}

	for _, tt := range tests {
		att.retries = tt.retries
		assert.Equal(t, tt.expected, b.NextBackOff(), "retries=%d", tt.retries)
	}
}

func TestIsRateLimited(t *testing.T) {
	rateLimited := &statusError{response: &Response{StatusCode: http.StatusTooManyRequests}}
	unauthorized := &statusError{response: &Response{StatusCode: http.StatusUnauthorized}}

	assert.True(t, isRateLimited(rateLimited))
	assert.False(t, isRateLimited(unauthorized))
	assert.False(t, isRateLimited(&transportError{err: assert.AnError}))
}

func TestShouldRefresh(t *testing.T) {
	c := &Client{config: Config{RefreshPath: "/auth/token/refresh/"}}
	unauthorized := &statusError{response: &Response{StatusCode: http.StatusUnauthorized}}
	forbidden := &statusError{response: &Response{StatusCode: http.StatusForbidden}}

	tests := []struct {
		name     string
		err      error
		att      *attempt
		expected bool
	}{
		{"first 401", unauthorized, &attempt{path: "/auth/me/"}, true},
		{"already refreshed", unauthorized, &attempt{path: "/auth/me/", refreshed: true}, false},
		{"refresh endpoint", unauthorized, &attempt{path: "/auth/token/refresh/"}, false},
		{"refresh endpoint without slash", unauthorized, &attempt{path: "/auth/token/refresh"}, false},
		{"not a 401", forbidden, &attempt{path: "/auth/me/"}, false},
		{"transport error", &transportError{err: assert.AnError}, &attempt{path: "/auth/me/"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.shouldRefresh(tt.err, tt.att))
		})
	}
}
