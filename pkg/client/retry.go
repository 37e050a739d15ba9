package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// attempt is the per-request record threaded through the pipeline stages.
type attempt struct {
	id        string
	method    string
	path      string
	signature string // empty for non-GET requests

	// retries counts 429 retries performed so far.
	retries int

	// refreshed is set once a session refresh was attempted for this request.
	refreshed bool
}

// rateLimitBackOff waits base * 2^(n-1) before the n-th retry of a request.
// The retry count lives in the attempt record, not in the policy.
type rateLimitBackOff struct {
	base time.Duration
	att  *attempt
}

func (b *rateLimitBackOff) NextBackOff() time.Duration {
	if b.att.retries < 1 {
		return b.base
	}
	return b.base << (b.att.retries - 1)
}

func (b *rateLimitBackOff) Reset() {}

func isRateLimited(err error) bool {
	return statusOf(err) == http.StatusTooManyRequests
}

// sendWithRetry sends the request and retries it while the backend answers
// 429, up to Config.MaxRetries times. Any other outcome is returned as-is.
func (c *Client) sendWithRetry(ctx context.Context, req Request, body []byte, att *attempt) (*Response, error) {
	operation := func() (*Response, error) {
		resp, err := c.send(ctx, req, body, att)
		if err == nil {
			return resp, nil
		}

		if IsCancelled(err) || !isRateLimited(err) {
			return nil, backoff.Permanent(err)
		}

		if att.retries >= c.config.MaxRetries {
			retryExhaustedTotal.Inc()
			c.logger.Warn().
				Str("request_id", att.id).
				Str("path", att.path).
				Int("retries", att.retries).
				Msg("Retry attempts exhausted")
			return nil, backoff.Permanent(err)
		}

		att.retries++
		return nil, err
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&rateLimitBackOff{base: c.config.RetryBaseDelay, att: att}),
		backoff.WithNotify(func(err error, delay time.Duration) {
			retriesTotal.Inc()
			retryBackoffSeconds.Observe(delay.Seconds())

			c.logger.Warn().
				Str("request_id", att.id).
				Str("path", att.path).
				Int("attempt", att.retries).
				Dur("backoff", delay).
				Msg("Rate limited, retrying after backoff")

			if c.onRetry != nil {
				c.onRetry(att.retries, delay)
			}
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		if ctx.Err() != nil && !IsCancelled(err) && statusOf(err) == 0 {
			err = contextError(ctx, "retry backoff", err)
		}
		return nil, err
	}
	return resp, nil
}
