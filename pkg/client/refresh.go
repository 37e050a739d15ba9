package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const refreshKey = "session"

// shouldRefresh reports whether err is a 401 that may be recovered by one
// session refresh.
func (c *Client) shouldRefresh(err error, att *attempt) bool {
	if att.refreshed || statusOf(err) != http.StatusUnauthorized {
		return false
	}
	return !c.isRefreshPath(att.path)
}

func (c *Client) isRefreshPath(path string) bool {
	p, _, _ := strings.Cut(path, "?")
	return strings.TrimSuffix(p, "/") == strings.TrimSuffix(c.config.RefreshPath, "/")
}

// refreshSession posts to the refresh endpoint. Concurrent callers share a
// single refresh, which is detached from ctx so that one caller giving up does
// not fail the others. The refresh registers its own cancel handle, so
// CancelAll aborts it too. On failure the session is cleared and
// OnSessionExpired is called once; a cancelled refresh leaves the session alone.
func (c *Client) refreshSession(ctx context.Context) error {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		att := &attempt{
			id:        c.ids.next(),
			method:    http.MethodPost,
			path:      c.config.RefreshPath,
			refreshed: true,
		}

		rctx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
		c.cancels.register(att.id, cancel)
		defer func() {
			c.cancels.remove(att.id)
			cancel(nil)
		}()

		c.logger.Info().Str("request_id", att.id).Msg("Refreshing session")

		if _, err := c.send(rctx, Request{Method: http.MethodPost, Path: c.config.RefreshPath}, nil, att); err != nil {
			if IsCancelled(err) {
				sessionRefreshTotal.WithLabelValues("cancelled").Inc()
				c.logger.Info().Str("request_id", att.id).Msg("Session refresh cancelled")
				return nil, err
			}

			sessionRefreshTotal.WithLabelValues("failure").Inc()
			c.logger.Warn().Err(err).Str("request_id", att.id).Msg("Session refresh failed, clearing session")

			c.jar.Reset()
			if c.config.OnSessionExpired != nil {
				c.config.OnSessionExpired()
			}
			return nil, err
		}

		sessionRefreshTotal.WithLabelValues("success").Inc()
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("refresh session (shared=%t): %w", res.Shared, res.Err)
		}
		return nil
	case <-ctx.Done():
		return contextError(ctx, "refresh session", context.Cause(ctx))
	}
}
