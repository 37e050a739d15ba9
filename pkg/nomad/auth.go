package nomad

import (
	"context"
	"net/http"

	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
)

// Login authenticates with email and password. The backend answers with
// session cookies, which the pipeline keeps. Cached responses of the previous
// session are dropped.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := client.DoJSON[authResponse](ctx, c.pipeline, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/login/",
		Body:   loginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	if err := c.pipeline.ClearCache(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear cache after login")
	}
	return resp.User, nil
}

// Register creates an account and signs it in. Like Login, it drops the
// cached responses of the previous session.
func (c *Client) Register(ctx context.Context, reg Registration) (*User, error) {
	resp, err := client.DoJSON[authResponse](ctx, c.pipeline, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/register/",
		Body:   reg,
	})
	if err != nil {
		return nil, err
	}

	if err := c.pipeline.ClearCache(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear cache after registration")
	}
	return resp.User, nil
}

// Logout ends the session. The local session is cleared even when the
// request fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.pipeline.Post(ctx, "/auth/logout/", nil)

	c.pipeline.ClearSession()
	if cerr := c.pipeline.ClearCache(ctx); cerr != nil {
		c.logger.Warn().Err(cerr).Msg("Failed to clear cache after logout")
	}
	return err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	return client.DoJSON[*User](ctx, c.pipeline, client.Request{
		Method: http.MethodGet,
		Path:   "/auth/me/",
	})
}
