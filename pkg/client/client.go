// Package client provides the Nomad Cafes HTTP request pipeline: response
// caching, in-flight deduplication, 429 retry, session refresh on 401,
// cancellation and typed errors.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/nomad-cafes-client/pkg/cache"
	"github.com/Sternrassler/nomad-cafes-client/pkg/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// Client is the Nomad Cafes API request pipeline.
type Client struct {
	httpClient   *http.Client
	baseURL      *url.URL
	jar          *sessionJar
	cache        cache.Store
	ownsCache    bool
	inflight     *inflightRegistry
	cancels      *cancelRegistry
	refreshGroup singleflight.Group
	ids          *idGenerator
	config       Config
	logger       zerolog.Logger

	// onRetry is called before every 429 retry wait (for testing).
	onRetry func(attempt int, delay time.Duration)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.nomadcafes.app/api".
	BaseURL string

	// Timeout bounds each upstream attempt.
	Timeout time.Duration

	// Caching (GET only)
	CacheTTL   time.Duration
	CacheStore cache.Store // nil = in-memory store owned by the client

	// Retry on 429
	MaxRetries     int
	RetryBaseDelay time.Duration

	// Session
	RefreshPath      string
	OnSessionExpired func()

	// Headers
	UserAgent      string
	AcceptLanguage string

	// Transport is the underlying round tripper (default: http.DefaultTransport).
	Transport     http.RoundTripper
	EnableTracing bool

	// Logger defaults to a component logger from pkg/logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		Timeout:        10 * time.Second,
		CacheTTL:       cache.DefaultTTL,
		MaxRetries:     2,
		RetryBaseDelay: 1 * time.Second,
		RefreshPath:    "/auth/token/refresh/",
		UserAgent:      "nomad-cafes-client/1.0",
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.RetryBaseDelay <= 0 {
		return nil, fmt.Errorf("retry_base_delay must be > 0 (got %s)", cfg.RetryBaseDelay)
	}

	if cfg.CacheStore == nil && cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache_ttl must be > 0 (got %s)", cfg.CacheTTL)
	}

	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/auth/token/refresh/"
	}

	logger := logging.NewLogger("nomad-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.EnableTracing {
		transport = otelhttp.NewTransport(transport)
	}

	store := cfg.CacheStore
	ownsCache := false
	if store == nil {
		store = cache.NewMemoryStore(cfg.CacheTTL)
		ownsCache = true
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			Jar:       jar,
		},
		baseURL:   baseURL,
		jar:       jar,
		cache:     store,
		ownsCache: ownsCache,
		inflight:  newInflightRegistry(),
		cancels:   newCancelRegistry(),
		ids:       &idGenerator{now: time.Now},
		config:    cfg,
		logger:    logger,
	}, nil
}

// Execute runs req through the pipeline.
//
// GET requests are served from the cache when a fresh entry exists and are
// deduplicated against identical in-flight requests. Other methods always
// reach the backend. A 429 is retried with exponential backoff; a 401 triggers
// one session refresh and one replay. Failures are returned as *APIError,
// except cancellations which satisfy IsCancelled.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	req.Method = method

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	att := &attempt{
		id:     c.ids.next(),
		method: method,
		path:   req.Path,
	}

	ctx, cancel := context.WithCancelCause(ctx)
	c.cancels.register(att.id, cancel)
	defer func() {
		c.cancels.remove(att.id)
		cancel(nil)
	}()

	if method != http.MethodGet {
		return c.dispatch(ctx, req, att)
	}

	att.signature = c.signature(req)

	d := c.decide(ctx, att.signature)
	switch d.kind {
	case decisionCacheHit:
		c.logger.Debug().
			Str("request_id", att.id).
			Str("signature", att.signature).
			Msg("Cache hit")
		return d.response, nil

	case decisionJoinPending:
		dedupJoinsTotal.Inc()
		c.logger.Debug().
			Str("request_id", att.id).
			Str("signature", att.signature).
			Msg("Joining in-flight request")

		resp, err := d.pending.wait(ctx)
		if err != nil {
			if IsCancelled(err) {
				cancellationsTotal.Inc()
				return nil, err
			}
			return nil, translateError(err)
		}
		return resp, nil
	}

	resp, err := c.dispatch(ctx, req, att)
	if err == nil {
		c.store(ctx, att, resp)
	}
	c.inflight.settle(att.signature, d.pending, resp, err)

	if err != nil {
		return nil, err
	}
	return resp.clone(), nil
}

// decide evaluates the pre-dispatch decision for a GET signature.
func (c *Client) decide(ctx context.Context, sig string) decision {
	if resp, ok := c.lookup(ctx, sig); ok {
		return decision{kind: decisionCacheHit, response: resp}
	}

	return c.inflight.claim(sig, func() (*Response, bool) {
		return c.lookup(ctx, sig)
	})
}

func (c *Client) lookup(ctx context.Context, sig string) (*Response, bool) {
	entry, err := c.cache.Get(ctx, sig)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("signature", sig).Msg("Cache get error")
		}
		return nil, false
	}

	return &Response{
		StatusCode: entry.StatusCode,
		Header:     entry.Headers.Clone(),
		Body:       bytes.Clone(entry.Data),
		Cached:     true,
	}, true
}

func (c *Client) store(ctx context.Context, att *attempt, resp *Response) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}

	entry := cache.NewEntry(resp.StatusCode, resp.Header, resp.Body, time.Time{})
	if err := c.cache.Set(context.WithoutCancel(ctx), att.signature, entry); err != nil {
		c.logger.Warn().Err(err).Str("signature", att.signature).Msg("Failed to cache response")
		return
	}

	c.logger.Debug().
		Str("request_id", att.id).
		Str("signature", att.signature).
		Msg("Cached response")
}

// signature identifies a GET for caching and deduplication. The session
// fingerprint keeps responses of different sessions apart.
func (c *Client) signature(req Request) string {
	return cache.Signature{
		Method:  req.Method,
		URL:     req.Path,
		Query:   req.Params,
		Session: c.jar.Fingerprint(c.baseURL),
	}.String()
}

// dispatch applies the failure policy: 429 retry, then at most one session
// refresh and replay, then error translation.
func (c *Client) dispatch(ctx context.Context, req Request, att *attempt) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, c.fail(att, &requestError{err: fmt.Errorf("encode request body: %w", err)})
	}

	resp, err := c.sendWithRetry(ctx, req, body, att)
	if err != nil && c.shouldRefresh(err, att) {
		att.refreshed = true

		if rerr := c.refreshSession(ctx); rerr != nil && (IsCancelled(rerr) || ctx.Err() != nil) {
			err = rerr
		} else if rerr != nil {
			c.logger.Warn().
				Err(rerr).
				Str("request_id", att.id).
				Str("path", att.path).
				Msg("Session expired")
		} else {
			c.logger.Info().
				Str("request_id", att.id).
				Str("path", att.path).
				Msg("Replaying request after session refresh")
			resp, err = c.sendWithRetry(ctx, req, body, att)
		}
	}

	if err != nil {
		return nil, c.fail(att, err)
	}

	return resp, nil
}

// fail records a failed request. Cancellations are returned unchanged,
// everything else as an *APIError.
func (c *Client) fail(att *attempt, err error) error {
	if IsCancelled(err) {
		cancellationsTotal.Inc()
		c.logger.Debug().Str("request_id", att.id).Str("path", att.path).Msg("Request cancelled")
		return err
	}

	apiErr := translateError(err)
	errorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
	c.logger.Error().
		Str("request_id", att.id).
		Str("method", att.method).
		Str("path", att.path).
		Int("status", apiErr.Status).
		Str("error_class", string(apiErr.Class)).
		Str("code", apiErr.Code).
		Msg("Request failed")
	return apiErr
}

// send performs one upstream round trip and reads the full body.
// Non-2xx responses are returned as *statusError.
func (c *Client) send(ctx context.Context, req Request, body []byte, att *attempt) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolve(req.Path, req.Params), reader)
	if err != nil {
		return nil, &requestError{err: fmt.Errorf("create request: %w", err)}
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.AcceptLanguage != "" {
		httpReq.Header.Set("Accept-Language", c.config.AcceptLanguage)
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	for key, values := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(key)] = values
	}

	c.logger.Debug().
		Str("request_id", att.id).
		Str("method", req.Method).
		Str("path", req.Path).
		Msg("Executing request")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			if cerr := contextError(ctx, req.Method+" "+req.Path, err); IsCancelled(cerr) {
				return nil, cerr
			}
		}
		requestsTotal.WithLabelValues(req.Method, "network_error").Inc()
		c.logger.Error().Err(err).Str("request_id", att.id).Str("path", req.Path).Msg("HTTP request failed")
		return nil, &transportError{err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if ctx.Err() != nil {
			if cerr := contextError(ctx, "read response body", err); IsCancelled(cerr) {
				return nil, cerr
			}
		}
		requestsTotal.WithLabelValues(req.Method, "network_error").Inc()
		return nil, &transportError{err: fmt.Errorf("read response body: %w", err)}
	}

	requestsTotal.WithLabelValues(req.Method, strconv.Itoa(httpResp.StatusCode)).Inc()

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		RequestID:  att.id,
	}

	if httpResp.StatusCode >= 400 {
		c.logger.Warn().
			Str("request_id", att.id).
			Str("path", req.Path).
			Int("status", httpResp.StatusCode).
			Str("error_class", string(classifyStatus(httpResp.StatusCode))).
			Msg("Request error")
		return nil, &statusError{response: resp}
	}

	return resp, nil
}

// resolve joins path onto the base URL. Absolute URLs are used as-is.
func (c *Client) resolve(path string, params url.Values) string {
	var target string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		target = path
	} else {
		target = strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.TrimLeft(path, "/")
	}

	if len(params) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + params.Encode()
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Execute(ctx, Request{Method: http.MethodGet, Path: path, Params: params})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Execute(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Execute(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Execute(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Execute(ctx, Request{Method: http.MethodDelete, Path: path})
}

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	c.logger.Debug().Msg("Cache cleared")
	return nil
}

// InvalidateByURLSubstring drops every cached response whose signature
// contains pattern and returns how many were removed.
func (c *Client) InvalidateByURLSubstring(ctx context.Context, pattern string) (int, error) {
	n, err := c.cache.DeleteMatching(ctx, pattern)
	if err != nil {
		return n, fmt.Errorf("invalidate %q: %w", pattern, err)
	}
	c.logger.Debug().Str("pattern", pattern).Int("removed", n).Msg("Cache invalidated")
	return n, nil
}

// CancelAll aborts every registered request and returns how many there were.
// A session refresh in progress counts as a request of its own.
func (c *Client) CancelAll() int {
	n := c.cancels.cancelAll()
	if n > 0 {
		c.logger.Info().Int("count", n).Msg("Cancelled all requests")
	}
	return n
}

// Cancel aborts the request with the given ID. It reports whether the
// request was still registered.
func (c *Client) Cancel(id string) bool {
	return c.cancels.cancel(id)
}

// ActiveRequests returns the IDs of requests that have not settled yet,
// including a session refresh in progress.
func (c *Client) ActiveRequests() []string {
	return c.cancels.ids()
}

// ClearSession drops the session cookies.
func (c *Client) ClearSession() {
	c.jar.Reset()
}

// SetSessionCookies stores cookies for the API origin.
func (c *Client) SetSessionCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

// SessionCookies returns the cookies that would be sent to the API.
func (c *Client) SessionCookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// Close cancels outstanding requests and releases the cache store when the
// client created it.
func (c *Client) Close() error {
	c.CancelAll()
	if c.ownsCache {
		return c.cache.Close()
	}
	return nil
}
