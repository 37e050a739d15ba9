package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request describes one API call. Path is relative to Config.BaseURL unless
// it is an absolute URL.
type Request struct {
	Method string
	Path   string
	Params url.Values

	// Body is sent as JSON. []byte, json.RawMessage, string and io.Reader
	// values are sent as-is.
	Body any

	Header http.Header
}

// Response is a fully read API response. Responses handed to several callers
// (cache hits, deduplicated requests) are copies; Body must still be treated
// as read-only.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Cached is true when the response was served from the cache store.
	Cached bool

	// RequestID is the pipeline request ID of the call that produced it.
	RequestID string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

func (r *Response) clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Header = r.Header.Clone()
	out.Body = bytes.Clone(r.Body)
	return &out
}

// DoJSON executes req and decodes the JSON response into T.
// An empty body yields the zero value of T.
func DoJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T

	resp, err := c.Execute(ctx, req)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return out, nil
	}

	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		return json.Marshal(body)
	}
}
