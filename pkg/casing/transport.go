package casing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// Transport rewrites JSON bodies around another RoundTripper: outgoing request
// bodies are converted to snake_case, incoming response bodies to camelCase.
type Transport struct {
	next http.RoundTripper
}

// NewTransport wraps next (http.DefaultTransport when nil).
func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody && isJSON(req.Header.Get("Content-Type")) {
		raw, err := readAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body, err := rewrite(raw, ToSnake)
		if err != nil {
			return nil, fmt.Errorf("transform request body: %w", err)
		}

		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		setRequestBody(req, body)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body != nil && isJSON(resp.Header.Get("Content-Type")) {
		raw, err := readAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		// A body that does not decode (a proxy's HTML error page labelled as
		// JSON) is handed on untouched so the status still reaches the caller.
		body, err := rewrite(raw, ToCamel)
		if err != nil {
			body = raw
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
		resp.ContentLength = int64(len(body))
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}

	return resp, nil
}

func readAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

// rewrite decodes a JSON body, applies the key transform and re-encodes it.
// Empty bodies are passed through.
func rewrite(raw []byte, transform func(any) any) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return raw, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	// Keep numbers as written; float64 would round large IDs.
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return json.Marshal(transform(v))
}

func setRequestBody(req *http.Request, body []byte) {
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(len(mediaType) > 5 && mediaType[len(mediaType)-5:] == "+json")
}
