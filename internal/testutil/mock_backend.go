// Package testutil provides testing utilities for the Nomad Cafes client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Cookies    []*http.Cookie
	Delay      time.Duration
}

// MockBackend is a configurable fake of the Nomad Cafes REST backend.
type MockBackend struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount      int
	pathCounts        map[string]int
	lastRequestHeader http.Header
	lastRequestBody   []byte
}

// NewMockBackend creates and starts a mock backend.
func NewMockBackend() *MockBackend {
	mock := &MockBackend{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

func (m *MockBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requestCount++
	m.pathCounts[r.Method+" "+r.URL.Path]++
	m.lastRequestHeader = r.Header.Clone()
	m.lastRequestBody = body
	handler, exists := m.handlers[r.Method+" "+r.URL.Path]
	if !exists {
		handler, exists = m.handlers[r.URL.Path]
	}
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	writeResponse(w, NewErrorResponse(http.StatusNotFound, "Not found.", "not_found", nil))
}

// URL returns the mock server URL.
func (m *MockBackend) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBackend) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastRequestHeader = nil
	m.lastRequestBody = nil
}

// SetHandler sets a custom handler. The key is either a path, matching every
// method, or "METHOD /path".
func (m *MockBackend) SetHandler(key string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[key] = handler
}

// SetResponse configures a fixed response.
func (m *MockBackend) SetResponse(key string, resp MockResponse) {
	m.SetHandler(key, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetSequence configures responses served in order; the last one repeats.
func (m *MockBackend) SetSequence(key string, responses ...MockResponse) {
	var mu sync.Mutex
	next := 0

	m.SetHandler(key, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[next]
		if next < len(responses)-1 {
			next++
		}
		mu.Unlock()

		writeResponse(w, resp)
	})
}

// RequestCount returns the total number of requests received.
func (m *MockBackend) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests received for "METHOD /path".
func (m *MockBackend) PathCount(method, path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[method+" "+path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockBackend) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// LastRequestBody returns the body of the most recent request.
func (m *MockBackend) LastRequestBody() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestBody
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Request-ID": "srv-ok",
		},
	}
}

// NewErrorResponse creates an error response in the backend's envelope.
func NewErrorResponse(status int, message, code string, details map[string]any) MockResponse {
	envelope := map[string]any{
		"message":    message,
		"code":       code,
		"request_id": "srv-" + strconv.Itoa(status),
	}
	if details != nil {
		envelope["details"] = details
	}
	body, _ := json.Marshal(envelope)

	return MockResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Request-ID": "srv-" + strconv.Itoa(status),
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	resp := NewErrorResponse(http.StatusTooManyRequests, "Request was throttled.", "throttled", nil)
	resp.Headers["Retry-After"] = "1"
	return resp
}

// NewUnauthorizedResponse creates a 401 response.
func NewUnauthorizedResponse() MockResponse {
	return NewErrorResponse(http.StatusUnauthorized, "Authentication credentials were not provided.", "not_authenticated", nil)
}

// NewValidationErrorResponse creates a 400 validation_error response.
func NewValidationErrorResponse(details map[string]any) MockResponse {
	return NewErrorResponse(http.StatusBadRequest, "Invalid input.", "validation_error", details)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return NewErrorResponse(http.StatusInternalServerError, "A server error occurred.", "internal_error", nil)
}

// NewSessionResponse creates a 200 response that sets the auth cookies.
func NewSessionResponse(access, refresh string) MockResponse {
	resp := NewJSONResponse(`{"detail": "ok"}`)
	resp.Cookies = []*http.Cookie{
		{Name: "access_token", Value: access, Path: "/", HttpOnly: true},
		{Name: "refresh_token", Value: refresh, Path: "/", HttpOnly: true},
	}
	return resp
}

// NewPaginatedHandler serves items in DRF page-number envelopes of pageSize
// items, driven by the "page" query parameter.
func NewPaginatedHandler(items []map[string]any, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n < 1 {
				writeResponse(w, NewErrorResponse(http.StatusNotFound, "Invalid page.", "not_found", nil))
				return
			}
			page = n
		}

		start := (page - 1) * pageSize
		if start > 0 && start >= len(items) {
			writeResponse(w, NewErrorResponse(http.StatusNotFound, "Invalid page.", "not_found", nil))
			return
		}
		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}

		envelope := map[string]any{
			"count":    len(items),
			"next":     nil,
			"previous": nil,
			"results":  items[start:end],
		}
		if end < len(items) {
			envelope["next"] = fmt.Sprintf("%s?page=%d", r.URL.Path, page+1)
		}
		if page > 1 {
			envelope["previous"] = fmt.Sprintf("%s?page=%d", r.URL.Path, page-1)
		}

		body, _ := json.Marshal(envelope)
		writeResponse(w, NewJSONResponse(string(body)))
	}
}

// NewBlockingHandler holds every request until release is closed, then
// serves resp. started receives one value per request that arrived.
func NewBlockingHandler(resp MockResponse, started chan<- struct{}, release <-chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		writeResponse(w, resp)
	}
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	for _, cookie := range resp.Cookies {
		http.SetCookie(w, cookie)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}
