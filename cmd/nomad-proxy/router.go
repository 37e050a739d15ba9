package main

import (
	"compress/flate"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/nomad-cafes-client/pkg/client"
	"github.com/Sternrassler/nomad-cafes-client/pkg/metrics"
	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// statusClientClosedRequest is reported when the caller went away before the
// upstream call finished.
const statusClientClosedRequest = 499

const maxBodyBytes = 1 << 20

// Upstream headers that must not be copied onto the proxy response.
var skippedHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Set-Cookie":        true,
	"Transfer-Encoding": true,
	"X-Request-Id":      true,
}

type proxy struct {
	pipeline *client.Client
	redis    *redis.Client
	logger   zerolog.Logger
}

// newRouter wires the proxy routes. limit guards /api/* when non-nil.
func newRouter(pipeline *client.Client, redisClient *redis.Client, limit func(http.Handler) http.Handler, logger zerolog.Logger) http.Handler {
	p := &proxy{pipeline: pipeline, redis: redisClient, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestID())
	r.Use(accessLog(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", p.health)
	r.Get("/ready", p.ready)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Use(newCompressor().Handler)
		r.Handle("/api/*", http.HandlerFunc(p.forward))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/cache/clear", p.clearCache)
		r.Post("/cache/invalidate", p.invalidate)
		r.Get("/requests", p.activeRequests)
		r.Post("/requests/cancel", p.cancelRequests)
		r.Post("/session/clear", p.clearSession)
	})

	return r
}

// newCompressor compresses JSON responses with brotli, gzip or deflate,
// whichever the caller accepts.
func newCompressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(flate.DefaultCompression, "application/json", "text/plain")
	c.SetEncoder("br", func(w io.Writer, _ int) io.Writer {
		return brotli.NewWriterLevel(w, brotli.DefaultCompression)
	})
	return c
}

func (p *proxy) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (p *proxy) ready(w http.ResponseWriter, r *http.Request) {
	if p.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.redis.Ping(ctx).Err(); err != nil {
			p.logger.Warn().Err(err).Msg("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "redis not ready"})
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// forward replays the incoming request through the pipeline. GETs are cached
// and deduplicated; everything else reaches the backend directly.
func (p *proxy) forward(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"message": "request body too large"})
		return
	}

	req := client.Request{
		Method: r.Method,
		Path:   "/" + chi.URLParam(r, "*"),
		Params: r.URL.Query(),
	}
	if len(body) > 0 {
		req.Body = body
	}
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		req.Header = http.Header{"Accept-Language": {lang}}
	}

	resp, err := p.pipeline.Execute(r.Context(), req)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	for key, values := range resp.Header {
		if skippedHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if resp.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("X-Nomad-Request-ID", resp.RequestID)
	if upstream := resp.Header.Get("X-Request-ID"); upstream != "" {
		w.Header().Set("X-Upstream-Request-ID", upstream)
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		p.logger.Debug().Err(err).Msg("Failed to write response")
	}
}

func (p *proxy) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if client.IsCancelled(err) {
		status := http.StatusServiceUnavailable
		if r.Context().Err() != nil {
			status = statusClientClosedRequest
		}
		writeJSON(w, status, map[string]string{"message": "request cancelled", "code": "cancelled"})
		return
	}

	apiErr, ok := client.AsAPIError(err)
	if !ok {
		p.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Proxy request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}

	status := apiErr.Status
	if status == 0 {
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorEnvelope{
		Message:   apiErr.Message,
		Code:      apiErr.Code,
		Details:   apiErr.Details,
		RequestID: apiErr.RequestID,
	})
}

type errorEnvelope struct {
	Message   string              `json:"message"`
	Code      string              `json:"code,omitempty"`
	Details   map[string][]string `json:"details,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func (p *proxy) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := p.pipeline.ClearCache(r.Context()); err != nil {
		p.logger.Error().Err(err).Msg("Cache clear failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *proxy) invalidate(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "pattern is required"})
		return
	}

	n, err := p.pipeline.InvalidateByURLSubstring(r.Context(), pattern)
	if err != nil {
		p.logger.Error().Err(err).Str("pattern", pattern).Msg("Cache invalidation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (p *proxy) activeRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"requests": p.pipeline.ActiveRequests()})
}

// cancelRequests aborts one request when ?id= is given, all of them otherwise.
func (p *proxy) cancelRequests(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		if !p.pipeline.Cancel(id) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown request " + id})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"cancelled": 1})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"cancelled": p.pipeline.CancelAll()})
}

func (p *proxy) clearSession(w http.ResponseWriter, r *http.Request) {
	p.pipeline.ClearSession()
	if err := p.pipeline.ClearCache(r.Context()); err != nil {
		p.logger.Warn().Err(err).Msg("Cache clear after session reset failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)
			ctx := context.WithValue(r.Context(), requestIDKey, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sr, r)

			rid, _ := r.Context().Value(requestIDKey).(string)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sr.status).
				Int("bytes", sr.bytes).
				Str("request_id", rid).
				Str("remote_addr", r.RemoteAddr).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
