// Package metrics exposes the Prometheus metrics of the Nomad Cafes client.
// All metrics are defined in their respective packages (client, cache) via
// promauto to keep those packages self-contained.
//
// This package provides the HTTP handler and a reference of all metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - nomad_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - nomad_cache_misses_total{layer} (Counter): Cache misses, including expired entries
//   - nomad_cache_evictions_total{layer} (Counter): Expired entries removed
//   - nomad_cache_invalidations_total{layer} (Counter): Entries removed by clear or invalidate
//   - nomad_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - nomad_requests_total{method, status} (Counter): Upstream requests by method and HTTP status
//   - nomad_request_duration_seconds{method} (Histogram): Pipeline duration, cache hits included
//   - nomad_errors_total{class} (Counter): Failed requests by class (client, unauthorized, rate_limit, server, network)
//   - nomad_dedup_joins_total (Counter): GETs served by an identical in-flight request
//   - nomad_cancellations_total (Counter): Requests ended by cancellation
//
// Retry and Session Metrics (pkg/client):
//   - nomad_retries_total (Counter): Retry attempts after 429
//   - nomad_retry_backoff_seconds (Histogram): Backoff before each retry
//   - nomad_retry_exhausted_total (Counter): Requests still throttled after all retries
//   - nomad_session_refresh_total{result} (Counter): Session refreshes by result (success, failure, cancelled)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(nomad_cache_hits_total[5m])) /
//   (sum(rate(nomad_cache_hits_total[5m])) + sum(rate(nomad_cache_misses_total[5m])))
//
//   # Deduplication Rate
//   rate(nomad_dedup_joins_total[5m]) / sum(rate(nomad_request_duration_seconds_count{method="GET"}[5m]))
//
//   # Throttling
//   rate(nomad_retries_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(nomad_request_duration_seconds_bucket[5m]))
