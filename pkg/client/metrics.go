package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pipeline operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nomad_requests_total",
		Help: "Total upstream requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nomad_request_duration_seconds",
		Help:    "Pipeline request duration in seconds by method",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nomad_errors_total",
		Help: "Total failed requests by error class",
	}, []string{"class"})

	dedupJoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nomad_dedup_joins_total",
		Help: "Total GET requests that joined an identical in-flight request",
	})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nomad_retries_total",
		Help: "Total retry attempts after a 429 response",
	})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nomad_retry_backoff_seconds",
		Help:    "Backoff duration before a 429 retry",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16},
	})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nomad_retry_exhausted_total",
		Help: "Total requests that were still rate limited after all retries",
	})

	sessionRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nomad_session_refresh_total",
		Help: "Total session refresh attempts by result",
	}, []string{"result"})

	cancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nomad_cancellations_total",
		Help: "Total requests that ended because they were cancelled",
	})
)
