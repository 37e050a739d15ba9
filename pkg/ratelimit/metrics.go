package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	limitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nomad_proxy_rate_limited_total",
		Help: "Total number of proxy requests rejected by the inbound rate limiter",
	})

	storeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nomad_proxy_rate_limit_store_errors_total",
		Help: "Total number of rate limit store errors by operation",
	}, []string{"operation"})
)
