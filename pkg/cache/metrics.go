package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomad_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomad_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"layer"},
	)

	// CacheEvictions tracks expired entries removed by lookups and sweeps
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomad_cache_evictions_total",
			Help: "Total number of expired cache entries removed",
		},
		[]string{"layer"},
	)

	// CacheInvalidations tracks entries removed by Clear and DeleteMatching
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomad_cache_invalidations_total",
			Help: "Total number of cache entries removed by invalidation",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomad_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "scan"
	)
)
