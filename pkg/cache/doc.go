// Package cache provides the response cache used by the Nomad Cafes API client.
//
// Only successful GET responses are stored. Entries are keyed by a request
// Signature (method, URL, serialized query and an optional session
// fingerprint) and stay valid for a fixed TTL counted from the moment they
// were cached.
//
// # Backends
//
// MemoryStore is the default backend. It lives for the lifetime of the client
// and is never persisted:
//
//	store := cache.NewMemoryStore(5 * time.Second)
//	defer store.Close()
//
// RedisStore shares entries between processes (for example several proxy
// replicas) and is opt-in:
//
//	store := cache.NewRedisStore(redisClient, 5*time.Second)
//
// Both backends revalidate the entry timestamp on every lookup and report an
// expired entry as ErrCacheMiss.
//
// # Signatures
//
//	sig := cache.Signature{
//		Method: http.MethodGet,
//		URL:    "/api/cafes/",
//		Query:  url.Values{"city": []string{"lisbon"}},
//	}
//	sig.String() // GET:/api/cafes/:city=lisbon
//
// # Invalidation
//
// DeleteMatching removes every entry whose signature contains a substring,
// which is how callers drop all list and detail views of a resource after a
// mutation. Clear wipes the store.
//
// # Metrics
//
//   - nomad_cache_hits_total{layer} - Cache hits by backend
//   - nomad_cache_misses_total{layer} - Cache misses by backend
//   - nomad_cache_evictions_total{layer} - Expired entries dropped
//   - nomad_cache_invalidations_total{layer} - Entries removed by invalidation
//   - nomad_cache_errors_total{operation} - Backend operation errors
package cache
