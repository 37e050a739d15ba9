// Package ratelimit limits the rate at which callers may use the proxy.
//
// Limits follow the generic cell rate algorithm of throttled/v2. The state
// lives either in memory (one proxy instance) or in Redis, where several
// instances share one budget per caller. Rejected requests get a 429 with
// Retry-After, the same contract the Nomad backend uses, so pipeline clients
// in front of the proxy retry them with their usual backoff.
package ratelimit
