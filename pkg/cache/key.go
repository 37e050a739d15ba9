package cache

import (
	"net/url"
	"strings"
)

// Signature identifies equivalent GET requests for caching and deduplication.
type Signature struct {
	// Method is the HTTP method (only GET signatures are ever cached)
	Method string

	// URL is the request path relative to the API base URL (e.g. "/cafes/")
	URL string

	// Query are the query parameters
	Query url.Values

	// Session is a fingerprint of the credentials the request is sent with.
	// Empty for anonymous requests.
	Session string
}

// String generates a deterministic signature string.
// Format: METHOD:url:serialized(query)[:session=fingerprint]
//
// Example:
//
//	GET:/cafes/:city=lisbon&page=2
func (s Signature) String() string {
	var b strings.Builder

	b.WriteString(strings.ToUpper(s.Method))
	b.WriteByte(':')
	b.WriteString(s.URL)
	b.WriteByte(':')
	// Encode sorts by key, so the result does not depend on map iteration.
	b.WriteString(s.Query.Encode())

	if s.Session != "" {
		b.WriteString(":session=")
		b.WriteString(s.Session)
	}

	return b.String()
}
