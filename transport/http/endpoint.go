package http

import (
	"net/http"
	"strings"
)

// Endpoint is a URI plus extra headers a transport must attach to every
// request that uses it (spec.md §3 "Endpoint").
type Endpoint struct {
	URI     string
	Headers http.Header
}

// MergeURI concatenates a service endpoint and a rendered request path,
// preserving percent-encoding on both sides and performing no RFC 3986
// dot-segment resolution (spec.md §4.2 "Endpoint merging"; scenario (f)).
//
// serviceURI is the configured base (which may itself carry a path, e.g.
// "https://example.com/foo%20/bar"); requestPath is the operation's rendered
// path (e.g. "/bam%20"). The result is their literal string concatenation
// with exactly one separating slash.
func MergeURI(serviceURI, requestPath string) string {
	base := strings.TrimSuffix(serviceURI, "/")
	path := requestPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
