// Package endpoint resolves an operation call to a concrete transport
// endpoint (spec.md §3 "Endpoint", §4.1 step 4, §6 "Endpoint override").
package endpoint

import (
	"context"
	gohttp "net/http"

	schemahttp "goa.design/schemarpc/transport/http"
)

// Params carries what a Resolver needs to pick an endpoint for one call.
type Params struct {
	// Operation is the operation's absolute shape id.
	Operation string
	// Region is the configured region, when the resolver is region-aware
	// (e.g. an AWS-style multi-region service); empty when not applicable.
	Region string
}

// Resolver maps a call to an Endpoint (spec.md §2 "Endpoint resolver").
type Resolver interface {
	ResolveEndpoint(ctx context.Context, params Params) (schemahttp.Endpoint, error)
}

// Static always resolves to the same Endpoint, the common case for a
// client bound to one fixed service URI.
type Static struct {
	endpoint schemahttp.Endpoint
}

// NewStatic builds a Static resolver for uri, optionally attaching headers
// every request using this endpoint must carry.
func NewStatic(uri string, headers gohttp.Header) *Static {
	if headers == nil {
		headers = gohttp.Header{}
	}
	return &Static{endpoint: schemahttp.Endpoint{URI: uri, Headers: headers}}
}

// ResolveEndpoint implements Resolver.
func (s *Static) ResolveEndpoint(_ context.Context, _ Params) (schemahttp.Endpoint, error) {
	return s.endpoint, nil
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, params Params) (schemahttp.Endpoint, error)

// ResolveEndpoint implements Resolver.
func (f Func) ResolveEndpoint(ctx context.Context, params Params) (schemahttp.Endpoint, error) {
	return f(ctx, params)
}

// Resolve applies a resolved Endpoint's base URI and headers to a rendered
// request path. A non-empty overrideURI implements spec.md §6's "call-scoped
// static URI completely replaces resolver-provided paths except that the
// resolver may add extra headers, which are merged (appended, never
// replaced)": the resolver's URI is discarded but its headers still apply,
// appended onto the override's own.
func Resolve(resolved schemahttp.Endpoint, requestPath, overrideURI string) schemahttp.Endpoint {
	uri := resolved.URI
	if overrideURI != "" {
		uri = overrideURI
	}
	return schemahttp.Endpoint{
		URI:     schemahttp.MergeURI(uri, requestPath),
		Headers: resolved.Headers,
	}
}

// ResolveBase applies the override-replaces-base-but-not-headers rule
// without merging in any operation path, for callers (such as the execution
// pipeline) that hand the result to transport/http.BuildRequest, which
// renders and merges the operation's own path pattern itself.
func ResolveBase(resolved schemahttp.Endpoint, overrideURI string) schemahttp.Endpoint {
	uri := resolved.URI
	if overrideURI != "" {
		uri = overrideURI
	}
	return schemahttp.Endpoint{URI: uri, Headers: resolved.Headers}
}

// MergeHeaders appends extra's values onto a copy of base without removing
// or replacing any existing value under the same key, per the "merged
// (appended, never replaced)" rule spec.md §6 states for resolver headers.
func MergeHeaders(base, extra gohttp.Header) gohttp.Header {
	merged := base.Clone()
	if merged == nil {
		merged = gohttp.Header{}
	}
	for k, vs := range extra {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	return merged
}
