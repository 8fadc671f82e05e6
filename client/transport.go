package client

import (
	"context"
	"net/http"
)

// Transport sends a built request and returns the raw response (spec.md §2
// "Transport abstraction": "message-exchange-typed sender; discovered from
// the selected protocol"). ExchangeKind must match the Protocol's, enforced
// at Builder.Build time (spec.md §9 "message exchange kind" catalog lookup).
type Transport interface {
	ExchangeKind() string
	Send(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPTransport sends requests through a *http.Client. The module takes no
// position on the backing HTTP library (spec.md §1 Non-goals); any
// *http.Client, including a custom RoundTripper, works, matching the
// teacher's runtime/a2a/httpclient.WithHTTPClient override pattern.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport wraps c, defaulting to http.DefaultClient when c is nil.
func NewHTTPTransport(c *http.Client) *HTTPTransport {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPTransport{Client: c}
}

// ExchangeKind implements Transport.
func (t *HTTPTransport) ExchangeKind() string { return "http" }

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	return t.Client.Do(req.WithContext(ctx))
}

var _ Transport = (*HTTPTransport)(nil)
