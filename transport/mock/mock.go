// Package mock implements the pluggable test-collaborator transport
// (spec.md §4.6): a client.Transport that records every outbound request
// and, for each attempt, returns one of a pre-built response, a serialized
// mocked output produced via the server-side codec, or a fabricated error.
// Registrations are consulted in registration order; the first whose
// matcher accepts the request wins.
package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"goa.design/schemarpc/client"
	"goa.design/schemarpc/codec"
	"goa.design/schemarpc/value"
)

// Matcher reports whether a registration applies to req.
type Matcher func(req *http.Request) bool

// Any matches every request, useful as a catch-all final registration.
func Any(*http.Request) bool { return true }

// MethodAndPath matches requests with the exact method and URL path.
func MethodAndPath(method, path string) Matcher {
	return func(req *http.Request) bool {
		return req.Method == method && req.URL.Path == path
	}
}

type registration struct {
	match   Matcher
	respond func(req *http.Request) (*http.Response, error)
}

// Transport is a client.Transport test collaborator. kind is the exchange
// kind it advertises, matching whatever client.Protocol it stands in for.
type Transport struct {
	kind  string
	codec codec.PayloadCodec

	mu            sync.Mutex
	registrations []registration
	requests      []*http.Request
}

// New builds a Transport advertising kind, using c to marshal registered
// mocked outputs the same way a real server's protocol engine would.
func New(kind string, c codec.PayloadCodec) *Transport {
	return &Transport{kind: kind, codec: c}
}

// ExchangeKind implements client.Transport.
func (t *Transport) ExchangeKind() string { return t.kind }

// RegisterResponse always returns resp verbatim for requests matching m.
func (t *Transport) RegisterResponse(m Matcher, resp *http.Response) {
	t.register(m, func(*http.Request) (*http.Response, error) { return resp, nil })
}

// RegisterOutput marshals output with the configured codec and wraps it in
// a response with status and the codec's content type, for requests
// matching m — the "serialized mocked output produced via the server-side
// protocol" case of spec.md §4.6.
func (t *Transport) RegisterOutput(m Matcher, status int, output value.Value) {
	t.register(m, func(*http.Request) (*http.Response, error) {
		body, err := t.codec.Marshal(output)
		if err != nil {
			return nil, fmt.Errorf("mock: marshal registered output: %w", err)
		}
		return &http.Response{
			StatusCode: status,
			Proto:      "HTTP/1.1",
			Header:     http.Header{"Content-Type": {t.codec.ContentType()}},
			Body:       io.NopCloser(bytes.NewReader(body)),
		}, nil
	})
}

// RegisterError fails every request matching m with err, the "fabricated
// error" case of spec.md §4.6.
func (t *Transport) RegisterError(m Matcher, err error) {
	t.register(m, func(*http.Request) (*http.Response, error) { return nil, err })
}

func (t *Transport) register(m Matcher, respond func(*http.Request) (*http.Response, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registrations = append(t.registrations, registration{match: m, respond: respond})
}

// Send implements client.Transport: it records req, then walks
// registrations in order and returns the first match's result.
func (t *Transport) Send(_ context.Context, req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	regs := make([]registration, len(t.registrations))
	copy(regs, t.registrations)
	t.mu.Unlock()

	for _, r := range regs {
		if r.match(req) {
			return r.respond(req)
		}
	}
	return nil, fmt.Errorf("mock: no registration matched %s %s", req.Method, req.URL.Path)
}

// Requests returns every request recorded so far, in the order Send saw
// them.
func (t *Transport) Requests() []*http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*http.Request, len(t.requests))
	copy(out, t.requests)
	return out
}

var _ client.Transport = (*Transport)(nil)
