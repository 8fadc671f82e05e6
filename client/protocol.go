package client

import (
	"context"
	"net/http"

	"goa.design/schemarpc/codec"
	"goa.design/schemarpc/schema"
	schemahttp "goa.design/schemarpc/transport/http"
	"goa.design/schemarpc/value"
)

// Protocol binds an operation's schema to wire bytes and back (spec.md §4.1
// "Build the transport request via the protocol (createRequest)"; "Deserialize
// response via the protocol (deserializeResponse)"). ExchangeKind names the
// Transport kind this Protocol requires (spec.md §9).
type Protocol interface {
	ExchangeKind() string
	CreateRequest(ctx context.Context, op *schema.Schema, input value.Value, ep schemahttp.Endpoint) (*http.Request, error)
	DeserializeResponse(op *schema.Schema, resp *http.Response) (value.Value, error)
	DeserializeError(op *schema.Schema, resp *http.Response, body []byte) error
}

// HTTPProtocol is the HTTP-binding protocol engine (spec.md §4.2), adapted
// to the Protocol interface the pipeline drives. It is a thin wrapper: all
// binding logic lives in transport/http; this type only carries the per-
// service payload codec and error-resolution options.
type HTTPProtocol struct {
	Codec        codec.PayloadCodec
	ErrorOptions schemahttp.ErrorOptions
}

// ExchangeKind implements Protocol.
func (p *HTTPProtocol) ExchangeKind() string { return "http" }

// CreateRequest implements Protocol.
func (p *HTTPProtocol) CreateRequest(ctx context.Context, op *schema.Schema, input value.Value, ep schemahttp.Endpoint) (*http.Request, error) {
	return schemahttp.BuildRequest(ctx, op, input, p.Codec, ep)
}

// DeserializeResponse implements Protocol.
func (p *HTTPProtocol) DeserializeResponse(op *schema.Schema, resp *http.Response) (value.Value, error) {
	return schemahttp.BuildOutput(op, resp, p.Codec)
}

// DeserializeError implements Protocol.
func (p *HTTPProtocol) DeserializeError(op *schema.Schema, resp *http.Response, body []byte) error {
	return schemahttp.BuildError(op, resp, body, p.Codec, p.ErrorOptions)
}

var _ Protocol = (*HTTPProtocol)(nil)
