// Package grpcexchange is a second, non-HTTP client.Transport that exists
// only to exercise the "message exchange kind" catalog-lookup design
// (spec.md §9, SPEC_FULL.md §5.6): it advertises exchange kind "grpc" and is
// rejected by client.Builder.Build whenever paired with the HTTP-only
// protocol engine, since Build compares Protocol.ExchangeKind() against
// Transport.ExchangeKind(). It is a second transport, not a second protocol:
// the request/response byte payload crosses the wire through a trivial
// protobuf envelope rather than a generated service definition.
package grpcexchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"goa.design/schemarpc/client"
)

// ExchangeKind is the exchange kind this Transport advertises.
const ExchangeKind = "grpc"

// Transport adapts the client pipeline's *http.Request/*http.Response
// exchange onto one fixed unary gRPC method, carrying the request/response
// payload as a wrapperspb.BytesValue envelope.
type Transport struct {
	conn   *grpc.ClientConn
	method string
}

// New builds a Transport that invokes method (fully qualified,
// "/package.Service/Method") over conn for every Send.
func New(conn *grpc.ClientConn, method string) *Transport {
	return &Transport{conn: conn, method: method}
}

// ExchangeKind implements client.Transport.
func (t *Transport) ExchangeKind() string { return ExchangeKind }

// Send implements client.Transport: req's body becomes the envelope's
// bytes, the envelope's response bytes become resp's body. gRPC has no
// native HTTP status line, so success synthesizes 200 and failure returns
// the RPC error directly rather than a response, matching how
// client.Transport.Send reports transport-layer failures.
func (t *Transport) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	var payload []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("grpcexchange: read request body: %w", err)
		}
		payload = b
	}

	in := wrapperspb.Bytes(payload)
	out := new(wrapperspb.BytesValue)
	if err := t.conn.Invoke(ctx, t.method, in, out); err != nil {
		return nil, fmt.Errorf("grpcexchange: invoke %s: %w", t.method, err)
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Proto:      "HTTP/1.1",
		Header:     http.Header{"Content-Type": {"application/octet-stream"}},
		Body:       io.NopCloser(bytes.NewReader(out.GetValue())),
	}, nil
}

var _ client.Transport = (*Transport)(nil)
