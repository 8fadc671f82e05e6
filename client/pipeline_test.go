package client_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/schemarpc/client"
	jsoncodec "goa.design/schemarpc/codec/json"
	"goa.design/schemarpc/endpoint"
	"goa.design/schemarpc/retry"
	"goa.design/schemarpc/schema"
	transporthttp "goa.design/schemarpc/transport/http"
	"goa.design/schemarpc/value"
)

type pingSchemas struct {
	op     *schema.Schema
	input  *schema.Schema
	output *schema.Schema
}

func buildPingOperation(t *testing.T) pingSchemas {
	t.Helper()
	reg := schema.NewRegistry()
	strID := schema.NewID("smoke", "String")
	require.NoError(t, reg.Register(mustBuildSchema(t, schema.NewBuilder(strID, schema.KindString))))

	inputID := schema.NewID("smoke", "PingInput")
	input := mustBuildSchema(t, schema.NewBuilder(inputID, schema.KindStructure).
		AddMember(reg, "name", strID, nil))
	require.NoError(t, reg.Register(input))

	outputID := schema.NewID("smoke", "PingOutput")
	output := mustBuildSchema(t, schema.NewBuilder(outputID, schema.KindStructure).
		AddMember(reg, "name", strID, nil))
	require.NoError(t, reg.Register(output))

	opID := schema.NewID("smoke", "Ping")
	op := mustBuildSchema(t, schema.NewBuilder(opID, schema.KindOperation).
		Traits(schema.Traits{schema.TraitHTTP: transporthttp.OperationTrait{Method: "POST", Path: "/ping", SuccessCode: 200}}).
		Operation(reg, inputID, outputID, nil, []string{"none"}))
	require.NoError(t, reg.Register(op))

	return pingSchemas{op: op, input: input, output: output}
}

func mustBuildSchema(t *testing.T, b *schema.Builder) *schema.Schema {
	t.Helper()
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

// scriptedTransport returns canned responses in order, recording every
// request it is handed.
type scriptedTransport struct {
	responses []*http.Response
	calls     int32
	requests  []*http.Request
}

func (s *scriptedTransport) ExchangeKind() string { return "http" }

func (s *scriptedTransport) Send(_ context.Context, req *http.Request) (*http.Response, error) {
	i := int(atomic.AddInt32(&s.calls, 1)) - 1
	s.requests = append(s.requests, req)
	if i >= len(s.responses) {
		return s.responses[len(s.responses)-1], nil
	}
	return s.responses[i], nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Proto:      "HTTP/1.1",
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestConfig(t *testing.T, transport client.Transport) client.Config {
	t.Helper()
	cfg, err := client.NewBuilder().Apply(
		client.WithServiceSchema(buildPingOperation(t).op),
		client.WithProtocol(&client.HTTPProtocol{Codec: jsoncodec.New()}),
		client.WithTransport(transport),
		client.WithEndpointResolver(endpoint.NewStatic("https://example.com", nil)),
		client.WithRetryStrategy(retry.NewTokenBucketStrategy(3, 5, 1.0, 1, 1)),
	).Build()
	require.NoError(t, err)
	return cfg
}

func TestInvokeSucceedsOnFirstAttempt(t *testing.T) {
	w := buildPingOperation(t)
	transport := &scriptedTransport{responses: []*http.Response{jsonResponse(200, `{"name":"pong"}`)}}
	cfg := newTestConfig(t, transport)

	in := value.New(w.input)
	out, err := client.Invoke[value.Value, value.Value](context.Background(), cfg, w.op, in)
	require.NoError(t, err)

	m, ok := w.output.Member("name")
	require.True(t, ok)
	name, ok := out.Get(m)
	require.True(t, ok)
	assert.Equal(t, "pong", name)
	assert.EqualValues(t, 1, transport.calls)
}

func TestInvokeRetriesOnThrottleThenSucceeds(t *testing.T) {
	w := buildPingOperation(t)
	transport := &scriptedTransport{responses: []*http.Response{
		jsonResponse(429, `{"message":"slow down"}`),
		jsonResponse(200, `{"name":"pong"}`),
	}}
	cfg := newTestConfig(t, transport)

	in := value.New(w.input)
	out, err := client.Invoke[value.Value, value.Value](context.Background(), cfg, w.op, in)
	require.NoError(t, err)

	m, ok := w.output.Member("name")
	require.True(t, ok)
	name, _ := out.Get(m)
	assert.Equal(t, "pong", name)
	require.EqualValues(t, 2, transport.calls)

	assert.Equal(t, "attempt=1; max=3", transport.requests[0].Header.Get("amz-sdk-request"))
	assert.Equal(t, "attempt=2; max=3", transport.requests[1].Header.Get("amz-sdk-request"))
}

func TestInvokeReturnsUnmodeledErrorForUnknownDiscriminator(t *testing.T) {
	w := buildPingOperation(t)
	transport := &scriptedTransport{responses: []*http.Response{jsonResponse(400, `{"message":"bad"}`)}}
	cfg := newTestConfig(t, transport)

	in := value.New(w.input)
	_, err := client.Invoke[value.Value, value.Value](context.Background(), cfg, w.op, in)
	require.Error(t, err)

	ce, ok := client.AsError(err)
	require.True(t, ok)
	assert.Equal(t, client.KindUnmodeled, ce.Kind())
	assert.Equal(t, 400, ce.HTTPStatus())
}

func TestInvokeExhaustsRetryBudgetOnRepeatedThrottle(t *testing.T) {
	w := buildPingOperation(t)
	transport := &scriptedTransport{responses: []*http.Response{
		jsonResponse(429, `{}`), jsonResponse(429, `{}`), jsonResponse(429, `{}`), jsonResponse(429, `{}`),
	}}
	cfg := newTestConfig(t, transport)

	in := value.New(w.input)
	_, err := client.Invoke[value.Value, value.Value](context.Background(), cfg, w.op, in)
	require.Error(t, err)

	ce, ok := client.AsError(err)
	require.True(t, ok)
	assert.Equal(t, client.KindRetryExhausted, ce.Kind())
}
