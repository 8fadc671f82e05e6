package client_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/schemarpc/auth"
	"goa.design/schemarpc/client"
	"goa.design/schemarpc/endpoint"
	"goa.design/schemarpc/interceptor"
	"goa.design/schemarpc/retry"
	"goa.design/schemarpc/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	reg := schema.NewRegistry()
	id := schema.NewID("smoke", "Widget")
	b := schema.NewBuilder(id, schema.KindStructure)
	s, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, reg.Register(s))
	return s
}

func TestBuilderRequiresServiceSchemaProtocolTransportEndpoint(t *testing.T) {
	_, err := client.NewBuilder().Build()
	assert.Error(t, err)

	b := client.NewBuilder().Apply(client.WithServiceSchema(testSchema(t)))
	_, err = b.Build()
	assert.Error(t, err, "missing protocol should fail")
}

func TestBuilderDefaultsOptionalFields(t *testing.T) {
	cfg, err := client.NewBuilder().Apply(
		client.WithServiceSchema(testSchema(t)),
		client.WithProtocol(&client.HTTPProtocol{}),
		client.WithTransport(client.NewHTTPTransport(nil)),
		client.WithEndpointResolver(endpoint.NewStatic("https://example.com", nil)),
	).Build()
	require.NoError(t, err)

	assert.NotNil(t, cfg.Interceptors)
	assert.NotNil(t, cfg.AuthCatalog)
	assert.NotNil(t, cfg.AuthResolver)
	assert.NotNil(t, cfg.RetryStrategy)
	assert.NotNil(t, cfg.Context)
}

func TestBuilderRejectsMismatchedExchangeKind(t *testing.T) {
	_, err := client.NewBuilder().Apply(
		client.WithServiceSchema(testSchema(t)),
		client.WithProtocol(&client.HTTPProtocol{}),
		client.WithTransport(fakeGRPCTransport{}),
		client.WithEndpointResolver(endpoint.NewStatic("https://example.com", nil)),
	).Build()
	assert.Error(t, err)
}

type fakeGRPCTransport struct{}

func (fakeGRPCTransport) ExchangeKind() string { return "grpc" }
func (fakeGRPCTransport) Send(context.Context, *http.Request) (*http.Response, error) {
	return nil, nil
}

func TestOverrideIsCopyOnWriteAndDoesNotMutateBase(t *testing.T) {
	base, err := client.NewBuilder().Apply(
		client.WithServiceSchema(testSchema(t)),
		client.WithProtocol(&client.HTTPProtocol{}),
		client.WithTransport(client.NewHTTPTransport(nil)),
		client.WithEndpointResolver(endpoint.NewStatic("https://example.com", nil)),
		client.WithRetryScope("base-scope"),
	).Build()
	require.NoError(t, err)

	overridden, err := base.Override(client.WithRetryScope("call-scope"))
	require.NoError(t, err)

	assert.Equal(t, "base-scope", base.RetryScope)
	assert.Equal(t, "call-scope", overridden.RetryScope)
}

func TestApplyPluginRunsExactlyOncePerPluginID(t *testing.T) {
	b := client.NewBuilder()
	count := 0
	p := countingPlugin{id: "demo", onApply: func() { count++ }}
	b.ApplyPlugin(p)
	b.ApplyPlugin(p)
	assert.Equal(t, 1, count)
}

type countingPlugin struct {
	id      string
	onApply func()
}

func (p countingPlugin) ID() string { return p.id }
func (p countingPlugin) Apply(b *client.Builder) {
	p.onApply()
	b.Apply(client.WithRetryScope("from-plugin"))
}

func TestWithExtraInterceptorsAppendsAfterExisting(t *testing.T) {
	var order []string
	first := interceptor.Func(func(_ context.Context, phase interceptor.Phase, io interceptor.IO) (interceptor.IO, error) {
		if phase == interceptor.ReadBeforeExecution {
			order = append(order, "first")
		}
		return io, nil
	})
	second := interceptor.Func(func(_ context.Context, phase interceptor.Phase, io interceptor.IO) (interceptor.IO, error) {
		if phase == interceptor.ReadBeforeExecution {
			order = append(order, "second")
		}
		return io, nil
	})

	cfg, err := client.NewBuilder().Apply(
		client.WithServiceSchema(testSchema(t)),
		client.WithProtocol(&client.HTTPProtocol{}),
		client.WithTransport(client.NewHTTPTransport(nil)),
		client.WithEndpointResolver(endpoint.NewStatic("https://example.com", nil)),
		client.WithInterceptors(first),
	).Build()
	require.NoError(t, err)

	overridden, err := cfg.Override(client.WithExtraInterceptors(second))
	require.NoError(t, err)

	_, _ = overridden.Interceptors.Read(context.Background(), interceptor.ReadBeforeExecution, interceptor.IO{})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestAuthCatalogDefaultsToNoAuth(t *testing.T) {
	catalog := auth.NewCatalog()
	_, ok := catalog.Schemes[auth.NoAuthSchemeID]
	assert.True(t, ok)
}

var _ retry.Strategy = (*retry.TokenBucketStrategy)(nil)
