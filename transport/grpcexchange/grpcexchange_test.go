package grpcexchange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"goa.design/schemarpc/client"
	"goa.design/schemarpc/endpoint"
	"goa.design/schemarpc/schema"
	"goa.design/schemarpc/transport/grpcexchange"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	reg := schema.NewRegistry()
	id := schema.NewID("smoke", "Widget")
	s, err := schema.NewBuilder(id, schema.KindStructure).Build()
	require.NoError(t, err)
	require.NoError(t, reg.Register(s))
	return s
}

func TestTransportAdvertisesGRPCExchangeKind(t *testing.T) {
	conn, err := grpc.NewClient("passthrough:///unused", grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	tr := grpcexchange.New(conn, "/schemarpc.Exchange/Call")
	assert.Equal(t, "grpc", tr.ExchangeKind())
}

func TestBuilderRejectsGRPCTransportPairedWithHTTPProtocol(t *testing.T) {
	conn, err := grpc.NewClient("passthrough:///unused", grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	_, err = client.NewBuilder().Apply(
		client.WithServiceSchema(testSchema(t)),
		client.WithProtocol(&client.HTTPProtocol{}),
		client.WithTransport(grpcexchange.New(conn, "/schemarpc.Exchange/Call")),
		client.WithEndpointResolver(endpoint.NewStatic("https://example.com", nil)),
	).Build()
	assert.Error(t, err, "an http protocol paired with a grpc transport must be rejected at build time")
}
