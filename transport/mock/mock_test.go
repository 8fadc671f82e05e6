package mock_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsoncodec "goa.design/schemarpc/codec/json"
	"goa.design/schemarpc/schema"
	"goa.design/schemarpc/transport/mock"
	"goa.design/schemarpc/value"
)

func widgetSchema(t *testing.T) *schema.Schema {
	t.Helper()
	reg := schema.NewRegistry()
	strID := schema.NewID("smoke", "String")
	b, err := schema.NewBuilder(strID, schema.KindString).Build()
	require.NoError(t, err)
	require.NoError(t, reg.Register(b))

	widgetID := schema.NewID("smoke", "Widget")
	w, err := schema.NewBuilder(widgetID, schema.KindStructure).AddMember(reg, "name", strID, nil).Build()
	require.NoError(t, err)
	require.NoError(t, reg.Register(w))
	return w
}

func TestRegistrationsConsultedInOrderFirstMatchWins(t *testing.T) {
	transport := mock.New("http", jsoncodec.New())
	transport.RegisterResponse(mock.MethodAndPath(http.MethodGet, "/widgets/1"),
		&http.Response{StatusCode: 200, Body: io.NopCloser(nil)})
	transport.RegisterResponse(mock.Any, &http.Response{StatusCode: 500, Body: io.NopCloser(nil)})

	req := httptest.NewRequest(http.MethodGet, "/widgets/1", nil)
	resp, err := transport.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRegisterOutputMarshalsWithConfiguredCodec(t *testing.T) {
	w := widgetSchema(t)
	transport := mock.New("http", jsoncodec.New())

	out := value.New(w)
	m, ok := w.Member("name")
	require.True(t, ok)
	out.Set(m, "gizmo")

	transport.RegisterOutput(mock.Any, 200, out)

	req := httptest.NewRequest(http.MethodPost, "/widgets", nil)
	resp, err := transport.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gizmo")
}

func TestRegisterErrorFabricatesTransportFailure(t *testing.T) {
	transport := mock.New("http", jsoncodec.New())
	wantErr := errors.New("boom")
	transport.RegisterError(mock.Any, wantErr)

	req := httptest.NewRequest(http.MethodGet, "/whatever", nil)
	_, err := transport.Send(context.Background(), req)
	assert.ErrorIs(t, err, wantErr)
}

func TestSendRecordsEveryRequest(t *testing.T) {
	transport := mock.New("http", jsoncodec.New())
	transport.RegisterResponse(mock.Any, &http.Response{StatusCode: 204, Body: io.NopCloser(nil)})

	_, _ = transport.Send(context.Background(), httptest.NewRequest(http.MethodGet, "/a", nil))
	_, _ = transport.Send(context.Background(), httptest.NewRequest(http.MethodGet, "/b", nil))

	reqs := transport.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/a", reqs[0].URL.Path)
	assert.Equal(t, "/b", reqs[1].URL.Path)
}

func TestSendReturnsErrorWhenNoRegistrationMatches(t *testing.T) {
	transport := mock.New("http", jsoncodec.New())
	_, err := transport.Send(context.Background(), httptest.NewRequest(http.MethodGet, "/unmatched", nil))
	assert.Error(t, err)
}
