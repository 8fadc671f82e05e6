package http_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsoncodec "goa.design/schemarpc/codec/json"
	"goa.design/schemarpc/schema"
	transporthttp "goa.design/schemarpc/transport/http"
	"goa.design/schemarpc/value"
)

func TestParsePatternRejectsDuplicateLabel(t *testing.T) {
	_, err := transporthttp.ParsePattern("/widgets/{id}/{id}")
	require.Error(t, err)
	var invalid *transporthttp.InvalidPattern
	assert.ErrorAs(t, err, &invalid)
}

func TestParsePatternRejectsSegmentAfterGreedy(t *testing.T) {
	_, err := transporthttp.ParsePattern("/widgets/{path+}/{id}")
	require.Error(t, err)
}

func TestParsePatternRejectsTwoGreedyLabels(t *testing.T) {
	_, err := transporthttp.ParsePattern("/{a+}/{b+}")
	require.Error(t, err)
}

func TestPatternRenderEncodesNonGreedyLabelButPreservesSlashOnGreedy(t *testing.T) {
	p, err := transporthttp.ParsePattern("/widgets/{id}/files/{path+}")
	require.NoError(t, err)
	rendered, err := p.Render(map[string]string{"id": "a b", "path": "x/y"})
	require.NoError(t, err)
	assert.Equal(t, "/widgets/a%20b/files/x/y", rendered)
}

func TestPatternRenderMissingLabelErrors(t *testing.T) {
	p, err := transporthttp.ParsePattern("/widgets/{id}")
	require.NoError(t, err)
	_, err = p.Render(map[string]string{})
	assert.Error(t, err)
}

func TestMergeURIPreservesPercentEncodingWithoutDotSegmentResolution(t *testing.T) {
	got := transporthttp.MergeURI("https://example.com/foo%20/bar", "/bam%20")
	assert.Equal(t, "https://example.com/foo%20/bar/bam%20", got)
}

type widgetSchemas struct {
	reg    *schema.Registry
	op     *schema.Schema
	input  *schema.Schema
	output *schema.Schema
	notFound *schema.Schema
}

func buildWidgetOperation(t *testing.T) widgetSchemas {
	t.Helper()
	reg := schema.NewRegistry()
	strID := schema.NewID("smoke", "String")
	require.NoError(t, reg.Register(mustBuild(t, schema.NewBuilder(strID, schema.KindString))))
	intID := schema.NewID("smoke", "Integer")
	require.NoError(t, reg.Register(mustBuild(t, schema.NewBuilder(intID, schema.KindInteger))))

	inputID := schema.NewID("smoke", "GetWidgetInput")
	input := mustBuild(t, schema.NewBuilder(inputID, schema.KindStructure).
		AddMember(reg, "bucket", strID, schema.Traits{schema.TraitHTTPLabel: true}).
		AddMember(reg, "limit", intID, schema.Traits{schema.TraitHTTPQuery: "limit"}).
		AddMember(reg, "token", strID, schema.Traits{schema.TraitHTTPHeader: "x-token"}).
		AddMember(reg, "name", strID, nil))
	require.NoError(t, reg.Register(input))

	outputID := schema.NewID("smoke", "GetWidgetOutput")
	output := mustBuild(t, schema.NewBuilder(outputID, schema.KindStructure).
		AddMember(reg, "id", strID, schema.Traits{schema.TraitHTTPHeader: "x-id"}).
		AddMember(reg, "status", intID, schema.Traits{schema.TraitHTTPStatus: true}).
		AddMember(reg, "name", strID, nil))
	require.NoError(t, reg.Register(output))

	notFoundID := schema.NewID("smoke", "WidgetNotFound")
	notFound := mustBuild(t, schema.NewBuilder(notFoundID, schema.KindStructure).
		Traits(schema.Traits{schema.TraitHTTPError: 404}).
		AddMember(reg, "message", strID, nil))
	require.NoError(t, reg.Register(notFound))

	opID := schema.NewID("smoke", "GetWidget")
	op := mustBuild(t, schema.NewBuilder(opID, schema.KindOperation).
		Traits(schema.Traits{schema.TraitHTTP: transporthttp.OperationTrait{Method: "POST", Path: "/widgets/{bucket}", SuccessCode: 200}}).
		Operation(reg, inputID, outputID, []schema.ID{notFoundID}, []string{"none"}))
	require.NoError(t, reg.Register(op))

	return widgetSchemas{reg: reg, op: op, input: input, output: output, notFound: notFound}
}

func TestBuildRequestBindsLabelQueryHeaderAndBody(t *testing.T) {
	w := buildWidgetOperation(t)
	in := value.New(w.input)
	setByName(t, w.input, in, "bucket", "my bucket")
	setByName(t, w.input, in, "limit", int64(10))
	setByName(t, w.input, in, "token", "secret")
	setByName(t, w.input, in, "name", "sprocket")

	req, err := transporthttp.BuildRequest(context.Background(), w.op, in, jsoncodec.New(), transporthttp.Endpoint{URI: "https://example.com"})
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/widgets/my%20bucket", req.URL.EscapedPath())
	assert.Equal(t, "limit=10", req.URL.RawQuery)
	assert.Equal(t, "secret", req.Header.Get("x-token"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"sprocket"}`, string(body))
}

func TestBuildOutputFillsHeaderStatusAndBody(t *testing.T) {
	w := buildWidgetOperation(t)
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{"X-Id": []string{"widget-1"}},
		Body:       io.NopCloser(strings.NewReader(`{"name":"sprocket"}`)),
	}
	out, err := transporthttp.BuildOutput(w.op, resp, jsoncodec.New())
	require.NoError(t, err)

	id, ok := getByName(t, w.output, out, "id")
	require.True(t, ok)
	assert.Equal(t, "widget-1", id)

	status, ok := getByName(t, w.output, out, "status")
	require.True(t, ok)
	assert.Equal(t, int64(200), status)

	name, ok := getByName(t, w.output, out, "name")
	require.True(t, ok)
	assert.Equal(t, "sprocket", name)
}

func TestBuildErrorHeaderTakesPrecedenceOverBodyDiscriminator(t *testing.T) {
	w := buildWidgetOperation(t)
	resp := &http.Response{
		StatusCode: 404,
		Proto:      "HTTP/1.1",
		Header:     http.Header{"X-Amzn-Errortype": []string{"smoke#WidgetNotFound:http://internal"}},
	}
	body := []byte(`{"__type":"smoke#SomeOtherError","message":"nope"}`)
	err := transporthttp.BuildError(w.op, resp, body, jsoncodec.New(), transporthttp.ErrorOptions{
		HeaderExtractor:  "X-Amzn-Errortype",
		ServiceNamespace: "smoke",
	})
	var modeled *transporthttp.ModeledError
	require.ErrorAs(t, err, &modeled)
	assert.Equal(t, "smoke#WidgetNotFound", modeled.ShapeID.String())
}

func TestBuildErrorFallsBackToUnmodeled(t *testing.T) {
	w := buildWidgetOperation(t)
	resp := &http.Response{StatusCode: 400, Proto: "HTTP/1.1", Header: http.Header{}}
	body := []byte(`{"__type":"com.foo#SomeUnknownError"}`)
	err := transporthttp.BuildError(w.op, resp, body, jsoncodec.New(), transporthttp.ErrorOptions{UnknownMessage: "Hi!"})
	var unmodeled *transporthttp.UnmodeledError
	require.ErrorAs(t, err, &unmodeled)
	assert.Equal(t, transporthttp.FaultClient, unmodeled.Fault)
	assert.Equal(t, "Hi!", unmodeled.Message)
}

func setByName(t *testing.T, s *schema.Schema, v value.Value, name string, val any) {
	t.Helper()
	m, ok := s.Member(name)
	require.True(t, ok)
	v.Set(m, val)
}

func getByName(t *testing.T, s *schema.Schema, v value.Value, name string) (any, bool) {
	t.Helper()
	m, ok := s.Member(name)
	require.True(t, ok)
	return v.Get(m)
}

func mustBuild(t *testing.T, b *schema.Builder) *schema.Schema {
	t.Helper()
	s, err := b.Build()
	require.NoError(t, err)
	return s
}
