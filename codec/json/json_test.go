package json_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsoncodec "goa.design/schemarpc/codec/json"
	"goa.design/schemarpc/schema"
	"goa.design/schemarpc/value"
)

func buildWidgetSchema(t *testing.T) (*schema.Registry, *schema.Schema) {
	t.Helper()
	reg := schema.NewRegistry()
	strID := schema.NewID("smoke", "String")
	require.NoError(t, reg.Register(mustBuild(t, schema.NewBuilder(strID, schema.KindString))))
	intID := schema.NewID("smoke", "Integer")
	require.NoError(t, reg.Register(mustBuild(t, schema.NewBuilder(intID, schema.KindInteger))))
	boolID := schema.NewID("smoke", "Boolean")
	require.NoError(t, reg.Register(mustBuild(t, schema.NewBuilder(boolID, schema.KindBoolean))))
	tsID := schema.NewID("smoke", "Timestamp")
	require.NoError(t, reg.Register(mustBuild(t, schema.NewBuilder(tsID, schema.KindTimestamp))))
	listID := schema.NewID("smoke", "Tags")
	require.NoError(t, reg.Register(mustBuild(t, schema.NewBuilder(listID, schema.KindList).
		Element(reg, strID, nil))))

	widgetID := schema.NewID("smoke", "Widget")
	s := mustBuild(t, schema.NewBuilder(widgetID, schema.KindStructure).
		AddMember(reg, "name", strID, nil).
		AddMember(reg, "count", intID, nil).
		AddMember(reg, "active", boolID, nil).
		AddMember(reg, "createdAt", tsID, nil).
		AddMember(reg, "tags", listID, nil).
		AddMember(reg, "label", strID, schema.Traits{schema.TraitJSONName: "display_label"}))
	require.NoError(t, reg.Register(s))
	return reg, s
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	_, s := buildWidgetSchema(t)
	rec := value.New(s)
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	setByName(t, s, rec, "name", "sprocket")
	setByName(t, s, rec, "count", int64(7))
	setByName(t, s, rec, "active", true)
	setByName(t, s, rec, "createdAt", when)
	setByName(t, s, rec, "tags", []any{"a", "b"})
	setByName(t, s, rec, "label", "Sprocket")

	c := jsoncodec.New()
	body, err := c.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"display_label":"Sprocket"`)
	assert.NotContains(t, string(body), `"label"`)

	out := value.New(s)
	require.NoError(t, c.Unmarshal(body, out))

	name, ok := getByName(t, s, out, "name")
	require.True(t, ok)
	assert.Equal(t, "sprocket", name)

	count, ok := getByName(t, s, out, "count")
	require.True(t, ok)
	assert.Equal(t, int64(7), count)

	active, ok := getByName(t, s, out, "active")
	require.True(t, ok)
	assert.Equal(t, true, active)

	created, ok := getByName(t, s, out, "createdAt")
	require.True(t, ok)
	assert.True(t, when.Equal(created.(time.Time)))

	tags, ok := getByName(t, s, out, "tags")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, tags)

	label, ok := getByName(t, s, out, "label")
	require.True(t, ok)
	assert.Equal(t, "Sprocket", label)
}

func TestUnmarshalIgnoresUnknownMembers(t *testing.T) {
	_, s := buildWidgetSchema(t)
	out := value.New(s)
	c := jsoncodec.New()
	err := c.Unmarshal([]byte(`{"name":"x","mystery":"unused"}`), out)
	require.NoError(t, err)
	name, ok := getByName(t, s, out, "name")
	require.True(t, ok)
	assert.Equal(t, "x", name)
}

func TestUnmarshalEmptyBodyIsNoop(t *testing.T) {
	_, s := buildWidgetSchema(t)
	out := value.New(s)
	c := jsoncodec.New()
	require.NoError(t, c.Unmarshal(nil, out))
	_, ok := getByName(t, s, out, "name")
	assert.False(t, ok)
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
