package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/schemarpc/document"
)

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := document.NewMap()
	m.Set("z", document.String("1"))
	m.Set("a", document.String("2"))
	m.Set("m", document.String("3"))
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

	m.Delete("a")
	assert.Equal(t, []string{"z", "m"}, m.Keys())
	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	m := document.NewMap()
	m.Set("name", document.String("widget"))
	m.Set("count", document.Int(3))
	m.Set("tags", document.List{document.String("a"), document.String("b")})
	m.Set("active", document.Bool(true))
	m.Set("nothing", document.Null{})

	b, err := document.MarshalJSON(m)
	require.NoError(t, err)

	back, err := document.UnmarshalJSON(b)
	require.NoError(t, err)
	backMap, err := document.AsMap(back)
	require.NoError(t, err)

	name, err := document.AsString(mustGet(t, backMap, "name"))
	require.NoError(t, err)
	assert.Equal(t, "widget", name)

	count, err := document.AsInt(mustGet(t, backMap, "count"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	active, err := document.AsBool(mustGet(t, backMap, "active"))
	require.NoError(t, err)
	assert.True(t, active)

	assert.True(t, document.IsNull(mustGet(t, backMap, "nothing")))
}

func TestBigNumberPreservesPrecision(t *testing.T) {
	v, err := document.UnmarshalJSON([]byte(`12345678901234567890123`))
	require.NoError(t, err)
	big, ok := v.(document.BigNumber)
	require.True(t, ok)
	asInt, _ := big.Int(nil)
	assert.Equal(t, "12345678901234567890123", asInt.String())
}

func TestAsHelpersRejectWrongVariant(t *testing.T) {
	_, err := document.AsString(document.Int(1))
	assert.Error(t, err)
	_, err = document.AsInt(document.String("x"))
	assert.Error(t, err)
	_, err = document.AsBool(document.String("x"))
	assert.Error(t, err)
	_, err = document.AsList(document.String("x"))
	assert.Error(t, err)
	_, err = document.AsMap(document.String("x"))
	assert.Error(t, err)
}

func mustGet(t *testing.T, m *document.Map, key string) document.Value {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok, "missing key %q", key)
	return v
}
