// Package value implements the polymorphic, schema-addressable input/output
// record described by spec.md §3 ("Input/output value"): a struct-like
// record that knows its schema and exposes member values by schema member,
// without requiring any particular in-memory layout. Record is the concrete
// implementation this module ships; callers with generated Go structs are
// free to implement the Value interface themselves instead.
package value

import "goa.design/schemarpc/schema"

// Value is implemented by anything addressable by schema member: the HTTP
// binding engine, the payload codec, and interceptors all operate against
// this interface rather than a concrete struct layout.
type Value interface {
	// Schema returns the shape describing this value.
	Schema() *schema.Schema

	// Get returns the value bound to member m, if set. The dynamic type of
	// the returned value is one of: a Go scalar (string/bool/int64/float64),
	// []byte, *stream.DataStream, a nested Value, or a []Value/[]any for
	// lists and maps.
	Get(m *schema.Member) (any, bool)

	// Set binds v to member m.
	Set(m *schema.Member, v any)
}

// Record is a generic, order-preserving implementation of Value backed by a
// map keyed on member name. It requires no generated Go struct: a caller can
// build one directly from a schema and fill it member by member, which is
// what the HTTP binding engine's "output builder" does when reconstructing
// a response.
type Record struct {
	schema *schema.Schema
	order  []string
	data   map[string]any
}

// New creates an empty Record for s.
func New(s *schema.Schema) *Record {
	return &Record{schema: s, data: map[string]any{}}
}

// Schema implements Value.
func (r *Record) Schema() *schema.Schema { return r.schema }

// Get implements Value.
func (r *Record) Get(m *schema.Member) (any, bool) {
	v, ok := r.data[m.Name()]
	return v, ok
}

// Set implements Value.
func (r *Record) Set(m *schema.Member, v any) {
	if _, exists := r.data[m.Name()]; !exists {
		r.order = append(r.order, m.Name())
	}
	r.data[m.Name()] = v
}

// GetByName is a convenience accessor for callers that have the member name
// but not the *schema.Member (for example, binding code iterating traits).
func (r *Record) GetByName(name string) (any, bool) {
	v, ok := r.data[name]
	return v, ok
}

// SetByName is the name-addressed counterpart to Set, used when building a
// Record from wire data before the member schema has been looked up.
func (r *Record) SetByName(name string, v any) {
	if _, exists := r.data[name]; !exists {
		r.order = append(r.order, name)
	}
	r.data[name] = v
}

// MemberNames returns the set members in the order they were first set.
func (r *Record) MemberNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
