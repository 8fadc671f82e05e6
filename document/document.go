// Package document implements the dynamically typed value tree used when no
// static schema is known at a call site, or a payload's shape is not known
// ahead of time (spec.md §3 "Document"). The variant types follow the same
// sum-type-with-marker-method shape the teacher codebase uses for its own
// polymorphic message parts (runtime/agent/model.Part / isPart()).
package document

import (
	"fmt"
	"math/big"
)

// Value is implemented by every document variant: nil, boolean, signed and
// arbitrary-precision numbers, string, ordered list, string-keyed map, and
// blob.
type Value interface {
	isDocument()
}

type (
	// Null represents the document nil value.
	Null struct{}

	// Bool is a boolean document value.
	Bool bool

	// Int is a signed 64-bit integer document value.
	Int int64

	// Float is a double-precision document value.
	Float float64

	// BigNumber is an arbitrary-precision document value, used when a wire
	// number exceeds the range or precision of int64/float64.
	BigNumber struct {
		*big.Float
	}

	// String is a UTF-8 string document value.
	String string

	// Blob is a raw-bytes document value.
	Blob []byte

	// List is an ordered sequence of document values.
	List []Value

	// Map is a string-keyed, order-preserving document value. Go maps do not
	// preserve insertion order, so Map keeps explicit key order alongside the
	// value lookup, matching the spec's "ordered list, string-keyed map"
	// requirement applied to object member order on the wire.
	Map struct {
		keys   []string
		values map[string]Value
	}
)

func (Null) isDocument()      {}
func (Bool) isDocument()      {}
func (Int) isDocument()       {}
func (Float) isDocument()     {}
func (BigNumber) isDocument() {}
func (String) isDocument()    {}
func (Blob) isDocument()      {}
func (List) isDocument()      {}
func (*Map) isDocument()      {}

// NewMap creates an empty, order-preserving document map.
func NewMap() *Map {
	return &Map{values: map[string]Value{}}
}

// Set assigns key to value, appending key to the order if new.
func (m *Map) Set(key string, value Value) *Map {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value at key, if present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key, preserving the order of the remaining keys.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the map's keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Range calls fn for each entry in insertion order, stopping early if fn
// returns false.
func (m *Map) Range(fn func(key string, value Value) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// AsString returns v as a Go string if it is a document String, else an
// error describing the actual variant.
func AsString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("document: expected string, got %T", v)
	}
	return string(s), nil
}

// AsInt returns v as an int64 if it is a document Int, else an error.
func AsInt(v Value) (int64, error) {
	i, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("document: expected int, got %T", v)
	}
	return int64(i), nil
}

// AsBool returns v as a bool if it is a document Bool, else an error.
func AsBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("document: expected bool, got %T", v)
	}
	return bool(b), nil
}

// AsList returns v as a List if it is one, else an error.
func AsList(v Value) (List, error) {
	l, ok := v.(List)
	if !ok {
		return nil, fmt.Errorf("document: expected list, got %T", v)
	}
	return l, nil
}

// AsMap returns v as a *Map if it is one, else an error.
func AsMap(v Value) (*Map, error) {
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("document: expected map, got %T", v)
	}
	return m, nil
}

// IsNull reports whether v is Null or the nil interface.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}
