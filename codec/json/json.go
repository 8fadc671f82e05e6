// Package json implements the JSON payload codec (spec.md §3 "Payload
// codec"). It serializes a schema-bound value.Value to and from JSON bytes
// by way of an intermediate document.Value tree, so wire-name overrides
// (json.name trait) and arbitrary-precision numbers are handled in exactly
// one place, shared with the dynamic Document model used elsewhere in this
// module (package document).
package json

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"goa.design/schemarpc/codec"
	"goa.design/schemarpc/document"
	"goa.design/schemarpc/schema"
	"goa.design/schemarpc/value"
)

const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

var _ codec.PayloadCodec = (*Codec)(nil)

// Codec is the JSON payload codec.
type Codec struct{}

// New returns a JSON payload codec.
func New() *Codec { return &Codec{} }

// ContentType implements codec.PayloadCodec.
func (*Codec) ContentType() string { return "application/json" }

// Marshal implements codec.PayloadCodec.
func (*Codec) Marshal(v value.Value) ([]byte, error) {
	doc, err := aggregateToDocument(v.Schema(), v)
	if err != nil {
		return nil, err
	}
	return document.MarshalJSON(doc)
}

// Unmarshal implements codec.PayloadCodec.
func (*Codec) Unmarshal(data []byte, v value.Value) error {
	if len(data) == 0 {
		return nil
	}
	doc, err := document.UnmarshalJSON(data)
	if err != nil {
		return err
	}
	return aggregateFromDocument(doc, v.Schema(), v)
}

func wireName(m *schema.Member) string {
	if n, ok := m.Traits().String(schema.TraitJSONName); ok && n != "" {
		return n
	}
	return m.Name()
}

// aggregateToDocument converts a structure- or union-shaped value into its
// document representation. A union emits a single-key object for whichever
// member is set (spec.md §3 "Union... exactly one set").
func aggregateToDocument(s *schema.Schema, v value.Value) (document.Value, error) {
	switch s.Kind() {
	case schema.KindStructure, schema.KindUnion:
		m := document.NewMap()
		for _, mem := range s.Members() {
			raw, ok := v.Get(mem)
			if !ok {
				continue
			}
			dv, err := memberToDocument(mem, raw)
			if err != nil {
				return nil, err
			}
			m.Set(wireName(mem), dv)
			if s.Kind() == schema.KindUnion {
				break
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("codec/json: marshal requires a structure or union schema, got %s", s.Kind())
	}
}

func aggregateFromDocument(doc document.Value, s *schema.Schema, v value.Value) error {
	switch s.Kind() {
	case schema.KindStructure, schema.KindUnion:
		m, err := document.AsMap(doc)
		if err != nil {
			return fmt.Errorf("codec/json: decoding %s: %w", s.ID(), err)
		}
		for _, mem := range s.Members() {
			dv, ok := m.Get(wireName(mem))
			if !ok {
				continue
			}
			raw, err := memberFromDocument(dv, mem)
			if err != nil {
				return fmt.Errorf("codec/json: member %q of %s: %w", mem.Name(), s.ID(), err)
			}
			v.Set(mem, raw)
		}
		return nil
	default:
		return fmt.Errorf("codec/json: unmarshal requires a structure or union schema, got %s", s.Kind())
	}
}

func memberToDocument(m *schema.Member, raw any) (document.Value, error) {
	target := m.Target()
	if target == nil {
		return nil, fmt.Errorf("codec/json: member %q targets an unresolved shape %s", m.Name(), m.TargetID())
	}
	switch target.Kind() {
	case schema.KindString, schema.KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected string, got %T", m.Name(), raw)
		}
		return document.String(s), nil
	case schema.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected bool, got %T", m.Name(), raw)
		}
		return document.Bool(b), nil
	case schema.KindInteger, schema.KindLong:
		switch n := raw.(type) {
		case int64:
			return document.Int(n), nil
		case int:
			return document.Int(int64(n)), nil
		default:
			return nil, fmt.Errorf("codec/json: member %q: expected integer, got %T", m.Name(), raw)
		}
	case schema.KindDouble:
		switch n := raw.(type) {
		case float64:
			return document.Float(n), nil
		case int64:
			return document.Float(float64(n)), nil
		default:
			return nil, fmt.Errorf("codec/json: member %q: expected double, got %T", m.Name(), raw)
		}
	case schema.KindBigDecimal:
		bf, ok := raw.(*big.Float)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected *big.Float, got %T", m.Name(), raw)
		}
		return document.BigNumber{Float: bf}, nil
	case schema.KindBlob:
		b, ok := raw.([]byte)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected []byte, got %T", m.Name(), raw)
		}
		return document.String(base64.StdEncoding.EncodeToString(b)), nil
	case schema.KindTimestamp:
		t, ok := raw.(time.Time)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected time.Time, got %T", m.Name(), raw)
		}
		return formatTimestamp(m.Traits(), t), nil
	case schema.KindDocument:
		dv, ok := raw.(document.Value)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected document.Value, got %T", m.Name(), raw)
		}
		return dv, nil
	case schema.KindList:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected []any, got %T", m.Name(), raw)
		}
		list := make(document.List, 0, len(items))
		for i, item := range items {
			dv, err := memberToDocument(target.Element(), item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			list = append(list, dv)
		}
		return list, nil
	case schema.KindMap:
		entries, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected map[string]any, got %T", m.Name(), raw)
		}
		out := document.NewMap()
		for k, item := range entries {
			dv, err := memberToDocument(target.Value(), item)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", k, err)
			}
			out.Set(k, dv)
		}
		return out, nil
	case schema.KindStructure, schema.KindUnion:
		nested, ok := raw.(value.Value)
		if !ok {
			return nil, fmt.Errorf("codec/json: member %q: expected value.Value, got %T", m.Name(), raw)
		}
		return aggregateToDocument(target, nested)
	default:
		return nil, fmt.Errorf("codec/json: member %q: unsupported target kind %s", m.Name(), target.Kind())
	}
}

func memberFromDocument(dv document.Value, m *schema.Member) (any, error) {
	target := m.Target()
	if target == nil {
		return nil, fmt.Errorf("target shape %s is unresolved", m.TargetID())
	}
	switch target.Kind() {
	case schema.KindString, schema.KindEnum:
		return document.AsString(dv)
	case schema.KindBoolean:
		return document.AsBool(dv)
	case schema.KindInteger, schema.KindLong:
		return document.AsInt(dv)
	case schema.KindDouble:
		if i, ok := dv.(document.Int); ok {
			return float64(i), nil
		}
		f, ok := dv.(document.Float)
		if !ok {
			return nil, fmt.Errorf("expected double, got %T", dv)
		}
		return float64(f), nil
	case schema.KindBigDecimal:
		return toBigFloat(dv)
	case schema.KindBlob:
		s, err := document.AsString(dv)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	case schema.KindTimestamp:
		return parseTimestamp(m.Traits(), dv)
	case schema.KindDocument:
		return dv, nil
	case schema.KindList:
		list, err := document.AsList(dv)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(list))
		for i, item := range list {
			v, err := memberFromDocument(item, target.Element())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case schema.KindMap:
		m2, err := document.AsMap(dv)
		if err != nil {
			return nil, err
		}
		out := map[string]any{}
		var rangeErr error
		m2.Range(func(key string, value document.Value) bool {
			v, err := memberFromDocument(value, target.Value())
			if err != nil {
				rangeErr = fmt.Errorf("entry %q: %w", key, err)
				return false
			}
			out[key] = v
			return true
		})
		if rangeErr != nil {
			return nil, rangeErr
		}
		return out, nil
	case schema.KindStructure, schema.KindUnion:
		nested := value.New(target)
		if err := aggregateFromDocument(dv, target, nested); err != nil {
			return nil, err
		}
		return nested, nil
	default:
		return nil, fmt.Errorf("unsupported target kind %s", target.Kind())
	}
}

func toBigFloat(dv document.Value) (*big.Float, error) {
	switch v := dv.(type) {
	case document.BigNumber:
		return v.Float, nil
	case document.Int:
		return new(big.Float).SetInt64(int64(v)), nil
	case document.Float:
		return new(big.Float).SetFloat64(float64(v)), nil
	default:
		return nil, fmt.Errorf("expected number, got %T", dv)
	}
}

// formatTimestamp renders t per the member's timestampFmt trait (spec.md §3:
// "http-date" | "epoch-seconds" | "date-time"), defaulting to RFC 3339
// ("date-time") when the trait is absent.
func formatTimestamp(traits schema.Traits, t time.Time) document.Value {
	format, _ := traits.String(schema.TraitTimestamp)
	switch format {
	case "epoch-seconds":
		return document.Float(float64(t.UnixNano()) / 1e9)
	case "http-date":
		return document.String(t.UTC().Format(httpDateLayout))
	default:
		return document.String(t.UTC().Format(time.RFC3339))
	}
}

func parseTimestamp(traits schema.Traits, dv document.Value) (time.Time, error) {
	format, _ := traits.String(schema.TraitTimestamp)
	switch format {
	case "epoch-seconds":
		var seconds float64
		switch v := dv.(type) {
		case document.Int:
			seconds = float64(v)
		case document.Float:
			seconds = float64(v)
		default:
			return time.Time{}, fmt.Errorf("expected number for epoch-seconds timestamp, got %T", dv)
		}
		whole := int64(seconds)
		nanos := int64((seconds - float64(whole)) * 1e9)
		return time.Unix(whole, nanos).UTC(), nil
	case "http-date":
		s, err := document.AsString(dv)
		if err != nil {
			return time.Time{}, err
		}
		return time.Parse(httpDateLayout, s)
	default:
		s, err := document.AsString(dv)
		if err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339, s)
	}
}
