package http

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"goa.design/schemarpc/schema"
)

// scalarToString stringifies a scalar member value for a label, query, or
// header binding (spec.md §4.2 "Headers... Scalar header values are
// stringified per their target shape").
func scalarToString(m *schema.Member, raw any) (string, error) {
	target := m.Target()
	if target == nil {
		return "", fmt.Errorf("transport/http: member %q targets an unresolved shape %s", m.Name(), m.TargetID())
	}
	switch target.Kind() {
	case schema.KindString, schema.KindEnum:
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("transport/http: member %q: expected string, got %T", m.Name(), raw)
		}
		return s, nil
	case schema.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return "", fmt.Errorf("transport/http: member %q: expected bool, got %T", m.Name(), raw)
		}
		if b {
			return "true", nil
		}
		return "false", nil
	case schema.KindInteger, schema.KindLong:
		switch n := raw.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case int:
			return strconv.Itoa(n), nil
		default:
			return "", fmt.Errorf("transport/http: member %q: expected integer, got %T", m.Name(), raw)
		}
	case schema.KindDouble:
		switch n := raw.(type) {
		case float64:
			return strconv.FormatFloat(n, 'g', -1, 64), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		default:
			return "", fmt.Errorf("transport/http: member %q: expected double, got %T", m.Name(), raw)
		}
	case schema.KindBigDecimal:
		bf, ok := raw.(*big.Float)
		if !ok {
			return "", fmt.Errorf("transport/http: member %q: expected *big.Float, got %T", m.Name(), raw)
		}
		return bf.Text('g', -1), nil
	case schema.KindBlob:
		b, ok := raw.([]byte)
		if !ok {
			return "", fmt.Errorf("transport/http: member %q: expected []byte, got %T", m.Name(), raw)
		}
		return base64.StdEncoding.EncodeToString(b), nil
	case schema.KindTimestamp:
		t, ok := raw.(time.Time)
		if !ok {
			return "", fmt.Errorf("transport/http: member %q: expected time.Time, got %T", m.Name(), raw)
		}
		return formatHeaderTimestamp(m.Traits(), t), nil
	default:
		return "", fmt.Errorf("transport/http: member %q: unsupported scalar kind %s for binding", m.Name(), target.Kind())
	}
}

// scalarFromString parses a label/query/header string back into the Go
// value a value.Value member expects, the reverse of scalarToString.
func scalarFromString(m *schema.Member, s string) (any, error) {
	target := m.Target()
	if target == nil {
		return nil, fmt.Errorf("transport/http: member %q targets an unresolved shape %s", m.Name(), m.TargetID())
	}
	switch target.Kind() {
	case schema.KindString, schema.KindEnum:
		return s, nil
	case schema.KindBoolean:
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("transport/http: member %q: invalid bool %q", m.Name(), s)
		}
	case schema.KindInteger, schema.KindLong:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("transport/http: member %q: invalid integer %q", m.Name(), s)
		}
		return n, nil
	case schema.KindDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("transport/http: member %q: invalid double %q", m.Name(), s)
		}
		return f, nil
	case schema.KindBigDecimal:
		bf, _, err := big.ParseFloat(s, 10, 200, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("transport/http: member %q: invalid number %q", m.Name(), s)
		}
		return bf, nil
	case schema.KindBlob:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("transport/http: member %q: invalid base64 %q", m.Name(), s)
		}
		return b, nil
	case schema.KindTimestamp:
		return parseHeaderTimestamp(m.Traits(), s)
	default:
		return nil, fmt.Errorf("transport/http: member %q: unsupported scalar kind %s for binding", m.Name(), target.Kind())
	}
}

// formatHeaderTimestamp defaults to HTTP date per spec.md §4.2 ("Headers...
// timestamps default to HTTP date, configurable via a format trait").
func formatHeaderTimestamp(traits schema.Traits, t time.Time) string {
	format, _ := traits.String(schema.TraitTimestamp)
	switch format {
	case "epoch-seconds":
		return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', -1, 64)
	case "date-time":
		return t.UTC().Format(time.RFC3339)
	default:
		return t.UTC().Format(httpDateLayout)
	}
}

func parseHeaderTimestamp(traits schema.Traits, s string) (time.Time, error) {
	format, _ := traits.String(schema.TraitTimestamp)
	switch format {
	case "epoch-seconds":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("transport/http: invalid epoch-seconds timestamp %q", s)
		}
		whole := int64(f)
		nanos := int64((f - float64(whole)) * 1e9)
		return time.Unix(whole, nanos).UTC(), nil
	case "date-time":
		return time.Parse(time.RFC3339, s)
	default:
		return time.Parse(httpDateLayout, s)
	}
}
