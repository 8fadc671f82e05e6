package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// MarshalJSON renders v as JSON bytes. Maps are emitted in their preserved
// key order.
func MarshalJSON(v Value) ([]byte, error) {
	w := &jsonWriter{}
	if err := w.write(v); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// UnmarshalJSON parses JSON bytes into a document Value tree. Numbers that do
// not fit an int64 or lose precision in a float64 are represented as
// BigNumber.
func UnmarshalJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("document: decode json: %w", err)
	}
	return fromAny(raw)
}

func fromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		return numberFromJSON(v)
	case []any:
		list := make(List, 0, len(v))
		for _, item := range v {
			cv, err := fromAny(item)
			if err != nil {
				return nil, err
			}
			list = append(list, cv)
		}
		return list, nil
	case map[string]any:
		m := NewMap()
		for k, item := range v {
			cv, err := fromAny(item)
			if err != nil {
				return nil, err
			}
			m.Set(k, cv)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("document: unsupported json value type %T", raw)
	}
}

func numberFromJSON(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	if f, err := n.Float64(); err == nil {
		// Detect precision loss: the float64 keeps the value only when its
		// shortest decimal form denotes the same number as the input.
		bf, _, err := big.ParseFloat(n.String(), 10, 200, big.ToNearestEven)
		if err == nil {
			back, _, berr := big.ParseFloat(strconv.FormatFloat(f, 'g', -1, 64), 10, 200, big.ToNearestEven)
			if berr == nil && back.Cmp(bf) == 0 {
				return Float(f), nil
			}
		}
		return BigNumber{Float: bf}, nil
	}
	bf, _, err := big.ParseFloat(n.String(), 10, 200, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("document: parse number %q: %w", n.String(), err)
	}
	return BigNumber{Float: bf}, nil
}

type jsonWriter struct {
	buf []byte
}

func (w *jsonWriter) write(v Value) error {
	switch val := v.(type) {
	case nil, Null:
		w.buf = append(w.buf, "null"...)
	case Bool:
		if val {
			w.buf = append(w.buf, "true"...)
		} else {
			w.buf = append(w.buf, "false"...)
		}
	case Int:
		b, err := json.Marshal(int64(val))
		if err != nil {
			return err
		}
		w.buf = append(w.buf, b...)
	case Float:
		b, err := json.Marshal(float64(val))
		if err != nil {
			return err
		}
		w.buf = append(w.buf, b...)
	case BigNumber:
		w.buf = append(w.buf, val.Text('g', -1)...)
	case String:
		b, err := json.Marshal(string(val))
		if err != nil {
			return err
		}
		w.buf = append(w.buf, b...)
	case Blob:
		b, err := json.Marshal([]byte(val))
		if err != nil {
			return err
		}
		w.buf = append(w.buf, b...)
	case List:
		w.buf = append(w.buf, '[')
		for i, item := range val {
			if i > 0 {
				w.buf = append(w.buf, ',')
			}
			if err := w.write(item); err != nil {
				return err
			}
		}
		w.buf = append(w.buf, ']')
	case *Map:
		w.buf = append(w.buf, '{')
		first := true
		val.Range(func(key string, value Value) bool {
			if !first {
				w.buf = append(w.buf, ',')
			}
			first = false
			kb, _ := json.Marshal(key)
			w.buf = append(w.buf, kb...)
			w.buf = append(w.buf, ':')
			_ = w.write(value)
			return true
		})
		w.buf = append(w.buf, '}')
	default:
		return fmt.Errorf("document: unsupported document value type %T", v)
	}
	return nil
}
