package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// appendJSONValue writes the canonical JSON form of v: no insignificant
// whitespace, object keys in the order the *Map carries them.
func appendJSONValue(dst []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(dst, "null"...), nil
	case bool:
		if t {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, encodingErr("string: %v", err)
		}
		return append(dst, b...), nil
	case json.Number:
		if !validNumber(string(t)) {
			return nil, encodingErr("invalid number literal %q", string(t))
		}
		return append(dst, t...), nil
	case int, int64, uint64, float64:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, encodingErr("number: %v", err)
		}
		return append(dst, b...), nil
	case []any:
		dst = append(dst, '[')
		for i, e := range t {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = appendJSONValue(dst, e)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case *Map:
		dst = append(dst, '{')
		for i, k := range t.keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, encodingErr("key: %v", err)
			}
			dst = append(dst, kb...)
			dst = append(dst, ':')
			dst, err = appendJSONValue(dst, t.values[k])
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	default:
		return nil, encodingErr("unrepresentable value of type %T", v)
	}
}

func validNumber(s string) bool {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return false
	}
	return string(n) == s
}

// decodeJSONValue parses data as a single JSON value, preserving object
// key order. Trailing bytes after the value are rejected.
func decodeJSONValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeFromDecoder(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

func decodeFromDecoder(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				if _, dup := m.Get(key); dup {
					return nil, fmt.Errorf("duplicate object key %q", key)
				}
				val, err := decodeFromDecoder(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return m, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeFromDecoder(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string, json.Number, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}
