package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// encodeMsgpackValue writes the canonical MessagePack form of v. The
// streaming encoder writes map pairs one at a time, so *Map insertion
// order is preserved exactly.
func encodeMsgpackValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := writeMsgpack(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeMsgpack(enc *msgpack.Encoder, v any) error {
	switch t := v.(type) {
	case *Map:
		if err := enc.EncodeMapLen(t.Len()); err != nil {
			return encodingErr("mgpk map head: %v", err)
		}
		for _, k := range t.keys {
			if err := enc.EncodeString(k); err != nil {
				return encodingErr("mgpk key: %v", err)
			}
			if err := writeMsgpack(enc, t.values[k]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if err := enc.EncodeArrayLen(len(t)); err != nil {
			return encodingErr("mgpk array head: %v", err)
		}
		for _, e := range t {
			if err := writeMsgpack(enc, e); err != nil {
				return err
			}
		}
		return nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			if err := enc.EncodeInt(i); err != nil {
				return encodingErr("mgpk int: %v", err)
			}
			return nil
		}
		f, err := t.Float64()
		if err != nil {
			return encodingErr("invalid number literal %q", string(t))
		}
		if err := enc.EncodeFloat64(f); err != nil {
			return encodingErr("mgpk float: %v", err)
		}
		return nil
	case nil, bool, string, int, int64, uint64, float64:
		if err := enc.Encode(t); err != nil {
			return encodingErr("mgpk: %v", err)
		}
		return nil
	default:
		return encodingErr("unrepresentable value of type %T", v)
	}
}

// decodeMsgpackValue parses data as a single MessagePack value with map
// order preserved. Trailing bytes are rejected.
func decodeMsgpackValue(data []byte) (any, error) {
	rd := bytes.NewReader(data)
	dec := msgpack.NewDecoder(rd)
	v, err := readMsgpack(dec)
	if err != nil {
		return nil, err
	}
	if rd.Len() != 0 {
		return nil, fmt.Errorf("trailing data after MessagePack value")
	}
	return v, nil
}

func readMsgpack(dec *msgpack.Decoder) (any, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case msgpcode.IsFixedMap(code), code == msgpcode.Map16, code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		m := NewMap()
		for i := 0; i < n; i++ {
			key, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			if _, dup := m.Get(key); dup {
				return nil, fmt.Errorf("duplicate map key %q", key)
			}
			val, err := readMsgpack(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	case msgpcode.IsFixedArray(code), code == msgpcode.Array16, code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		arr := make([]any, 0, n)
		for i := 0; i < n; i++ {
			val, err := readMsgpack(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case msgpcode.IsFixedString(code), code == msgpcode.Str8, code == msgpcode.Str16, code == msgpcode.Str32:
		return dec.DecodeString()
	case code == msgpcode.Nil:
		return nil, dec.DecodeNil()
	case code == msgpcode.True, code == msgpcode.False:
		return dec.DecodeBool()
	case msgpcode.IsFixedNum(code),
		code == msgpcode.Int8, code == msgpcode.Int16, code == msgpcode.Int32, code == msgpcode.Int64,
		code == msgpcode.Uint8, code == msgpcode.Uint16, code == msgpcode.Uint32, code == msgpcode.Uint64:
		i, err := dec.DecodeInt64()
		if err != nil {
			return nil, err
		}
		return json.Number(fmt.Sprintf("%d", i)), nil
	case code == msgpcode.Float, code == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return nil, err
		}
		return json.Number(fmt.Sprintf("%g", f)), nil
	default:
		return nil, fmt.Errorf("unsupported MessagePack code %#x", code)
	}
}
