package codec

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): smallest integer encoding, no
// indefinite-length items. Ordered maps are laid down by hand below, so
// the encoder's own map-key sorting never applies to attribute data.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
}

// appendCBORValue writes the canonical CBOR form of v. Objects keep the
// *Map insertion order: the map head is written manually and each pair
// is encoded in sequence, since no CBOR library encodes Go maps in a
// caller-chosen order.
func appendCBORValue(dst []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case *Map:
		dst = appendCBORHead(dst, 0xa0, uint64(t.Len()))
		for _, k := range t.keys {
			kb, err := encMode.Marshal(k)
			if err != nil {
				return nil, encodingErr("cbor key: %v", err)
			}
			dst = append(dst, kb...)
			dst, err = appendCBORValue(dst, t.values[k])
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case []any:
		dst = appendCBORHead(dst, 0x80, uint64(len(t)))
		for _, e := range t {
			var err error
			dst, err = appendCBORValue(dst, e)
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case json.Number:
		return appendCBORNumber(dst, t)
	case nil, bool, string, int, int64, uint64, float64:
		b, err := encMode.Marshal(t)
		if err != nil {
			return nil, encodingErr("cbor: %v", err)
		}
		return append(dst, b...), nil
	default:
		return nil, encodingErr("unrepresentable value of type %T", v)
	}
}

func appendCBORNumber(dst []byte, n json.Number) ([]byte, error) {
	if i, err := n.Int64(); err == nil {
		b, merr := encMode.Marshal(i)
		if merr != nil {
			return nil, encodingErr("cbor int: %v", merr)
		}
		return append(dst, b...), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, encodingErr("invalid number literal %q", string(n))
	}
	b, err := encMode.Marshal(f)
	if err != nil {
		return nil, encodingErr("cbor float: %v", err)
	}
	return append(dst, b...), nil
}

// appendCBORHead writes a definite-length head for the major type given
// by base (0xa0 for maps, 0x80 for arrays).
func appendCBORHead(dst []byte, base byte, n uint64) []byte {
	switch {
	case n < 24:
		return append(dst, base|byte(n))
	case n <= 0xff:
		return append(dst, base|24, byte(n))
	case n <= 0xffff:
		return append(dst, base|25, byte(n>>8), byte(n))
	case n <= 0xffffffff:
		return append(dst, base|26, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	default:
		return append(dst, base|27,
			byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
			byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
}
