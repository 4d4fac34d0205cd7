// Package codec implements the canonical encoder: deterministic
// serialization of attestation values into one of the interchangeable
// formats named by the version header. The same logical value and
// format always yield identical bytes; field order follows the
// caller-supplied order, which for attribute data is insertion order.
package codec

import (
	"errors"
	"fmt"

	"acdc.dev/acdc/version"
)

// JSON, CBOR and MGPK re-export the version header format tags so codec
// callers do not need a second enum.
const (
	JSON = version.JSON
	CBOR = version.CBOR
	MGPK = version.MGPK
)

// ErrEncoding is wrapped by all serialization failures. A value that is
// not representable in the target format is a fatal construction error,
// never retried.
var ErrEncoding = errors.New("codec: encoding error")

// ErrUnsupportedDecode is returned for formats this codec can encode
// but not structurally decode with order preserved.
var ErrUnsupportedDecode = errors.New("codec: decoding not supported for format")

func encodingErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEncoding, fmt.Sprintf(format, args...))
}

// EncodeValue serializes v into the canonical byte form of the given
// format. It has no side effects; measuring a value's encoded length is
// len(EncodeValue(...)).
func EncodeValue(f version.Format, v any) ([]byte, error) {
	switch f {
	case JSON:
		return appendJSONValue(nil, v)
	case CBOR:
		return appendCBORValue(nil, v)
	case MGPK:
		return encodeMsgpackValue(v)
	default:
		return nil, encodingErr("unknown format %q", string(f))
	}
}

// DecodeValue parses canonical bytes back into the value model: *Map
// for objects (order preserved), []any for arrays, json.Number for
// numbers. JSON and MGPK are supported; CBOR returns
// ErrUnsupportedDecode.
func DecodeValue(f version.Format, data []byte) (any, error) {
	switch f {
	case JSON:
		return decodeJSONValue(data)
	case MGPK:
		return decodeMsgpackValue(data)
	case CBOR:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDecode, string(f))
	default:
		return nil, encodingErr("unknown format %q", string(f))
	}
}
