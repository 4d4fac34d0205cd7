package cesr

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Primitive text codes. A primitive's code length always equals its pad
// size, so the code exactly replaces the pad characters of the base64
// encoding and the total length stays 4-aligned.
const (
	codeBasicNonTrans = "B"  // ed25519 public key, non-transferable
	codeBasicTrans    = "D"  // ed25519 public key, transferable
	codeSerialNumber  = "0A" // 16-byte big-endian number (also used for salts)
	codeEd25519Sig    = "0B" // ed25519 signature
	indexedEd25519    = 'A'  // indexed ed25519 signature; second char is the index
)

const (
	ed25519KeyRaw = 32
	ed25519SigRaw = 64
	serialRaw     = 16

	basicPrefixLen  = 44
	ed25519SigLen   = 88
	serialNumberLen = 24
	indexedSigLen   = 88
)

func b64Index(c byte) (int, bool) {
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 26, true
	case c >= '0' && c <= '9':
		return int(c-'0') + 52, true
	case c == '-':
		return 62, true
	case c == '_':
		return 63, true
	default:
		return 0, false
	}
}

// encodePadded renders raw as a fixed-width primitive: prepend pad
// bytes, base64url-encode, then substitute the code for the pad
// characters.
func encodePadded(code string, raw []byte) string {
	ps := (3 - len(raw)%3) % 3
	b := make([]byte, ps+len(raw))
	copy(b[ps:], raw)
	enc := base64.RawURLEncoding.EncodeToString(b)
	return code + enc[len(code):]
}

// decodePadded reverses encodePadded for a primitive with the given
// code and raw length.
func decodePadded(code, s string, rawLen int) ([]byte, error) {
	ps := (3 - rawLen%3) % 3
	total := (rawLen + ps) * 4 / 3
	if len(s) != total {
		return nil, fmt.Errorf("%w: primitive length %d, want %d", ErrMalformed, len(s), total)
	}
	if s[:len(code)] != code {
		return nil, fmt.Errorf("%w: code %q, want %q", ErrMalformed, s[:len(code)], code)
	}
	pad := "AA"[:ps]
	b, err := base64.RawURLEncoding.DecodeString(pad + s[len(code):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i := 0; i < ps; i++ {
		if b[i] != 0 {
			return nil, fmt.Errorf("%w: nonzero pad bytes", ErrMalformed)
		}
	}
	return b[ps:], nil
}

// EncodeSerialBytes renders 16 raw bytes as a serial-number primitive.
// This carries either a sequence number or a salt (a uuid).
func EncodeSerialBytes(raw []byte) (string, error) {
	if len(raw) != serialRaw {
		return "", fmt.Errorf("%w: serial must be %d bytes", ErrMalformed, serialRaw)
	}
	return encodePadded(codeSerialNumber, raw), nil
}

// DecodeSerialBytes parses a serial-number primitive to its 16 raw bytes.
func DecodeSerialBytes(s string) ([]byte, error) {
	return decodePadded(codeSerialNumber, s, serialRaw)
}

// EncodeSN renders a sequence number as a serial-number primitive.
func EncodeSN(sn uint64) string {
	var raw [serialRaw]byte
	binary.BigEndian.PutUint64(raw[8:], sn)
	return encodePadded(codeSerialNumber, raw[:])
}

// DecodeSN parses a serial-number primitive carrying a sequence number.
func DecodeSN(s string) (uint64, error) {
	raw, err := DecodeSerialBytes(s)
	if err != nil {
		return 0, err
	}
	for _, b := range raw[:8] {
		if b != 0 {
			return 0, fmt.Errorf("%w: sequence number overflow", ErrMalformed)
		}
	}
	return binary.BigEndian.Uint64(raw[8:]), nil
}

// BasicPrefix is an ed25519 public key with its transferability class.
// Non-transferable prefixes identify keys that never rotate and can be
// verified against directly.
type BasicPrefix struct {
	Transferable bool
	Key          []byte
}

// NewBasicPrefix wraps a raw ed25519 public key.
func NewBasicPrefix(key []byte, transferable bool) (BasicPrefix, error) {
	if len(key) != ed25519KeyRaw {
		return BasicPrefix{}, fmt.Errorf("%w: key must be %d bytes", ErrMalformed, ed25519KeyRaw)
	}
	return BasicPrefix{Transferable: transferable, Key: append([]byte(nil), key...)}, nil
}

// String renders the prefix in its fixed-width text form.
func (p BasicPrefix) String() string {
	code := codeBasicNonTrans
	if p.Transferable {
		code = codeBasicTrans
	}
	return encodePadded(code, p.Key)
}

// ParseBasicPrefix decodes a basic-prefix primitive.
func ParseBasicPrefix(s string) (BasicPrefix, error) {
	if len(s) != basicPrefixLen {
		return BasicPrefix{}, fmt.Errorf("%w: prefix length %d, want %d", ErrMalformed, len(s), basicPrefixLen)
	}
	switch s[:1] {
	case codeBasicNonTrans:
		key, err := decodePadded(codeBasicNonTrans, s, ed25519KeyRaw)
		if err != nil {
			return BasicPrefix{}, err
		}
		return BasicPrefix{Transferable: false, Key: key}, nil
	case codeBasicTrans:
		key, err := decodePadded(codeBasicTrans, s, ed25519KeyRaw)
		if err != nil {
			return BasicPrefix{}, err
		}
		return BasicPrefix{Transferable: true, Key: key}, nil
	default:
		return BasicPrefix{}, fmt.Errorf("%w: unknown prefix code %q", ErrMalformed, s[:1])
	}
}

// EncodeEd25519Sig renders a raw ed25519 signature as a self-signing
// primitive.
func EncodeEd25519Sig(raw []byte) (string, error) {
	if len(raw) != ed25519SigRaw {
		return "", fmt.Errorf("%w: signature must be %d bytes", ErrMalformed, ed25519SigRaw)
	}
	return encodePadded(codeEd25519Sig, raw), nil
}

// DecodeEd25519Sig parses a self-signing primitive to raw signature bytes.
func DecodeEd25519Sig(s string) ([]byte, error) {
	return decodePadded(codeEd25519Sig, s, ed25519SigRaw)
}

// IndexedSignature is a raw ed25519 signature tagged with its position
// in the signer's current key list, for multi-sig schemes.
type IndexedSignature struct {
	Index int
	Raw   []byte
}

// NewIndexedSignature wraps raw ed25519 signature bytes with an index.
func NewIndexedSignature(index int, raw []byte) (IndexedSignature, error) {
	if index < 0 || index > 63 {
		return IndexedSignature{}, fmt.Errorf("%w: index %d out of range", ErrMalformed, index)
	}
	if len(raw) != ed25519SigRaw {
		return IndexedSignature{}, fmt.Errorf("%w: signature must be %d bytes", ErrMalformed, ed25519SigRaw)
	}
	return IndexedSignature{Index: index, Raw: append([]byte(nil), raw...)}, nil
}

// String renders the indexed signature: the second code character
// carries the index.
func (s IndexedSignature) String() string {
	enc := encodePadded("AA", s.Raw)
	return string(indexedEd25519) + string(b64Alphabet[s.Index]) + enc[2:]
}

// ParseIndexedSignature decodes an indexed-signature primitive.
func ParseIndexedSignature(s string) (IndexedSignature, error) {
	if len(s) != indexedSigLen {
		return IndexedSignature{}, fmt.Errorf("%w: indexed signature length %d, want %d", ErrMalformed, len(s), indexedSigLen)
	}
	if s[0] != indexedEd25519 {
		return IndexedSignature{}, fmt.Errorf("%w: unknown signature code %q", ErrMalformed, s[:1])
	}
	idx, ok := b64Index(s[1])
	if !ok {
		return IndexedSignature{}, fmt.Errorf("%w: bad index character %q", ErrMalformed, s[1:2])
	}
	raw, err := decodePadded("AA", "AA"+s[2:], ed25519SigRaw)
	if err != nil {
		return IndexedSignature{}, err
	}
	return IndexedSignature{Index: idx, Raw: raw}, nil
}
