// Package said implements self-addressing identifiers: digests that are
// embedded in, and derived from, the structure they identify.
package said

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Code identifies the digest algorithm of a SAID. Codes follow the
// one-character derivation code table used on the wire, so the text
// form of a SAID is self-describing.
type Code string

const (
	Blake3_256 Code = "E"
	SHA3_256   Code = "H"
	SHA2_256   Code = "I"
)

// DefaultCode is the digest algorithm used when callers do not choose one.
const DefaultCode = Blake3_256

// rawSize is the digest length in bytes for all supported codes.
const rawSize = 32

// Valid reports whether c names a supported digest algorithm.
func (c Code) Valid() bool {
	switch c {
	case Blake3_256, SHA3_256, SHA2_256:
		return true
	default:
		return false
	}
}

// QB64Len returns the exact character count of the text form produced
// by this code. A dummy placeholder and a real digest always occupy the
// same number of bytes; this equality is what makes two-pass size
// computation exact.
func (c Code) QB64Len() int {
	// 1-char code + 43 chars covering 32 digest bytes and 1 pad byte.
	return 44
}

// Dummy returns the placeholder that stands in for a SAID of this code
// during derivation. Its length is a property of the code, not a global
// constant.
func (c Code) Dummy() string {
	return strings.Repeat("#", c.QB64Len())
}

// SAID is a self-addressing identifier: an algorithm code plus the raw
// digest bytes. The zero value is not a valid SAID.
type SAID struct {
	code   Code
	digest []byte
}

var errInvalid = errors.New("said: invalid")

// Derive computes the SAID of data under the given code.
func Derive(c Code, data []byte) (SAID, error) {
	switch c {
	case Blake3_256:
		sum := blake3.Sum256(data)
		return SAID{code: c, digest: sum[:]}, nil
	case SHA3_256:
		sum := sha3.Sum256(data)
		return SAID{code: c, digest: sum[:]}, nil
	case SHA2_256:
		sum := sha256.Sum256(data)
		return SAID{code: c, digest: sum[:]}, nil
	default:
		return SAID{}, fmt.Errorf("%w: unsupported code %q", errInvalid, string(c))
	}
}

// Parse decodes the fixed-width text form of a SAID.
func Parse(s string) (SAID, error) {
	if len(s) == 0 {
		return SAID{}, fmt.Errorf("%w: empty", errInvalid)
	}
	c := Code(s[:1])
	if !c.Valid() {
		return SAID{}, fmt.Errorf("%w: unknown code %q", errInvalid, s[:1])
	}
	if len(s) != c.QB64Len() {
		return SAID{}, fmt.Errorf("%w: length %d, want %d", errInvalid, len(s), c.QB64Len())
	}
	// Re-prepend the pad character the code replaced, decode, then drop
	// the single pad byte.
	b, err := base64.RawURLEncoding.DecodeString("A" + s[1:])
	if err != nil {
		return SAID{}, fmt.Errorf("%w: %v", errInvalid, err)
	}
	if len(b) != rawSize+1 || b[0] != 0 {
		return SAID{}, fmt.Errorf("%w: bad padding", errInvalid)
	}
	return SAID{code: c, digest: append([]byte(nil), b[1:]...)}, nil
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(s string) SAID {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Code returns the digest algorithm of the SAID.
func (s SAID) Code() Code { return s.code }

// Raw returns a copy of the raw digest bytes.
func (s SAID) Raw() []byte { return append([]byte(nil), s.digest...) }

// IsZero reports whether the SAID is the zero value.
func (s SAID) IsZero() bool { return s.code == "" && len(s.digest) == 0 }

// String renders the fixed-width text form: the code character followed
// by the base64url digest with the pad character replaced by the code.
func (s SAID) String() string {
	if s.IsZero() {
		return ""
	}
	b := make([]byte, 1+rawSize)
	copy(b[1:], s.digest)
	enc := base64.RawURLEncoding.EncodeToString(b)
	return string(s.code) + enc[1:]
}

// Equal reports byte-for-byte equality of code and digest.
func (s SAID) Equal(other SAID) bool {
	return s.code == other.code && bytes.Equal(s.digest, other.digest)
}

// VerifyBinding recomputes the digest of data under the SAID's own code
// and compares it byte-for-byte.
func (s SAID) VerifyBinding(data []byte) bool {
	d, err := Derive(s.code, data)
	if err != nil {
		return false
	}
	return s.Equal(d)
}

// MarshalText implements encoding.TextMarshaler.
func (s SAID) MarshalText() ([]byte, error) {
	if s.IsZero() {
		return nil, fmt.Errorf("%w: zero SAID", errInvalid)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SAID) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
