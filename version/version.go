// Package version implements the fixed-grammar version header that
// prefixes every attestation:
//
//	PPPPMmFFFFssssss_
//
// protocol (4 chars), major and minor version (one hex char each),
// serialization format tag (4 chars), total encoded size (6 lowercase
// hex chars), terminator. The grammar is positional so a stream reader
// can extract the format and size by direct offset without parsing the
// rest of the message.
package version

import (
	"errors"
	"fmt"
	"strconv"
)

// Format tags the serialization of the message carrying the header.
type Format string

const (
	JSON Format = "JSON"
	CBOR Format = "CBOR"
	MGPK Format = "MGPK"
)

// Valid reports whether f is a known serialization format.
func (f Format) Valid() bool {
	switch f {
	case JSON, CBOR, MGPK:
		return true
	default:
		return false
	}
}

const (
	// Protocol is the protocol name carried by every header.
	Protocol = "ACDC"
	// Major and Minor are the protocol version rendered into headers.
	Major = 1
	Minor = 0

	// HeaderLen is the exact rendered length of a header.
	HeaderLen = 17
	// MaxSize is the largest message size the 6-hex-digit size field
	// can express.
	MaxSize = 0xffffff

	terminator = '_'
)

// Field offsets within the rendered header. These are versioned
// constants of the grammar, not derived values.
const (
	protoOff  = 0
	majorOff  = 4
	minorOff  = 5
	formatOff = 6
	sizeOff   = 10
	termOff   = 16
)

// ErrMalformed is wrapped by all header parse failures.
var ErrMalformed = errors.New("version: malformed header")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Header is the self-describing preamble of an attestation. Size is
// self-referential: it equals the byte length of the message encoded
// with this very header in place, and is therefore computed during
// digest finalization, never supplied externally.
type Header struct {
	Protocol string
	Major    uint8
	Minor    uint8
	Format   Format
	Size     int
}

// New returns the current-protocol header for format with size zero.
func New(format Format) Header {
	return Header{Protocol: Protocol, Major: Major, Minor: Minor, Format: format, Size: 0}
}

// Render produces the fixed-grammar header string.
func (h Header) Render() (string, error) {
	if len(h.Protocol) != 4 {
		return "", malformed("protocol %q must be 4 characters", h.Protocol)
	}
	if h.Major > 0xf || h.Minor > 0xf {
		return "", malformed("version %d.%d out of range", h.Major, h.Minor)
	}
	if !h.Format.Valid() {
		return "", malformed("unknown format %q", string(h.Format))
	}
	if h.Size < 0 || h.Size > MaxSize {
		return "", malformed("size %d out of range", h.Size)
	}
	return fmt.Sprintf("%s%x%x%s%06x_", h.Protocol, h.Major, h.Minor, h.Format, h.Size), nil
}

// Parse decodes a rendered header by direct offset.
func Parse(s string) (Header, error) {
	if len(s) != HeaderLen {
		return Header{}, malformed("length %d, want %d", len(s), HeaderLen)
	}
	if s[termOff] != terminator {
		return Header{}, malformed("missing terminator")
	}
	proto := s[protoOff : protoOff+4]
	if proto != Protocol {
		return Header{}, malformed("unknown protocol %q", proto)
	}
	major, err := strconv.ParseUint(s[majorOff:majorOff+1], 16, 8)
	if err != nil {
		return Header{}, malformed("bad major version %q", s[majorOff:majorOff+1])
	}
	minor, err := strconv.ParseUint(s[minorOff:minorOff+1], 16, 8)
	if err != nil {
		return Header{}, malformed("bad minor version %q", s[minorOff:minorOff+1])
	}
	format := Format(s[formatOff : formatOff+4])
	if !format.Valid() {
		return Header{}, malformed("unknown format %q", string(format))
	}
	sizeStr := s[sizeOff : sizeOff+6]
	size, err := strconv.ParseUint(sizeStr, 16, 32)
	if err != nil {
		return Header{}, malformed("bad size %q", sizeStr)
	}
	for _, c := range sizeStr {
		// The size field is canonical lowercase hex.
		if c >= 'A' && c <= 'F' {
			return Header{}, malformed("size %q must be lowercase hex", sizeStr)
		}
	}
	return Header{
		Protocol: proto,
		Major:    uint8(major),
		Minor:    uint8(minor),
		Format:   format,
		Size:     int(size),
	}, nil
}

// sniffWindow bounds how far into a message the header may start. The
// header is the first logical field, so only the enclosing framing
// bytes of the serialization precede it.
const sniffWindow = 12

// Sniff locates and parses the header near the start of an encoded
// message, returning the header and the offset at which it was found.
// This is how a reader frames a message before fully parsing it.
func Sniff(data []byte) (Header, int, error) {
	limit := len(data) - HeaderLen
	if limit > sniffWindow {
		limit = sniffWindow
	}
	for off := 0; off <= limit; off++ {
		if string(data[off:off+4]) != Protocol {
			continue
		}
		h, err := Parse(string(data[off : off+HeaderLen]))
		if err != nil {
			return Header{}, 0, err
		}
		return h, off, nil
	}
	return Header{}, 0, malformed("no header within first %d bytes", sniffWindow)
}
