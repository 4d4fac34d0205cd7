package version

import (
	"errors"
	"strings"
	"testing"
)

func TestRenderParseRoundTrip(t *testing.T) {
	h := Header{Protocol: Protocol, Major: 1, Minor: 0, Format: JSON, Size: 0xd4}
	s, err := h.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s != "ACDC10JSON0000d4_" {
		t.Fatalf("Render = %q", s)
	}
	if len(s) != HeaderLen {
		t.Fatalf("rendered length %d, want %d", len(s), HeaderLen)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back != h {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, h)
	}
}

func TestParseByOffsetOnly(t *testing.T) {
	// The size and format fields must be extractable regardless of the
	// message content that follows.
	h, err := Parse("ACDC10MGPK01ffff_")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if h.Format != MGPK || h.Size != 0x01ffff {
		t.Fatalf("got %+v", h)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"ACDC10JSON0000d4",   // missing terminator
		"ACDC10JSON0000d4__", // too long
		"KERI10JSON0000d4_",  // wrong protocol
		"ACDCx0JSON0000d4_",  // bad major
		"ACDC10YAML0000d4_",  // unknown format
		"ACDC10JSON0000D4_",  // uppercase size hex
		"ACDC10JSON00zzd4_",  // non-hex size
	}
	for _, tc := range cases {
		if _, err := Parse(tc); err == nil {
			t.Fatalf("Parse(%q) succeeded, want error", tc)
		} else if !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) error %v does not wrap ErrMalformed", tc, err)
		}
	}
}

func TestRenderRejectsOversize(t *testing.T) {
	h := New(JSON)
	h.Size = MaxSize + 1
	if _, err := h.Render(); err == nil {
		t.Fatalf("Render accepted size beyond the field width")
	}
}

func TestSniff(t *testing.T) {
	msg := `{"v":"ACDC10JSON0000d4_","d":"E...` + strings.Repeat("x", 100)
	h, off, err := Sniff([]byte(msg))
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if off != 6 {
		t.Fatalf("offset = %d, want 6", off)
	}
	if h.Size != 0xd4 {
		t.Fatalf("size = %#x, want 0xd4", h.Size)
	}
}

func TestSniffNoHeader(t *testing.T) {
	if _, _, err := Sniff([]byte(strings.Repeat("z", 64))); err == nil {
		t.Fatalf("Sniff found a header in noise")
	}
}
