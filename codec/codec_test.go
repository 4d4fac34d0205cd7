package codec

import (
	"encoding/json"
	"errors"
	"testing"
)

func sampleMap() *Map {
	m := NewMap()
	m.Set("name", "Hella")
	m.Set("species", "cat")
	m.Set("health", "great")
	return m
}

func TestJSONEncodePreservesOrder(t *testing.T) {
	b, err := EncodeValue(JSON, sampleMap())
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	want := `{"name":"Hella","species":"cat","health":"great"}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestJSONEncodeDeterministic(t *testing.T) {
	a, err := EncodeValue(JSON, sampleMap())
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	b, err := EncodeValue(JSON, sampleMap())
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("encoding not deterministic: %s vs %s", a, b)
	}
}

func TestJSONOrderChangesBytes(t *testing.T) {
	m := NewMap()
	m.Set("species", "cat")
	m.Set("name", "Hella")
	m.Set("health", "great")
	a, _ := EncodeValue(JSON, sampleMap())
	b, _ := EncodeValue(JSON, m)
	if string(a) == string(b) {
		t.Fatalf("reordered keys produced identical bytes")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := NewMap()
	m.Set("s", "text")
	m.Set("n", json.Number("42"))
	m.Set("b", true)
	m.Set("z", nil)
	m.Set("arr", []any{json.Number("1"), "two", false})
	nested := NewMap()
	nested.Set("inner", "value")
	m.Set("obj", nested)

	b, err := EncodeValue(JSON, m)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	back, err := DecodeValue(JSON, b)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	bm, ok := back.(*Map)
	if !ok {
		t.Fatalf("decoded to %T, want *Map", back)
	}
	b2, err := EncodeValue(JSON, bm)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(b) != string(b2) {
		t.Fatalf("round trip not byte-identical: %s vs %s", b, b2)
	}
}

func TestJSONDecodeRejectsDuplicateKeys(t *testing.T) {
	if _, err := DecodeValue(JSON, []byte(`{"a":1,"a":2}`)); err == nil {
		t.Fatalf("duplicate keys accepted")
	}
}

func TestJSONDecodeRejectsTrailingData(t *testing.T) {
	if _, err := DecodeValue(JSON, []byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatalf("trailing data accepted")
	}
}

func TestEncodeRejectsUnrepresentable(t *testing.T) {
	m := NewMap()
	m.Set("ch", make(chan int))
	if _, err := EncodeValue(JSON, m); !errors.Is(err, ErrEncoding) {
		t.Fatalf("JSON: got %v, want ErrEncoding", err)
	}
	if _, err := EncodeValue(CBOR, m); !errors.Is(err, ErrEncoding) {
		t.Fatalf("CBOR: got %v, want ErrEncoding", err)
	}
	if _, err := EncodeValue(MGPK, m); !errors.Is(err, ErrEncoding) {
		t.Fatalf("MGPK: got %v, want ErrEncoding", err)
	}
}

func TestMsgpackRoundTripPreservesOrder(t *testing.T) {
	b, err := EncodeValue(MGPK, sampleMap())
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	back, err := DecodeValue(MGPK, b)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	bm, ok := back.(*Map)
	if !ok {
		t.Fatalf("decoded to %T, want *Map", back)
	}
	keys := bm.Keys()
	want := []string{"name", "species", "health"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key order %v, want %v", keys, want)
		}
	}
}

func TestCBOREncodeDeterministic(t *testing.T) {
	a, err := EncodeValue(CBOR, sampleMap())
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	b, _ := EncodeValue(CBOR, sampleMap())
	if string(a) != string(b) {
		t.Fatalf("CBOR encoding not deterministic")
	}
	// Map head for 3 entries, then first key "name".
	if a[0] != 0xa3 {
		t.Fatalf("map head %#x, want 0xa3", a[0])
	}
	if a[1] != 0x64 || string(a[2:6]) != "name" {
		t.Fatalf("first key not in insertion order: % x", a[:6])
	}
}

func TestCBORDecodeUnsupported(t *testing.T) {
	if _, err := DecodeValue(CBOR, []byte{0xa0}); !errors.Is(err, ErrUnsupportedDecode) {
		t.Fatalf("got %v, want ErrUnsupportedDecode", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := sampleMap()
	c := m.Clone()
	c.Set("name", "Other")
	if v, _ := m.Get("name"); v != "Hella" {
		t.Fatalf("clone mutation leaked into original")
	}
	if m.Equal(c) {
		t.Fatalf("Equal true after divergent mutation")
	}
}
