package acdc

import (
	"strings"
	"testing"

	"acdc.dev/acdc/said"
	"acdc.dev/acdc/version"
)

func testSchema(t *testing.T) said.SAID {
	t.Helper()
	s, err := said.Derive(said.DefaultCode, []byte("schema-seed"))
	if err != nil {
		t.Fatalf("said.Derive: %v", err)
	}
	return s
}

func testAttestation(t *testing.T, greeting string) *Attestation {
	t.Helper()
	b, err := NewPublic(claims(t, "greetings", greeting))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	a, err := New("issuer", testSchema(t), Inline{Block: b})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNewFinalizesSizeAndDigest(t *testing.T) {
	a := testAttestation(t, "Hello")
	if a.SAID().IsZero() {
		t.Fatalf("constructor left digest unset")
	}

	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) != a.Header().Size {
		t.Fatalf("encoded %d bytes, header says %d", len(data), a.Header().Size)
	}

	h, off, err := version.Sniff(data)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if off != 6 {
		t.Fatalf("header offset %d, want 6", off)
	}
	if h != a.Header() {
		t.Fatalf("sniffed header %+v, want %+v", h, a.Header())
	}
	if !strings.HasPrefix(string(data), `{"v":"ACDC10JSON`) {
		t.Fatalf("unexpected wire prefix %q", data[:16])
	}
}

func TestDigestDeterministicAndContentSensitive(t *testing.T) {
	a := testAttestation(t, "Hello")
	b := testAttestation(t, "Hello")
	if !a.SAID().Equal(b.SAID()) {
		t.Fatalf("same content derived different digests")
	}

	c := testAttestation(t, "hello")
	if a.SAID().Equal(c.SAID()) {
		t.Fatalf("different content derived the same digest")
	}
}

func TestVerifyBindingAcceptsEncodedForm(t *testing.T) {
	a := testAttestation(t, "Hello")
	if err := a.VerifyBinding(); err != nil {
		t.Fatalf("VerifyBinding: %v", err)
	}
}

func TestVerifyBindingDetectsTamper(t *testing.T) {
	a := testAttestation(t, "Hello")
	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Same-length mutation keeps the bytes canonical, so only the
	// digest check can catch it.
	tampered := strings.Replace(string(data), `"i":"issuer"`, `"i":"Issuer"`, 1)
	got, err := Parse([]byte(tampered))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = got.VerifyBinding()
	if err == nil {
		t.Fatalf("tampered attestation passed binding verification")
	}
	if !IsKind(err, KindDigest) || RuleID(err) != RuleDigestMismatch {
		t.Fatalf("err = %v, want Digest/%s", err, RuleDigestMismatch)
	}
}

func TestParseRoundTripJSON(t *testing.T) {
	a := testAttestation(t, "Hello")
	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !got.SAID().Equal(a.SAID()) || got.Issuer() != a.Issuer() || !got.Schema().Equal(a.Schema()) {
		t.Fatalf("round trip lost fields")
	}
	inline, ok := got.Attributes().(Inline)
	if !ok {
		t.Fatalf("attributes parsed as %T, want Inline", got.Attributes())
	}
	if v, _ := inline.Block.Data().Get("greetings"); v != "Hello" {
		t.Fatalf("greetings = %v", v)
	}
	if err := got.VerifyBinding(); err != nil {
		t.Fatalf("VerifyBinding after round trip: %v", err)
	}
}

func TestParseRoundTripMGPK(t *testing.T) {
	b, err := NewPublic(claims(t, "greetings", "Hello"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	a, err := NewInFormat(version.MGPK, "issuer", testSchema(t), Inline{Block: b})
	if err != nil {
		t.Fatalf("NewInFormat: %v", err)
	}
	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) != a.Header().Size {
		t.Fatalf("encoded %d bytes, header says %d", len(data), a.Header().Size)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !got.SAID().Equal(a.SAID()) {
		t.Fatalf("round trip changed digest")
	}
	if err := got.VerifyBinding(); err != nil {
		t.Fatalf("VerifyBinding: %v", err)
	}
}

func TestCBOREncodesButDoesNotParse(t *testing.T) {
	b, err := NewPublic(claims(t, "greetings", "Hello"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	a, err := NewInFormat(version.CBOR, "issuer", testSchema(t), Inline{Block: b})
	if err != nil {
		t.Fatalf("NewInFormat: %v", err)
	}
	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) != a.Header().Size {
		t.Fatalf("encoded %d bytes, header says %d", len(data), a.Header().Size)
	}
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected decode of CBOR wire form to be unsupported")
	}
}

func TestExternalAttributes(t *testing.T) {
	b, err := NewPublic(claims(t, "greetings", "Hello"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	a, err := New("issuer", testSchema(t), External{Digest: b.SAID()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ext, ok := got.Attributes().(External)
	if !ok {
		t.Fatalf("attributes parsed as %T, want External", got.Attributes())
	}
	if !ext.Digest.Equal(b.SAID()) {
		t.Fatalf("external digest changed in transit")
	}
	if err := got.VerifyBinding(); err != nil {
		t.Fatalf("VerifyBinding: %v", err)
	}

	inline, err := New("issuer", testSchema(t), Inline{Block: b})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if inline.SAID().Equal(a.SAID()) {
		t.Fatalf("inline and external forms derived the same digest")
	}
}

func TestParseRejectsSizeMismatch(t *testing.T) {
	a := testAttestation(t, "Hello")
	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Parse(append(data, ' ')); err == nil {
		t.Fatalf("accepted trailing bytes beyond the declared size")
	}
	if _, err := Parse(data[:len(data)-1]); err == nil {
		t.Fatalf("accepted truncated input")
	}
}

func TestParseRejectsReorderedFields(t *testing.T) {
	a := testAttestation(t, "Hello")
	data, err := a.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Swap the issuer and registry fields. Lengths are preserved so the
	// size check still passes; ordering must be what rejects it.
	s := strings.Replace(string(data), `"i":"issuer","ri":""`, `"ri":"","i":"issuer"`, 1)
	if s == string(data) {
		t.Fatalf("test did not rewrite the wire form")
	}
	if _, err := Parse([]byte(s)); err == nil {
		t.Fatalf("accepted out-of-order fields")
	} else if !IsKind(err, KindParse) {
		t.Fatalf("kind = %v, want Parse", err)
	}
}

func TestAuthorIDIsIssuer(t *testing.T) {
	a := testAttestation(t, "Hello")
	if a.AuthorID() != "issuer" {
		t.Fatalf("AuthorID = %q", a.AuthorID())
	}
}

func TestConstructorValidation(t *testing.T) {
	schema := testSchema(t)
	b, err := NewPublic(claims(t, "k", "v"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	if _, err := New("", schema, Inline{Block: b}); err == nil {
		t.Fatalf("accepted empty issuer")
	}
	if _, err := New("issuer", said.SAID{}, Inline{Block: b}); err == nil {
		t.Fatalf("accepted zero schema")
	}
	if _, err := New("issuer", schema, nil); err == nil {
		t.Fatalf("accepted nil attributes")
	}
	if _, err := NewInFormat("YAML", "issuer", schema, Inline{Block: b}); err == nil {
		t.Fatalf("accepted unknown format")
	}
}
