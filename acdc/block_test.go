package acdc

import (
	"strings"
	"testing"

	"acdc.dev/acdc/codec"
)

func fixedSalt(salt string) SaltSource {
	return func() (string, error) { return salt, nil }
}

func claims(t *testing.T, pairs ...string) *codec.Map {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("claims wants key/value pairs")
	}
	m := codec.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestNewPublicBlockDeterministic(t *testing.T) {
	a, err := NewPublic(claims(t, "greetings", "Hello"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	b, err := NewPublic(claims(t, "greetings", "Hello"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	if !a.SAID().Equal(b.SAID()) {
		t.Fatalf("same data derived different digests")
	}

	c, err := NewPublic(claims(t, "greetings", "hello"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	if a.SAID().Equal(c.SAID()) {
		t.Fatalf("different data derived the same digest")
	}
}

func TestBlockRejectsReservedKeys(t *testing.T) {
	for _, k := range []string{"d", "u", "i"} {
		if _, err := NewPublic(claims(t, k, "x")); err == nil {
			t.Fatalf("accepted reserved data key %q", k)
		} else if !IsKind(err, KindEncoding) {
			t.Fatalf("key %q: kind = %v, want Encoding", k, err)
		}
	}
}

func TestPrivateBlockSaltChangesDigest(t *testing.T) {
	a, err := NewPrivate(claims(t, "greetings", "Hello"), fixedSalt("0AAAAAAAAAAAAAAAAAAAAAAB"))
	if err != nil {
		t.Fatalf("NewPrivate: %v", err)
	}
	b, err := NewPrivate(claims(t, "greetings", "Hello"), fixedSalt("0AAAAAAAAAAAAAAAAAAAAAAC"))
	if err != nil {
		t.Fatalf("NewPrivate: %v", err)
	}
	if a.SAID().Equal(b.SAID()) {
		t.Fatalf("different salts derived the same digest")
	}
	if !a.Private() || a.Salt() == "" {
		t.Fatalf("private block lost its salt")
	}

	again, err := NewPrivate(claims(t, "greetings", "Hello"), fixedSalt("0AAAAAAAAAAAAAAAAAAAAAAB"))
	if err != nil {
		t.Fatalf("NewPrivate: %v", err)
	}
	if !again.SAID().Equal(a.SAID()) {
		t.Fatalf("reused salt derived a different digest")
	}

	pub, err := NewPublic(claims(t, "greetings", "Hello"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	if pub.SAID().Equal(a.SAID()) {
		t.Fatalf("salted and unsalted blocks derived the same digest")
	}
}

func TestPrivateBlockDefaultSaltsAreUnique(t *testing.T) {
	a, err := NewPrivate(claims(t, "k", "v"), nil)
	if err != nil {
		t.Fatalf("NewPrivate: %v", err)
	}
	b, err := NewPrivate(claims(t, "k", "v"), nil)
	if err != nil {
		t.Fatalf("NewPrivate: %v", err)
	}
	if a.Salt() == b.Salt() {
		t.Fatalf("default salt source repeated a salt")
	}
	if a.SAID().Equal(b.SAID()) {
		t.Fatalf("fresh salts derived the same digest")
	}
}

func TestTargetedBlockBindsTarget(t *testing.T) {
	a, err := NewTargetedPublic(claims(t, "role", "admin"), "holder-one")
	if err != nil {
		t.Fatalf("NewTargetedPublic: %v", err)
	}
	b, err := NewTargetedPublic(claims(t, "role", "admin"), "holder-two")
	if err != nil {
		t.Fatalf("NewTargetedPublic: %v", err)
	}
	if a.SAID().Equal(b.SAID()) {
		t.Fatalf("different targets derived the same digest")
	}
	if a.Target() != "holder-one" {
		t.Fatalf("Target = %q", a.Target())
	}

	if _, err := NewTargetedPublic(claims(t, "role", "admin"), ""); err == nil {
		t.Fatalf("accepted empty target")
	}
	if _, err := NewTargetedPrivate(claims(t, "role", "admin"), "", nil); err == nil {
		t.Fatalf("accepted empty target")
	}
}

func TestBlockWireOrder(t *testing.T) {
	b, err := NewTargetedPrivate(claims(t, "role", "admin"), "holder", fixedSalt("0AAAAAAAAAAAAAAAAAAAAAAB"))
	if err != nil {
		t.Fatalf("NewTargetedPrivate: %v", err)
	}
	data, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"d":"` + b.SAID().String() + `","u":"0AAAAAAAAAAAAAAAAAAAAAAB","i":"holder","role":"admin"}`
	if string(data) != want {
		t.Fatalf("wire form\n got %s\nwant %s", data, want)
	}
}

func TestParseBlockRoundTrip(t *testing.T) {
	b, err := NewTargetedPrivate(claims(t, "role", "admin", "level", "3"), "holder", fixedSalt("0AAAAAAAAAAAAAAAAAAAAAAB"))
	if err != nil {
		t.Fatalf("NewTargetedPrivate: %v", err)
	}
	data, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := ParseBlock(data)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if !got.SAID().Equal(b.SAID()) || got.Target() != b.Target() || got.Salt() != b.Salt() {
		t.Fatalf("round trip lost fields")
	}
	if err := got.VerifyBinding(); err != nil {
		t.Fatalf("VerifyBinding: %v", err)
	}
}

func TestParseBlockRejectsNonCanonical(t *testing.T) {
	b, err := NewPublic(claims(t, "role", "admin"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	data, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	spaced := strings.Replace(string(data), `":"`, `": "`, 1)
	if _, err := ParseBlock([]byte(spaced)); err == nil {
		t.Fatalf("accepted non-canonical whitespace")
	} else if !IsKind(err, KindParse) {
		t.Fatalf("kind = %v, want Parse", err)
	}
}

func TestBlockVerifyBindingDetectsTamper(t *testing.T) {
	b, err := NewPublic(claims(t, "role", "admin"))
	if err != nil {
		t.Fatalf("NewPublic: %v", err)
	}
	data, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tampered := strings.Replace(string(data), "admin", "Admin", 1)
	got, err := ParseBlock([]byte(tampered))
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	err = got.VerifyBinding()
	if err == nil {
		t.Fatalf("tampered block passed binding verification")
	}
	if !IsKind(err, KindDigest) || RuleID(err) != RuleDigestMismatch {
		t.Fatalf("err = %v, want Digest/%s", err, RuleDigestMismatch)
	}
}
