package cesr

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"strings"
	"testing"

	"acdc.dev/acdc/said"
)

func testSeed(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestSerialNumberRoundTrip(t *testing.T) {
	for _, sn := range []uint64{0, 1, 255, 1 << 40} {
		s := EncodeSN(sn)
		if len(s) != serialNumberLen {
			t.Fatalf("EncodeSN(%d) length %d, want %d", sn, len(s), serialNumberLen)
		}
		back, err := DecodeSN(s)
		if err != nil {
			t.Fatalf("DecodeSN: %v", err)
		}
		if back != sn {
			t.Fatalf("round trip %d -> %d", sn, back)
		}
	}
}

func TestSerialNumberZeroVector(t *testing.T) {
	// Sequence number zero from a published attachment vector.
	if got := EncodeSN(0); got != "0AAAAAAAAAAAAAAAAAAAAAAA" {
		t.Fatalf("EncodeSN(0) = %q", got)
	}
}

func TestBasicPrefixRoundTrip(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(0x11))
	pub := priv.Public().(ed25519.PublicKey)

	for _, transferable := range []bool{false, true} {
		p, err := NewBasicPrefix(pub, transferable)
		if err != nil {
			t.Fatalf("NewBasicPrefix: %v", err)
		}
		s := p.String()
		if len(s) != basicPrefixLen {
			t.Fatalf("prefix length %d, want %d", len(s), basicPrefixLen)
		}
		wantCode := "B"
		if transferable {
			wantCode = "D"
		}
		if s[:1] != wantCode {
			t.Fatalf("prefix code %q, want %q", s[:1], wantCode)
		}
		back, err := ParseBasicPrefix(s)
		if err != nil {
			t.Fatalf("ParseBasicPrefix: %v", err)
		}
		if back.Transferable != transferable || !bytes.Equal(back.Key, pub) {
			t.Fatalf("round trip mismatch")
		}
	}
}

func TestIndexedSignatureRoundTrip(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(0x22))
	raw := ed25519.Sign(priv, []byte("message"))

	sig, err := NewIndexedSignature(3, raw)
	if err != nil {
		t.Fatalf("NewIndexedSignature: %v", err)
	}
	s := sig.String()
	if len(s) != indexedSigLen {
		t.Fatalf("indexed signature length %d, want %d", len(s), indexedSigLen)
	}
	if s[0] != 'A' || s[1] != 'D' {
		t.Fatalf("code chars %q, want AD", s[:2])
	}
	back, err := ParseIndexedSignature(s)
	if err != nil {
		t.Fatalf("ParseIndexedSignature: %v", err)
	}
	if back.Index != 3 || !bytes.Equal(back.Raw, raw) {
		t.Fatalf("round trip mismatch")
	}
}

func TestGroupsRoundTrip(t *testing.T) {
	priv := ed25519.NewKeyFromSeed(testSeed(0x33))
	pub := priv.Public().(ed25519.PublicKey)
	raw := ed25519.Sign(priv, []byte("payload"))

	dig, err := said.Derive(said.Blake3_256, []byte("event"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	sig, err := NewIndexedSignature(0, raw)
	if err != nil {
		t.Fatalf("NewIndexedSignature: %v", err)
	}
	prefix, err := NewBasicPrefix(pub, false)
	if err != nil {
		t.Fatalf("NewBasicPrefix: %v", err)
	}

	groups := []Group{
		SourceSealCouples{Seals: []SourceSeal{{SN: 2, Digest: dig}}},
		IndexedControllerSignatures{Signatures: []IndexedSignature{sig}},
		NontransReceiptCouples{Couples: []NontransCouple{{KeyPrefix: prefix, Raw: raw}}},
	}
	s, err := EncodeGroups(groups)
	if err != nil {
		t.Fatalf("EncodeGroups: %v", err)
	}
	if !strings.HasPrefix(s, "-GAB") {
		t.Fatalf("encoded groups %q missing -GAB prefix", s[:8])
	}
	back, err := DecodeGroups(s)
	if err != nil {
		t.Fatalf("DecodeGroups: %v", err)
	}
	if len(back) != 3 {
		t.Fatalf("decoded %d groups, want 3", len(back))
	}
	seals, ok := back[0].(SourceSealCouples)
	if !ok || len(seals.Seals) != 1 || seals.Seals[0].SN != 2 || !seals.Seals[0].Digest.Equal(dig) {
		t.Fatalf("source seals mismatch: %+v", back[0])
	}
	sigs, ok := back[1].(IndexedControllerSignatures)
	if !ok || len(sigs.Signatures) != 1 || !bytes.Equal(sigs.Signatures[0].Raw, raw) {
		t.Fatalf("indexed signatures mismatch: %+v", back[1])
	}
	rcpt, ok := back[2].(NontransReceiptCouples)
	if !ok || len(rcpt.Couples) != 1 || !bytes.Equal(rcpt.Couples[0].Raw, raw) {
		t.Fatalf("receipt couples mismatch: %+v", back[2])
	}
}

func TestDecodeGroupsVectorShape(t *testing.T) {
	// Attachment text from a published signed attestation: a source seal
	// couple followed by one indexed controller signature.
	const attachment = "-GAB0AAAAAAAAAAAAAAAAAAAAAAAEN9DWC88m9-nBdFcw_XZxG6KCu9tEHtbc2FAMox5QD3K" +
		"-AABAABumg9BXrzebndWXWNEFd7lcgRFYJXmihOWcx-xB3g2vtORIrBxQ4iVOrwKUWjDpUZNkI5qTldVnsqE-9w1aiwF"
	groups, err := DecodeGroups(attachment)
	if err != nil {
		t.Fatalf("DecodeGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("decoded %d groups, want 2", len(groups))
	}
	seals, ok := groups[0].(SourceSealCouples)
	if !ok || len(seals.Seals) != 1 || seals.Seals[0].SN != 0 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	sigs, ok := groups[1].(IndexedControllerSignatures)
	if !ok || len(sigs.Signatures) != 1 || sigs.Signatures[0].Index != 0 {
		t.Fatalf("unexpected second group: %+v", groups[1])
	}

	// Re-encoding reproduces the vector byte for byte.
	out, err := EncodeGroups(groups)
	if err != nil {
		t.Fatalf("EncodeGroups: %v", err)
	}
	if out != attachment {
		t.Fatalf("re-encode mismatch:\n got %q\nwant %q", out, attachment)
	}
}

func TestDecodeGroupsRejectsMalformed(t *testing.T) {
	cases := []string{
		"GAB",      // missing '-'
		"-ZAB",     // unknown count code
		"-GAB0AAA", // truncated seal
		"-AAB" + strings.Repeat("!", 88), // bad signature characters
	}
	for _, tc := range cases {
		if _, err := DecodeGroups(tc); err == nil {
			t.Fatalf("DecodeGroups(%q) succeeded, want error", tc)
		} else if !errors.Is(err, ErrMalformed) {
			t.Fatalf("DecodeGroups(%q) error %v does not wrap ErrMalformed", tc, err)
		}
	}
}
