package keys

import (
	"crypto/ed25519"
	"strings"
	"testing"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func TestSignEd25519Verifies(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pk := Ed25519PublicKey(priv.Public().(ed25519.PublicKey))

	msg := []byte("canonical attestation bytes")
	sig := SignEd25519(msg, priv)
	if !pk.Verify(msg, sig) {
		t.Fatalf("signature did not verify")
	}
	if pk.Verify([]byte("other bytes"), sig) {
		t.Fatalf("signature verified against different bytes")
	}
}

func TestSignDilithium3Verifies(t *testing.T) {
	mpk, sk, err := GenerateDilithium3Keypair(&deterministicReader{})
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}
	pk, err := Dilithium3PublicKey(mpk)
	if err != nil {
		t.Fatalf("Dilithium3PublicKey: %v", err)
	}

	msg := []byte("hello")
	sig, err := SignDilithium3(msg, sk)
	if err != nil {
		t.Fatalf("SignDilithium3: %v", err)
	}
	if !pk.Verify(msg, sig) {
		t.Fatalf("signature did not verify")
	}
}

func TestVerifyRejectsAlgMismatch(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)
	pk := Ed25519PublicKey(priv.Public().(ed25519.PublicKey))
	sig := SignEd25519([]byte("msg"), priv)
	sig.Alg = Dilithium3
	if pk.Verify([]byte("msg"), sig) {
		t.Fatalf("verified across algorithm mismatch")
	}
}

func TestDeriveRoleSeedDeterministic(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveRoleSeed(root, "issuer")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	b, err := DeriveRoleSeed(root, "issuer")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected deterministic derivation")
	}

	c, err := DeriveRoleSeed(root, "holder")
	if err != nil {
		t.Fatalf("DeriveRoleSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("expected different roles to derive different seeds")
	}
}

func TestIssuerPrefixFormat(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	nontrans, err := IssuerPrefix(pub, false)
	if err != nil {
		t.Fatalf("IssuerPrefix: %v", err)
	}
	if !strings.HasPrefix(nontrans, "B") || len(nontrans) != 44 {
		t.Fatalf("non-transferable prefix %q", nontrans)
	}
	trans, err := IssuerPrefix(pub, true)
	if err != nil {
		t.Fatalf("IssuerPrefix: %v", err)
	}
	if !strings.HasPrefix(trans, "D") || len(trans) != 44 {
		t.Fatalf("transferable prefix %q", trans)
	}
}
