package keys

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// SignEd25519 signs the exact canonical message bytes. Signatures are
// over the bytes themselves, never a re-serialization: verification
// must see the identical byte sequence.
func SignEd25519(message []byte, privateKey ed25519.PrivateKey) Signature {
	return Signature{Alg: Ed25519, Raw: ed25519.Sign(privateKey, message)}
}

// SignDilithium3 signs the exact canonical message bytes with a
// dilithium3 private key.
func SignDilithium3(message []byte, privateKey *mode3.PrivateKey) (Signature, error) {
	if privateKey == nil {
		return Signature{}, fmt.Errorf("keys: missing private key")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, message, sig)
	return Signature{Alg: Dilithium3, Raw: sig}, nil
}

// GenerateDilithium3Keypair returns a new dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
