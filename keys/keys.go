// Package keys provides the signature primitives used to author and
// verify attestations: algorithm-tagged public keys and signatures, and
// deterministic seed derivation for test and tool identities.
package keys

import (
	"bytes"
	"crypto/ed25519"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Alg names a supported signature algorithm.
type Alg string

const (
	Ed25519    Alg = "ed25519"
	Dilithium3 Alg = "dilithium3"
)

// PublicKey is an algorithm-tagged public key.
type PublicKey struct {
	Alg Alg
	Raw []byte
}

// Signature is an algorithm-tagged detached signature.
type Signature struct {
	Alg Alg
	Raw []byte
}

// Ed25519PublicKey wraps a raw ed25519 public key.
func Ed25519PublicKey(pub ed25519.PublicKey) PublicKey {
	return PublicKey{Alg: Ed25519, Raw: append([]byte(nil), pub...)}
}

// Dilithium3PublicKey wraps a dilithium3 public key.
func Dilithium3PublicKey(pk *mode3.PublicKey) (PublicKey, error) {
	raw, err := pk.MarshalBinary()
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{Alg: Dilithium3, Raw: raw}, nil
}

// Verify checks sig over message. It returns false for algorithm
// mismatches and malformed key material rather than erroring: a
// signature that cannot be checked is an invalid signature.
func (pk PublicKey) Verify(message []byte, sig Signature) bool {
	if pk.Alg != sig.Alg {
		return false
	}
	switch pk.Alg {
	case Ed25519:
		if len(pk.Raw) != ed25519.PublicKeySize || len(sig.Raw) != ed25519.SignatureSize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pk.Raw), message, sig.Raw)
	case Dilithium3:
		var mpk mode3.PublicKey
		if err := mpk.UnmarshalBinary(pk.Raw); err != nil {
			return false
		}
		if len(sig.Raw) != mode3.SignatureSize {
			return false
		}
		return mode3.Verify(&mpk, message, sig.Raw)
	default:
		return false
	}
}

// Equal reports whether two public keys are identical.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.Alg == other.Alg && bytes.Equal(pk.Raw, other.Raw)
}
