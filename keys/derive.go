package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"

	"acdc.dev/acdc/cesr"
)

// IssuerPrefix returns the identifier prefix for an ed25519 public key.
// Non-transferable prefixes are verified directly against the embedded
// key; transferable prefixes are resolved through a key-event log.
func IssuerPrefix(pub ed25519.PublicKey, transferable bool) (string, error) {
	p, err := cesr.NewBasicPrefix(pub, transferable)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// DeriveRoleSeed deterministically derives a role-specific ed25519 seed
// from a root seed. Tools use this so a single seed flag yields stable
// issuer, holder and witness identities.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: root seed must be %d bytes", ed25519.SeedSize)
	}
	if role == "" {
		return nil, errors.New("keys: empty role")
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("acdc-keyring-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	sum := h.Sum(nil)
	if len(sum) < ed25519.SeedSize {
		return nil, errors.New("keys: kdf output too short")
	}
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}
