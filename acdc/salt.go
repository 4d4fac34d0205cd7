package acdc

import (
	"github.com/google/uuid"

	"acdc.dev/acdc/cesr"
)

// SaltSource supplies the single-use random value that makes a private
// attribute block resistant to dictionary attacks on low-entropy
// attribute values. It is an injected capability so tests can supply
// deterministic salts; passing nil to a private constructor selects
// NewSalt.
type SaltSource func() (string, error)

// NewSalt returns a fresh random salt: a v4 uuid rendered as a
// serial-number primitive. The salt is generated once at block creation
// and persisted verbatim so verification is reproducible.
func NewSalt() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", WrapError(KindInternal, "ACDC-SLT-001", "salt generation failed", err)
	}
	return cesr.EncodeSerialBytes(u[:])
}
