package acdc

import "acdc.dev/acdc/said"

// Attributes is the attestation's claim section. It is a closed sum:
// either the full attribute block travels inline, or only the block's
// digest does and the block itself is distributed out of band (most
// often through a content-addressed store).
//
// The choice is made at construction time and is part of the digested
// bytes: an inline attestation and an external one referencing the
// same block are distinct attestations with distinct digests.
type Attributes interface {
	// BlockSAID returns the digest of the attribute block, whether or
	// not the block is carried inline.
	BlockSAID() said.SAID

	isAttributes()
}

// Inline carries the full attribute block inside the attestation.
type Inline struct {
	Block *Block
}

func (a Inline) BlockSAID() said.SAID { return a.Block.SAID() }
func (Inline) isAttributes()          {}

// External carries only the attribute block's digest. The verifier
// must fetch the block by digest before it can read the claims.
type External struct {
	Digest said.SAID
}

func (a External) BlockSAID() said.SAID { return a.Digest }
func (External) isAttributes()          {}
