package storage

import (
	"github.com/ipfs/go-cid"

	"acdc.dev/acdc/acdc"
)

// PutBlock stores an attribute block's canonical bytes and returns the
// CID under which holders can fetch it. This is how the External
// attributes variant distributes its referenced block out of band.
func PutBlock(cas CAS, block *acdc.Block) (cid.Cid, error) {
	data, err := block.Encode()
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(data)
}

// FetchBlock retrieves an attribute block by CID and re-verifies its
// digest binding before returning it. Storage is untrusted: bytes that
// parse but fail the binding are rejected, not repaired.
func FetchBlock(cas CAS, id cid.Cid) (*acdc.Block, error) {
	data, err := cas.Get(id)
	if err != nil {
		return nil, err
	}
	block, err := acdc.ParseBlock(data)
	if err != nil {
		return nil, err
	}
	if err := block.VerifyBinding(); err != nil {
		return nil, err
	}
	return block, nil
}

// ResolveExternal fetches and verifies the block referenced by an
// attestation's external attributes, checking that the fetched block's
// digest is the one the attestation binds.
func ResolveExternal(cas CAS, a *acdc.Attestation, id cid.Cid) (*acdc.Block, error) {
	ext, ok := a.Attributes().(acdc.External)
	if !ok {
		return nil, acdc.NewError(acdc.KindInternal, "ACDC-STO-001", "attestation carries its block inline")
	}
	block, err := FetchBlock(cas, id)
	if err != nil {
		return nil, err
	}
	if !block.SAID().Equal(ext.Digest) {
		return nil, acdc.NewError(acdc.KindDigest, acdc.RuleDigestMismatch,
			"fetched block is not the one the attestation binds")
	}
	return block, nil
}

// PutAttestation stores an attestation's canonical bytes.
func PutAttestation(cas CAS, a *acdc.Attestation) (cid.Cid, error) {
	data, err := a.Encode()
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(data)
}

// FetchAttestation retrieves an attestation by CID and re-verifies its
// digest binding.
func FetchAttestation(cas CAS, id cid.Cid) (*acdc.Attestation, error) {
	data, err := cas.Get(id)
	if err != nil {
		return nil, err
	}
	a, err := acdc.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := a.VerifyBinding(); err != nil {
		return nil, err
	}
	return a, nil
}
