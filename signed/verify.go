package signed

import (
	"errors"
	"fmt"

	"acdc.dev/acdc/acdc"
	"acdc.dev/acdc/cesr"
	"acdc.dev/acdc/kel"
	"acdc.dev/acdc/keys"
)

// Trust is the key material a verifier brings. Simple signatures
// resolve through PubKeys; transferable signatures resolve through
// KeyStates. Either may be nil when the corresponding variant is not
// expected.
type Trust struct {
	PubKeys   map[string]keys.PublicKey
	KeyStates kel.Store
}

// Verify checks the envelope's signature over the payload's canonical
// bytes.
//
// Error kinds distinguish "cannot verify" from "verified false":
// KindKeyState means the trust material to decide is missing (unknown
// author key, unknown key event) and the caller may retry after
// fetching more; KindVerify is a terminal rejection.
func (s *Signed) Verify(trust Trust) error {
	data, err := s.Payload.Encode()
	if err != nil {
		return err
	}

	switch sig := s.Signature.(type) {
	case Simple:
		pk, ok := trust.PubKeys[s.Payload.AuthorID()]
		if !ok {
			return acdc.NewError(acdc.KindKeyState, acdc.RulePubKeyNotFound,
				fmt.Sprintf("no public key for author %q", s.Payload.AuthorID()))
		}
		if !pk.Verify(data, sig.Sig) {
			return acdc.NewError(acdc.KindVerify, acdc.RuleSignatureInvalid, "signature does not verify")
		}
		return nil

	case Transferable:
		if trust.KeyStates == nil {
			return acdc.NewError(acdc.KindKeyState, acdc.RuleMissingEvent, "no key-state store configured")
		}
		state, err := trust.KeyStates.GetKeysAt(s.Payload.AuthorID(), sig.SN, sig.PriorEvent)
		if err != nil {
			if errors.Is(err, kel.ErrMissingEvent) {
				return acdc.WrapError(acdc.KindKeyState, acdc.RuleMissingEvent, "key event not found", err)
			}
			return acdc.WrapError(acdc.KindKeyState, acdc.RuleMissingEvent, "key-state lookup failed", err)
		}
		isig, err := cesr.NewIndexedSignature(sig.Index, sig.Raw)
		if err != nil {
			return acdc.WrapError(acdc.KindSignature, acdc.RuleMalformedSignature, "bad indexed signature", err)
		}
		if err := state.Verify(data, []cesr.IndexedSignature{isig}); err != nil {
			return acdc.WrapError(acdc.KindVerify, acdc.RuleFaultySignature, "indexed signature rejected", err)
		}
		return nil

	case NonTransferable:
		// The prefix is self-certifying: it carries the key that must
		// have signed, so no external material is consulted.
		if sig.KeyPrefix.Transferable {
			return acdc.NewError(acdc.KindSignature, acdc.RuleMalformedSignature,
				"receipt couple requires a non-transferable prefix")
		}
		pk := keys.Ed25519PublicKey(sig.KeyPrefix.Key)
		if !pk.Verify(data, keys.Signature{Alg: keys.Ed25519, Raw: sig.Raw}) {
			return acdc.NewError(acdc.KindVerify, acdc.RuleSignatureInvalid, "signature does not verify")
		}
		return nil

	default:
		return acdc.NewError(acdc.KindInternal, "ACDC-SIG-007", "unknown signature variant")
	}
}
