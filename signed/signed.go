// Package signed implements the signed envelope: a canonical payload
// plus a detachable signature, serialized as the payload bytes followed
// by a text attachment. Verification resolves the signing key either
// from a caller-supplied key map or from a key-event store, depending
// on the signature variant.
package signed

import (
	"crypto/ed25519"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"acdc.dev/acdc/acdc"
	"acdc.dev/acdc/cesr"
	"acdc.dev/acdc/keys"
	"acdc.dev/acdc/said"
)

// Payload is anything that can be signed: it names its author and
// renders canonical bytes. Signatures are always over the exact
// encoded bytes, never a re-serialization.
type Payload interface {
	AuthorID() string
	Encode() ([]byte, error)
}

// Signature is the detachable signature of a signed envelope. It is a
// closed sum; the wire format is untagged-by-shape, so every consumer
// switches exhaustively over the three variants.
type Signature interface {
	isSignature()
}

// Simple is a bare signature. Verification resolves the author's
// public key from a caller-supplied map; no key history is involved.
type Simple struct {
	Sig keys.Signature
}

func (Simple) isSignature() {}

// Transferable is an indexed signature anchored to a key event: the
// verifier resolves the key set that was valid at (author, SN,
// PriorEvent) and checks the signature at Index against it.
type Transferable struct {
	SN         uint64
	PriorEvent said.SAID
	Index      int
	Raw        []byte
}

func (Transferable) isSignature() {}

// NonTransferable couples the signature with the self-certifying
// non-transferable key prefix that made it. The prefix carries the
// public key, so verification needs no external key material.
type NonTransferable struct {
	KeyPrefix cesr.BasicPrefix
	Raw       []byte
}

func (NonTransferable) isSignature() {}

// Signed is a payload with its signature. Construct with the Sign
// functions or ParseAttestation.
type Signed struct {
	Payload   Payload
	Signature Signature
}

// SignSimple signs the payload's canonical bytes with an ed25519 key.
func SignSimple(payload Payload, priv ed25519.PrivateKey) (*Signed, error) {
	data, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	return &Signed{
		Payload:   payload,
		Signature: Simple{Sig: keys.SignEd25519(data, priv)},
	}, nil
}

// SignSimpleDilithium3 signs the payload's canonical bytes with a
// dilithium3 key. The result verifies in process but has no wire form;
// ToWire rejects it because the attachment codec has no dilithium
// primitive.
func SignSimpleDilithium3(payload Payload, priv *mode3.PrivateKey) (*Signed, error) {
	data, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	sig, err := keys.SignDilithium3(data, priv)
	if err != nil {
		return nil, acdc.WrapError(acdc.KindSignature, "ACDC-SIG-002", "dilithium signing failed", err)
	}
	return &Signed{Payload: payload, Signature: Simple{Sig: sig}}, nil
}

// SignTransferable signs the payload's canonical bytes with the key at
// index in the author's key set established by the key event (sn,
// priorEvent).
func SignTransferable(payload Payload, priv ed25519.PrivateKey, sn uint64, priorEvent said.SAID, index int) (*Signed, error) {
	if priorEvent.IsZero() {
		return nil, acdc.NewError(acdc.KindSignature, "ACDC-SIG-003", "zero prior event digest")
	}
	if index < 0 || index > 63 {
		return nil, acdc.NewError(acdc.KindSignature, "ACDC-SIG-004", "signature index out of range")
	}
	data, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	return &Signed{
		Payload: payload,
		Signature: Transferable{
			SN:         sn,
			PriorEvent: priorEvent,
			Index:      index,
			Raw:        ed25519.Sign(priv, data),
		},
	}, nil
}

// SignNonTransferable signs the payload's canonical bytes and couples
// the signature with the signing key's non-transferable prefix.
func SignNonTransferable(payload Payload, priv ed25519.PrivateKey) (*Signed, error) {
	prefix, err := cesr.NewBasicPrefix(priv.Public().(ed25519.PublicKey), false)
	if err != nil {
		return nil, acdc.WrapError(acdc.KindSignature, "ACDC-SIG-005", "bad signing key", err)
	}
	data, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	return &Signed{
		Payload: payload,
		Signature: NonTransferable{
			KeyPrefix: prefix,
			Raw:       ed25519.Sign(priv, data),
		},
	}, nil
}

// ToWire renders the envelope: canonical payload bytes followed by the
// signature's text attachment. Every attachment begins with '-', which
// doubles as the payload/attachment delimiter.
func (s *Signed) ToWire() ([]byte, error) {
	data, err := s.Payload.Encode()
	if err != nil {
		return nil, err
	}
	attachment, err := encodeAttachment(s.Signature)
	if err != nil {
		return nil, err
	}
	return append(data, attachment...), nil
}

func encodeAttachment(sig Signature) ([]byte, error) {
	switch v := sig.(type) {
	case Simple:
		if v.Sig.Alg != keys.Ed25519 {
			return nil, acdc.NewError(acdc.KindEncoding, "ACDC-SIG-006",
				"no wire form for simple signatures of this algorithm")
		}
		prim, err := cesr.EncodeEd25519Sig(v.Sig.Raw)
		if err != nil {
			return nil, acdc.WrapError(acdc.KindSignature, acdc.RuleMalformedSignature, "bad signature bytes", err)
		}
		return []byte("-" + prim), nil
	case Transferable:
		isig, err := cesr.NewIndexedSignature(v.Index, v.Raw)
		if err != nil {
			return nil, acdc.WrapError(acdc.KindSignature, acdc.RuleMalformedSignature, "bad indexed signature", err)
		}
		text, err := cesr.EncodeGroups([]cesr.Group{
			cesr.SourceSealCouples{Seals: []cesr.SourceSeal{{SN: v.SN, Digest: v.PriorEvent}}},
			cesr.IndexedControllerSignatures{Signatures: []cesr.IndexedSignature{isig}},
		})
		if err != nil {
			return nil, acdc.WrapError(acdc.KindSignature, acdc.RuleMalformedSignature, "attachment encoding failed", err)
		}
		return []byte(text), nil
	case NonTransferable:
		text, err := cesr.EncodeGroups([]cesr.Group{
			cesr.NontransReceiptCouples{Couples: []cesr.NontransCouple{{KeyPrefix: v.KeyPrefix, Raw: v.Raw}}},
		})
		if err != nil {
			return nil, acdc.WrapError(acdc.KindSignature, acdc.RuleMalformedSignature, "attachment encoding failed", err)
		}
		return []byte(text), nil
	default:
		return nil, acdc.NewError(acdc.KindInternal, "ACDC-SIG-007", "unknown signature variant")
	}
}
