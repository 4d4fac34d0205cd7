// Package cesr implements the text attachment codec used to carry
// signature material alongside an attestation: fixed-width primitives
// and counted attachment groups. Decoding is strict; unrecognized codes
// are malformed input, never a panic.
package cesr

import (
	"errors"
	"fmt"
	"strings"

	"acdc.dev/acdc/said"
)

// ErrMalformed is wrapped by all attachment decode failures.
var ErrMalformed = errors.New("cesr: malformed attachment")

// Group is one counted attachment group. The set is closed: every
// consumer switches exhaustively over the three variants.
type Group interface {
	isGroup()
	encode(sb *strings.Builder) error
}

// Count-code prefixes for the supported groups.
const (
	countIndexedSigs  = "-A" // indexed controller signatures
	countNontransRcpt = "-C" // non-transferable receipt couples
	countSourceSeals  = "-G" // source seal couples
)

// SourceSeal anchors a signature to a specific event in the signer's
// key-event history: a sequence number plus the digest of that event.
type SourceSeal struct {
	SN     uint64
	Digest said.SAID
}

// SourceSealCouples is the group of source seals.
type SourceSealCouples struct {
	Seals []SourceSeal
}

func (SourceSealCouples) isGroup() {}

func (g SourceSealCouples) encode(sb *strings.Builder) error {
	count, err := encodeCount(len(g.Seals))
	if err != nil {
		return err
	}
	sb.WriteString(countSourceSeals)
	sb.WriteString(count)
	for _, seal := range g.Seals {
		if seal.Digest.IsZero() {
			return fmt.Errorf("%w: zero seal digest", ErrMalformed)
		}
		sb.WriteString(EncodeSN(seal.SN))
		sb.WriteString(seal.Digest.String())
	}
	return nil
}

// IndexedControllerSignatures is the group of indexed signatures made
// by the controller's current signing keys.
type IndexedControllerSignatures struct {
	Signatures []IndexedSignature
}

func (IndexedControllerSignatures) isGroup() {}

func (g IndexedControllerSignatures) encode(sb *strings.Builder) error {
	count, err := encodeCount(len(g.Signatures))
	if err != nil {
		return err
	}
	sb.WriteString(countIndexedSigs)
	sb.WriteString(count)
	for _, sig := range g.Signatures {
		if len(sig.Raw) != ed25519SigRaw {
			return fmt.Errorf("%w: bad indexed signature", ErrMalformed)
		}
		sb.WriteString(sig.String())
	}
	return nil
}

// NontransCouple pairs a non-transferable key prefix with a signature
// made by that key.
type NontransCouple struct {
	KeyPrefix BasicPrefix
	Raw       []byte
}

// NontransReceiptCouples is the group of non-transferable receipt
// couples.
type NontransReceiptCouples struct {
	Couples []NontransCouple
}

func (NontransReceiptCouples) isGroup() {}

func (g NontransReceiptCouples) encode(sb *strings.Builder) error {
	count, err := encodeCount(len(g.Couples))
	if err != nil {
		return err
	}
	sb.WriteString(countNontransRcpt)
	sb.WriteString(count)
	for _, c := range g.Couples {
		if c.KeyPrefix.Transferable {
			return fmt.Errorf("%w: receipt couple requires a non-transferable prefix", ErrMalformed)
		}
		sig, err := EncodeEd25519Sig(c.Raw)
		if err != nil {
			return err
		}
		sb.WriteString(c.KeyPrefix.String())
		sb.WriteString(sig)
	}
	return nil
}

func encodeCount(n int) (string, error) {
	if n < 0 || n >= 64*64 {
		return "", fmt.Errorf("%w: group count %d out of range", ErrMalformed, n)
	}
	return string(b64Alphabet[n/64]) + string(b64Alphabet[n%64]), nil
}

func decodeCount(s string) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: short count", ErrMalformed)
	}
	hi, ok1 := b64Index(s[0])
	lo, ok2 := b64Index(s[1])
	if !ok1 || !ok2 {
		return 0, fmt.Errorf("%w: bad count characters %q", ErrMalformed, s)
	}
	return hi*64 + lo, nil
}

// EncodeGroups renders attachment groups to their wire text. The result
// begins with a count code, so it also serves as the payload/attachment
// delimiter.
func EncodeGroups(groups []Group) (string, error) {
	var sb strings.Builder
	for _, g := range groups {
		if err := g.encode(&sb); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// DecodeGroups parses attachment text into groups. The whole input must
// be consumed; leftover bytes are malformed.
func DecodeGroups(s string) ([]Group, error) {
	var groups []Group
	for len(s) > 0 {
		if len(s) < 4 || s[0] != '-' {
			return nil, fmt.Errorf("%w: expected count code", ErrMalformed)
		}
		prefix := s[:2]
		count, err := decodeCount(s[2:4])
		if err != nil {
			return nil, err
		}
		s = s[4:]
		switch prefix {
		case countSourceSeals:
			g := SourceSealCouples{}
			for i := 0; i < count; i++ {
				if len(s) < serialNumberLen {
					return nil, fmt.Errorf("%w: truncated source seal", ErrMalformed)
				}
				sn, err := DecodeSN(s[:serialNumberLen])
				if err != nil {
					return nil, err
				}
				s = s[serialNumberLen:]
				if len(s) < 1 {
					return nil, fmt.Errorf("%w: truncated seal digest", ErrMalformed)
				}
				code := said.Code(s[:1])
				if !code.Valid() {
					return nil, fmt.Errorf("%w: unknown digest code %q", ErrMalformed, s[:1])
				}
				digLen := code.QB64Len()
				if len(s) < digLen {
					return nil, fmt.Errorf("%w: truncated seal digest", ErrMalformed)
				}
				dig, err := said.Parse(s[:digLen])
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
				}
				s = s[digLen:]
				g.Seals = append(g.Seals, SourceSeal{SN: sn, Digest: dig})
			}
			groups = append(groups, g)
		case countIndexedSigs:
			g := IndexedControllerSignatures{}
			for i := 0; i < count; i++ {
				if len(s) < indexedSigLen {
					return nil, fmt.Errorf("%w: truncated indexed signature", ErrMalformed)
				}
				sig, err := ParseIndexedSignature(s[:indexedSigLen])
				if err != nil {
					return nil, err
				}
				s = s[indexedSigLen:]
				g.Signatures = append(g.Signatures, sig)
			}
			groups = append(groups, g)
		case countNontransRcpt:
			g := NontransReceiptCouples{}
			for i := 0; i < count; i++ {
				if len(s) < basicPrefixLen+ed25519SigLen {
					return nil, fmt.Errorf("%w: truncated receipt couple", ErrMalformed)
				}
				prefix, err := ParseBasicPrefix(s[:basicPrefixLen])
				if err != nil {
					return nil, err
				}
				s = s[basicPrefixLen:]
				raw, err := DecodeEd25519Sig(s[:ed25519SigLen])
				if err != nil {
					return nil, err
				}
				s = s[ed25519SigLen:]
				g.Couples = append(g.Couples, NontransCouple{KeyPrefix: prefix, Raw: raw})
			}
			groups = append(groups, g)
		default:
			return nil, fmt.Errorf("%w: unknown count code %q", ErrMalformed, prefix)
		}
	}
	return groups, nil
}
