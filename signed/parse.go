package signed

import (
	"strings"

	"acdc.dev/acdc/acdc"
	"acdc.dev/acdc/cesr"
	"acdc.dev/acdc/keys"
	"acdc.dev/acdc/version"
)

// ParseAttestation decodes a signed attestation envelope: the
// attestation's canonical bytes followed by its signature attachment.
//
// Framing uses the payload's self-described size, so the split never
// depends on scanning the payload for the delimiter. The attachment's
// variant is recovered from its shape; attachments that decode but
// match no known shape are malformed, not ignored.
//
// Like acdc.Parse, this does not verify anything. Call Verify.
func ParseAttestation(data []byte) (*Signed, error) {
	h, _, err := version.Sniff(data)
	if err != nil {
		return nil, acdc.WrapError(acdc.KindHeader, "ACDC-ENV-001", "no version header", err)
	}
	if h.Size > len(data) {
		return nil, acdc.NewError(acdc.KindParse, "ACDC-ENV-002", "input shorter than payload size")
	}

	payload, err := acdc.Parse(data[:h.Size])
	if err != nil {
		return nil, err
	}

	attachment := string(data[h.Size:])
	if attachment == "" {
		return nil, acdc.NewError(acdc.KindSignature, acdc.RuleMalformedSignature, "missing signature attachment")
	}
	if attachment[0] != '-' {
		return nil, acdc.NewError(acdc.KindSignature, acdc.RuleMalformedSignature, "attachment must begin with the delimiter")
	}

	sig, err := decodeAttachment(attachment)
	if err != nil {
		return nil, err
	}
	return &Signed{Payload: payload, Signature: sig}, nil
}

func decodeAttachment(attachment string) (Signature, error) {
	// A bare self-signing primitive after the delimiter is the simple
	// variant; everything else is counted groups.
	if strings.HasPrefix(attachment, "-0B") {
		raw, err := cesr.DecodeEd25519Sig(attachment[1:])
		if err != nil {
			return nil, acdc.WrapError(acdc.KindSignature, acdc.RuleMalformedSignature, "bad simple signature", err)
		}
		return Simple{Sig: keys.Signature{Alg: keys.Ed25519, Raw: raw}}, nil
	}

	groups, err := cesr.DecodeGroups(attachment)
	if err != nil {
		return nil, acdc.WrapError(acdc.KindSignature, acdc.RuleMalformedSignature, "bad attachment groups", err)
	}

	switch {
	case len(groups) == 2:
		seals, ok1 := groups[0].(cesr.SourceSealCouples)
		sigs, ok2 := groups[1].(cesr.IndexedControllerSignatures)
		if !ok1 || !ok2 || len(seals.Seals) != 1 || len(sigs.Signatures) != 1 {
			break
		}
		return Transferable{
			SN:         seals.Seals[0].SN,
			PriorEvent: seals.Seals[0].Digest,
			Index:      sigs.Signatures[0].Index,
			Raw:        sigs.Signatures[0].Raw,
		}, nil
	case len(groups) == 1:
		couples, ok := groups[0].(cesr.NontransReceiptCouples)
		if !ok || len(couples.Couples) != 1 {
			break
		}
		return NonTransferable{
			KeyPrefix: couples.Couples[0].KeyPrefix,
			Raw:       couples.Couples[0].Raw,
		}, nil
	}
	return nil, acdc.NewError(acdc.KindSignature, acdc.RuleMalformedSignature, "unrecognized attachment shape")
}
