package acdc

import (
	"bytes"

	"acdc.dev/acdc/codec"
	"acdc.dev/acdc/said"
	"acdc.dev/acdc/version"
)

// Parse decodes an attestation's wire bytes.
//
// Parsing is strict. The header's self-described size must equal the
// input length, fields must appear in exact wire order, and
// re-encoding the parsed attestation must reproduce the input
// byte-for-byte, so only canonical encodings are accepted.
//
// Parse does NOT verify the digest binding; that is a deliberate
// separate step so callers can frame and route messages before paying
// for digest recomputation. Call VerifyBinding before trusting the
// content.
func Parse(data []byte) (*Attestation, error) {
	h, _, err := version.Sniff(data)
	if err != nil {
		return nil, WrapError(KindHeader, "ACDC-PRS-001", "no version header", err)
	}
	if h.Size != len(data) {
		return nil, NewError(KindHeader, "ACDC-PRS-002", "header size disagrees with input length")
	}

	v, err := codec.DecodeValue(h.Format, data)
	if err != nil {
		return nil, WrapError(KindParse, "ACDC-PRS-003", "attestation body not decodable", err)
	}
	m, ok := v.(*codec.Map)
	if !ok {
		return nil, NewError(KindParse, "ACDC-PRS-004", "attestation must be a map")
	}

	a, err := attestationFromWire(h, m)
	if err != nil {
		return nil, err
	}

	// Reject non-canonical input: re-rendering must reproduce the bytes.
	canonical, err := a.Encode()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(canonical, data) {
		return nil, NewError(KindParse, "ACDC-PRS-005", "attestation bytes are not canonical")
	}
	return a, nil
}

var wireFields = []string{fieldVersion, fieldDigest, fieldIssuer, fieldRegistry, fieldSchema, fieldAttrs}

func attestationFromWire(h version.Header, m *codec.Map) (*Attestation, error) {
	keys := m.Keys()
	if len(keys) != len(wireFields) {
		return nil, NewError(KindParse, "ACDC-PRS-006", "attestation must have exactly six fields")
	}
	for i, want := range wireFields {
		if keys[i] != want {
			return nil, NewError(KindParse, "ACDC-PRS-006", "attestation fields out of order")
		}
	}

	vs, ok := stringField(m, fieldVersion)
	if !ok {
		return nil, NewError(KindParse, "ACDC-PRS-007", "version field must be a string")
	}
	embedded, err := version.Parse(vs)
	if err != nil {
		return nil, WrapError(KindHeader, "ACDC-PRS-007", "invalid embedded version header", err)
	}
	if embedded != h {
		return nil, NewError(KindHeader, "ACDC-PRS-007", "embedded header disagrees with sniffed header")
	}

	digestStr, ok := stringField(m, fieldDigest)
	if !ok {
		return nil, NewError(KindParse, "ACDC-PRS-008", "digest field must be a string")
	}
	digest, err := said.Parse(digestStr)
	if err != nil {
		return nil, WrapError(KindParse, "ACDC-PRS-008", "invalid attestation digest", err)
	}

	issuer, ok := stringField(m, fieldIssuer)
	if !ok || issuer == "" {
		return nil, NewError(KindParse, "ACDC-PRS-009", "issuer field must be a non-empty string")
	}

	registry, ok := stringField(m, fieldRegistry)
	if !ok {
		return nil, NewError(KindParse, "ACDC-PRS-018", "registry field must be a string")
	}

	schemaStr, ok := stringField(m, fieldSchema)
	if !ok {
		return nil, NewError(KindParse, "ACDC-PRS-019", "schema field must be a string")
	}
	schema, err := said.Parse(schemaStr)
	if err != nil {
		return nil, WrapError(KindParse, "ACDC-PRS-019", "invalid schema digest", err)
	}

	attrs, err := attributesFromWire(m)
	if err != nil {
		return nil, err
	}

	return &Attestation{
		header:   h,
		digest:   digest,
		issuer:   issuer,
		registry: registry,
		schema:   schema,
		attrs:    attrs,
	}, nil
}

// attributesFromWire disambiguates the untagged attributes field by
// shape: a string is an external block digest, a map is an inline
// block.
func attributesFromWire(m *codec.Map) (Attributes, error) {
	raw, _ := m.Get(fieldAttrs)
	switch v := raw.(type) {
	case string:
		d, err := said.Parse(v)
		if err != nil {
			return nil, WrapError(KindParse, "ACDC-PRS-020", "invalid external attributes digest", err)
		}
		return External{Digest: d}, nil
	case *codec.Map:
		b, err := blockFromWire(v)
		if err != nil {
			return nil, err
		}
		return Inline{Block: b}, nil
	default:
		return nil, NewError(KindParse, "ACDC-PRS-021", "attributes must be an object or a digest string")
	}
}
