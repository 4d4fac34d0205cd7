// Package acdc implements self-addressing attestations: versioned,
// canonically encoded claim containers whose digest is computed over
// their own bytes via dummy substitution, making every finalized
// attestation immutable content-addressed data.
package acdc

import (
	"acdc.dev/acdc/codec"
	"acdc.dev/acdc/said"
	"acdc.dev/acdc/version"
)

// Top-level attestation field names, in wire order.
const (
	fieldVersion  = "v"
	fieldIssuer   = "i"
	fieldRegistry = "ri"
	fieldSchema   = "s"
	fieldAttrs    = "a"
)

// Attestation is a self-addressed, signable statement: an issuer binds
// a schema and an attribute block under a digest computed over the
// attestation's own canonical bytes.
//
// Attestations are immutable once constructed. The constructors always
// finalize size and digest, so a half-built attestation is
// unrepresentable outside this package.
type Attestation struct {
	header   version.Header
	digest   said.SAID
	issuer   string
	registry string
	schema   said.SAID
	attrs    Attributes
}

// New builds and finalizes a JSON attestation.
func New(issuer string, schema said.SAID, attrs Attributes) (*Attestation, error) {
	return NewInFormat(version.JSON, issuer, schema, attrs)
}

// NewInFormat builds an attestation in the given serialization format
// and finalizes its size and digest.
//
// Finalization is two-pass. First the attestation is rendered with a
// dummy digest and size zero to learn its encoded length; the dummy
// occupies exactly as many bytes as the real digest will, so the
// length is already final. The true size is then written into the
// header, the attestation is rendered again, and the digest of those
// bytes replaces the dummy.
func NewInFormat(format version.Format, issuer string, schema said.SAID, attrs Attributes) (*Attestation, error) {
	if !format.Valid() {
		return nil, NewError(KindEncoding, "ACDC-ATT-001", "unknown serialization format")
	}
	if issuer == "" {
		return nil, NewError(KindEncoding, "ACDC-ATT-002", "empty issuer")
	}
	if schema.IsZero() {
		return nil, NewError(KindEncoding, "ACDC-ATT-003", "zero schema digest")
	}
	if attrs == nil {
		return nil, NewError(KindEncoding, "ACDC-ATT-004", "nil attributes")
	}

	a := &Attestation{
		header: version.New(format),
		issuer: issuer,
		schema: schema,
		attrs:  attrs,
	}
	if err := a.finalize(said.DefaultCode); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Attestation) finalize(code said.Code) error {
	// Pass one: size zero, dummy digest. Only the length matters.
	a.header.Size = 0
	sizing, err := a.render(code.Dummy())
	if err != nil {
		return err
	}
	if len(sizing) > version.MaxSize {
		return NewError(KindEncoding, "ACDC-ATT-005", "attestation exceeds maximum encodable size")
	}

	// Pass two: real size, dummy digest. These are the digested bytes.
	a.header.Size = len(sizing)
	derivation, err := a.render(code.Dummy())
	if err != nil {
		return err
	}
	d, err := said.Derive(code, derivation)
	if err != nil {
		return WrapError(KindInternal, "ACDC-ATT-006", "digest derivation failed", err)
	}
	a.digest = d
	return nil
}

// render encodes the attestation with the given string in the digest
// slot. The same path serves sizing, derivation and final encoding.
func (a *Attestation) render(digest string) ([]byte, error) {
	vs, err := a.header.Render()
	if err != nil {
		return nil, WrapError(KindHeader, "ACDC-ATT-007", "header not renderable", err)
	}

	m := codec.NewMap()
	m.Set(fieldVersion, vs)
	m.Set(fieldDigest, digest)
	m.Set(fieldIssuer, a.issuer)
	m.Set(fieldRegistry, a.registry)
	m.Set(fieldSchema, a.schema.String())

	switch attrs := a.attrs.(type) {
	case Inline:
		bm, err := attrs.Block.wireMap(attrs.Block.SAID().String())
		if err != nil {
			return nil, err
		}
		m.Set(fieldAttrs, bm)
	case External:
		m.Set(fieldAttrs, attrs.Digest.String())
	default:
		return nil, NewError(KindInternal, "ACDC-ATT-008", "unknown attributes variant")
	}

	data, err := codec.EncodeValue(a.header.Format, m)
	if err != nil {
		return nil, WrapError(KindEncoding, "ACDC-ENC-001", "attestation not encodable", err)
	}
	return data, nil
}

// Encode produces the attestation's canonical wire bytes with the real
// digest and size in place. For JSON the result's length always equals
// Header().Size; the size field of CBOR and MGPK headers likewise
// self-describes, because the dummy and the digest render to the same
// width.
func (a *Attestation) Encode() ([]byte, error) {
	return a.render(a.digest.String())
}

// SAID returns the attestation's self-addressing digest.
func (a *Attestation) SAID() said.SAID { return a.digest }

// Header returns the finalized version header.
func (a *Attestation) Header() version.Header { return a.header }

// Issuer returns the issuer identifier.
func (a *Attestation) Issuer() string { return a.issuer }

// Registry returns the registry identifier. It is reserved and
// currently always empty, but present on the wire.
func (a *Attestation) Registry() string { return a.registry }

// Schema returns the schema digest.
func (a *Attestation) Schema() said.SAID { return a.schema }

// Attributes returns the claim section.
func (a *Attestation) Attributes() Attributes { return a.attrs }

// AuthorID identifies the party whose signature authenticates this
// payload. For attestations that is the issuer.
func (a *Attestation) AuthorID() string { return a.issuer }

// VerifyBinding re-derives the digest over the attestation's canonical
// bytes, using the algorithm implied by the claimed digest's code, and
// compares byte-for-byte. It also verifies the inline attribute
// block's own binding when one is present.
func (a *Attestation) VerifyBinding() error {
	derivation, err := a.render(a.digest.Code().Dummy())
	if err != nil {
		return err
	}
	if !a.digest.VerifyBinding(derivation) {
		return NewError(KindDigest, RuleDigestMismatch, "attestation digest mismatch")
	}
	if inline, ok := a.attrs.(Inline); ok {
		if err := inline.Block.VerifyBinding(); err != nil {
			return err
		}
	}
	return nil
}
