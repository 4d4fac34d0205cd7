package acdc

import (
	"bytes"
	"fmt"

	"acdc.dev/acdc/codec"
	"acdc.dev/acdc/said"
	"acdc.dev/acdc/version"
)

// Reserved attribute-block field names. Data keys may not collide with
// them, which keeps the wire form structurally unambiguous.
const (
	fieldDigest = "d"
	fieldSalt   = "u"
	fieldTarget = "i"
)

// Block is the claim payload of an attestation: an ordered key/value
// map, optionally bound to a target subject, optionally salted for
// privacy, and self-addressed by its own digest.
//
// Blocks are immutable once constructed. Every public constructor
// finalizes the digest, so an unfinalized block is unrepresentable.
type Block struct {
	said   said.SAID
	target string
	salt   string
	data   *codec.Map
}

// NewPublic builds an untargeted public block: the digest covers only
// the data.
func NewPublic(data *codec.Map) (*Block, error) {
	return newBlock(data, "", "")
}

// NewTargetedPublic builds a public block bound to one subject
// identifier. The binding is part of the digested bytes, so the block
// cannot be reused for another holder without invalidating its digest.
func NewTargetedPublic(data *codec.Map, target string) (*Block, error) {
	if target == "" {
		return nil, NewError(KindEncoding, "ACDC-BLK-003", "empty target")
	}
	return newBlock(data, target, "")
}

// NewPrivate builds an untargeted private block with a fresh salt from
// salts (nil selects NewSalt).
func NewPrivate(data *codec.Map, salts SaltSource) (*Block, error) {
	salt, err := makeSalt(salts)
	if err != nil {
		return nil, err
	}
	return newBlock(data, "", salt)
}

// NewTargetedPrivate builds a private block bound to one subject
// identifier.
func NewTargetedPrivate(data *codec.Map, target string, salts SaltSource) (*Block, error) {
	if target == "" {
		return nil, NewError(KindEncoding, "ACDC-BLK-003", "empty target")
	}
	salt, err := makeSalt(salts)
	if err != nil {
		return nil, err
	}
	return newBlock(data, target, salt)
}

func makeSalt(salts SaltSource) (string, error) {
	if salts == nil {
		salts = NewSalt
	}
	salt, err := salts()
	if err != nil {
		return "", err
	}
	if salt == "" {
		return "", NewError(KindEncoding, "ACDC-BLK-004", "salt source returned empty salt")
	}
	return salt, nil
}

func newBlock(data *codec.Map, target, salt string) (*Block, error) {
	if data == nil {
		data = codec.NewMap()
	}
	for _, k := range data.Keys() {
		if k == fieldDigest || k == fieldSalt || k == fieldTarget {
			return nil, NewError(KindEncoding, "ACDC-BLK-001",
				fmt.Sprintf("attribute key %q collides with a reserved field", k))
		}
	}
	b := &Block{target: target, salt: salt, data: data.Clone()}
	derivation, err := b.derivationData(said.DefaultCode)
	if err != nil {
		return nil, err
	}
	d, err := said.Derive(said.DefaultCode, derivation)
	if err != nil {
		return nil, WrapError(KindInternal, "ACDC-BLK-002", "digest derivation failed", err)
	}
	b.said = d
	return b, nil
}

// derivationData renders the canonical bytes the block digest covers:
// the block with a dummy digest of the given code in place.
func (b *Block) derivationData(code said.Code) ([]byte, error) {
	m, err := b.wireMap(code.Dummy())
	if err != nil {
		return nil, err
	}
	data, err := codec.EncodeValue(version.JSON, m)
	if err != nil {
		return nil, WrapError(KindEncoding, "ACDC-ENC-001", "attribute block not encodable", err)
	}
	return data, nil
}

func (b *Block) wireMap(digest string) (*codec.Map, error) {
	m := codec.NewMap()
	m.Set(fieldDigest, digest)
	if b.salt != "" {
		m.Set(fieldSalt, b.salt)
	}
	if b.target != "" {
		m.Set(fieldTarget, b.target)
	}
	for _, k := range b.data.Keys() {
		v, _ := b.data.Get(k)
		m.Set(k, v)
	}
	return m, nil
}

// SAID returns the block's self-addressing digest.
func (b *Block) SAID() said.SAID { return b.said }

// Target returns the bound subject identifier, or "" for untargeted
// blocks.
func (b *Block) Target() string { return b.target }

// Salt returns the persisted salt, or "" for public blocks.
func (b *Block) Salt() string { return b.salt }

// Private reports whether the block carries a salt.
func (b *Block) Private() bool { return b.salt != "" }

// Data returns a deep copy of the attribute data. The block itself
// never changes after construction.
func (b *Block) Data() *codec.Map { return b.data.Clone() }

// Encode renders the block's canonical JSON wire form with the real
// digest in place.
func (b *Block) Encode() ([]byte, error) {
	m, err := b.wireMap(b.said.String())
	if err != nil {
		return nil, err
	}
	data, err := codec.EncodeValue(version.JSON, m)
	if err != nil {
		return nil, WrapError(KindEncoding, "ACDC-ENC-001", "attribute block not encodable", err)
	}
	return data, nil
}

// VerifyBinding recomputes the block digest from its content, using the
// algorithm implied by the embedded digest's code, and compares
// byte-for-byte. A mismatch is an authenticity failure.
func (b *Block) VerifyBinding() error {
	derivation, err := b.derivationData(b.said.Code())
	if err != nil {
		return err
	}
	if !b.said.VerifyBinding(derivation) {
		return NewError(KindDigest, RuleDigestMismatch, "attribute block digest mismatch")
	}
	return nil
}

// ParseBlock parses untrusted wire bytes into a Block. Parsing checks
// structure and canonical form only; callers that care about
// authenticity must call VerifyBinding explicitly.
func ParseBlock(data []byte) (*Block, error) {
	v, err := codec.DecodeValue(version.JSON, data)
	if err != nil {
		return nil, WrapError(KindParse, "ACDC-PRS-010", "attribute block is not valid JSON", err)
	}
	m, ok := v.(*codec.Map)
	if !ok {
		return nil, NewError(KindParse, "ACDC-PRS-011", "attribute block must be a JSON object")
	}
	b, err := blockFromWire(m)
	if err != nil {
		return nil, err
	}
	// Reject non-canonical input: re-rendering must reproduce the bytes.
	canonical, err := b.Encode()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(canonical, data) {
		return nil, NewError(KindParse, "ACDC-PRS-012", "attribute block bytes are not canonical")
	}
	return b, nil
}

func blockFromWire(m *codec.Map) (*Block, error) {
	keys := m.Keys()
	if len(keys) == 0 || keys[0] != fieldDigest {
		return nil, NewError(KindParse, "ACDC-PRS-013", "attribute block must lead with its digest field")
	}
	digestStr, ok := stringField(m, fieldDigest)
	if !ok {
		return nil, NewError(KindParse, "ACDC-PRS-013", "digest field must be a string")
	}
	d, err := said.Parse(digestStr)
	if err != nil {
		return nil, WrapError(KindParse, "ACDC-PRS-014", "invalid block digest", err)
	}

	b := &Block{said: d, data: codec.NewMap()}
	rest := keys[1:]
	if len(rest) > 0 && rest[0] == fieldSalt {
		salt, ok := stringField(m, fieldSalt)
		if !ok || salt == "" {
			return nil, NewError(KindParse, "ACDC-PRS-015", "salt field must be a non-empty string")
		}
		b.salt = salt
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == fieldTarget {
		target, ok := stringField(m, fieldTarget)
		if !ok || target == "" {
			return nil, NewError(KindParse, "ACDC-PRS-016", "target field must be a non-empty string")
		}
		b.target = target
		rest = rest[1:]
	}
	for _, k := range rest {
		if k == fieldDigest || k == fieldSalt || k == fieldTarget {
			return nil, NewError(KindParse, "ACDC-PRS-017",
				fmt.Sprintf("reserved field %q out of order", k))
		}
		v, _ := m.Get(k)
		b.data.Set(k, v)
	}
	return b, nil
}

func stringField(m *codec.Map, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
