package acdc

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error
// strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may
// evolve. Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindEncoding: a value is not representable in the target
	// serialization format. Fatal to the construction, never retried.
	KindEncoding Kind = "Encoding"
	// KindHeader: wire input fails the version header grammar.
	KindHeader Kind = "Header"
	// KindParse: wire input fails structural or canonical rules.
	KindParse Kind = "Parse"
	// KindDigest: a recomputed digest disagrees with the claimed one.
	// An authenticity failure, never silently corrected.
	KindDigest Kind = "Digest"
	// KindSignature: signature wire material fails structural rules.
	KindSignature Kind = "Signature"
	// KindKeyState: trust material is unavailable (unknown issuer key,
	// unknown key event). The caller decides whether to retry after
	// fetching more key-event history.
	KindKeyState Kind = "KeyState"
	// KindVerify: a cryptographic check failed. Terminal rejection.
	KindVerify Kind = "Verify"
	KindInternal Kind = "Internal"
)

// Stable rule identifiers that cross package boundaries.
const (
	RuleDigestMismatch     = "ACDC-DIG-001"
	RuleMalformedSignature = "ACDC-SIG-001"
	RulePubKeyNotFound     = "ACDC-KEY-001"
	RuleMissingEvent       = "ACDC-KEY-002"
	RuleSignatureInvalid   = "ACDC-VFY-001"
	RuleFaultySignature    = "ACDC-VFY-002"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., ACDC-ENC-001, ACDC-DIG-001) that
// names the violated invariant or validation rule.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError constructs a structured error.
func NewError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// WrapError constructs a structured error with a cause.
func WrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if
// unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
