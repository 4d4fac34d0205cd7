// Package kel defines the key-event-log interface consulted when
// verifying transferable signatures, plus an in-memory store for tests
// and tools. An identifier's signing keys change over time through key
// events; a transferable signature names the event that was current
// when it was made, and the verifier resolves the key set valid at
// that point.
package kel

import (
	"errors"
	"fmt"
	"sync"

	"acdc.dev/acdc/cesr"
	"acdc.dev/acdc/keys"
	"acdc.dev/acdc/said"
)

// ErrMissingEvent reports that the store has no key event for the
// requested (issuer, sequence number, prior event digest) coordinate.
// The caller decides whether to retry after fetching more key-event
// history; the verifier treats it as "cannot verify yet", not as a
// forgery.
var ErrMissingEvent = errors.New("kel: key event not found")

// KeyState is the key material an identifier controlled at one point
// in its key-event history.
type KeyState struct {
	Keys      []keys.PublicKey
	Threshold int
}

// Store resolves an issuer's key state at a point in its history.
//
// Implementations are read-only from the verifier's point of view and
// must be safe for concurrent lookups. Consistency of the underlying
// log is the owner's concern; the verifier assumes each call sees a
// stable snapshot.
type Store interface {
	// GetKeysAt returns the key state established by the issuer's key
	// event with the given sequence number and digest, or
	// ErrMissingEvent if that event is unknown.
	GetKeysAt(issuer string, sn uint64, event said.SAID) (KeyState, error)
}

// Verify checks indexed signatures over message against the key state.
// Every supplied signature must verify under the key at its index, no
// index may repeat, and at least Threshold distinct keys must have
// signed. A single bad signature fails the whole set even when enough
// good ones remain; a faulty cosigner is a fault, not noise.
func (ks KeyState) Verify(message []byte, sigs []cesr.IndexedSignature) error {
	if ks.Threshold <= 0 {
		return fmt.Errorf("kel: threshold %d must be positive", ks.Threshold)
	}
	if len(sigs) < ks.Threshold {
		return fmt.Errorf("kel: %d signatures, threshold is %d", len(sigs), ks.Threshold)
	}

	seen := make(map[int]bool, len(sigs))
	for _, sig := range sigs {
		if sig.Index < 0 || sig.Index >= len(ks.Keys) {
			return fmt.Errorf("kel: signature index %d outside key set of %d", sig.Index, len(ks.Keys))
		}
		if seen[sig.Index] {
			return fmt.Errorf("kel: duplicate signature index %d", sig.Index)
		}
		seen[sig.Index] = true
		pk := ks.Keys[sig.Index]
		if !pk.Verify(message, keys.Signature{Alg: keys.Ed25519, Raw: sig.Raw}) {
			return fmt.Errorf("kel: signature at index %d does not verify", sig.Index)
		}
	}
	return nil
}

type eventCoord struct {
	issuer string
	sn     uint64
	event  string
}

// MemoryStore is an in-process Store keyed by exact event coordinates.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[eventCoord]KeyState
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[eventCoord]KeyState)}
}

// AddEvent records the key state established by a key event.
func (s *MemoryStore) AddEvent(issuer string, sn uint64, event said.SAID, state KeyState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ks := KeyState{
		Keys:      append([]keys.PublicKey(nil), state.Keys...),
		Threshold: state.Threshold,
	}
	s.events[eventCoord{issuer: issuer, sn: sn, event: event.String()}] = ks
}

// GetKeysAt implements Store.
func (s *MemoryStore) GetKeysAt(issuer string, sn uint64, event said.SAID) (KeyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ks, ok := s.events[eventCoord{issuer: issuer, sn: sn, event: event.String()}]
	if !ok {
		return KeyState{}, fmt.Errorf("%w: %s at sn %d", ErrMissingEvent, issuer, sn)
	}
	return ks, nil
}
