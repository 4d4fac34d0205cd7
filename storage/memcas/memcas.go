// Package memcas is an in-process CAS backend, used for tests and as a
// volatile backend for the storage daemon.
package memcas

import (
	"sync"

	"github.com/ipfs/go-cid"

	"acdc.dev/acdc/cidutil"
	"acdc.dev/acdc/storage"
)

// CAS is an in-memory content-addressable store.
type CAS struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New constructs an empty in-memory CAS.
func New() *CAS {
	return &CAS{objects: make(map[string][]byte)}
}

func (c *CAS) Put(bytes []byte) (cid.Cid, error) {
	id, err := cidutil.CIDv1RawSHA256CID(bytes)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[id.String()]; !ok {
		c.objects[id.String()] = append([]byte(nil), bytes...)
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.objects[id.String()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[id.String()]
	return ok
}
