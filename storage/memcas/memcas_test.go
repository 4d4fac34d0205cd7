package memcas

import (
	"testing"

	"acdc.dev/acdc/storage"
	"acdc.dev/acdc/storage/testkit"
)

func TestMemCASConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		return New()
	})
}
