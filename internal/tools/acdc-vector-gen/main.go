// acdc-vector-gen emits a deterministic signed attestation for use as a
// conformance vector: fixed seed, fixed claims, fixed schema seed.
package main

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"acdc.dev/acdc/acdc"
	"acdc.dev/acdc/codec"
	"acdc.dev/acdc/keys"
	"acdc.dev/acdc/said"
	"acdc.dev/acdc/signed"
)

func mustKeypair(seedByte byte) (ed25519.PublicKey, ed25519.PrivateKey) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), priv
}

func main() {
	pub, priv := mustKeypair(0xA1)

	schema, err := said.Derive(said.DefaultCode, []byte("schema-seed"))
	if err != nil {
		panic(err)
	}
	issuer, err := keys.IssuerPrefix(pub, false)
	if err != nil {
		panic(err)
	}

	data := codec.NewMap()
	data.Set("greetings", "Hello")
	block, err := acdc.NewPublic(data)
	if err != nil {
		panic(err)
	}
	a, err := acdc.New(issuer, schema, acdc.Inline{Block: block})
	if err != nil {
		panic(err)
	}

	env, err := signed.SignSimple(a, priv)
	if err != nil {
		panic(err)
	}
	wire, err := env.ToWire()
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Issuer: %s\n", issuer)
	fmt.Fprintf(os.Stderr, "SAID:   %s\n", a.SAID())
	fmt.Fprintf(os.Stderr, "Size:   %d\n", a.Header().Size)
	_, _ = os.Stdout.Write(wire)
}
