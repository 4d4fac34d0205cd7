package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"acdc.dev/acdc/acdc"
	"acdc.dev/acdc/codec"
	"acdc.dev/acdc/keys"
	"acdc.dev/acdc/said"
	"acdc.dev/acdc/signed"
	"acdc.dev/acdc/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "attest":
		return cmdAttest(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "said":
		return cmdSAID(args[1:], out, errOut)
	case "inspect":
		return cmdInspect(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "acdc: attestation issuance and verification CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  acdc attest --issuer <id> --schema <said> --seed-hex <64hex> [--role <role>] [--format JSON|CBOR|MGPK] [--target <id>] [--private] [--claim Key=Value ...]")
	fmt.Fprintln(w, "  acdc verify --pub-hex <64hex> [--issuer <id>] <file>")
	fmt.Fprintln(w, "  acdc said <file>")
	fmt.Fprintln(w, "  acdc inspect <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - --role derives a role-specific key from the seed, so one seed yields stable identities")
	fmt.Fprintln(w, "  - attest writes the signed envelope (payload + attachment) to stdout, no trailing newline")
	fmt.Fprintln(w, "  - verify checks the digest binding and the simple signature")
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseSeed(seedHex, role string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid --seed-hex: %v", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid --seed-hex: want %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	if role != "" {
		seed, err = keys.DeriveRoleSeed(seed, role)
		if err != nil {
			return nil, err
		}
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func cmdAttest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("attest", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var issuer string
	var schemaStr string
	var seedHex string
	var role string
	var formatStr string
	var target string
	var private bool
	var claimsKV stringList

	fs.StringVar(&issuer, "issuer", "", "Issuer identifier")
	fs.StringVar(&schemaStr, "schema", "", "Schema digest (SAID text form)")
	fs.StringVar(&seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&role, "role", "", "Optional role; derives a role key from the seed")
	fs.StringVar(&formatStr, "format", "JSON", "Serialization format: JSON, CBOR or MGPK")
	fs.StringVar(&target, "target", "", "Optional target subject identifier")
	fs.BoolVar(&private, "private", false, "Salt the attribute block")
	fs.Var(&claimsKV, "claim", "Claim key/value as Key=Value (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if issuer == "" {
		fmt.Fprintln(errOut, "missing --issuer")
		return 2
	}
	if schemaStr == "" {
		fmt.Fprintln(errOut, "missing --schema")
		return 2
	}
	if seedHex == "" {
		fmt.Fprintln(errOut, "missing --seed-hex")
		return 2
	}
	if len(claimsKV) == 0 {
		fmt.Fprintln(errOut, "missing --claim")
		return 2
	}

	schema, err := said.Parse(schemaStr)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --schema: %v\n", err)
		return 2
	}
	format := version.Format(strings.ToUpper(strings.TrimSpace(formatStr)))
	if !format.Valid() {
		fmt.Fprintln(errOut, "invalid --format (expected JSON, CBOR or MGPK)")
		return 2
	}
	priv, err := parseSeed(seedHex, role)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	data := codec.NewMap()
	for _, it := range claimsKV {
		k, v, ok := strings.Cut(it, "=")
		if !ok {
			fmt.Fprintf(errOut, "invalid --claim: expected Key=Value, got %q\n", it)
			return 2
		}
		k = strings.TrimSpace(k)
		if k == "" {
			fmt.Fprintln(errOut, "invalid --claim: empty key")
			return 2
		}
		if _, exists := data.Get(k); exists {
			fmt.Fprintf(errOut, "invalid --claim: duplicate key %q\n", k)
			return 2
		}
		data.Set(k, v)
	}

	block, err := buildBlock(data, target, private)
	if err != nil {
		fmt.Fprintf(errOut, "block: %v\n", err)
		return 1
	}

	a, err := acdc.NewInFormat(format, issuer, schema, acdc.Inline{Block: block})
	if err != nil {
		fmt.Fprintf(errOut, "attest: %v\n", err)
		return 1
	}

	env, err := signed.SignSimple(a, priv)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	wire, err := env.ToWire()
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}

	fmt.Fprintf(errOut, "SAID: %s\n", a.SAID())
	_, _ = out.Write(wire)
	return 0
}

func buildBlock(data *codec.Map, target string, private bool) (*acdc.Block, error) {
	switch {
	case target != "" && private:
		return acdc.NewTargetedPrivate(data, target, nil)
	case target != "":
		return acdc.NewTargetedPublic(data, target)
	case private:
		return acdc.NewPrivate(data, nil)
	default:
		return acdc.NewPublic(data)
	}
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var pubHex string
	var issuer string
	fs.StringVar(&pubHex, "pub-hex", "", "ed25519 public key as 64 hex chars")
	fs.StringVar(&issuer, "issuer", "", "Expected issuer (defaults to the payload's issuer)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if pubHex == "" {
		fmt.Fprintln(errOut, "missing --pub-hex")
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: acdc verify --pub-hex <64hex> [--issuer <id>] <file>")
		return 2
	}

	pubRaw, err := hex.DecodeString(pubHex)
	if err != nil || len(pubRaw) != ed25519.PublicKeySize {
		fmt.Fprintln(errOut, "invalid --pub-hex")
		return 2
	}

	wire, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}

	env, err := signed.ParseAttestation(wire)
	if err != nil {
		fmt.Fprintf(errOut, "parse: %v\n", err)
		return 1
	}
	a, ok := env.Payload.(*acdc.Attestation)
	if !ok {
		fmt.Fprintln(errOut, "envelope payload is not an attestation")
		return 1
	}
	if issuer != "" && a.Issuer() != issuer {
		fmt.Fprintf(errOut, "issuer mismatch: payload says %q\n", a.Issuer())
		return 1
	}
	if err := a.VerifyBinding(); err != nil {
		fmt.Fprintf(errOut, "digest: %v\n", err)
		return 1
	}

	trust := signed.Trust{PubKeys: map[string]keys.PublicKey{
		a.Issuer(): keys.Ed25519PublicKey(pubRaw),
	}}
	if err := env.Verify(trust); err != nil {
		fmt.Fprintf(errOut, "signature: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdSAID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("said", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: acdc said <file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	d, err := said.Derive(said.DefaultCode, b)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, d)
	return 0
}

func cmdInspect(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: acdc inspect <file>")
		return 2
	}
	wire, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}

	// Accept both a bare attestation and a signed envelope.
	a, perr := acdc.Parse(wire)
	sigKind := "none"
	if perr != nil {
		env, eerr := signed.ParseAttestation(wire)
		if eerr != nil {
			fmt.Fprintf(errOut, "parse: %v\n", eerr)
			return 1
		}
		var ok bool
		a, ok = env.Payload.(*acdc.Attestation)
		if !ok {
			fmt.Fprintln(errOut, "envelope payload is not an attestation")
			return 1
		}
		switch env.Signature.(type) {
		case signed.Simple:
			sigKind = "simple"
		case signed.Transferable:
			sigKind = "transferable"
		case signed.NonTransferable:
			sigKind = "non-transferable"
		}
	}

	h := a.Header()
	fmt.Fprintf(out, "Format:    %s\n", h.Format)
	fmt.Fprintf(out, "Size:      %d\n", h.Size)
	fmt.Fprintf(out, "SAID:      %s\n", a.SAID())
	fmt.Fprintf(out, "Issuer:    %s\n", a.Issuer())
	fmt.Fprintf(out, "Schema:    %s\n", a.Schema())
	fmt.Fprintf(out, "Signature: %s\n", sigKind)
	switch attrs := a.Attributes().(type) {
	case acdc.Inline:
		fmt.Fprintf(out, "Block:     %s (inline", attrs.Block.SAID())
		if attrs.Block.Private() {
			fmt.Fprint(out, ", private")
		}
		if attrs.Block.Target() != "" {
			fmt.Fprintf(out, ", target=%s", attrs.Block.Target())
		}
		fmt.Fprintln(out, ")")
		for _, k := range attrs.Block.Data().Keys() {
			v, _ := attrs.Block.Data().Get(k)
			fmt.Fprintf(out, "  %s: %v\n", k, v)
		}
	case acdc.External:
		fmt.Fprintf(out, "Block:     %s (external)\n", attrs.Digest)
	}

	if err := a.VerifyBinding(); err != nil {
		fmt.Fprintf(out, "Binding:   INVALID (%v)\n", err)
		return 1
	}
	fmt.Fprintln(out, "Binding:   ok")
	return 0
}
