// Package precompile provides the address-indexed lookup table of
// "precompiled contracts" -- pure functions the EVM driver invokes in
// place of running code when a CALL targets one of their reserved
// addresses (0x01-0x0a and friends). Per this engine's scope, only the
// two precompiles with trivial pure-Go implementations (IDENTITY,
// SHA256) are functionally complete; the rest are registered as named
// stubs so callers get a recognizable error rather than "no such
// contract" when probing unimplemented cryptography.
package precompile

import (
	"crypto/sha256"
	"errors"

	"github.com/rising9719/goevm/params"
	"github.com/rising9719/goevm/types"
)

// ErrNotImplemented is returned by a precompile stub whose real
// cryptography (BN254 pairing, BLS12-381, KZG, RIPEMD-160, modexp) is
// out of scope for this engine.
var ErrNotImplemented = errors.New("precompile: not implemented")

// Precompile is a pure function of input to (output, error), priced by
// RequiredGas; it never touches StateDB or the journal.
type Precompile interface {
	// RequiredGas returns the gas this call must pay, independent of
	// suppliedGas; the caller charges it before invoking Run.
	RequiredGas(input []byte) uint64
	// Run executes the precompile against input.
	Run(input []byte) ([]byte, error)
}

// Registry maps reserved addresses to their Precompile for one
// hardfork's active set.
type Registry map[types.Address]Precompile

var (
	addrEcrecover         = types.BytesToAddress([]byte{0x01})
	addrIdentity          = types.BytesToAddress([]byte{0x04})
	addrSha256            = types.BytesToAddress([]byte{0x02})
	addrRipemd160         = types.BytesToAddress([]byte{0x03})
	addrModExp            = types.BytesToAddress([]byte{0x05})
	addrBn256Add          = types.BytesToAddress([]byte{0x06})
	addrBn256ScalarMul    = types.BytesToAddress([]byte{0x07})
	addrBn256Pairing      = types.BytesToAddress([]byte{0x08})
	addrBlake2F           = types.BytesToAddress([]byte{0x09})
	addrPointEvaluation   = types.BytesToAddress([]byte{0x0a}) // EIP-4844, Cancun
)

// ActiveSet returns the Registry for the given hardfork, per the
// activation schedule: IDENTITY/SHA256/RIPEMD160/ECRECOVER from
// Frontier, MODEXP/BN256 from Byzantium, BLAKE2F from Istanbul, and
// the KZG point evaluation precompile from Cancun.
func ActiveSet(rules params.ForkRules) Registry {
	r := Registry{
		addrIdentity:  identity{},
		addrSha256:    sha256Hash{},
		addrRipemd160: stub{"RIPEMD160"},
		addrEcrecover: stub{"ECRECOVER"},
	}
	if rules.IsByzantium {
		r[addrModExp] = stub{"MODEXP"}
		r[addrBn256Add] = stub{"BN256ADD"}
		r[addrBn256ScalarMul] = stub{"BN256SCALARMUL"}
		r[addrBn256Pairing] = stub{"BN256PAIRING"}
	}
	if rules.IsIstanbul {
		r[addrBlake2F] = stub{"BLAKE2F"}
	}
	if rules.IsCancun {
		r[addrPointEvaluation] = stub{"KZGPOINTEVALUATION"}
	}
	return r
}

// identity (0x04) returns its input unchanged; gas is 15 + 3 per word,
// per the canonical schedule.
type identity struct{}

func (identity) RequiredGas(input []byte) uint64 {
	return 15 + 3*uint64((len(input)+31)/32)
}

func (identity) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// sha256Hash (0x02) is the only real hash precompile this engine
// implements with genuine cryptography, via the standard library.
type sha256Hash struct{}

func (sha256Hash) RequiredGas(input []byte) uint64 {
	return 60 + 12*uint64((len(input)+31)/32)
}

func (sha256Hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// stub represents a precompile whose real cryptography this engine
// does not implement (non-goal); it stays registered so callers that
// only probe "does this address exist" get a consistent answer, its
// RequiredGas is 0, and Run always fails with ErrNotImplemented.
type stub struct{ name string }

func (s stub) RequiredGas(input []byte) uint64 { return 0 }

func (s stub) Run(input []byte) ([]byte, error) {
	return nil, ErrNotImplemented
}
