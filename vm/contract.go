package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/crypto"
	"github.com/rising9719/goevm/types"
)

// Contract is the executable context for one call/create frame: its own
// code plus the immutable parameters of the call that created it. A new
// Contract is built for every CALL/CALLCODE/DELEGATECALL/STATICCALL/
// CREATE/CREATE2, and carries its own analysis rather than sharing one
// with its caller.
type Contract struct {
	// CallerAddress is the account that invoked this frame (msg.sender
	// from this frame's point of view).
	CallerAddress types.Address
	// Address is the account this code executes as (affects SLOAD/
	// SSTORE/SELFBALANCE/ADDRESS); for DELEGATECALL it differs from
	// CodeAddr.
	Address types.Address
	// CodeAddr is the account whose code is actually running; equal to
	// Address except under DELEGATECALL/CALLCODE.
	CodeAddr types.Address

	Code     []byte
	CodeHash types.Hash
	Input    []byte

	value *uint256.Int
	gas   uint64

	analysis *codeAnalysis
}

// NewContract builds a Contract for executing code as account addr on
// behalf of caller, with the given call value, input, and gas budget.
func NewContract(caller, addr types.Address, value *uint256.Int, gas uint64, input []byte) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		CodeAddr:      addr,
		value:         value,
		gas:           gas,
		Input:         input,
	}
}

// SetCallCode attaches code (identified by codeHash) to the contract and
// records codeAddr as the account whose code this is, for the
// DELEGATECALL/CALLCODE case where it differs from Address.
func (c *Contract) SetCallCode(codeAddr types.Address, codeHash types.Hash, code []byte) {
	c.Code = code
	c.CodeHash = codeHash
	c.CodeAddr = codeAddr
}

// Value returns the wei value attached to this call.
func (c *Contract) Value() *uint256.Int { return c.value }

// Gas returns the gas remaining in this frame.
func (c *Contract) Gas() uint64 { return c.gas }

// UseGas deducts amount from the frame's remaining gas, returning false
// (and leaving gas unchanged) if amount exceeds what remains.
func (c *Contract) UseGas(amount uint64) bool {
	if c.gas < amount {
		return false
	}
	c.gas -= amount
	return true
}

// RefundGas adds amount back to the frame's remaining gas, used when
// returning unused gas to a caller after a sub-call.
func (c *Contract) RefundGas(amount uint64) { c.gas += amount }

// ensureAnalysis lazily computes (or fetches from cache) the contract's
// JUMPDEST bitmap the first time it is needed, keyed off CodeHash. Code
// with a zero CodeHash (e.g. the init-code frame of a CREATE, which has
// no stored hash yet) is hashed here and cached under its keccak256.
func (c *Contract) ensureAnalysis() *codeAnalysis {
	if c.analysis != nil {
		return c.analysis
	}
	if c.CodeHash.IsZero() {
		h := crypto.Keccak256Hash(c.Code)
		c.analysis = analyze(h, c.Code)
		return c.analysis
	}
	c.analysis = analyze(c.CodeHash, c.Code)
	return c.analysis
}

// validJumpdest reports whether dest is a valid JUMP/JUMPI target in
// this contract's code.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(c.Code)) {
		return false
	}
	return c.ensureAnalysis().isJumpdest(c.Code, udest)
}

// CodeAt returns a copy of this contract's code; primarily for
// EXTCODECOPY-style callers outside the interpreter's hot path.
func (c *Contract) CodeAt() []byte {
	out := make([]byte, len(c.Code))
	copy(out, c.Code)
	return out
}
