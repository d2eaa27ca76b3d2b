package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

// StateDB is everything the interpreter and EVM driver need from the
// journaled world-state. It is satisfied by *state.Substate; vm depends
// only on this interface so the two packages don't need to import each
// other, matching the spec's "Substate is a collaborator, not a vm
// internal" layering.
type StateDB interface {
	CreateAccount(types.Address)

	GetBalance(types.Address) *uint256.Int
	AddBalance(types.Address, *uint256.Int)
	SubBalance(types.Address, *uint256.Int)

	GetNonce(types.Address) uint64
	SetNonce(types.Address, uint64)

	GetCodeHash(types.Address) types.Hash
	GetCode(types.Address) []byte
	SetCode(types.Address, []byte)
	GetCodeSize(types.Address) int

	GetCommittedState(types.Address, types.Hash) types.Hash
	GetState(types.Address, types.Hash) types.Hash
	SetState(types.Address, types.Hash, types.Hash)

	GetTransientState(types.Address, types.Hash) types.Hash
	SetTransientState(types.Address, types.Hash, types.Hash)

	SelfDestruct(types.Address)
	HasSelfDestructed(types.Address) bool
	Selfdestruct6780(types.Address)

	Exist(types.Address) bool
	Empty(types.Address) bool

	AddRefund(uint64)
	SubRefund(uint64)
	GetRefund() uint64

	AddressInAccessList(types.Address) bool
	SlotInAccessList(types.Address, types.Hash) (addressOk, slotOk bool)
	AddAddressToAccessList(types.Address)
	AddSlotToAccessList(types.Address, types.Hash)

	AddLog(*types.Log)

	Snapshot() int
	RevertToSnapshot(int)

	GetBlockHash(num uint64) types.Hash
}
