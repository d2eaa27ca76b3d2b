// Package bundle aggregates the per-transaction state transitions a
// block produces into a single block-level changeset: the BundleState.
// It is grounded on the same "record changes, diff old/new, keep a
// revert log" shape the teacher's bal package (block access lists) uses
// for its own per-transaction change tracking, generalized here to the
// account-transition-table semantics a block-level state diff needs
// (new/changed/destroyed accounts, reverse reverts, detach/take).
package bundle

import (
	"github.com/rising9719/goevm/state"
	"github.com/rising9719/goevm/types"
)

// AccountStatus tags how a BundleAccount's current value relates to
// what was in the Database before the block started, driving the
// transition table Extend/Revert consult.
type AccountStatus uint8

const (
	// StatusLoadedNotExisting means the account was read but never
	// existed, before or after.
	StatusLoadedNotExisting AccountStatus = iota
	// StatusLoaded means the account existed and was read but not
	// changed.
	StatusLoaded
	// StatusChanged means the account existed before the block and was
	// modified (balance/nonce/code/storage) without being destroyed.
	StatusChanged
	// StatusInMemoryChange means the account did not exist before the
	// block (or was destroyed earlier in it) and now holds a value
	// purely from in-block execution -- i.e. it was created this block.
	StatusInMemoryChange
	// StatusDestroyed means the account existed before the block and
	// was selfdestructed, with no later re-creation in the block.
	StatusDestroyed
	// StatusDestroyedChanged means the account was destroyed earlier in
	// the block and then re-created/modified afterward.
	StatusDestroyedChanged
	// StatusDestroyedAgain means the account was destroyed, recreated,
	// and destroyed again within the block.
	StatusDestroyedAgain
)

func (s AccountStatus) String() string {
	switch s {
	case StatusLoadedNotExisting:
		return "LoadedNotExisting"
	case StatusLoaded:
		return "Loaded"
	case StatusChanged:
		return "Changed"
	case StatusInMemoryChange:
		return "InMemoryChange"
	case StatusDestroyed:
		return "Destroyed"
	case StatusDestroyedChanged:
		return "DestroyedChanged"
	case StatusDestroyedAgain:
		return "DestroyedAgain"
	default:
		return "Unknown"
	}
}

// WasDestroyed reports whether this status's prior life ended in a
// selfdestruct, which matters for whether a later transition's storage
// diff should be taken against zero (wiped) or against the old value.
func (s AccountStatus) WasDestroyed() bool {
	switch s {
	case StatusDestroyed, StatusDestroyedChanged, StatusDestroyedAgain:
		return true
	default:
		return false
	}
}

// transition computes the new status when an account with status
// `prev` (its state before this transaction) receives a transaction whose
// outcome is `destroyedNow` (selfdestructed this tx) and `changedNow`
// (modified but survives). Mirrors the canonical bundle-state
// transition table: once an account has been destroyed, any further
// activity in the same block is tagged "destroyed*" so storage history
// before the destruction is never silently carried forward.
func transition(prev AccountStatus, destroyedNow, changedNow bool) AccountStatus {
	switch {
	case destroyedNow && prev.WasDestroyed():
		return StatusDestroyedAgain
	case destroyedNow:
		return StatusDestroyed
	case prev.WasDestroyed() && changedNow:
		return StatusDestroyedChanged
	case prev == StatusLoadedNotExisting && changedNow:
		return StatusInMemoryChange
	case changedNow:
		return StatusChanged
	default:
		return StatusLoaded
	}
}

// extendStatus computes the status an account ends up with when a
// later bundle's status for it (next) is merged onto an earlier
// bundle's status (prev) via Extend. Once an account has been
// destroyed, any later activity keeps it tagged "destroyed*" so a
// caller can't mistake it for having lived continuously since before
// the destruction.
func extendStatus(prev, next AccountStatus) AccountStatus {
	if prev.WasDestroyed() {
		if next.WasDestroyed() {
			return StatusDestroyedAgain
		}
		return StatusDestroyedChanged
	}
	return next
}

// StorageSlot is one slot's value as tracked by a BundleAccount: the
// value as of the start of the block (or the start of the account's
// current post-destruction life) and its present value.
type StorageSlot struct {
	PreviousOrOriginalValue types.Hash
	PresentValue            types.Hash
}

// IsChanged reports whether the slot's present value differs from its
// recorded original.
func (s StorageSlot) IsChanged() bool {
	return s.PreviousOrOriginalValue != s.PresentValue
}

// BundleAccount is the block-level aggregated view of one account:
// its current info (nil if destroyed and not recreated), the info it
// had before the block (nil if it did not exist), its storage slot
// diffs, and the transition-table status that says how to interpret
// all of that. Code is carried here for convenience; the bundle's
// canonical, hash-deduplicated contract bytecode lives in
// BundleState.Contracts.
type BundleAccount struct {
	Info         *state.AccountInfo
	OriginalInfo *state.AccountInfo
	Code         []byte
	CodeHash     types.Hash
	Storage      map[types.Hash]StorageSlot
	Status       AccountStatus
}

func newBundleAccount() *BundleAccount {
	return &BundleAccount{Storage: make(map[types.Hash]StorageSlot)}
}

// AccountRevert is the reverse-delta for one account produced by
// ApplyTransitions: applying it undoes exactly the change that
// transition introduced, the same reverse-journal idea state.Substate
// uses at the single-transaction level, one level up at block scope.
type AccountRevert struct {
	Address        types.Address
	Kind           RevertKind
	PreviousInfo   *state.AccountInfo
	PreviousStatus AccountStatus
	Storage        map[types.Hash]types.Hash // slot -> value to restore
	WipeStorage    bool                      // true: this transition destroyed an account not already destroyed; applyRevertGroup does not read it
}

// RevertKind classifies what an AccountRevert does to account-level
// (non-storage) state.
type RevertKind uint8

const (
	// RevertDoNothing means the account's info is unaffected; only
	// Storage entries (if any) need restoring.
	RevertDoNothing RevertKind = iota
	// RevertDeleteIt means the account did not exist before this
	// transition and should be removed entirely on revert.
	RevertDeleteIt
	// RevertRevertTo means the account existed with PreviousInfo before
	// this transition and should be restored to it.
	RevertRevertTo
)
