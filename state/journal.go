package state

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

// journalEntry is one reverse-delta: enough information to undo a
// single state mutation without keeping a full prior snapshot. This is
// the same trade as a database transaction log -- O(mutations) memory
// instead of O(state size) per checkpoint.
type journalEntry interface {
	revert(s *Substate)
	address() types.Address
}

type (
	createAccountChange struct {
		addr types.Address
	}

	balanceChange struct {
		addr types.Address
		prev *uint256.Int
	}

	nonceChange struct {
		addr types.Address
		prev uint64
	}

	codeChange struct {
		addr     types.Address
		prevHash types.Hash
		prevCode []byte
	}

	storageChange struct {
		addr  types.Address
		slot  types.Hash
		prev  types.Hash
		hadNo bool
	}

	transientStorageChange struct {
		addr types.Address
		slot types.Hash
		prev types.Hash
	}

	refundChange struct {
		prev uint64
	}

	accessListAddAccountChange struct {
		addr types.Address
	}

	accessListAddSlotChange struct {
		addr types.Address
		slot types.Hash
	}

	selfDestructChange struct {
		addr        types.Address
		prevDestruct bool
		prevBalance *uint256.Int
	}

	touchChange struct {
		addr types.Address
	}

	logChange struct {
		addr types.Address
	}
)

func (c createAccountChange) address() types.Address { return c.addr }
func (c createAccountChange) revert(s *Substate) {
	delete(s.accounts, c.addr)
}

func (c balanceChange) address() types.Address { return c.addr }
func (c balanceChange) revert(s *Substate) {
	s.getOrCreate(c.addr).info.Balance = c.prev
}

func (c nonceChange) address() types.Address { return c.addr }
func (c nonceChange) revert(s *Substate) {
	s.getOrCreate(c.addr).info.Nonce = c.prev
}

func (c codeChange) address() types.Address { return c.addr }
func (c codeChange) revert(s *Substate) {
	a := s.getOrCreate(c.addr)
	a.info.CodeHash = c.prevHash
	a.code = c.prevCode
}

func (c storageChange) address() types.Address { return c.addr }
func (c storageChange) revert(s *Substate) {
	m, ok := s.storage[c.addr]
	if !ok {
		return
	}
	if c.hadNo {
		delete(m, c.slot)
	} else {
		m[c.slot] = c.prev
	}
}

func (c transientStorageChange) address() types.Address { return c.addr }
func (c transientStorageChange) revert(s *Substate) {
	s.setTransientState(c.addr, c.slot, c.prev)
}

func (c refundChange) address() types.Address { return types.Address{} }
func (c refundChange) revert(s *Substate) {
	s.refund = c.prev
}

func (c accessListAddAccountChange) address() types.Address { return c.addr }
func (c accessListAddAccountChange) revert(s *Substate) {
	s.accessListAddrs.Remove(c.addr)
}

func (c accessListAddSlotChange) address() types.Address { return c.addr }
func (c accessListAddSlotChange) revert(s *Substate) {
	if slots, ok := s.accessListSlots[c.addr]; ok {
		slots.Remove(c.slot)
	}
}

func (c selfDestructChange) address() types.Address { return c.addr }
func (c selfDestructChange) revert(s *Substate) {
	a := s.getOrCreate(c.addr)
	a.destructed = c.prevDestruct
	a.info.Balance = c.prevBalance
}

func (c touchChange) address() types.Address { return c.addr }
func (c touchChange) revert(s *Substate) {}

func (c logChange) address() types.Address { return c.addr }
func (c logChange) revert(s *Substate) {
	s.logs = s.logs[:len(s.logs)-1]
}
