package state

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/crypto"
	"github.com/rising9719/goevm/log"
	"github.com/rising9719/goevm/types"
)

// Substate is the journaled, snapshot/revert transactional view of
// world state for one transaction (nested call frames take their own
// Snapshot and undo it with RevertToSnapshot). It satisfies vm.StateDB by
// duck typing -- vm never imports this package.
type Substate struct {
	db Database

	accounts map[types.Address]*account
	storage  map[types.Address]map[types.Hash]types.Hash
	transient map[types.Address]map[types.Hash]types.Hash

	accessListAddrs mapset.Set[types.Address]
	accessListSlots map[types.Address]mapset.Set[types.Hash]

	refund uint64
	logs   []*types.Log

	journal []journalEntry

	log *log.Logger
}

// NewSubstate builds an empty Substate backed by db.
func NewSubstate(db Database) *Substate {
	return &Substate{
		db:              db,
		accounts:        make(map[types.Address]*account),
		storage:         make(map[types.Address]map[types.Hash]types.Hash),
		transient:       make(map[types.Address]map[types.Hash]types.Hash),
		accessListAddrs: mapset.NewSet[types.Address](),
		accessListSlots: make(map[types.Address]mapset.Set[types.Hash]),
		log:             log.Default().Module("state"),
	}
}

func (s *Substate) append(e journalEntry) { s.journal = append(s.journal, e) }

// getOrCreate returns the live account record for addr, lazily loading
// its committed fields from Database the first time it's touched.
func (s *Substate) getOrCreate(addr types.Address) *account {
	if a, ok := s.accounts[addr]; ok {
		return a
	}
	a := emptyAccount()
	if info, ok := s.db.Basic(addr); ok {
		a.info = info
		a.exists = true
		if !info.CodeHash.IsZero() && info.CodeHash != types.EmptyCodeHash {
			code, _ := s.db.CodeByHash(info.CodeHash)
			a.code = code
		}
	}
	s.accounts[addr] = a
	return a
}

// CreateAccount marks addr as freshly created, resetting its nonce and
// clearing any pre-existing code while preserving any balance the
// account already holds (the CREATE path transfers value after calling
// this).
func (s *Substate) CreateAccount(addr types.Address) {
	prevExisted := false
	var prevBalance *uint256.Int
	if a, ok := s.accounts[addr]; ok {
		prevExisted = a.exists
		prevBalance = a.info.Balance
	}
	s.append(createAccountChange{addr: addr})
	_ = prevExisted

	a := s.getOrCreate(addr)
	if prevBalance == nil {
		prevBalance = new(uint256.Int)
	}
	a.info = AccountInfo{Balance: prevBalance}
	a.code = nil
	a.exists = true
	a.created = true
}

func (s *Substate) GetBalance(addr types.Address) *uint256.Int {
	a := s.getOrCreate(addr)
	if a.info.Balance == nil {
		return new(uint256.Int)
	}
	return a.info.Balance
}

func (s *Substate) AddBalance(addr types.Address, amount *uint256.Int) {
	if amount.IsZero() {
		s.touch(addr)
		return
	}
	a := s.getOrCreate(addr)
	s.append(balanceChange{addr: addr, prev: a.info.Balance})
	a.info.Balance = new(uint256.Int).Add(a.info.Balance, amount)
	a.exists = true
}

func (s *Substate) SubBalance(addr types.Address, amount *uint256.Int) {
	if amount.IsZero() {
		s.touch(addr)
		return
	}
	a := s.getOrCreate(addr)
	s.append(balanceChange{addr: addr, prev: a.info.Balance})
	a.info.Balance = new(uint256.Int).Sub(a.info.Balance, amount)
}

func (s *Substate) touch(addr types.Address) {
	s.append(touchChange{addr: addr})
	s.getOrCreate(addr)
}

func (s *Substate) GetNonce(addr types.Address) uint64 {
	return s.getOrCreate(addr).info.Nonce
}

func (s *Substate) SetNonce(addr types.Address, nonce uint64) {
	a := s.getOrCreate(addr)
	s.append(nonceChange{addr: addr, prev: a.info.Nonce})
	a.info.Nonce = nonce
	a.exists = true
}

func (s *Substate) GetCodeHash(addr types.Address) types.Hash {
	a := s.getOrCreate(addr)
	if len(a.code) == 0 {
		return types.Hash{}
	}
	return a.info.CodeHash
}

func (s *Substate) GetCode(addr types.Address) []byte {
	return s.getOrCreate(addr).code
}

func (s *Substate) GetCodeSize(addr types.Address) int {
	return len(s.getOrCreate(addr).code)
}

func (s *Substate) SetCode(addr types.Address, code []byte) {
	a := s.getOrCreate(addr)
	s.append(codeChange{addr: addr, prevHash: a.info.CodeHash, prevCode: a.code})
	a.code = code
	a.info.CodeHash = crypto.Keccak256Hash(code)
	a.exists = true
}

func (s *Substate) GetCommittedState(addr types.Address, slot types.Hash) types.Hash {
	v, _ := s.db.Storage(addr, slot)
	return v
}

func (s *Substate) GetState(addr types.Address, slot types.Hash) types.Hash {
	if m, ok := s.storage[addr]; ok {
		if v, ok := m[slot]; ok {
			return v
		}
	}
	return s.GetCommittedState(addr, slot)
}

func (s *Substate) SetState(addr types.Address, slot, value types.Hash) {
	m, ok := s.storage[addr]
	if !ok {
		m = make(map[types.Hash]types.Hash)
		s.storage[addr] = m
	}
	prev, had := m[slot]
	s.append(storageChange{addr: addr, slot: slot, prev: prev, hadNo: !had})
	m[slot] = value
}

func (s *Substate) GetTransientState(addr types.Address, slot types.Hash) types.Hash {
	if m, ok := s.transient[addr]; ok {
		return m[slot]
	}
	return types.Hash{}
}

func (s *Substate) SetTransientState(addr types.Address, slot, value types.Hash) {
	prev := s.GetTransientState(addr, slot)
	s.append(transientStorageChange{addr: addr, slot: slot, prev: prev})
	s.setTransientState(addr, slot, value)
}

func (s *Substate) setTransientState(addr types.Address, slot, value types.Hash) {
	m, ok := s.transient[addr]
	if !ok {
		m = make(map[types.Hash]types.Hash)
		s.transient[addr] = m
	}
	if value.IsZero() {
		delete(m, slot)
		return
	}
	m[slot] = value
}

// SelfDestruct marks addr for unconditional destruction at the end of
// the transaction (pre-Cancun semantics, or Cancun when addr was
// created earlier in this same transaction, via Selfdestruct6780).
func (s *Substate) SelfDestruct(addr types.Address) {
	a := s.getOrCreate(addr)
	if a.destructed {
		return
	}
	s.append(selfDestructChange{addr: addr, prevDestruct: a.destructed, prevBalance: a.info.Balance})
	a.destructed = true
	a.info.Balance = new(uint256.Int)
}

func (s *Substate) HasSelfDestructed(addr types.Address) bool {
	if a, ok := s.accounts[addr]; ok {
		return a.destructed
	}
	return false
}

// Selfdestruct6780 implements EIP-6780: only destroys addr outright if
// it was created earlier in this same transaction; otherwise it is a
// no-op beyond the balance transfer the caller already performed
// (SELFDESTRUCT still zeroes the balance it just gave away).
func (s *Substate) Selfdestruct6780(addr types.Address) {
	a := s.getOrCreate(addr)
	if !a.created {
		return
	}
	s.SelfDestruct(addr)
}

func (s *Substate) Exist(addr types.Address) bool {
	a := s.getOrCreate(addr)
	return a.exists
}

func (s *Substate) Empty(addr types.Address) bool {
	a := s.getOrCreate(addr)
	if !a.exists {
		return true
	}
	return a.info.IsEmpty()
}

func (s *Substate) AddRefund(gas uint64) {
	s.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *Substate) SubRefund(gas uint64) {
	s.append(refundChange{prev: s.refund})
	if gas > s.refund {
		s.refund = 0
		return
	}
	s.refund -= gas
}

func (s *Substate) GetRefund() uint64 { return s.refund }

func (s *Substate) AddressInAccessList(addr types.Address) bool {
	return s.accessListAddrs.Contains(addr)
}

func (s *Substate) SlotInAccessList(addr types.Address, slot types.Hash) (addressOk, slotOk bool) {
	addressOk = s.accessListAddrs.Contains(addr)
	if !addressOk {
		return false, false
	}
	slots, ok := s.accessListSlots[addr]
	if !ok {
		return true, false
	}
	return true, slots.Contains(slot)
}

func (s *Substate) AddAddressToAccessList(addr types.Address) {
	if s.accessListAddrs.Contains(addr) {
		return
	}
	s.append(accessListAddAccountChange{addr: addr})
	s.accessListAddrs.Add(addr)
}

func (s *Substate) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	s.AddAddressToAccessList(addr)
	slots, ok := s.accessListSlots[addr]
	if !ok {
		slots = mapset.NewSet[types.Hash]()
		s.accessListSlots[addr] = slots
	}
	if slots.Contains(slot) {
		return
	}
	s.append(accessListAddSlotChange{addr: addr, slot: slot})
	slots.Add(slot)
}

func (s *Substate) AddLog(l *types.Log) {
	s.logs = append(s.logs, l)
	s.append(logChange{addr: l.Address})
}

// Logs returns every log emitted so far this transaction, in emission
// order.
func (s *Substate) Logs() []*types.Log { return s.logs }

// Snapshot returns a revision id identifying the current journal
// length; RevertToSnapshot(id) undoes every entry recorded since.
func (s *Substate) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot replays the journal backward from its current length
// down to id, undoing each entry via its own revert method -- no full
// state copy is ever taken.
func (s *Substate) RevertToSnapshot(id int) {
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:id]
}

func (s *Substate) GetBlockHash(number uint64) types.Hash {
	return s.db.BlockHash(number)
}

// Finalize returns the set of addresses touched or destructed this
// transaction, for the caller (typically a bundle-state aggregator) to
// fold into a block-level changeset. It does not mutate the Substate.
func (s *Substate) Finalize() (destructed []types.Address, touched []types.Address) {
	for addr, a := range s.accounts {
		if a.destructed {
			destructed = append(destructed, addr)
		} else {
			touched = append(touched, addr)
		}
	}
	return destructed, touched
}

// AccountSnapshot returns the live AccountInfo and code for addr as
// currently held in the substate, for callers building a bundle-state
// changeset after the transaction finishes.
func (s *Substate) AccountSnapshot(addr types.Address) (AccountInfo, []byte, bool) {
	a, ok := s.accounts[addr]
	if !ok {
		return AccountInfo{}, nil, false
	}
	return a.info, a.code, a.exists && !a.destructed
}

// StorageSnapshot returns every storage slot this transaction wrote for
// addr.
func (s *Substate) StorageSnapshot(addr types.Address) map[types.Hash]types.Hash {
	out := make(map[types.Hash]types.Hash, len(s.storage[addr]))
	for k, v := range s.storage[addr] {
		out[k] = v
	}
	return out
}
