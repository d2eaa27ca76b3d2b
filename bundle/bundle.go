package bundle

import (
	"sort"

	"github.com/rising9719/goevm/state"
	"github.com/rising9719/goevm/types"
)

// ArchivedReverts is a block of revert groups detached from the front of
// a BundleState's history by DetachLowerPartReverts -- kept around by a
// caller that wants to discard them later without paying to replay them
// through RevertToSnapshot-style undo.
type ArchivedReverts struct {
	Groups [][]AccountRevert
}

// BundleState is the block-level aggregation of every transaction's
// state transitions: one BundleAccount per touched address, plus an
// ordered list of revert groups (one per ApplyTransitions call) so the
// whole bundle can be unwound transaction-by-transaction without
// re-executing anything.
type BundleState struct {
	state     map[types.Address]*BundleAccount
	Contracts map[types.Hash][]byte
	reverts   [][]AccountRevert
}

// New returns an empty BundleState.
func New() *BundleState {
	return &BundleState{
		state:     make(map[types.Address]*BundleAccount),
		Contracts: make(map[types.Hash][]byte),
	}
}

// Len reports how many transitions (ApplyTransitions calls) have been
// folded into the bundle and not yet detached or reverted.
func (bs *BundleState) Len() int { return len(bs.reverts) }

// Account returns the current aggregated view of addr, or nil if the
// bundle has never seen it.
func (bs *BundleState) Account(addr types.Address) *BundleAccount {
	return bs.state[addr]
}

// ApplyTransitions folds one finished transaction's Substate into the
// bundle: every touched or destructed account's balance/nonce/code and
// storage diffs are merged into the running BundleAccount, the
// transition-table status is advanced, and a revert group capable of
// undoing exactly this call is appended to the bundle's history.
func (bs *BundleState) ApplyTransitions(sub *state.Substate) {
	destructed, touched := sub.Finalize()
	group := make([]AccountRevert, 0, len(destructed)+len(touched))

	apply := func(addr types.Address, destroyedNow bool) {
		info, code, exists := sub.AccountSnapshot(addr)
		storageDiff := sub.StorageSnapshot(addr)

		ba, existed := bs.state[addr]
		prevStatus := StatusLoadedNotExisting
		var revert AccountRevert
		if existed {
			prevStatus = ba.Status
			prevInfoCopy := ba.Info
			revert = AccountRevert{
				Address:        addr,
				Kind:           RevertRevertTo,
				PreviousInfo:   prevInfoCopy,
				PreviousStatus: prevStatus,
				Storage:        make(map[types.Hash]types.Hash, len(storageDiff)),
			}
		} else {
			ba = newBundleAccount()
			bs.state[addr] = ba
			revert = AccountRevert{
				Address:        addr,
				Kind:           RevertDeleteIt,
				PreviousStatus: StatusLoadedNotExisting,
				Storage:        make(map[types.Hash]types.Hash, len(storageDiff)),
			}
		}

		for slot := range storageDiff {
			if prev, ok := ba.Storage[slot]; ok {
				revert.Storage[slot] = prev.PresentValue
			} else {
				revert.Storage[slot] = sub.GetCommittedState(addr, slot)
			}
		}
		revert.WipeStorage = destroyedNow && !prevStatus.WasDestroyed()

		changedNow := len(storageDiff) > 0 || !existed || destroyedNow
		ba.Status = transition(prevStatus, destroyedNow, changedNow)

		if destroyedNow {
			ba.Info = nil
			ba.Code = nil
			ba.CodeHash = types.Hash{}
		} else if exists {
			infoCopy := info
			ba.Info = &infoCopy
			if code != nil {
				ba.Code = code
				ba.CodeHash = info.CodeHash
				if !info.CodeHash.IsZero() && info.CodeHash != types.EmptyCodeHash {
					bs.Contracts[info.CodeHash] = code
				}
			}
		}
		if !existed {
			ba.OriginalInfo = revert.PreviousInfo
		}

		if ba.Status.WasDestroyed() && revert.WipeStorage {
			for slot, v := range ba.Storage {
				v.PreviousOrOriginalValue = types.Hash{}
				ba.Storage[slot] = v
			}
		}
		for slot, newVal := range storageDiff {
			prev, ok := ba.Storage[slot]
			if !ok {
				prev = StorageSlot{PreviousOrOriginalValue: sub.GetCommittedState(addr, slot)}
			}
			prev.PresentValue = newVal
			ba.Storage[slot] = prev
		}

		group = append(group, revert)
	}

	for _, addr := range destructed {
		apply(addr, true)
	}
	for _, addr := range touched {
		apply(addr, false)
	}

	bs.reverts = append(bs.reverts, group)
}

// Extend merges another BundleState's accounts and revert history onto
// the end of bs, as if every transaction in other had been applied to
// bs directly. When an account was destroyed in bs but reappears in
// other, its storage history before the destruction must not leak
// through: any slot other doesn't mention keeps the zero value bs
// already wiped it to, rather than bs's pre-destruction value.
func (bs *BundleState) Extend(other *BundleState) {
	for addr, oba := range other.state {
		existing, ok := bs.state[addr]
		if !ok {
			bs.state[addr] = oba
			continue
		}
		wipeGap := !existing.Status.WasDestroyed() && oba.Status.WasDestroyed()
		if existing.Status.WasDestroyed() && !wipeGap {
			// existing was destroyed; any slot not present in oba's map
			// must read as zero, not as existing's pre-destruction value.
			for slot, v := range existing.Storage {
				if _, ok := oba.Storage[slot]; !ok {
					v.PresentValue = types.Hash{}
					existing.Storage[slot] = v
				}
			}
		}
		for slot, v := range oba.Storage {
			existing.Storage[slot] = v
		}
		existing.Status = extendStatus(existing.Status, oba.Status)
		if oba.Info != nil {
			existing.Info = oba.Info
		} else if oba.Status.WasDestroyed() {
			existing.Info = nil
		}
		if oba.Code != nil {
			existing.Code = oba.Code
			existing.CodeHash = oba.CodeHash
		}
		bs.state[addr] = existing
	}
	for hash, code := range other.Contracts {
		bs.Contracts[hash] = code
	}
	bs.reverts = append(bs.reverts, other.reverts...)
}

// applyRevertGroup undoes one ApplyTransitions call's worth of changes,
// replaying its AccountRevert entries in reverse order.
func (bs *BundleState) applyRevertGroup(group []AccountRevert) {
	for i := len(group) - 1; i >= 0; i-- {
		r := group[i]
		ba, ok := bs.state[r.Address]
		if !ok {
			continue
		}
		switch r.Kind {
		case RevertDeleteIt:
			delete(bs.state, r.Address)
			continue
		case RevertRevertTo:
			ba.Info = r.PreviousInfo
			ba.Status = r.PreviousStatus
		}
		for slot, v := range r.Storage {
			prev, ok := ba.Storage[slot]
			if !ok {
				prev = StorageSlot{PreviousOrOriginalValue: v}
			}
			prev.PresentValue = v
			ba.Storage[slot] = prev
		}
	}
}

// RevertLatest undoes the most recently applied transition, restoring
// every account it touched to its prior value and dropping the revert
// group from history. It is a no-op if there is nothing to revert.
func (bs *BundleState) RevertLatest() {
	if len(bs.reverts) == 0 {
		return
	}
	n := len(bs.reverts) - 1
	group := bs.reverts[n]
	bs.reverts = bs.reverts[:n]
	bs.applyRevertGroup(group)
}

// Revert undoes the most recent n transitions in order, most-recent
// first. n is clamped to the number of transitions actually present.
func (bs *BundleState) Revert(n int) {
	if n > len(bs.reverts) {
		n = len(bs.reverts)
	}
	for i := 0; i < n; i++ {
		bs.RevertLatest()
	}
}

// DetachLowerPartReverts splits off the oldest n revert groups into an
// ArchivedReverts value, leaving bs with only the remaining (more
// recent) history. Use this to bound memory on a long-lived bundle
// whose early transactions will never be reverted.
func (bs *BundleState) DetachLowerPartReverts(n int) ArchivedReverts {
	if n > len(bs.reverts) {
		n = len(bs.reverts)
	}
	archived := ArchivedReverts{Groups: bs.reverts[:n]}
	bs.reverts = bs.reverts[n:]
	return archived
}

// TakeReverts returns every revert group recorded so far, each group's
// entries sorted by address, and clears the bundle's history, leaving
// current account state untouched.
func (bs *BundleState) TakeReverts() [][]AccountRevert {
	out := bs.reverts
	bs.reverts = nil
	for _, g := range out {
		sort.Slice(g, func(i, j int) bool { return lessAddr(g[i].Address, g[j].Address) })
	}
	return out
}

// PlainStateAccount is one account's final, flattened view as produced
// by IntoPlainStateSorted: destroyed accounts are omitted entirely.
type PlainStateAccount struct {
	Address types.Address
	Info    state.AccountInfo
	Code    []byte
	Storage []PlainStateSlot
}

// PlainStateSlot is one non-zero storage slot in a PlainStateAccount's
// final view.
type PlainStateSlot struct {
	Slot  types.Hash
	Value types.Hash
}

// PlainStateContract is one deployed contract's bytecode, keyed by its
// hash, as produced by IntoPlainStateSorted's contracts changeset.
type PlainStateContract struct {
	CodeHash types.Hash
	Code     []byte
}

// PlainState is the final, deterministic changeset IntoPlainStateSorted
// produces: every live account (sorted by address, storage sorted per
// account by slot) plus every distinct contract deployed during the
// bundle's lifetime (sorted by hash, with the canonical empty-code hash
// omitted since it denotes "no code" rather than a deployed contract).
type PlainState struct {
	Accounts  []PlainStateAccount
	Contracts []PlainStateContract
}

// IntoPlainStateSorted flattens the bundle into its final changeset, the
// deterministic form a caller persists back to its Database.
func (bs *BundleState) IntoPlainStateSorted() PlainState {
	accounts := make([]PlainStateAccount, 0, len(bs.state))
	for addr, ba := range bs.state {
		if ba.Status.WasDestroyed() && ba.Info == nil {
			continue
		}
		if ba.Info == nil {
			continue
		}
		acc := PlainStateAccount{Address: addr, Info: *ba.Info, Code: ba.Code}
		for slot, v := range ba.Storage {
			if v.PresentValue.IsZero() {
				continue
			}
			acc.Storage = append(acc.Storage, PlainStateSlot{Slot: slot, Value: v.PresentValue})
		}
		sort.Slice(acc.Storage, func(i, j int) bool {
			return lessHash(acc.Storage[i].Slot, acc.Storage[j].Slot)
		})
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool { return lessAddr(accounts[i].Address, accounts[j].Address) })

	contracts := make([]PlainStateContract, 0, len(bs.Contracts))
	for hash, code := range bs.Contracts {
		if hash == types.EmptyCodeHash {
			continue
		}
		contracts = append(contracts, PlainStateContract{CodeHash: hash, Code: code})
	}
	sort.Slice(contracts, func(i, j int) bool { return lessHash(contracts[i].CodeHash, contracts[j].CodeHash) })

	return PlainState{Accounts: accounts, Contracts: contracts}
}

func lessAddr(a, b types.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func lessHash(a, b types.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
