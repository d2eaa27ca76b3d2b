package bundle

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/state"
	"github.com/rising9719/goevm/types"
)

// S5: extending a bundle that destroyed X with one that later changes
// X's balance yields DestroyedChanged, the new balance, and treats any
// slot the first bundle wiped as still wiped unless the second bundle
// explicitly overwrites it.
func TestScenarioBundleExtendWithDestroy(t *testing.T) {
	x := types.HexToAddress("0x11")
	slot := types.Hash{1}

	bs1 := New()
	bs1.state[x] = &BundleAccount{
		Status: StatusDestroyed,
		Storage: map[types.Hash]StorageSlot{
			slot: {PreviousOrOriginalValue: types.Hash{}, PresentValue: types.Hash{}},
		},
	}

	bs2 := New()
	newInfo := state.AccountInfo{Balance: uint256.NewInt(5)}
	bs2.state[x] = &BundleAccount{
		Info:    &newInfo,
		Status:  StatusChanged,
		Storage: map[types.Hash]StorageSlot{},
	}

	bs1.Extend(bs2)

	acc := bs1.Account(x)
	if acc == nil {
		t.Fatalf("account %x missing after extend", x)
	}
	if acc.Status != StatusDestroyedChanged {
		t.Fatalf("status after extend = %s, want DestroyedChanged", acc.Status)
	}
	if acc.Info == nil || acc.Info.Balance.Uint64() != 5 {
		t.Fatalf("balance after extend = %v, want 5", acc.Info)
	}
	if got := acc.Storage[slot].PresentValue; got != (types.Hash{}) {
		t.Fatalf("slot not mentioned by bundle2 should stay wiped, got %x", got)
	}
}

// S6: RevertLatest undoes the most recent transition, then the one
// before it; a third call on an empty history is a no-op.
func TestScenarioRevertLatestTwice(t *testing.T) {
	db := state.NewMemoryDatabase()
	addr := types.HexToAddress("0x12")
	db.SeedAccount(addr, 0, uint256.NewInt(10), types.Hash{})

	bs := New()

	sub1 := state.NewSubstate(db)
	sub1.AddBalance(addr, uint256.NewInt(5))
	bs.ApplyTransitions(sub1)

	// A real block processor commits each transaction's result to the
	// Database before the next one starts; simulate that here so the
	// second transaction's AddBalance lands on top of the first's.
	db.SeedAccount(addr, sub1.GetNonce(addr), sub1.GetBalance(addr), types.Hash{})

	sub2 := state.NewSubstate(db)
	sub2.AddBalance(addr, uint256.NewInt(7))
	bs.ApplyTransitions(sub2)

	if got := bs.Account(addr).Info.Balance.Uint64(); got != 22 {
		t.Fatalf("balance after two transitions = %d, want 22", got)
	}
	if bs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bs.Len())
	}

	bs.RevertLatest()
	if got := bs.Account(addr).Info.Balance.Uint64(); got != 15 {
		t.Fatalf("balance after first RevertLatest = %d, want 15", got)
	}
	if bs.Len() != 1 {
		t.Fatalf("Len() after first revert = %d, want 1", bs.Len())
	}

	bs.RevertLatest()
	if bs.Len() != 0 {
		t.Fatalf("Len() after second revert = %d, want 0", bs.Len())
	}

	// A third revert on empty history must not panic or change anything.
	bs.RevertLatest()
	if bs.Len() != 0 {
		t.Fatalf("Len() after no-op revert = %d, want 0", bs.Len())
	}
}

func TestIntoPlainStateSortedOmitsDestroyedAccounts(t *testing.T) {
	db := state.NewMemoryDatabase()
	live := types.HexToAddress("0x13")
	dead := types.HexToAddress("0x14")
	db.SeedAccount(live, 0, uint256.NewInt(1), types.Hash{})
	db.SeedAccount(dead, 0, uint256.NewInt(1), types.Hash{})

	bs := New()
	sub := state.NewSubstate(db)
	sub.AddBalance(live, uint256.NewInt(1))
	sub.SelfDestruct(dead)
	bs.ApplyTransitions(sub)

	out := bs.IntoPlainStateSorted()
	if len(out.Accounts) != 1 {
		t.Fatalf("IntoPlainStateSorted returned %d accounts, want 1 (destroyed account omitted)", len(out.Accounts))
	}
	if out.Accounts[0].Address != live {
		t.Fatalf("surviving account = %x, want %x", out.Accounts[0].Address, live)
	}
}

func TestIntoPlainStateSortedContractsOmitsEmptyCodeHash(t *testing.T) {
	db := state.NewMemoryDatabase()
	plain := types.HexToAddress("0x16")
	contract := types.HexToAddress("0x17")
	db.SeedAccount(plain, 0, uint256.NewInt(1), types.Hash{})
	db.SeedAccount(contract, 1, new(uint256.Int), types.Hash{})

	bs := New()
	sub := state.NewSubstate(db)
	sub.AddBalance(plain, uint256.NewInt(1)) // touched, never gets code: stays at the empty hash
	code := []byte{0x60, 0x00}
	sub.SetCode(contract, code)
	bs.ApplyTransitions(sub)

	codeHash := sub.GetCodeHash(contract)
	if got, ok := bs.Contracts[codeHash]; !ok || string(got) != string(code) {
		t.Fatalf("bundle Contracts[%x] = %x, want %x", codeHash, got, code)
	}

	out := bs.IntoPlainStateSorted()
	if len(out.Contracts) != 1 {
		t.Fatalf("IntoPlainStateSorted returned %d contracts, want 1 (empty-code-hash account omitted)", len(out.Contracts))
	}
	if out.Contracts[0].CodeHash != codeHash {
		t.Fatalf("contract hash = %x, want %x", out.Contracts[0].CodeHash, codeHash)
	}
	if string(out.Contracts[0].Code) != string(code) {
		t.Fatalf("contract code = %x, want %x", out.Contracts[0].Code, code)
	}
}

func TestDetachLowerPartReverts(t *testing.T) {
	db := state.NewMemoryDatabase()
	addr := types.HexToAddress("0x15")
	db.SeedAccount(addr, 0, uint256.NewInt(0), types.Hash{})

	bs := New()
	for i := 0; i < 3; i++ {
		sub := state.NewSubstate(db)
		sub.AddBalance(addr, uint256.NewInt(1))
		bs.ApplyTransitions(sub)
	}

	archived := bs.DetachLowerPartReverts(2)
	if len(archived.Groups) != 2 {
		t.Fatalf("archived groups = %d, want 2", len(archived.Groups))
	}
	if bs.Len() != 1 {
		t.Fatalf("remaining bundle history = %d, want 1", bs.Len())
	}
}
