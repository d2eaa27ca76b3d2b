package state

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

func TestRevertToSnapshotUndoesBalanceAndStorage(t *testing.T) {
	db := NewMemoryDatabase()
	addr := types.HexToAddress("0x1")
	db.SeedAccount(addr, 0, uint256.NewInt(100), types.Hash{})

	sub := NewSubstate(db)
	snap := sub.Snapshot()

	sub.AddBalance(addr, uint256.NewInt(50))
	sub.SetState(addr, types.Hash{1}, types.Hash{2})

	if got := sub.GetBalance(addr).Uint64(); got != 150 {
		t.Fatalf("balance after mutation = %d, want 150", got)
	}

	sub.RevertToSnapshot(snap)

	if got := sub.GetBalance(addr).Uint64(); got != 100 {
		t.Fatalf("balance after revert = %d, want 100", got)
	}
	if got := sub.GetState(addr, types.Hash{1}); got != (types.Hash{}) {
		t.Fatalf("storage after revert = %x, want zero", got)
	}
}

func TestRevertToSnapshotUndoesAccountCreation(t *testing.T) {
	db := NewMemoryDatabase()
	addr := types.HexToAddress("0x2")
	sub := NewSubstate(db)

	snap := sub.Snapshot()
	sub.CreateAccount(addr)
	sub.SetNonce(addr, 1)

	if !sub.Exist(addr) {
		t.Fatalf("account should exist after CreateAccount")
	}

	sub.RevertToSnapshot(snap)

	if sub.Exist(addr) {
		t.Fatalf("account should not exist after reverting its creation")
	}
}

func TestNestedSnapshotsRevertIndependently(t *testing.T) {
	db := NewMemoryDatabase()
	addr := types.HexToAddress("0x3")
	db.SeedAccount(addr, 0, uint256.NewInt(0), types.Hash{})
	sub := NewSubstate(db)

	outer := sub.Snapshot()
	sub.AddBalance(addr, uint256.NewInt(1))

	inner := sub.Snapshot()
	sub.AddBalance(addr, uint256.NewInt(1))
	sub.RevertToSnapshot(inner)

	if got := sub.GetBalance(addr).Uint64(); got != 1 {
		t.Fatalf("balance after inner revert = %d, want 1", got)
	}

	sub.RevertToSnapshot(outer)
	if got := sub.GetBalance(addr).Uint64(); got != 0 {
		t.Fatalf("balance after outer revert = %d, want 0", got)
	}
}

func TestSelfdestruct6780OnlyDestroysSameTxCreation(t *testing.T) {
	db := NewMemoryDatabase()
	existing := types.HexToAddress("0x4")
	db.SeedAccount(existing, 0, uint256.NewInt(5), types.Hash{})
	sub := NewSubstate(db)

	sub.Selfdestruct6780(existing)
	if sub.HasSelfDestructed(existing) {
		t.Fatalf("pre-existing account should survive Selfdestruct6780")
	}

	created := types.HexToAddress("0x5")
	sub.CreateAccount(created)
	sub.Selfdestruct6780(created)
	if !sub.HasSelfDestructed(created) {
		t.Fatalf("same-tx-created account should be destroyed by Selfdestruct6780")
	}
}
