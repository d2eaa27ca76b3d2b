package vm

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/params"
	"github.com/rising9719/goevm/state"
	"github.com/rising9719/goevm/types"
)

func TestGasSLoadColdThenWarm(t *testing.T) {
	db := state.NewMemoryDatabase()
	addr := types.HexToAddress("0x1")
	db.SeedAccount(addr, 0, new(uint256.Int), types.Hash{})
	sub := state.NewSubstate(db)

	rules := params.Rules(params.Cancun)
	tbl := newJumpTable(rules)
	evm := &EVM{StateDB: sub, Rules: rules, jumpTable: &tbl}

	contract := NewContract(addr, addr, new(uint256.Int), 100000, nil)
	stack := NewStack()
	defer ReturnStack(stack)
	stack.Push(new(uint256.Int)) // slot 0

	cost, err := gasSLoad(evm, contract, stack, NewMemory(), 0)
	if err != nil {
		t.Fatalf("gasSLoad (cold): %v", err)
	}
	if cost != ColdSloadCost {
		t.Fatalf("cold SLOAD cost = %d, want %d", cost, ColdSloadCost)
	}

	cost, err = gasSLoad(evm, contract, stack, NewMemory(), 0)
	if err != nil {
		t.Fatalf("gasSLoad (warm): %v", err)
	}
	if cost != WarmStorageReadCost {
		t.Fatalf("warm SLOAD cost = %d, want %d", cost, WarmStorageReadCost)
	}
}

func TestCallGasEIP150Rule(t *testing.T) {
	// availableGas=10000, base=0: forwardable = 10000 - 10000/64 = 9844.
	requested := uint256.NewInt(1_000_000)
	gas, err := callGas(true, 10000, 0, requested)
	if err != nil {
		t.Fatalf("callGas: %v", err)
	}
	if want := uint64(10000 - 10000/64); gas != want {
		t.Fatalf("callGas = %d, want %d", gas, want)
	}

	// A small request under the 63/64 cap is honored exactly.
	gas, err = callGas(true, 10000, 0, uint256.NewInt(100))
	if err != nil {
		t.Fatalf("callGas: %v", err)
	}
	if gas != 100 {
		t.Fatalf("callGas(small request) = %d, want 100", gas)
	}
}

func TestMemoryGasCostOverflowGuard(t *testing.T) {
	_, err := memoryGasCost(0x1FFFFFFFE0 + 32)
	if err != ErrGasUintOverflow {
		t.Fatalf("memoryGasCost(huge) err = %v, want ErrGasUintOverflow", err)
	}
}

func TestMulUint64Overflow(t *testing.T) {
	_, overflow := mulUint64(^uint64(0), 2)
	if !overflow {
		t.Fatalf("mulUint64 should report overflow for max_uint64*2")
	}
	v, overflow := mulUint64(3, 4)
	if overflow || v != 12 {
		t.Fatalf("mulUint64(3,4) = (%d, %v), want (12, false)", v, overflow)
	}
}
