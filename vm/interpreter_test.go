package vm

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/params"
	"github.com/rising9719/goevm/state"
	"github.com/rising9719/goevm/types"
)

func newRunTestEVM() (*EVM, *Contract) {
	db := state.NewMemoryDatabase()
	sub := state.NewSubstate(db)
	rules := params.Rules(params.Cancun)
	tbl := newJumpTable(rules)
	evm := &EVM{StateDB: sub, Rules: rules, jumpTable: &tbl}
	contract := NewContract(types.Address{}, types.Address{}, new(uint256.Int), 1_000_000, nil)
	return evm, contract
}

func TestRunStopReturnsCleanly(t *testing.T) {
	evm, contract := newRunTestEVM()
	contract.Code = []byte{byte(STOP)}

	ret, err := evm.Run(contract, nil)
	if err != nil {
		t.Fatalf("Run(STOP) error = %v", err)
	}
	if len(ret) != 0 {
		t.Fatalf("Run(STOP) returned %v, want empty", ret)
	}
}

func TestRunPushAddReturn(t *testing.T) {
	evm, contract := newRunTestEVM()
	// PUSH1 2 PUSH1 3 ADD PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN
	contract.Code = []byte{
		byte(PUSH1), 2, byte(PUSH1), 3, byte(ADD),
		byte(PUSH1), 0, byte(MSTORE),
		byte(PUSH1), 32, byte(PUSH1), 0, byte(RETURN),
	}

	ret, err := evm.Run(contract, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	got := new(uint256.Int).SetBytes(ret)
	if got.Uint64() != 5 {
		t.Fatalf("returned word = %s, want 5", got.Hex())
	}
}

func TestRunStackUnderflow(t *testing.T) {
	evm, contract := newRunTestEVM()
	contract.Code = []byte{byte(ADD)} // ADD needs 2 stack items, has 0

	_, err := evm.Run(contract, nil)
	if err != ErrStackUnderflow {
		t.Fatalf("Run(ADD on empty stack) err = %v, want ErrStackUnderflow", err)
	}
}

func TestRunOutOfGas(t *testing.T) {
	evm, contract := newRunTestEVM()
	contract.gas = 1 // less than PUSH1's constant gas
	contract.Code = []byte{byte(PUSH1), 1}

	_, err := evm.Run(contract, nil)
	if err != ErrOutOfGas {
		t.Fatalf("Run with insufficient gas err = %v, want ErrOutOfGas", err)
	}
}

func TestRunInvalidOpcode(t *testing.T) {
	evm, contract := newRunTestEVM()
	contract.Code = []byte{0x0c} // unassigned opcode

	_, err := evm.Run(contract, nil)
	if err != ErrInvalidOpCode {
		t.Fatalf("Run(invalid opcode) err = %v, want ErrInvalidOpCode", err)
	}
}
