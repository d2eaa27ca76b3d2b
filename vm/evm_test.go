package vm

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/crypto"
	"github.com/rising9719/goevm/params"
	"github.com/rising9719/goevm/state"
	"github.com/rising9719/goevm/types"
)

func newTestEVM(db state.Database) (*EVM, *state.Substate) {
	sub := state.NewSubstate(db)
	evm := NewEVM(BlockContext{
		GetHash:    func(uint64) types.Hash { return types.Hash{} },
		GasLimit:   30_000_000,
		Difficulty: new(uint256.Int),
		Random:     new(uint256.Int),
	}, TxContext{
		GasPrice: new(uint256.Int),
	}, sub, params.Cancun)
	return evm, sub
}

// S1: simple value transfer with no code, no calldata, gas=21000.
// Expected: ExitReason=Success; gas_spent=21000; B.bal=10; A.bal=90;
// A.nonce=1.
func TestScenarioSimpleTransfer(t *testing.T) {
	db := state.NewMemoryDatabase()
	a := types.HexToAddress("0xaaaa000000000000000000000000000000000a")
	b := types.HexToAddress("0xbbbb000000000000000000000000000000000b")
	db.SeedAccount(a, 0, uint256.NewInt(100), types.Hash{})

	evm, sub := newTestEVM(db)

	result := evm.ApplyMessage(Message{
		Caller:   a,
		To:       &b,
		GasLimit: 21000,
		GasPrice: new(uint256.Int),
		Value:    uint256.NewInt(10),
	})
	if result.Err != nil {
		t.Fatalf("ApplyMessage returned error: %v", result.Err)
	}
	if result.ExitReason != ExitSuccess {
		t.Fatalf("ExitReason = %v, want Success", result.ExitReason)
	}
	if result.GasUsed != 21000 {
		t.Fatalf("gas_spent = %d, want 21000", result.GasUsed)
	}

	if got := sub.GetBalance(a).Uint64(); got != 90 {
		t.Fatalf("A.balance = %d, want 90", got)
	}
	if got := sub.GetBalance(b).Uint64(); got != 10 {
		t.Fatalf("B.balance = %d, want 10", got)
	}
	if got := sub.GetNonce(a); got != 1 {
		t.Fatalf("A.nonce = %d, want 1", got)
	}
}

// S2: JUMP to a valid JUMPDEST succeeds; JUMP to a non-JUMPDEST offset
// reverts with ErrInvalidJump.
func TestScenarioJumpValidAndInvalid(t *testing.T) {
	db := state.NewMemoryDatabase()
	caller := types.HexToAddress("0x1")
	callee := types.HexToAddress("0xc0de02")

	// PUSH1 4; JUMP; STOP; JUMPDEST; STOP -- offset 4 is the JUMPDEST.
	validCode := []byte{byte(PUSH1), 0x04, byte(JUMP), byte(STOP), byte(JUMPDEST), byte(STOP)}
	codeHash := types.HexToHash("0x01")
	db.SeedCode(validCode, codeHash)
	db.SeedAccount(callee, 1, new(uint256.Int), codeHash)

	evm, _ := newTestEVM(db)
	_, _, err := evm.Call(caller, callee, nil, 100000, new(uint256.Int))
	if err != nil {
		t.Fatalf("valid JUMP: unexpected error %v", err)
	}

	// Same shape, but PUSH1 5 -- offset 5 is STOP, not JUMPDEST.
	invalidCode := []byte{byte(PUSH1), 0x05, byte(JUMP), byte(STOP), byte(JUMPDEST), byte(STOP)}
	codeHash2 := types.HexToHash("0x02")
	db.SeedCode(invalidCode, codeHash2)
	callee2 := types.HexToAddress("0xc0de03")
	db.SeedAccount(callee2, 1, new(uint256.Int), codeHash2)

	_, _, err = evm.Call(caller, callee2, nil, 100000, new(uint256.Int))
	if err != ErrInvalidJump {
		t.Fatalf("invalid JUMP: err = %v, want ErrInvalidJump", err)
	}
}

// S3: SSTORE(X,1) then SSTORE(X,0) in the same transaction on a slot
// whose original value was 0 nets a large refund under EIP-2200/3529.
func TestScenarioSStoreRefund(t *testing.T) {
	db := state.NewMemoryDatabase()
	caller := types.HexToAddress("0x1")
	callee := types.HexToAddress("0xc0de04")

	// PUSH1 1 PUSH1 0 SSTORE PUSH1 0 PUSH1 0 SSTORE STOP
	code := []byte{
		byte(PUSH1), 0x01, byte(PUSH1), 0x00, byte(SSTORE),
		byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(SSTORE),
		byte(STOP),
	}
	codeHash := types.HexToHash("0x03")
	db.SeedCode(code, codeHash)
	db.SeedAccount(callee, 1, new(uint256.Int), codeHash)

	evm, sub := newTestEVM(db)
	_, _, err := evm.Call(caller, callee, nil, 1_000_000, new(uint256.Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slot := types.Hash{}
	if got := sub.GetState(callee, slot); got != (types.Hash{}) {
		t.Fatalf("final slot value = %x, want zero", got)
	}
	if sub.GetRefund() == 0 {
		t.Fatalf("expected a nonzero SSTORE refund")
	}
}

// S4: CREATE2 to an address that already has a nonzero nonce collides.
func TestScenarioCreate2Collision(t *testing.T) {
	db := state.NewMemoryDatabase()
	caller := types.HexToAddress("0x1")

	evm, sub := newTestEVM(db)

	initCode := []byte{byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(RETURN)}
	salt := new(uint256.Int)
	predicted := createAddress2(caller, salt.Bytes32(), crypto.Keccak256(initCode))

	sub.SetNonce(predicted, 1)

	_, addr, _, err := evm.Create2(caller, initCode, 1_000_000, new(uint256.Int), salt)
	if err != ErrContractAddressCollision {
		t.Fatalf("Create2 err = %v, want ErrContractAddressCollision", err)
	}
	if addr != (types.Address{}) {
		t.Fatalf("colliding Create2 returned nonzero address %x", addr)
	}
	if got := sub.GetNonce(caller); got != 1 {
		t.Fatalf("caller.nonce = %d, want 1 (incremented despite collision)", got)
	}
}
