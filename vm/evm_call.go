package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

// Call executes the code at addr as a message call from caller,
// transferring value and forwarding gas and input. It is the entry
// point for CALL and for top-level transaction execution.
func (evm *EVM) Call(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	return evm.callInner(CALL, caller, addr, addr, input, gas, value, false)
}

// CallCode executes addr's code but keeps caller's own storage/balance
// context (CALLCODE): Address stays caller, CodeAddr becomes addr.
func (evm *EVM) CallCode(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	return evm.callInner(CALLCODE, caller, caller, addr, input, gas, value, false)
}

// DelegateCall executes addr's code in the CALLER's own frame: Address,
// CallerAddress, and Value are all inherited unchanged from scope's
// contract (DELEGATECALL never transfers value of its own).
func (evm *EVM) DelegateCall(scope *Contract, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > MaxCallDepth {
		return nil, gas, ErrDepth
	}
	code := evm.StateDB.GetCode(addr)
	codeHash := evm.StateDB.GetCodeHash(addr)

	contract := NewContract(scope.CallerAddress, scope.Address, scope.Value(), gas, nil)
	contract.SetCallCode(addr, codeHash, code)

	if evm.Inspector != nil {
		evm.Inspector.OnEnter(evm.depth, byte(DELEGATECALL), scope.Address, addr, input, gas, scope.Value())
	}

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	if evm.Inspector != nil {
		evm.Inspector.OnExit(evm.depth+1, ret, gas-contract.Gas(), err)
	}
	return ret, contract.Gas(), err
}

// StaticCall executes addr's code with writes (SSTORE/LOG/CREATE/
// SELFDESTRUCT/value-bearing CALL) disallowed for the duration of the
// call and everything nested under it.
func (evm *EVM) StaticCall(caller, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	return evm.callInner(STATICCALL, caller, addr, addr, input, gas, new(uint256.Int), true)
}

// callInner is the shared body of Call/CallCode/StaticCall: it snapshots
// state, transfers value (if any), builds the callee's Contract, and
// runs it, reverting the snapshot on any non-revert-classified error or
// on an explicit REVERT.
func (evm *EVM) callInner(typ OpCode, caller, addr, codeAddr types.Address, input []byte, gas uint64, value *uint256.Int, static bool) ([]byte, uint64, error) {
	if evm.depth > MaxCallDepth {
		return nil, gas, ErrDepth
	}
	if value.Sign() > 0 && evm.StateDB.GetBalance(caller).Lt(value) {
		return nil, gas, ErrInsufficientBalance
	}

	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(addr) {
		if typ == CALL && !evm.precompileAt(addr) && value.Sign() == 0 && evm.Rules.IsSpuriousDragon {
			// A value-less CALL to a nonexistent, empty account after
			// Spurious Dragon is a no-op: no account creation charged.
		} else {
			evm.StateDB.CreateAccount(addr)
		}
	}
	if value.Sign() > 0 {
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}

	if evm.Inspector != nil {
		evm.Inspector.OnEnter(evm.depth, byte(typ), caller, addr, input, gas, value)
	}

	if ret, handled, err := evm.runPrecompile(codeAddr, input, gas); handled {
		gasLeft := uint64(0)
		if err == nil {
			gasLeft = gas - evm.precompiles[codeAddr].RequiredGas(input)
		}
		if evm.Inspector != nil {
			evm.Inspector.OnExit(evm.depth+1, ret, gas-gasLeft, err)
		}
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, gasLeft, err
	}

	code := evm.StateDB.GetCode(codeAddr)
	contract := NewContract(caller, addr, value, gas, nil)
	contract.SetCallCode(codeAddr, evm.StateDB.GetCodeHash(codeAddr), code)

	prevReadOnly := evm.readOnly
	if static {
		evm.readOnly = true
	}

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	evm.readOnly = prevReadOnly

	if evm.Inspector != nil {
		evm.Inspector.OnExit(evm.depth+1, ret, gas-contract.Gas(), err)
	}

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.gas = 0
		}
	}
	return ret, contract.Gas(), err
}
