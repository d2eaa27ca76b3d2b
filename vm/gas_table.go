package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

// gasFunc computes the dynamic (state- or argument-dependent) portion
// of an opcode's gas cost, on top of its constantGas. memorySize is the
// word-aligned byte size memory will occupy after this op, already
// computed by the op's memorySizeFunc and passed in so the memory
// expansion delta can be folded into a single subtraction here.
type gasFunc func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error)

// memorySizeFunc reports the memory size (in bytes, not yet word
// aligned) an operation's arguments require, read without popping the
// stack. ok is false when the referenced offset/size overflow uint64.
type memorySizeFunc func(stack *Stack) (size uint64, ok bool)

func memoryGasAndResize(mem *Memory, memSize uint64) (uint64, error) {
	cost, newSize, err := mem.expansionCost(0, memSize)
	if err != nil {
		return 0, err
	}
	if newSize > uint64(mem.Len()) {
		mem.Resize(newSize)
		mem.commitExpansion(newSize)
	}
	return cost, nil
}

// memorySizeForRange returns the byte-size memorySizeFunc helper for an
// (offset, size) pair living at stack positions off/sz from the top.
func memorySizeForRange(off, sz int) memorySizeFunc {
	return func(stack *Stack) (uint64, bool) {
		size := stack.Back(sz)
		if size.IsZero() {
			return 0, true
		}
		offset := stack.Back(off)
		end, overflow := new(uint256.Int).AddOverflow(offset, size)
		if overflow || !end.IsUint64() {
			return 0, false
		}
		return end.Uint64(), true
	}
}

func memoryMCopy(stack *Stack) (uint64, bool) {
	size := stack.Back(2)
	if size.IsZero() {
		return 0, true
	}
	dst, src := stack.Back(0), stack.Back(1)
	maxOff := dst
	if src.Gt(dst) {
		maxOff = src
	}
	end, overflow := new(uint256.Int).AddOverflow(maxOff, size)
	if overflow || !end.IsUint64() {
		return 0, false
	}
	return end.Uint64(), true
}

func chargeMemory(mem *Memory, memorySize uint64) (uint64, error) {
	if memorySize == 0 {
		return 0, nil
	}
	return memoryGasAndResize(mem, memorySize)
}

func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	exponent := stack.Back(1)
	byteLen := (exponent.BitLen() + 7) / 8
	return uint64(byteLen) * evm.Rules.ExpByteCost(), nil
}

func gasKeccak256(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memCost, err := chargeMemory(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size := stack.Back(1)
	words := memoryWordSize(size.Uint64())
	wordCost, overflow := mulUint64(words, GasKeccak256Word)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return memCost + wordCost, nil
}

func gasCopyWithMemory(wordCost uint64) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		memCost, err := chargeMemory(mem, memorySize)
		if err != nil {
			return 0, err
		}
		size := stack.Back(2)
		words := memoryWordSize(size.Uint64())
		extra, overflow := mulUint64(words, wordCost)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		return memCost + extra, nil
	}
}

func gasMLoad(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return chargeMemory(mem, memorySize)
}

func gasMCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memCost, err := chargeMemory(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size := stack.Back(2)
	words := memoryWordSize(size.Uint64())
	extra, overflow := mulUint64(words, GasCopy)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return memCost + extra, nil
}

// gasSLoad implements the Berlin+ (EIP-2929) cold/warm SLOAD split; for
// pre-Berlin forks the constant gas table alone (GasSLoad/GasSLoadEIP150/
// GasSLoadEIP1884) already carries the correct flat cost and this
// function is not installed in the jump table.
func gasSLoad(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	loc := stack.Peek()
	slot := types.Hash(loc.Bytes32())
	if _, slotWarm := evm.StateDB.SlotInAccessList(contract.Address, slot); slotWarm {
		return WarmStorageReadCost, nil
	}
	evm.StateDB.AddSlotToAccessList(contract.Address, slot)
	return ColdSloadCost, nil
}

// gasSStore implements EIP-2200/2929/3529 net-gas metering: cost
// depends on (current value, original value, new value) and on whether
// the slot was already warm this transaction.
func gasSStore(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	if evm.readOnly {
		return 0, ErrWriteProtection
	}
	if contract.Gas() <= callStipendSStore {
		return 0, ErrOutOfGas
	}

	loc := stack.Back(0)
	newVal := stack.Back(1)
	slot := types.Hash(loc.Bytes32())

	var cost uint64
	_, slotWarm := evm.StateDB.SlotInAccessList(contract.Address, slot)
	if !slotWarm {
		cost = ColdSloadCost
		evm.StateDB.AddSlotToAccessList(contract.Address, slot)
	}

	current := evm.StateDB.GetState(contract.Address, slot)
	newH := types.BytesToHash(newVal.Bytes())
	if current == newH {
		return cost + WarmStorageReadCost, nil
	}

	original := evm.StateDB.GetCommittedState(contract.Address, slot)
	zero := types.Hash{}
	switch {
	case original == current:
		if original == zero {
			return cost + SstoreSetGas, nil
		}
		if newH == zero {
			evm.StateDB.AddRefund(SstoreClearRefund)
		}
		return cost + (SstoreResetGas - ColdSloadCost), nil
	default:
		if original != zero {
			if current == zero {
				evm.StateDB.SubRefund(SstoreClearRefund)
			} else if newH == zero {
				evm.StateDB.AddRefund(SstoreClearRefund)
			}
		}
		if original == newH {
			if original == zero {
				evm.StateDB.AddRefund(SstoreSetGas - WarmStorageReadCost)
			} else {
				evm.StateDB.AddRefund(SstoreResetGas - ColdSloadCost - WarmStorageReadCost)
			}
		}
		return cost + WarmStorageReadCost, nil
	}
}

const callStipendSStore = 2300

// gasEIP2929AccountCheck returns the Berlin+ cold/warm account-access
// cost for addr, marking it warm as a side effect.
func gasEIP2929AccountCheck(evm *EVM, addr types.Address) uint64 {
	if evm.StateDB.AddressInAccessList(addr) {
		return WarmStorageReadCost
	}
	evm.StateDB.AddAddressToAccessList(addr)
	return ColdAccountAccessCost
}

func gasBalance(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	if !evm.Rules.IsBerlin {
		return 0, nil
	}
	addr := types.BytesToAddress(stack.Peek().Bytes())
	return gasEIP2929AccountCheck(evm, addr), nil
}

func gasExtCodeSize(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	if !evm.Rules.IsBerlin {
		return 0, nil
	}
	addr := types.BytesToAddress(stack.Peek().Bytes())
	return gasEIP2929AccountCheck(evm, addr), nil
}

func gasExtCodeHash(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	if !evm.Rules.IsBerlin {
		return 0, nil
	}
	addr := types.BytesToAddress(stack.Peek().Bytes())
	return gasEIP2929AccountCheck(evm, addr), nil
}

func gasExtCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memCost, err := chargeMemory(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size := stack.Back(3)
	words := memoryWordSize(size.Uint64())
	wordCost, overflow := mulUint64(words, GasCopy)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	accessCost := uint64(0)
	if evm.Rules.IsBerlin {
		addr := types.BytesToAddress(stack.Peek().Bytes())
		accessCost = gasEIP2929AccountCheck(evm, addr)
	}
	return memCost + wordCost + accessCost, nil
}

func gasSelfdestruct(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	if evm.readOnly {
		return 0, ErrWriteProtection
	}
	var cost uint64
	if !evm.Rules.IsTangerineWhistle {
		return 0, nil
	}
	cost = GasSelfdestructEIP150
	beneficiary := types.BytesToAddress(stack.Peek().Bytes())
	if evm.Rules.IsBerlin && !evm.StateDB.AddressInAccessList(beneficiary) {
		evm.StateDB.AddAddressToAccessList(beneficiary)
		cost += ColdAccountAccessCost
	}
	if evm.Rules.IsSpuriousDragon {
		if evm.StateDB.Empty(beneficiary) && evm.StateDB.GetBalance(contract.Address).Sign() > 0 {
			cost += GasNewAccount
		}
	} else if !evm.StateDB.Exist(beneficiary) {
		cost += GasNewAccount
	}
	return cost, nil
}

func gasLog(n int) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		memCost, err := chargeMemory(mem, memorySize)
		if err != nil {
			return 0, err
		}
		size := stack.Back(1)
		if !size.IsUint64() {
			return 0, ErrGasUintOverflow
		}
		topicCost, overflow := mulUint64(uint64(n), GasLogTopic)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		dataCost, overflow := mulUint64(size.Uint64(), GasLogData)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		total := memCost + topicCost + dataCost
		if total < memCost {
			return 0, ErrGasUintOverflow
		}
		return total, nil
	}
}

func gasCreate(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memCost, err := chargeMemory(mem, memorySize)
	if err != nil {
		return 0, err
	}
	if evm.Rules.IsShanghai {
		size := stack.Back(2)
		words := memoryWordSize(size.Uint64())
		initCodeCost, overflow := mulUint64(words, 2)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		return memCost + initCodeCost, nil
	}
	return memCost, nil
}

func gasCreate2(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memCost, err := chargeMemory(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size := stack.Back(2)
	words := memoryWordSize(size.Uint64())
	hashCost, overflow := mulUint64(words, GasKeccak256Word)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	total := memCost + hashCost
	if evm.Rules.IsShanghai {
		initCodeCost, overflow := mulUint64(words, 2)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		total += initCodeCost
	}
	return total, nil
}

// callGas implements the EIP-150 "63/64ths rule": a CALL-family op may
// forward at most availableGas - availableGas/64 of its remaining gas,
// and never more than requestedGas.
func callGas(isEIP150 bool, availableGas, base uint64, requestedGas *uint256.Int) (uint64, error) {
	if isEIP150 {
		availableGas -= base
		gas := availableGas - availableGas/64
		if !requestedGas.IsUint64() || gas < requestedGas.Uint64() {
			return gas, nil
		}
	}
	if !requestedGas.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	return requestedGas.Uint64(), nil
}

func mulUint64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	c := a * b
	return c, c/a != b
}
