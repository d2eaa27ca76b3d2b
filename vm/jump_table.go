package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/params"
)

// executionFunc is the handler body for one opcode. JUMP/JUMPI set pc
// themselves and skip the loop's default pc++; PUSHn moves pc past its
// immediate bytes and then gets the default pc++ like every other op;
// ret carries RETURN/REVERT output data.
type executionFunc func(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error)

// operation is one jump-table entry: the handler plus everything the
// dispatch loop needs to validate and price a step before running it.
type operation struct {
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc

	minStack int
	maxStack int

	memorySize memorySizeFunc
}

// JumpTable maps every possible opcode byte to its operation, nil for
// unassigned bytes.
type JumpTable [256]*operation

func (t *JumpTable) lookup(op OpCode) (*operation, bool) {
	o := t[op]
	return o, o != nil
}

func minSwapStack(n int) int { return n + 1 }
func maxSwapStack(n int) int { return StackLimit }
func minDupStack(n int) int  { return n }
func maxDupStack(n int) int  { return StackLimit - n + 1 }

// newFrontierInstructionSet is the base jump table every later fork
// layers on top of by copying and overwriting individual entries, the
// same incremental-table-construction pattern the teacher's
// jump_table.go uses.
func newFrontierInstructionSet() JumpTable {
	var tbl JumpTable
	tbl[STOP] = &operation{execute: opStop, constantGas: GasZero, minStack: 0, maxStack: StackLimit}
	tbl[ADD] = &operation{execute: opAdd, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[MUL] = &operation{execute: opMul, constantGas: GasFastStep, minStack: 2, maxStack: StackLimit}
	tbl[SUB] = &operation{execute: opSub, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[DIV] = &operation{execute: opDiv, constantGas: GasFastStep, minStack: 2, maxStack: StackLimit}
	tbl[SDIV] = &operation{execute: opSdiv, constantGas: GasFastStep, minStack: 2, maxStack: StackLimit}
	tbl[MOD] = &operation{execute: opMod, constantGas: GasFastStep, minStack: 2, maxStack: StackLimit}
	tbl[SMOD] = &operation{execute: opSmod, constantGas: GasFastStep, minStack: 2, maxStack: StackLimit}
	tbl[ADDMOD] = &operation{execute: opAddmod, constantGas: GasMidStep, minStack: 3, maxStack: StackLimit}
	tbl[MULMOD] = &operation{execute: opMulmod, constantGas: GasMidStep, minStack: 3, maxStack: StackLimit}
	tbl[EXP] = &operation{execute: opExp, constantGas: GasSlowStep, dynamicGas: gasExp, minStack: 2, maxStack: StackLimit}
	tbl[SIGNEXTEND] = &operation{execute: opSignExtend, constantGas: GasFastStep, minStack: 2, maxStack: StackLimit}

	tbl[LT] = &operation{execute: opLt, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[GT] = &operation{execute: opGt, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[SLT] = &operation{execute: opSlt, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[SGT] = &operation{execute: opSgt, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[EQ] = &operation{execute: opEq, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[ISZERO] = &operation{execute: opIszero, constantGas: GasFastestStep, minStack: 1, maxStack: StackLimit}
	tbl[AND] = &operation{execute: opAnd, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[OR] = &operation{execute: opOr, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[XOR] = &operation{execute: opXor, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[NOT] = &operation{execute: opNot, constantGas: GasFastestStep, minStack: 1, maxStack: StackLimit}
	tbl[BYTE] = &operation{execute: opByte, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}

	tbl[KECCAK256] = &operation{execute: opKeccak256, constantGas: GasKeccak256, dynamicGas: gasKeccak256, minStack: 2, maxStack: StackLimit, memorySize: memorySizeForRange(0, 1)}

	tbl[ADDRESS] = &operation{execute: opAddress, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[BALANCE] = &operation{execute: opBalance, constantGas: GasBalance, minStack: 1, maxStack: StackLimit}
	tbl[ORIGIN] = &operation{execute: opOrigin, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[CALLER] = &operation{execute: opCaller, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[CALLVALUE] = &operation{execute: opCallValue, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[CALLDATALOAD] = &operation{execute: opCallDataLoad, constantGas: GasFastestStep, minStack: 1, maxStack: StackLimit}
	tbl[CALLDATASIZE] = &operation{execute: opCallDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[CALLDATACOPY] = &operation{execute: opCallDataCopy, constantGas: GasVeryLow, dynamicGas: gasCopyWithMemory(GasCopy), minStack: 3, maxStack: StackLimit, memorySize: memorySizeForRange(0, 2)}
	tbl[CODESIZE] = &operation{execute: opCodeSize, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[CODECOPY] = &operation{execute: opCodeCopy, constantGas: GasVeryLow, dynamicGas: gasCopyWithMemory(GasCopy), minStack: 3, maxStack: StackLimit, memorySize: memorySizeForRange(0, 2)}
	tbl[GASPRICE] = &operation{execute: opGasPrice, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[EXTCODESIZE] = &operation{execute: opExtCodeSize, constantGas: GasExtCode, minStack: 1, maxStack: StackLimit}
	tbl[EXTCODECOPY] = &operation{execute: opExtCodeCopy, constantGas: GasExtCode, dynamicGas: gasExtCodeCopy, minStack: 4, maxStack: StackLimit, memorySize: memorySizeForRange(1, 3)}

	tbl[BLOCKHASH] = &operation{execute: opBlockhash, constantGas: GasExtStep, minStack: 1, maxStack: StackLimit}
	tbl[COINBASE] = &operation{execute: opCoinbase, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[TIMESTAMP] = &operation{execute: opTimestamp, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[NUMBER] = &operation{execute: opNumber, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[PREVRANDAO] = &operation{execute: opPrevRandao, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[GASLIMIT] = &operation{execute: opGasLimit, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}

	tbl[POP] = &operation{execute: opPop, constantGas: GasQuickStep, minStack: 1, maxStack: StackLimit}
	tbl[MLOAD] = &operation{execute: opMload, constantGas: GasFastestStep, dynamicGas: gasMLoad, minStack: 1, maxStack: StackLimit, memorySize: memoryMLoadSize}
	tbl[MSTORE] = &operation{execute: opMstore, constantGas: GasFastestStep, dynamicGas: gasMLoad, minStack: 2, maxStack: StackLimit, memorySize: memoryMStoreSize}
	tbl[MSTORE8] = &operation{execute: opMstore8, constantGas: GasFastestStep, dynamicGas: gasMLoad, minStack: 2, maxStack: StackLimit, memorySize: memoryMStore8Size}
	tbl[SLOAD] = &operation{execute: opSload, constantGas: GasSLoad, minStack: 1, maxStack: StackLimit}
	tbl[SSTORE] = &operation{execute: opSstore, dynamicGas: gasSStore, minStack: 2, maxStack: StackLimit}
	tbl[JUMP] = &operation{execute: opJump, constantGas: GasMidStep, minStack: 1, maxStack: StackLimit}
	tbl[JUMPI] = &operation{execute: opJumpi, constantGas: GasSlowStep, minStack: 2, maxStack: StackLimit}
	tbl[PC] = &operation{execute: opPc, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[MSIZE] = &operation{execute: opMsize, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[GAS] = &operation{execute: opGas, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[JUMPDEST] = &operation{execute: opJumpdest, constantGas: GasJumpDest, minStack: 0, maxStack: StackLimit}

	for i := byte(PUSH1); i <= byte(PUSH32); i++ {
		tbl[i] = &operation{execute: opPush, constantGas: GasVeryLow, minStack: 0, maxStack: StackLimit}
	}
	for i := 1; i <= 16; i++ {
		tbl[byte(DUP1)+byte(i-1)] = &operation{execute: opDup(i), constantGas: GasFastestStep, minStack: minDupStack(i), maxStack: maxDupStack(i)}
		tbl[byte(SWAP1)+byte(i-1)] = &operation{execute: opSwap(i), constantGas: GasFastestStep, minStack: minSwapStack(i), maxStack: maxSwapStack(i)}
	}
	for i := 0; i <= 4; i++ {
		tbl[byte(LOG0)+byte(i)] = &operation{execute: opLog(i), constantGas: GasLog, dynamicGas: gasLog(i), minStack: i + 2, maxStack: StackLimit, memorySize: memorySizeForRange(0, 1)}
	}

	tbl[CREATE] = &operation{execute: opCreate, constantGas: GasCreate, dynamicGas: gasCreate, minStack: 3, maxStack: StackLimit, memorySize: memorySizeForRange(1, 2)}
	tbl[CALL] = &operation{execute: opCall, dynamicGas: nil, minStack: 7, maxStack: StackLimit, memorySize: memoryCallSize}
	tbl[CALLCODE] = &operation{execute: opCallCode, dynamicGas: nil, minStack: 7, maxStack: StackLimit, memorySize: memoryCallSize}
	tbl[RETURN] = &operation{execute: opReturn, dynamicGas: gasMLoad, minStack: 2, maxStack: StackLimit, memorySize: memorySizeForRange(0, 1)}
	tbl[INVALID] = &operation{execute: opInvalid, minStack: 0, maxStack: StackLimit}
	tbl[SELFDESTRUCT] = &operation{execute: opSelfdestruct, dynamicGas: gasSelfdestruct, minStack: 1, maxStack: StackLimit}
	return tbl
}

func memoryMLoadSize(stack *Stack) (uint64, bool) {
	offset := stack.Back(0)
	end, overflow := new(uint256.Int).AddOverflow(offset, uint256.NewInt(32))
	if overflow || !end.IsUint64() {
		return 0, false
	}
	return end.Uint64(), true
}

func memoryMStoreSize(stack *Stack) (uint64, bool) {
	offset := stack.Back(0)
	end, overflow := new(uint256.Int).AddOverflow(offset, uint256.NewInt(32))
	if overflow || !end.IsUint64() {
		return 0, false
	}
	return end.Uint64(), true
}

func memoryMStore8Size(stack *Stack) (uint64, bool) {
	offset := stack.Back(0)
	end, overflow := new(uint256.Int).AddOverflow(offset, uint256.NewInt(1))
	if overflow || !end.IsUint64() {
		return 0, false
	}
	return end.Uint64(), true
}

func memoryCallSize(stack *Stack) (uint64, bool) {
	in, inSize := stack.Back(3), stack.Back(4)
	out, outSize := stack.Back(5), stack.Back(6)
	inEnd, overflow := new(uint256.Int).AddOverflow(in, inSize)
	if overflow || !inEnd.IsUint64() {
		return 0, false
	}
	outEnd, overflow := new(uint256.Int).AddOverflow(out, outSize)
	if overflow || !outEnd.IsUint64() {
		return 0, false
	}
	if inEnd.Uint64() > outEnd.Uint64() {
		return inEnd.Uint64(), true
	}
	return outEnd.Uint64(), true
}

func newHomesteadInstructionSet() JumpTable {
	tbl := newFrontierInstructionSet()
	tbl[DELEGATECALL] = &operation{execute: opDelegateCall, dynamicGas: nil, minStack: 6, maxStack: StackLimit, memorySize: memoryDelegateStaticCallSize}
	return tbl
}

func memoryDelegateStaticCallSize(stack *Stack) (uint64, bool) {
	in, inSize := stack.Back(2), stack.Back(3)
	out, outSize := stack.Back(4), stack.Back(5)
	inEnd, overflow := new(uint256.Int).AddOverflow(in, inSize)
	if overflow || !inEnd.IsUint64() {
		return 0, false
	}
	outEnd, overflow := new(uint256.Int).AddOverflow(out, outSize)
	if overflow || !outEnd.IsUint64() {
		return 0, false
	}
	if inEnd.Uint64() > outEnd.Uint64() {
		return inEnd.Uint64(), true
	}
	return outEnd.Uint64(), true
}

func newTangerineWhistleInstructionSet() JumpTable {
	tbl := newHomesteadInstructionSet()
	tbl[BALANCE].constantGas = GasBalanceEIP150
	tbl[EXTCODESIZE].constantGas = GasExtCodeEIP150
	tbl[EXTCODECOPY].constantGas = GasExtCodeEIP150
	tbl[SLOAD].constantGas = GasSLoadEIP150
	tbl[CALL] = &operation{execute: opCall, dynamicGas: nil, minStack: 7, maxStack: StackLimit, memorySize: memoryCallSize}
	return tbl
}

func newSpuriousDragonInstructionSet() JumpTable {
	return newTangerineWhistleInstructionSet()
}

func newByzantiumInstructionSet() JumpTable {
	tbl := newSpuriousDragonInstructionSet()
	tbl[STATICCALL] = &operation{execute: opStaticCall, dynamicGas: nil, minStack: 6, maxStack: StackLimit, memorySize: memoryDelegateStaticCallSize}
	tbl[RETURNDATASIZE] = &operation{execute: opReturnDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	tbl[RETURNDATACOPY] = &operation{execute: opReturnDataCopy, constantGas: GasVeryLow, dynamicGas: gasCopyWithMemory(GasCopy), minStack: 3, maxStack: StackLimit, memorySize: memorySizeForRange(0, 2)}
	tbl[REVERT] = &operation{execute: opRevert, dynamicGas: gasMLoad, minStack: 2, maxStack: StackLimit, memorySize: memorySizeForRange(0, 1)}
	return tbl
}

func newConstantinopleInstructionSet() JumpTable {
	tbl := newByzantiumInstructionSet()
	tbl[SHL] = &operation{execute: opShl, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[SHR] = &operation{execute: opShr, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[SAR] = &operation{execute: opSar, constantGas: GasFastestStep, minStack: 2, maxStack: StackLimit}
	tbl[EXTCODEHASH] = &operation{execute: opExtCodeHash, constantGas: GasExtCodeHash, minStack: 1, maxStack: StackLimit}
	tbl[CREATE2] = &operation{execute: opCreate2, constantGas: GasCreate, dynamicGas: gasCreate2, minStack: 4, maxStack: StackLimit, memorySize: memorySizeForRange(1, 2)}
	return tbl
}

func newIstanbulInstructionSet() JumpTable {
	tbl := newConstantinopleInstructionSet()
	tbl[BALANCE].constantGas = GasBalanceEIP1884
	tbl[SLOAD].constantGas = GasSLoadEIP1884
	tbl[SELFBALANCE] = &operation{execute: opSelfBalance, constantGas: GasFastStep, minStack: 0, maxStack: StackLimit}
	tbl[CHAINID] = &operation{execute: opChainID, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	return tbl
}

func newBerlinInstructionSet() JumpTable {
	tbl := newIstanbulInstructionSet()
	tbl[SLOAD] = &operation{execute: opSload, constantGas: GasZero, dynamicGas: gasSLoad, minStack: 1, maxStack: StackLimit}
	tbl[EXTCODESIZE] = &operation{execute: opExtCodeSize, constantGas: GasZero, dynamicGas: gasExtCodeSize, minStack: 1, maxStack: StackLimit}
	tbl[EXTCODECOPY] = &operation{execute: opExtCodeCopy, constantGas: GasZero, dynamicGas: gasExtCodeCopy, minStack: 4, maxStack: StackLimit, memorySize: memorySizeForRange(1, 3)}
	tbl[EXTCODEHASH] = &operation{execute: opExtCodeHash, constantGas: GasZero, dynamicGas: gasExtCodeHash, minStack: 1, maxStack: StackLimit}
	tbl[BALANCE] = &operation{execute: opBalance, constantGas: GasZero, dynamicGas: gasBalance, minStack: 1, maxStack: StackLimit}
	return tbl
}

func newLondonInstructionSet() JumpTable {
	tbl := newBerlinInstructionSet()
	tbl[BASEFEE] = &operation{execute: opBaseFee, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	return tbl
}

func newMergeInstructionSet() JumpTable {
	tbl := newLondonInstructionSet()
	tbl[PREVRANDAO] = &operation{execute: opPrevRandao, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	return tbl
}

func newShanghaiInstructionSet() JumpTable {
	tbl := newMergeInstructionSet()
	tbl[PUSH0] = &operation{execute: opPush0, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	return tbl
}

func newCancunInstructionSet() JumpTable {
	tbl := newShanghaiInstructionSet()
	tbl[TLOAD] = &operation{execute: opTload, constantGas: WarmStorageReadCost, minStack: 1, maxStack: StackLimit}
	tbl[TSTORE] = &operation{execute: opTstore, constantGas: WarmStorageReadCost, minStack: 2, maxStack: StackLimit}
	tbl[MCOPY] = &operation{execute: opMcopy, constantGas: GasVeryLow, dynamicGas: gasMCopy, minStack: 3, maxStack: StackLimit, memorySize: memoryMCopy}
	tbl[BLOBHASH] = &operation{execute: opBlobHash, constantGas: GasFastestStep, minStack: 1, maxStack: StackLimit}
	tbl[BLOBBASEFEE] = &operation{execute: opBlobBaseFee, constantGas: GasQuickStep, minStack: 0, maxStack: StackLimit}
	return tbl
}

// newJumpTable selects the instruction set for rules, layering every
// fork from Frontier up to the highest one rules enables.
func newJumpTable(rules params.ForkRules) JumpTable {
	switch {
	case rules.IsCancun:
		return newCancunInstructionSet()
	case rules.IsShanghai:
		return newShanghaiInstructionSet()
	case rules.IsMerge:
		return newMergeInstructionSet()
	case rules.IsLondon:
		return newLondonInstructionSet()
	case rules.IsBerlin:
		return newBerlinInstructionSet()
	case rules.IsIstanbul:
		return newIstanbulInstructionSet()
	case rules.IsConstantinople:
		return newConstantinopleInstructionSet()
	case rules.IsByzantium:
		return newByzantiumInstructionSet()
	case rules.IsSpuriousDragon:
		return newSpuriousDragonInstructionSet()
	case rules.IsTangerineWhistle:
		return newTangerineWhistleInstructionSet()
	case rules.IsHomestead:
		return newHomesteadInstructionSet()
	default:
		return newFrontierInstructionSet()
	}
}
