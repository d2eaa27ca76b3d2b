package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/log"
	"github.com/rising9719/goevm/params"
	"github.com/rising9719/goevm/types"
)

// BlockContext carries the block-scoped values every opcode that reads
// block data (COINBASE, NUMBER, TIMESTAMP, BASEFEE, ...) needs. It is
// built once per block and shared read-only across every transaction
// executed in it.
type BlockContext struct {
	GetHash func(blockNumber uint64) types.Hash

	Coinbase    types.Address
	GasLimit    uint64
	BlockNumber uint64
	Time        uint64
	Difficulty  *uint256.Int // pre-Merge DIFFICULTY
	Random      *uint256.Int // post-Merge PREVRANDAO
	BaseFee     *uint256.Int // nil pre-London
	BlobBaseFee *uint256.Int // nil pre-Cancun
}

// TxContext carries the transaction-scoped values (ORIGIN, GASPRICE,
// BLOBHASH). It is rebuilt for every transaction within a block.
type TxContext struct {
	Origin     types.Address
	GasPrice   *uint256.Int
	BlobHashes []types.Hash
}

// ScopeContext groups the three pieces of mutable state a single call
// frame's instructions operate on.
type ScopeContext struct {
	Memory   *Memory
	Stack    *Stack
	Contract *Contract
}

// EVM is the driver that owns one block's worth of execution: the jump
// table selected for its hardfork, the journaled StateDB, and the
// Inspector hooks fired around every step and call. One EVM value is
// reused across every transaction in a block; each call frame saves and
// restores depth and readOnly around itself, and returnData is not
// cleared between transactions.
type EVM struct {
	BlockContext
	TxContext

	StateDB StateDB
	Rules   params.ForkRules
	ChainID uint256.Int

	jumpTable   *JumpTable
	precompiles precompileSet
	Inspector   Inspector

	depth      int
	readOnly   bool
	returnData []byte

	log *log.Logger
}

// MaxCallDepth bounds CALL/CREATE recursion, mirroring the 1024 limit
// the wider ecosystem uses to keep native call stacks bounded.
const MaxCallDepth = 1024

// NewEVM builds an EVM for one block, wiring blockCtx/txCtx/statedb and
// selecting the jump table for spec.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, spec params.Spec) *EVM {
	rules := params.Rules(spec)
	tbl := newJumpTable(rules)
	return &EVM{
		BlockContext: blockCtx,
		TxContext:    txCtx,
		StateDB:      statedb,
		Rules:        rules,
		jumpTable:    &tbl,
		precompiles:  precompileActiveSet(rules),
		log:          log.Default().Module("vm"),
	}
}

// Depth returns the current call-stack depth (0 for the top-level call).
func (evm *EVM) Depth() int { return evm.depth }

// Run executes contract's code from pc=0 against input, within the
// scope already built for it, returning the output of RETURN/REVERT or
// an empty slice for a clean STOP. err is nil on success, ErrExecutionReverted
// on an explicit REVERT (ret still carries the revert reason), and any
// other vm error otherwise.
func (evm *EVM) Run(contract *Contract, input []byte) (ret []byte, err error) {
	contract.Input = input

	if len(contract.Code) == 0 {
		return nil, nil
	}

	var (
		op          OpCode
		mem         = NewMemory()
		stack       = NewStack()
		pc          = uint64(0)
		scope       = &ScopeContext{Memory: mem, Stack: stack, Contract: contract}
		callContext = scope
	)
	defer ReturnStack(stack)

	// Warm the JUMPDEST bitmap cache up front so JUMP/JUMPI validation
	// later in this loop never pays for the first analysis on the hot path.
	contract.ensureAnalysis()

	if evm.Inspector != nil {
		evm.Inspector.OnEnter(evm.depth, byte(opcodeOrZero(contract)), contract.CallerAddress, contract.Address, input, contract.Gas(), contract.Value())
		defer func() {
			evm.Inspector.OnExit(evm.depth, ret, contract.Gas(), err)
		}()
	}

	for {
		op = OpCode(contract.Code[pc])
		operation, ok := evm.jumpTable.lookup(op)
		if !ok {
			return nil, ErrInvalidOpCode
		}

		if sLen := stack.Len(); sLen < operation.minStack {
			return nil, ErrStackUnderflow
		} else if sLen > operation.maxStack {
			return nil, ErrStackOverflow
		}

		if evm.Inspector != nil {
			evm.Inspector.OnStep(pc, op, contract.Gas(), stack, mem, contract)
		}

		if !contract.UseGas(operation.constantGas) {
			return nil, ErrOutOfGas
		}

		var memorySize uint64
		if operation.memorySize != nil {
			size, ok := operation.memorySize(stack)
			if !ok {
				return nil, ErrGasUintOverflow
			}
			words := memoryWordSize(size)
			if newSize := words * 32; newSize < size {
				return nil, ErrGasUintOverflow
			} else {
				memorySize = newSize
			}
		}

		if operation.dynamicGas != nil {
			dynCost, derr := operation.dynamicGas(evm, contract, stack, mem, memorySize)
			if derr != nil {
				return nil, derr
			}
			if !contract.UseGas(dynCost) {
				return nil, ErrOutOfGas
			}
		} else if memorySize > uint64(mem.Len()) {
			cost, merr := memoryGasCost(memorySize)
			if merr != nil {
				return nil, merr
			}
			if cost > mem.lastGasCost {
				if !contract.UseGas(cost - mem.lastGasCost) {
					return nil, ErrOutOfGas
				}
			}
			mem.Resize(memorySize)
			mem.commitExpansion(memorySize)
		}

		res, err := operation.execute(&pc, evm, callContext)
		if evm.Inspector != nil {
			evm.Inspector.OnStepEnd(pc, op, contract.Gas(), err)
		}

		if err != nil {
			if err == errStop {
				return nil, nil
			}
			if err == errReturn {
				return res, nil
			}
			if err == errRevert {
				return res, ErrExecutionReverted
			}
			return nil, err
		}

		switch op {
		case JUMP, JUMPI:
			// handlers for JUMP/JUMPI set pc themselves.
		default:
			pc++
		}

		if pc >= uint64(len(contract.Code)) {
			return nil, nil
		}
	}
}

func opcodeOrZero(c *Contract) OpCode {
	if len(c.Code) == 0 {
		return STOP
	}
	return OpCode(c.Code[0])
}

// sentinel "errors" used only as internal control-flow signals within
// the dispatch loop; never returned from Run or Call.
var (
	errStop   = newCtrlErr("stop")
	errReturn = newCtrlErr("return")
	errRevert = newCtrlErr("revert")
)

type ctrlErr struct{ s string }

func (e *ctrlErr) Error() string { return e.s }
func newCtrlErr(s string) error  { return &ctrlErr{s} }
