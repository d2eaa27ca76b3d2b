package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

// Inspector receives execution-lifecycle callbacks from the EVM driver.
// It is the engine's tracing seam: a debugger, gas profiler, or
// call-tree logger implements this interface and is attached to an EVM
// before running a transaction. All methods are optional in spirit --
// an Inspector that only cares about calls can embed a no-op base and
// override just OnEnter/OnExit.
type Inspector interface {
	// OnEnter fires when a new call/create frame starts. typ is the
	// OpCode that caused the frame (CALL, CALLCODE, DELEGATECALL,
	// STATICCALL, CREATE, CREATE2, or STOP for the top-level entry).
	OnEnter(depth int, typ byte, from, to types.Address, input []byte, gas uint64, value *uint256.Int)
	// OnExit fires when a call/create frame returns, reverts, or errors.
	OnExit(depth int, output []byte, gasUsed uint64, err error)

	// OnStep fires before each opcode executes.
	OnStep(pc uint64, op OpCode, gas uint64, stack *Stack, mem *Memory, contract *Contract)
	// OnStepEnd fires after each opcode executes, carrying any error it
	// produced (nil on success).
	OnStepEnd(pc uint64, op OpCode, gas uint64, err error)

	// OnLog fires for every LOG0..LOG4 emitted.
	OnLog(l *types.Log)
	// OnSelfDestruct fires when SELFDESTRUCT runs, reporting the
	// balance transferred to beneficiary.
	OnSelfDestruct(addr, beneficiary types.Address, balance *uint256.Int)

	// OnAccountLoad receives the address of an account loaded in a
	// transaction. Neither the EVM driver nor the interpreter calls it,
	// so an attached Inspector never receives this event.
	OnAccountLoad(addr types.Address)
}

// NoopInspector implements Inspector with empty bodies so callers that
// only care about a subset of hooks can embed it.
type NoopInspector struct{}

func (NoopInspector) OnEnter(depth int, typ byte, from, to types.Address, input []byte, gas uint64, value *uint256.Int) {
}
func (NoopInspector) OnExit(depth int, output []byte, gasUsed uint64, err error)               {}
func (NoopInspector) OnStep(pc uint64, op OpCode, gas uint64, stack *Stack, mem *Memory, c *Contract) {
}
func (NoopInspector) OnStepEnd(pc uint64, op OpCode, gas uint64, err error)          {}
func (NoopInspector) OnLog(l *types.Log)                                             {}
func (NoopInspector) OnSelfDestruct(addr, beneficiary types.Address, balance *uint256.Int) {}
func (NoopInspector) OnAccountLoad(addr types.Address)                               {}
