package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/params"
	"github.com/rising9719/goevm/types"
)

// AccessTuple is one EIP-2930 access-list entry: an address plus the
// storage slots pre-warmed alongside it.
type AccessTuple struct {
	Address types.Address
	Slots   []types.Hash
}

// Message is a transaction's parameters as seen by the EVM driver: the
// inputs to spec.md §4.8's top-level call/create procedures. To is nil
// for a contract-creation message.
type Message struct {
	Caller     types.Address
	To         *types.Address
	GasLimit   uint64
	GasPrice   *uint256.Int
	Value      *uint256.Int
	Data       []byte
	AccessList []AccessTuple
}

// GasPool is the per-transaction gas budget ApplyMessage carries through
// call_inner/create and final reimbursement. refundDivisor is fixed once
// from the transaction's ForkRules so the EIP-3529 refund-cap rule
// cannot change mid-transaction (spec.md §9 Open Question).
type GasPool struct {
	Limit         uint64
	refundDivisor uint64
}

func newGasPool(limit uint64, rules params.ForkRules) *GasPool {
	return &GasPool{Limit: limit, refundDivisor: rules.RefundDivisor()}
}

// ExecutionResult is the outcome of ApplyMessage: spec.md §6's top-level
// (ExitReason, Bytes, gas_spent) tuple, plus the deployed address for a
// contract-creation message.
type ExecutionResult struct {
	ExitReason      ExitReason
	ReturnData      []byte
	GasUsed         uint64
	ContractAddress types.Address
	Err             error
}

// IntrinsicGas computes spec.md §4.8 step 1: the 21000 base cost, plus
// per-byte calldata cost (4/zero-byte, 16/non-zero-byte post-Istanbul
// else 68), plus the EIP-2930 access-list surcharge (2400/address,
// 1900/slot).
func IntrinsicGas(data []byte, accessList []AccessTuple, rules params.ForkRules) uint64 {
	gas := uint64(21000)
	nonZeroCost := rules.IntrinsicGasPerNonZeroByte()
	for _, b := range data {
		if b == 0 {
			gas += 4
		} else {
			gas += nonZeroCost
		}
	}
	for _, t := range accessList {
		gas += 2400
		gas += 1900 * uint64(len(t.Slots))
	}
	return gas
}

// ApplyMessage runs a full top-level transaction exactly per spec.md
// §4.8: intrinsic gas deduction, caller nonce increment and gas
// prepayment, access-list warming, call_inner/create, unused-gas
// reimbursement, and the EIP-3529 refund cap. This is the entry point a
// block processor drives once per transaction; Call/Create themselves
// only implement the call_inner/create frame body and are also the
// entry points CALL/CREATE opcodes use for nested frames.
func (evm *EVM) ApplyMessage(msg Message) *ExecutionResult {
	intrinsic := IntrinsicGas(msg.Data, msg.AccessList, evm.Rules)
	if msg.GasLimit < intrinsic {
		return &ExecutionResult{ExitReason: ExitOutOfGas, Err: ErrOutOfGas}
	}

	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	gasPrice := msg.GasPrice
	if gasPrice == nil {
		gasPrice = new(uint256.Int)
	}

	prepay := new(uint256.Int).Mul(gasPrice, uint256.NewInt(msg.GasLimit))
	if evm.StateDB.GetBalance(msg.Caller).Lt(prepay) {
		return &ExecutionResult{ExitReason: ExitInsufficientBalance, Err: ErrInsufficientBalance}
	}
	evm.StateDB.SubBalance(msg.Caller, prepay)

	// For a call the caller's nonce is incremented here (step 2); create()
	// already does this as part of the shared create() frame body, used
	// by both this top-level path and nested CREATE/CREATE2 opcodes, so
	// it must not be repeated here.
	if msg.To != nil {
		evm.StateDB.SetNonce(msg.Caller, evm.StateDB.GetNonce(msg.Caller)+1)
	}

	evm.StateDB.AddAddressToAccessList(msg.Caller)
	if msg.To != nil {
		evm.StateDB.AddAddressToAccessList(*msg.To)
	}
	for _, t := range msg.AccessList {
		evm.StateDB.AddAddressToAccessList(t.Address)
		for _, slot := range t.Slots {
			evm.StateDB.AddSlotToAccessList(t.Address, slot)
		}
	}

	gasPool := newGasPool(msg.GasLimit-intrinsic, evm.Rules)

	var (
		ret          []byte
		remaining    uint64
		err          error
		contractAddr types.Address
	)
	if msg.To != nil {
		ret, remaining, err = evm.Call(msg.Caller, *msg.To, msg.Data, gasPool.Limit, value)
	} else {
		ret, contractAddr, remaining, err = evm.Create(msg.Caller, msg.Data, gasPool.Limit, value)
	}

	spent := gasPool.Limit - remaining
	totalUsed := intrinsic + spent

	refund := evm.StateDB.GetRefund()
	if cap := totalUsed / gasPool.refundDivisor; refund > cap {
		refund = cap
	}
	totalUsed -= refund

	leftover := msg.GasLimit - totalUsed
	evm.StateDB.AddBalance(msg.Caller, new(uint256.Int).Mul(gasPrice, uint256.NewInt(leftover)))
	evm.StateDB.AddBalance(evm.BlockContext.Coinbase, new(uint256.Int).Mul(gasPrice, uint256.NewInt(totalUsed)))

	return &ExecutionResult{
		ExitReason:      exitReasonFromError(err),
		ReturnData:      ret,
		GasUsed:         totalUsed,
		ContractAddress: contractAddr,
		Err:             err,
	}
}
