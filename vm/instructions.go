package vm

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/crypto"
	"github.com/rising9719/goevm/types"
)

// Arithmetic.

func opAdd(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.SMod(&x, y)
	return nil, nil
}

func opAddmod(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	base, exponent := scope.Stack.Pop(), scope.Stack.Peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	back, num := scope.Stack.Pop(), scope.Stack.Peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

// Comparison and bitwise.

func opLt(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.Pop(), scope.Stack.Peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.Peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	th, val := scope.Stack.Pop(), scope.Stack.Peek()
	val.Byte(&th)
	return nil, nil
}

func opShl(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.Pop(), scope.Stack.Peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opShr(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.Pop(), scope.Stack.Peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSar(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.Pop(), scope.Stack.Peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	value.SRsh(value, uint(shift.Uint64()))
	return nil, nil
}

// Keccak.

func opKeccak256(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.Pop(), scope.Stack.Peek()
	data := scope.Memory.GetPtr(offset.Uint64(), size.Uint64())
	h := crypto.Keccak256(data)
	size.SetBytes(h)
	return nil, nil
}

// Environment.

func opAddress(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).SetBytes(scope.Contract.Address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	slot.Set(evm.StateDB.GetBalance(addr))
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).SetBytes(evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).SetBytes(scope.Contract.CallerAddress.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).Set(scope.Contract.Value()))
	return nil, nil
}

func opCallDataLoad(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.Peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(scope.Contract.Input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(uint64(len(scope.Contract.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	dataOff64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOff64 = ^uint64(0)
	}
	data := getData(scope.Contract.Input, dataOff64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(uint64(len(scope.Contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	memOffset, codeOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	codeOff64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOff64 = ^uint64(0)
	}
	data := getData(scope.Contract.Code, codeOff64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opGasPrice(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).Set(evm.TxContext.GasPrice))
	return nil, nil
}

func opExtCodeSize(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	slot.SetUint64(uint64(evm.StateDB.GetCodeSize(addr)))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	addrWord := scope.Stack.Pop()
	memOffset, codeOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	addr := types.BytesToAddress(addrWord.Bytes())
	codeOff64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOff64 = ^uint64(0)
	}
	code := evm.StateDB.GetCode(addr)
	data := getData(code, codeOff64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opReturnDataSize(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(uint64(len(evm.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	end := new(uint256.Int).Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(evm.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), evm.returnData[offset64:end64])
	return nil, nil
}

func opExtCodeHash(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	if !evm.StateDB.Exist(addr) || evm.StateDB.Empty(addr) {
		slot.Clear()
		return nil, nil
	}
	slot.SetBytes(evm.StateDB.GetCodeHash(addr).Bytes())
	return nil, nil
}

// Block.

func opBlockhash(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	num := scope.Stack.Peek()
	if !num.IsUint64() {
		num.Clear()
		return nil, nil
	}
	n := num.Uint64()
	if n+256 < evm.BlockContext.BlockNumber || n >= evm.BlockContext.BlockNumber {
		num.Clear()
		return nil, nil
	}
	num.SetBytes(evm.StateDB.GetBlockHash(n).Bytes())
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).SetBytes(evm.BlockContext.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(evm.BlockContext.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(evm.BlockContext.BlockNumber))
	return nil, nil
}

func opPrevRandao(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.Rules.IsMerge && evm.BlockContext.Random != nil {
		scope.Stack.Push(new(uint256.Int).Set(evm.BlockContext.Random))
		return nil, nil
	}
	if evm.BlockContext.Difficulty != nil {
		scope.Stack.Push(new(uint256.Int).Set(evm.BlockContext.Difficulty))
		return nil, nil
	}
	scope.Stack.Push(new(uint256.Int))
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(evm.BlockContext.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int).Set(&evm.ChainID))
	return nil, nil
}

func opSelfBalance(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(evm.StateDB.GetBalance(scope.Contract.Address))
	return nil, nil
}

func opBaseFee(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.BlockContext.BaseFee != nil {
		scope.Stack.Push(new(uint256.Int).Set(evm.BlockContext.BaseFee))
	} else {
		scope.Stack.Push(new(uint256.Int))
	}
	return nil, nil
}

func opBlobHash(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	idx := scope.Stack.Peek()
	if i, overflow := idx.Uint64WithOverflow(); !overflow && i < uint64(len(evm.TxContext.BlobHashes)) {
		idx.SetBytes(evm.TxContext.BlobHashes[i].Bytes())
	} else {
		idx.Clear()
	}
	return nil, nil
}

func opBlobBaseFee(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.BlockContext.BlobBaseFee != nil {
		scope.Stack.Push(new(uint256.Int).Set(evm.BlockContext.BlobBaseFee))
	} else {
		scope.Stack.Push(new(uint256.Int))
	}
	return nil, nil
}

// Stack, memory, storage, flow.

func opPop(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	v := scope.Stack.Peek()
	offset := v.Uint64()
	v.SetBytes(scope.Memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	mStart, val := scope.Stack.Pop(), scope.Stack.Pop()
	scope.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	off, val := scope.Stack.Pop(), scope.Stack.Pop()
	scope.Memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opMcopy(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	dst, src, size := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	copy(scope.Memory.GetPtr(dst.Uint64(), size.Uint64()), scope.Memory.GetPtr(src.Uint64(), size.Uint64()))
	return nil, nil
}

func opSload(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.Peek()
	slot := types.Hash(loc.Bytes32())
	loc.SetBytes(evm.StateDB.GetState(scope.Contract.Address, slot).Bytes())
	return nil, nil
}

func opSstore(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	loc, val := scope.Stack.Pop(), scope.Stack.Pop()
	evm.StateDB.SetState(scope.Contract.Address, types.Hash(loc.Bytes32()), types.Hash(val.Bytes32()))
	return nil, nil
}

func opTload(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.Peek()
	slot := types.Hash(loc.Bytes32())
	loc.SetBytes(evm.StateDB.GetTransientState(scope.Contract.Address, slot).Bytes())
	return nil, nil
}

func opTstore(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	loc, val := scope.Stack.Pop(), scope.Stack.Pop()
	evm.StateDB.SetTransientState(scope.Contract.Address, types.Hash(loc.Bytes32()), types.Hash(val.Bytes32()))
	return nil, nil
}

func opJump(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	dest := scope.Stack.Pop()
	if !scope.Contract.validJumpdest(&dest) {
		return nil, ErrInvalidJump
	}
	*pc = dest.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	dest, cond := scope.Stack.Pop(), scope.Stack.Pop()
	if !cond.IsZero() {
		if !scope.Contract.validJumpdest(&dest) {
			return nil, ErrInvalidJump
		}
		*pc = dest.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(uint64(scope.Memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(uint256.NewInt(scope.Contract.Gas()))
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	return nil, nil
}

func opStop(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	return nil, errStop
}

func opInvalid(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	return nil, ErrInvalidOpCode
}

func opReturn(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.Pop(), scope.Stack.Pop()
	ret := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, errReturn
}

func opRevert(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.Pop(), scope.Stack.Pop()
	ret := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, errRevert
}

func opPush0(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	scope.Stack.Push(new(uint256.Int))
	return nil, nil
}

func opPush(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	code := scope.Contract.Code
	op := OpCode(code[*pc])
	n := op.PushSize()
	start := *pc + 1
	end := start + uint64(n)
	var data []byte
	if end > uint64(len(code)) {
		data = getData(code, start, uint64(n))
	} else {
		data = code[start:end]
	}
	scope.Stack.Push(new(uint256.Int).SetBytes(data))
	*pc += uint64(n)
	return nil, nil
}

func opDup(n int) executionFunc {
	return func(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
		scope.Stack.Dup(n)
		return nil, nil
	}
}

func opSwap(n int) executionFunc {
	return func(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
		scope.Stack.Swap(n)
		return nil, nil
	}
}

func opLog(n int) executionFunc {
	return func(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
		if evm.readOnly {
			return nil, ErrWriteProtection
		}
		mStart, mSize := scope.Stack.Pop(), scope.Stack.Pop()
		topics := make([]types.Hash, n)
		for i := 0; i < n; i++ {
			t := scope.Stack.Pop()
			topics[i] = types.Hash(t.Bytes32())
		}
		data := scope.Memory.GetCopy(mStart.Uint64(), mSize.Uint64())
		l := &types.Log{Address: scope.Contract.Address, Topics: topics, Data: data}
		evm.StateDB.AddLog(l)
		if evm.Inspector != nil {
			evm.Inspector.OnLog(l)
		}
		return nil, nil
	}
}

// System.

func opCreate(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	value, offset, size := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	input := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	gas := scope.Contract.Gas()
	if evm.Rules.IsTangerineWhistle {
		gas -= gas / 64
	}
	scope.Contract.UseGas(gas)

	_, addr, returnGas, err := evm.Create(scope.Contract.Address, input, gas, &value)
	pushCreateResult(scope.Stack, addr, err)
	scope.Contract.RefundGas(returnGas)
	evm.returnData = nil
	return nil, nil
}

func opCreate2(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	value, offset, size, salt := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	input := scope.Memory.GetCopy(offset.Uint64(), size.Uint64())
	gas := scope.Contract.Gas()
	gas -= gas / 64
	scope.Contract.UseGas(gas)

	_, addr, returnGas, err := evm.Create2(scope.Contract.Address, input, gas, &value, &salt)
	pushCreateResult(scope.Stack, addr, err)
	scope.Contract.RefundGas(returnGas)
	evm.returnData = nil
	return nil, nil
}

func pushCreateResult(stack *Stack, addr types.Address, err error) {
	if err != nil {
		stack.Push(new(uint256.Int))
		return
	}
	stack.Push(new(uint256.Int).SetBytes(addr.Bytes()))
}

func opCall(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	gasWord := scope.Stack.Pop()
	addrWord, value, inOffset, inSize, retOffset, retSize := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	addr := types.BytesToAddress(addrWord.Bytes())
	args := scope.Memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	if !value.IsZero() && evm.readOnly {
		return nil, ErrWriteProtection
	}

	accessCost := uint64(0)
	if evm.Rules.IsBerlin {
		accessCost = gasEIP2929AccountCheck(evm, addr)
	}
	base := accessCost
	if !value.IsZero() {
		base += GasCallValue
	}
	if !evm.StateDB.Exist(addr) && (evm.Rules.IsSpuriousDragon && (!value.IsZero() || !evm.StateDB.Empty(addr)) || !evm.Rules.IsSpuriousDragon) {
		base += GasNewAccount
	}
	if !scope.Contract.UseGas(base) {
		return nil, ErrOutOfGas
	}

	gas, err := callGas(evm.Rules.IsTangerineWhistle, scope.Contract.Gas(), 0, &gasWord)
	if err != nil {
		return nil, err
	}
	if gas > scope.Contract.Gas() {
		gas = scope.Contract.Gas()
	}
	scope.Contract.UseGas(gas)
	if !value.IsZero() {
		gas += GasCallStipend
	}

	ret, returnGas, err := evm.Call(scope.Contract.Address, addr, args, gas, &value)
	pushCallResult(scope.Stack, err)
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), min64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	scope.Contract.RefundGas(returnGas)
	evm.returnData = ret
	return nil, nil
}

func opCallCode(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	gasWord := scope.Stack.Pop()
	addrWord, value, inOffset, inSize, retOffset, retSize := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	addr := types.BytesToAddress(addrWord.Bytes())
	args := scope.Memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	accessCost := uint64(0)
	if evm.Rules.IsBerlin {
		accessCost = gasEIP2929AccountCheck(evm, addr)
	}
	base := accessCost
	if !value.IsZero() {
		base += GasCallValue
	}
	if !scope.Contract.UseGas(base) {
		return nil, ErrOutOfGas
	}

	gas, err := callGas(evm.Rules.IsTangerineWhistle, scope.Contract.Gas(), 0, &gasWord)
	if err != nil {
		return nil, err
	}
	if gas > scope.Contract.Gas() {
		gas = scope.Contract.Gas()
	}
	scope.Contract.UseGas(gas)
	if !value.IsZero() {
		gas += GasCallStipend
	}

	ret, returnGas, err := evm.CallCode(scope.Contract.Address, addr, args, gas, &value)
	pushCallResult(scope.Stack, err)
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), min64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	scope.Contract.RefundGas(returnGas)
	evm.returnData = ret
	return nil, nil
}

func opDelegateCall(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	gasWord := scope.Stack.Pop()
	addrWord, inOffset, inSize, retOffset, retSize := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	addr := types.BytesToAddress(addrWord.Bytes())
	args := scope.Memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	accessCost := uint64(0)
	if evm.Rules.IsBerlin {
		accessCost = gasEIP2929AccountCheck(evm, addr)
	}
	if !scope.Contract.UseGas(accessCost) {
		return nil, ErrOutOfGas
	}

	gas, err := callGas(evm.Rules.IsTangerineWhistle, scope.Contract.Gas(), 0, &gasWord)
	if err != nil {
		return nil, err
	}
	if gas > scope.Contract.Gas() {
		gas = scope.Contract.Gas()
	}
	scope.Contract.UseGas(gas)

	ret, returnGas, err := evm.DelegateCall(scope.Contract, addr, args, gas)
	pushCallResult(scope.Stack, err)
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), min64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	scope.Contract.RefundGas(returnGas)
	evm.returnData = ret
	return nil, nil
}

func opStaticCall(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	gasWord := scope.Stack.Pop()
	addrWord, inOffset, inSize, retOffset, retSize := scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop(), scope.Stack.Pop()
	addr := types.BytesToAddress(addrWord.Bytes())
	args := scope.Memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	accessCost := uint64(0)
	if evm.Rules.IsBerlin {
		accessCost = gasEIP2929AccountCheck(evm, addr)
	}
	if !scope.Contract.UseGas(accessCost) {
		return nil, ErrOutOfGas
	}

	gas, err := callGas(evm.Rules.IsTangerineWhistle, scope.Contract.Gas(), 0, &gasWord)
	if err != nil {
		return nil, err
	}
	if gas > scope.Contract.Gas() {
		gas = scope.Contract.Gas()
	}
	scope.Contract.UseGas(gas)

	ret, returnGas, err := evm.StaticCall(scope.Contract.Address, addr, args, gas)
	pushCallResult(scope.Stack, err)
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), min64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	scope.Contract.RefundGas(returnGas)
	evm.returnData = ret
	return nil, nil
}

func pushCallResult(stack *Stack, err error) {
	if err != nil {
		stack.Push(new(uint256.Int))
		return
	}
	stack.Push(uint256.NewInt(1))
}

func opSelfdestruct(pc *uint64, evm *EVM, scope *ScopeContext) ([]byte, error) {
	if evm.readOnly {
		return nil, ErrWriteProtection
	}
	beneficiary := scope.Stack.Pop()
	balance := evm.StateDB.GetBalance(scope.Contract.Address)
	addr := types.BytesToAddress(beneficiary.Bytes())
	evm.StateDB.SubBalance(scope.Contract.Address, balance)
	evm.StateDB.AddBalance(addr, balance)
	if evm.Rules.SelfDestructOnlySameTxCreate {
		evm.StateDB.Selfdestruct6780(scope.Contract.Address)
	} else {
		evm.StateDB.SelfDestruct(scope.Contract.Address)
	}
	if evm.Inspector != nil {
		evm.Inspector.OnSelfDestruct(scope.Contract.Address, addr, balance)
	}
	return nil, errStop
}

// getData returns a len-byte slice of data starting at start,
// zero-padded past the end -- used by every opcode that reads
// CALLDATA/CODE/EXTCODE with attacker-controlled offset/length.
func getData(data []byte, start, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	out := make([]byte, size)
	copy(out, data[start:end])
	return out
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
