package vm

import (
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/crypto"
	"github.com/rising9719/goevm/types"
)

// createAddress derives the CREATE contract address: the low 20 bytes
// of keccak256(RLP(sender, nonce)).
func createAddress(sender types.Address, nonce uint64) types.Address {
	data := rlpEncodeSenderNonce(sender, nonce)
	return types.BytesToAddress(crypto.Keccak256(data))
}

// rlpEncodeSenderNonce RLP-encodes the two-element list [sender, nonce],
// the only RLP this engine ever needs to produce. A full RLP codec
// handling arbitrary nested lists and structs would be wasted machinery
// for one call site, so this hand-rolls just enough of the encoding
// rules: short byte-strings and lists under 56 bytes, which a 20-byte
// address and a uint64 nonce never exceed.
func rlpEncodeSenderNonce(sender types.Address, nonce uint64) []byte {
	addrField := rlpEncodeBytes(sender.Bytes())
	nonceField := rlpEncodeBytes(minimalBigEndian(nonce))

	payload := make([]byte, 0, len(addrField)+len(nonceField))
	payload = append(payload, addrField...)
	payload = append(payload, nonceField...)

	out := make([]byte, 0, len(payload)+1)
	out = append(out, 0xc0+byte(len(payload))) // list header: payload always < 56 bytes here
	out = append(out, payload...)
	return out
}

// rlpEncodeBytes encodes b as an RLP byte-string: a single byte under
// 0x80 encodes itself; otherwise a length-prefixed string (only the
// short form is needed since neither field here ever reaches 56 bytes).
func rlpEncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	out := make([]byte, 0, len(b)+1)
	out = append(out, 0x80+byte(len(b)))
	return append(out, b...)
}

// minimalBigEndian returns n's big-endian representation with leading
// zero bytes stripped, RLP's canonical integer encoding (n=0 encodes as
// the empty string).
func minimalBigEndian(n uint64) []byte {
	if n == 0 {
		return nil
	}
	nbytes := (bits.Len64(n) + 7) / 8
	out := make([]byte, nbytes)
	for i := nbytes - 1; i >= 0; i-- {
		out[i] = byte(n)
		n >>= 8
	}
	return out
}

// createAddress2 derives the CREATE2 contract address: the low 20
// bytes of keccak256(0xff ++ sender ++ salt ++ keccak256(initCode)).
func createAddress2(sender types.Address, salt [32]byte, initCodeHash []byte) types.Address {
	data := crypto.Keccak256([]byte{0xff}, sender.Bytes(), salt[:], initCodeHash)
	return types.BytesToAddress(data)
}

// Create deploys initCode as a new contract owned by caller, at the
// next-nonce CREATE address, forwarding gas and value. It returns the
// deployed code, the new address, unused gas, and an error classifying
// how the deployment failed (nil on success).
func (evm *EVM) Create(caller types.Address, initCode []byte, gas uint64, value *uint256.Int) ([]byte, types.Address, uint64, error) {
	nonce := evm.StateDB.GetNonce(caller)
	addr := createAddress(caller, nonce)
	return evm.create(caller, initCode, gas, value, addr, CREATE)
}

// Create2 deploys initCode at the salted CREATE2 address.
func (evm *EVM) Create2(caller types.Address, initCode []byte, gas uint64, value *uint256.Int, salt *uint256.Int) ([]byte, types.Address, uint64, error) {
	initHash := crypto.Keccak256(initCode)
	addr := createAddress2(caller, salt.Bytes32(), initHash)
	return evm.create(caller, initCode, gas, value, addr, CREATE2)
}

func (evm *EVM) create(caller types.Address, initCode []byte, gas uint64, value *uint256.Int, addr types.Address, typ OpCode) ([]byte, types.Address, uint64, error) {
	if evm.depth > MaxCallDepth {
		return nil, types.Address{}, gas, ErrDepth
	}
	if evm.StateDB.GetBalance(caller).Lt(value) {
		return nil, types.Address{}, gas, ErrInsufficientBalance
	}
	if len(initCode) > evm.Rules.MaxInitCodeSize() {
		return nil, types.Address{}, 0, ErrMaxInitCodeSizeExceeded
	}

	nonce := evm.StateDB.GetNonce(caller)
	if nonce+1 < nonce {
		return nil, types.Address{}, gas, ErrNonceUintOverflow
	}
	evm.StateDB.SetNonce(caller, nonce+1)

	if evm.Inspector != nil {
		evm.Inspector.OnEnter(evm.depth, byte(typ), caller, addr, initCode, gas, value)
	}

	existingCodeHash := evm.StateDB.GetCodeHash(addr)
	hasCode := existingCodeHash != (types.Hash{}) && existingCodeHash != types.EmptyCodeHash
	if evm.StateDB.GetNonce(addr) != 0 || hasCode {
		return nil, types.Address{}, 0, ErrContractAddressCollision
	}

	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(addr)
	evm.StateDB.SetNonce(addr, 1)
	evm.StateDB.AddBalance(caller, new(uint256.Int).Neg(value))
	evm.StateDB.AddBalance(addr, value)

	contract := NewContract(caller, addr, value, gas, nil)
	contract.Code = initCode

	evm.depth++
	ret, runErr := evm.Run(contract, nil)
	evm.depth--

	var exitErr error
	switch {
	case runErr == nil:
		if len(ret) > evm.Rules.MaxCodeSize() {
			exitErr = ErrMaxCodeSizeExceeded
		} else if len(ret) > 0 && ret[0] == 0xef {
			exitErr = ErrInvalidCode
		} else {
			createDataGas := uint64(len(ret)) * GasCreateData
			if !contract.UseGas(createDataGas) {
				exitErr = ErrCodeStoreOutOfGas
			} else {
				evm.StateDB.SetCode(addr, ret)
			}
		}
	case runErr == ErrExecutionReverted:
		exitErr = ErrExecutionReverted
	default:
		exitErr = runErr
	}

	if exitErr != nil && exitErr != ErrExecutionReverted {
		evm.StateDB.RevertToSnapshot(snapshot)
		if exitErr != ErrCodeStoreOutOfGas {
			contract.gas = 0
		}
	} else if exitErr == ErrExecutionReverted {
		evm.StateDB.RevertToSnapshot(snapshot)
	}

	if evm.Inspector != nil {
		evm.Inspector.OnExit(evm.depth+1, ret, gas-contract.Gas(), exitErr)
	}

	deployed := ret
	if exitErr != nil {
		deployed = nil
	}
	return deployed, addr, contract.Gas(), exitErr
}
