package vm

import (
	"github.com/rising9719/goevm/params"
	"github.com/rising9719/goevm/precompile"
	"github.com/rising9719/goevm/types"
)

func precompileActiveSet(rules params.ForkRules) precompileSet {
	return precompile.ActiveSet(rules)
}

func (evm *EVM) precompileAt(addr types.Address) bool {
	_, ok := evm.precompiles[addr]
	return ok
}

// runPrecompile invokes the precompile at addr if one is registered
// there, checking its required gas against gas (the caller deducts it)
// and returning (output, handled=true, err). handled is false if addr is not a precompile
// address, in which case the caller should fall through to running
// ordinary contract code.
func (evm *EVM) runPrecompile(addr types.Address, input []byte, gas uint64) ([]byte, bool, error) {
	p, ok := evm.precompiles[addr]
	if !ok {
		return nil, false, nil
	}
	cost := p.RequiredGas(input)
	if cost > gas {
		return nil, true, ErrOutOfGas
	}
	ret, err := p.Run(input)
	return ret, true, err
}

// precompiles is attached by NewEVM from the precompile package's
// per-hardfork active set.
type precompileSet = precompile.Registry
