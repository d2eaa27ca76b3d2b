// Package crypto provides the single hash primitive the engine needs:
// Keccak-256, used for code hashes and CREATE/CREATE2 address derivation.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/rising9719/goevm/types"
)

// Keccak256 computes the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash computes Keccak-256 and returns it as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
