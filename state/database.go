// Package state implements the journaled world-state substate the EVM
// driver operates on: a checkpoint/commit/revert transaction log over an
// opaque Database collaborator, plus the warm-access and transient-
// storage bookkeeping EIP-2929/EIP-1153 require. Disk-backed storage,
// tries, and Merkle proofs are out of scope -- Database is an interface
// precisely so a trie-backed implementation can be swapped in without
// touching Substate.
package state

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

// Database is the read-only collaborator Substate loads committed
// (pre-transaction) account and storage values from. It is
// intentionally minimal and synchronous: no disk I/O, trie walks, or
// proof generation live behind this interface in this engine, only
// whatever a caller's plain-state snapshot provides.
type Database interface {
	// Basic returns the committed account fields, or AccountInfo{} with
	// ok=false if the account does not exist.
	Basic(addr types.Address) (info AccountInfo, ok bool)
	// CodeByHash returns the contract code for a given code hash.
	CodeByHash(hash types.Hash) ([]byte, error)
	// Storage returns the committed value of a storage slot.
	Storage(addr types.Address, slot types.Hash) (types.Hash, error)
	// BlockHash returns the hash of a recent ancestor block.
	BlockHash(number uint64) types.Hash
}

// MemoryDatabase is an in-memory Database reference implementation,
// used by tests and by callers that don't need persistence across
// process runs.
type MemoryDatabase struct {
	accounts map[types.Address]AccountInfo
	code     map[types.Hash][]byte
	storage  map[types.Address]map[types.Hash]types.Hash
	hashes   map[uint64]types.Hash
}

// NewMemoryDatabase returns an empty MemoryDatabase.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		accounts: make(map[types.Address]AccountInfo),
		code:     make(map[types.Hash][]byte),
		storage:  make(map[types.Address]map[types.Hash]types.Hash),
		hashes:   make(map[uint64]types.Hash),
	}
}

func (db *MemoryDatabase) Basic(addr types.Address) (AccountInfo, bool) {
	info, ok := db.accounts[addr]
	return info, ok
}

func (db *MemoryDatabase) CodeByHash(hash types.Hash) ([]byte, error) {
	return db.code[hash], nil
}

func (db *MemoryDatabase) Storage(addr types.Address, slot types.Hash) (types.Hash, error) {
	m, ok := db.storage[addr]
	if !ok {
		return types.Hash{}, nil
	}
	return m[slot], nil
}

func (db *MemoryDatabase) BlockHash(number uint64) types.Hash {
	return db.hashes[number]
}

// SeedAccount installs an account's committed state directly, for test
// setup. balance may be nil for a zero balance.
func (db *MemoryDatabase) SeedAccount(addr types.Address, nonce uint64, balance *uint256.Int, codeHash types.Hash) {
	if balance == nil {
		balance = new(uint256.Int)
	}
	db.accounts[addr] = AccountInfo{Nonce: nonce, Balance: balance, CodeHash: codeHash}
}

// SeedCode installs code under the caller-supplied hash; the hash is
// not checked against the code.
func (db *MemoryDatabase) SeedCode(code []byte, hash types.Hash) {
	db.code[hash] = code
}

// SeedStorage installs a committed storage slot.
func (db *MemoryDatabase) SeedStorage(addr types.Address, slot, value types.Hash) {
	m, ok := db.storage[addr]
	if !ok {
		m = make(map[types.Hash]types.Hash)
		db.storage[addr] = m
	}
	m[slot] = value
}

// SeedBlockHash installs a historical block hash for BLOCKHASH.
func (db *MemoryDatabase) SeedBlockHash(number uint64, hash types.Hash) {
	db.hashes[number] = hash
}
