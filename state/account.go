package state

import (
	"github.com/holiman/uint256"

	"github.com/rising9719/goevm/types"
)

// AccountInfo is the committed (trie-level, in this engine's case
// Database-level) view of an account: everything except its storage,
// which is addressed separately via Database.Storage / the journal's
// per-slot overlay.
type AccountInfo struct {
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash types.Hash
}

// IsEmpty reports whether the account is "empty" in the EIP-161 sense:
// zero nonce, zero balance, and no code.
func (a AccountInfo) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero()) &&
		(a.CodeHash.IsZero() || a.CodeHash == types.EmptyCodeHash)
}

// account is the substate's live, mutable view of one account: the
// committed AccountInfo plus whatever code bytes and touched-storage
// overlay this transaction has loaded or written. exists distinguishes
// "known to not exist" from "not yet loaded".
type account struct {
	info    AccountInfo
	code    []byte
	exists  bool
	created bool // true if CreateAccount ran this tx (fresh account)

	destructed bool
}

func emptyAccount() *account {
	return &account{info: AccountInfo{Balance: new(uint256.Int)}}
}
