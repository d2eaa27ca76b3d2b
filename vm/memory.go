package vm

import (
	"github.com/holiman/uint256"
)

// Memory is the interpreter's byte-addressable, word-aligned scratch
// space. It grows in 32-byte words and is never grown to the entire
// final size up front -- only as far as an access requires, per the
// quadratic memory expansion gas schedule in memoryGasCost.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Len returns the current memory size in bytes, always a multiple of 32.
func (m *Memory) Len() int { return len(m.store) }

// Resize grows the backing buffer to size bytes if it is currently
// smaller. size must already be word-aligned by the caller (see
// memoryWordSize); Resize itself does no rounding and never shrinks.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Set writes value into memory at offset, which must already be within
// bounds (callers resize before calling).
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("vm memory: write out of bounds")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val as a 32-byte big-endian word at offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("vm memory: write out of bounds")
	}
	var b [32]byte
	val.WriteToSlice(b[:])
	copy(m.store[offset:offset+32], b[:])
}

// GetCopy returns a freshly allocated copy of size bytes starting at
// offset, zero-padded if the requested range runs past the end of the
// allocated store (used by RETURNDATACOPY-style reads that are already
// bounds-checked against the real data length, and by callers that want
// an owned slice safe to retain).
func (m *Memory) GetCopy(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	if offset < uint64(len(m.store)) {
		n := copy(out, m.store[offset:])
		_ = n
	}
	return out
}

// GetPtr returns a slice referencing memory directly, without copying.
// Callers must not retain it past the next mutating Memory call.
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Data returns the entire backing buffer. Used by inspectors taking a
// step snapshot.
func (m *Memory) Data() []byte { return m.store }

// memoryWordSize returns the number of 32-byte words needed to hold size
// bytes (size rounded up to a multiple of 32, divided by 32).
func memoryWordSize(size uint64) uint64 {
	return (size + 31) / 32
}

// memoryGasCost computes the ABSOLUTE quadratic memory gas cost for a
// memory region of newSize bytes (rounded up to a word boundary):
//
//	words := ceil(newSize / 32)
//	cost  := 3*words + words*words/512
//
// The caller charges only the DELTA between this and the cost already
// paid for the memory's current size (tracked via lastGasCost), per the
// chain's documented memory-expansion rule. Returns an error if newSize
// would overflow or if the computed word count itself overflows gas
// accounting (a pragmatic OutOfGas rather than a panic).
func memoryGasCost(newSize uint64) (uint64, error) {
	if newSize == 0 {
		return 0, nil
	}
	// newSize+31 must not overflow; memory sizes are bounded well below
	// this in practice by the block gas limit, but guard explicitly.
	if newSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	words := memoryWordSize(newSize)
	linear := 3 * words
	quad := words * words / 512
	total := linear + quad
	if total < linear {
		return 0, ErrGasUintOverflow
	}
	return total, nil
}

// expansionCost returns the incremental gas required to grow memory to
// cover [offset, offset+size) from its current size, and reports the
// word-aligned new size in bytes. It does not mutate m.
func (m *Memory) expansionCost(offset, size uint64) (cost uint64, newSize uint64, err error) {
	if size == 0 {
		return 0, uint64(len(m.store)), nil
	}
	end := offset + size
	if end < offset {
		return 0, 0, ErrGasUintOverflow
	}
	if end <= uint64(len(m.store)) {
		return 0, uint64(len(m.store)), nil
	}
	newWords := memoryWordSize(end)
	newSize = newWords * 32
	total, err := memoryGasCost(newSize)
	if err != nil {
		return 0, 0, err
	}
	if total < m.lastGasCost {
		// Should not happen since memory only grows, but guards against
		// an inconsistent lastGasCost.
		return 0, newSize, nil
	}
	cost = total - m.lastGasCost
	return cost, newSize, nil
}

// commitExpansion records that newSize bytes (and its gas cost) have now
// been paid for, called after Resize succeeds.
func (m *Memory) commitExpansion(newSize uint64) {
	if total, err := memoryGasCost(newSize); err == nil {
		m.lastGasCost = total
	}
}
