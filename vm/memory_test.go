package vm

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
)

func TestMemorySetAndGetCopy(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 4, []byte{1, 2, 3, 4})

	got := m.GetCopy(0, 4)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("GetCopy = %v, want [1 2 3 4]", got)
	}
	if m.Len() != 32 {
		t.Fatalf("Len() = %d, want 32", m.Len())
	}
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set32(0, uint256.NewInt(0x1234))

	got := m.GetCopy(0, 32)
	want := make([]byte, 32)
	want[30], want[31] = 0x12, 0x34
	if !bytes.Equal(got, want) {
		t.Fatalf("Set32 round-trip mismatch: got %x, want %x", got, want)
	}
}

func TestMemoryGasCostQuadratic(t *testing.T) {
	// 1 word: 3*1 + 1*1/512 = 3
	cost, err := memoryGasCost(32)
	if err != nil || cost != 3 {
		t.Fatalf("memoryGasCost(32) = (%d, %v), want (3, nil)", cost, err)
	}

	// Larger region should cost more than linear-only due to the
	// quadratic term (e.g. 1024 words -> 3*1024 + 1024*1024/512 = 3072+2048).
	cost, err = memoryGasCost(1024 * 32)
	if err != nil {
		t.Fatalf("memoryGasCost error: %v", err)
	}
	if want := uint64(3*1024 + 1024*1024/512); cost != want {
		t.Fatalf("memoryGasCost(1024 words) = %d, want %d", cost, want)
	}
}

func TestMemoryExpansionChargesOnlyDelta(t *testing.T) {
	m := NewMemory()

	cost1, newSize1, err := m.expansionCost(0, 32)
	if err != nil {
		t.Fatalf("expansionCost: %v", err)
	}
	m.Resize(newSize1)
	m.commitExpansion(newSize1)

	// Requesting the same range again costs nothing further.
	cost2, _, err := m.expansionCost(0, 32)
	if err != nil {
		t.Fatalf("expansionCost (second): %v", err)
	}
	if cost2 != 0 {
		t.Fatalf("re-requesting already-paid-for range charged %d, want 0", cost2)
	}
	if cost1 == 0 {
		t.Fatalf("first expansion should have a nonzero cost")
	}
}
