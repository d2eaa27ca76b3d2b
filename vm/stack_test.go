package vm

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	s.Push(uint256.NewInt(1))
	s.Push(uint256.NewInt(2))
	s.Push(uint256.NewInt(3))

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if got := s.Pop(); !got.Eq(uint256.NewInt(3)) {
		t.Fatalf("Pop() = %s, want 3", got.Hex())
	}
	if got := s.Peek(); !got.Eq(uint256.NewInt(2)) {
		t.Fatalf("Peek() = %s, want 2", got.Hex())
	}
	if s.Len() != 2 {
		t.Fatalf("Len() after pop = %d, want 2", s.Len())
	}
}

func TestStackDupDoesNotAlias(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	s.Push(uint256.NewInt(42))
	s.Dup(1)

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	// Mutating the duplicate must not affect the original slot.
	top := s.Peek()
	top.Add(top, uint256.NewInt(1))

	if got := s.Back(1); !got.Eq(uint256.NewInt(42)) {
		t.Fatalf("original slot mutated by Dup alias: got %s, want 42", got.Hex())
	}
}

func TestStackSwap(t *testing.T) {
	s := NewStack()
	defer ReturnStack(s)

	s.Push(uint256.NewInt(1))
	s.Push(uint256.NewInt(2))
	s.Swap(1)

	if got := s.Peek(); !got.Eq(uint256.NewInt(1)) {
		t.Fatalf("top after Swap(1) = %s, want 1", got.Hex())
	}
	if got := s.Back(1); !got.Eq(uint256.NewInt(2)) {
		t.Fatalf("back(1) after Swap(1) = %s, want 2", got.Hex())
	}
}

func TestStackReuseIsClean(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(1))
	ReturnStack(s)

	s2 := NewStack()
	defer ReturnStack(s2)
	if s2.Len() != 0 {
		t.Fatalf("pooled stack not reset: Len() = %d, want 0", s2.Len())
	}
}
