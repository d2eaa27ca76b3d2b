package vm

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

// StackLimit is the maximum number of 256-bit words the interpreter's
// stack may hold at once.
const StackLimit = 1024

// Stack is a bounded LIFO of 256-bit words. Words are held by value, so
// Dup and Swap never alias the same uint256.Int between slots.
type Stack struct {
	data []uint256.Int
}

var stackPool = sync.Pool{
	New: func() any {
		return &Stack{data: make([]uint256.Int, 0, 16)}
	},
}

// NewStack returns a Stack drawn from a pool; return it with ReturnStack
// once the call frame using it is done.
func NewStack() *Stack {
	return stackPool.Get().(*Stack)
}

// ReturnStack resets s and returns it to the pool.
func ReturnStack(s *Stack) {
	s.data = s.data[:0]
	stackPool.Put(s)
}

// Len returns the number of words currently on the stack.
func (s *Stack) Len() int { return len(s.data) }

// Push appends a word to the top of the stack. Callers must check
// capacity via Len before pushing; Push itself does not enforce
// StackLimit so that the gas/stack-height check in the dispatch loop
// stays the single source of truth.
func (s *Stack) Push(v *uint256.Int) {
	s.data = append(s.data, *v)
}

// Pop removes and returns the top word. Panics if the stack is empty;
// callers must have validated stack height before calling.
func (s *Stack) Pop() uint256.Int {
	n := len(s.data) - 1
	v := s.data[n]
	s.data = s.data[:n]
	return v
}

// Peek returns a pointer to the top word without removing it.
func (s *Stack) Peek() *uint256.Int {
	return &s.data[len(s.data)-1]
}

// Back returns a pointer to the word n positions from the top; Back(0)
// is equivalent to Peek().
func (s *Stack) Back(n int) *uint256.Int {
	return &s.data[len(s.data)-1-n]
}

// Dup pushes a copy of the word n positions from the top (1-indexed, as
// in DUP1..DUP16).
func (s *Stack) Dup(n int) {
	v := s.data[len(s.data)-n]
	s.data = append(s.data, v)
}

// Swap exchanges the top word with the word n positions from the top
// (1-indexed, as in SWAP1..SWAP16).
func (s *Stack) Swap(n int) {
	top := len(s.data) - 1
	s.data[top], s.data[top-n] = s.data[top-n], s.data[top]
}

// Data exposes the underlying slice, top-of-stack last. Used by
// inspectors that want to snapshot stack contents; callers must not
// retain or mutate it beyond the current step.
func (s *Stack) Data() []uint256.Int { return s.data }

func (s *Stack) String() string {
	out := fmt.Sprintf("stack(%d): ", len(s.data))
	for i := len(s.data) - 1; i >= 0; i-- {
		out += s.data[i].Hex() + " "
	}
	return out
}
