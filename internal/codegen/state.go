package codegen

import (
	"golang.org/x/exp/constraints"

	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
)

// counter hands out dense handles from zero.
type counter[T constraints.Integer] struct {
	next T
}

func (c *counter[T]) Next() T {
	n := c.next
	c.next++
	return n
}

func (c *counter[T]) Count() T {
	return c.next
}

// LoweringState is everything one lowering pass produces. A fresh state is
// built for every pass; only the label table survives between passes.
type LoweringState struct {
	Code      lvm.Code
	Iterators counter[lvm.Word]
	Timers    counter[lvm.Word]

	// IODirectives starts as the list accumulated by previously compiled
	// units; LOAD and STORE append to it.
	IODirectives []ram.IODirectives
}

func newLoweringState(io []ram.IODirectives) *LoweringState {
	return &LoweringState{IODirectives: append([]ram.IODirectives(nil), io...)}
}

func (s *LoweringState) emit(words ...lvm.Word) {
	s.Code = append(s.Code, words...)
}

func (s *LoweringState) emitOp(op lvm.Opcode, operands ...lvm.Word) {
	s.Code = append(s.Code, lvm.Word(op))
	s.Code = append(s.Code, operands...)
}

func (s *LoweringState) here() lvm.Address {
	return s.Code.Len()
}
