// Package lvm defines the bytecode executed by the LVM stack machine: the
// opcode set and its operand layout, the code buffer, search-mask packing
// and the compiled Program container.
//
// A code buffer is a flat sequence of 32-bit words mixing opcodes and their
// operands. The operand layout of every opcode is static (see Info) except
// for the mask-carrying instructions, whose mask word count follows from the
// arity of their relation operand, and PARALLEL, which carries one start
// address per child.
package lvm

import "math"

// Word is one bytecode word; it is also the domain of runtime values.
type Word = int32

// WordBits is the number of attributes one mask word covers.
const WordBits = 32

// Domain extremes. They seed min/max aggregates and mark "no tuple seen".
const (
	MaxDomain Word = math.MaxInt32
	MinDomain Word = math.MinInt32
)

// Address is an absolute position in a code buffer.
type Address int

// Code is a bytecode buffer.
type Code []Word

// Len returns the address one past the last word.
func (c Code) Len() Address {
	return Address(len(c))
}

// MaskWords returns the number of mask words needed for an arity-wide
// search mask.
func MaskWords(arity int) int {
	return (arity + WordBits - 1) / WordBits
}

// PackMask packs per-attribute bound flags into mask words. Bit j of word i
// is attribute i*WordBits+j.
func PackMask(bound []bool) []Word {
	words := make([]Word, MaskWords(len(bound)))
	for i, b := range bound {
		if b {
			words[i/WordBits] |= Word(uint32(1) << uint(i%WordBits))
		}
	}
	return words
}

// UnpackMask is the inverse of PackMask.
func UnpackMask(words []Word, arity int) []bool {
	bound := make([]bool, arity)
	for i := range bound {
		w := i / WordBits
		if w < len(words) {
			bound[i] = uint32(words[w])&(uint32(1)<<uint(i%WordBits)) != 0
		}
	}
	return bound
}
