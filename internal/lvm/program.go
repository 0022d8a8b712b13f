package lvm

import (
	"fmt"
	"sort"

	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/relation"
	"github.com/roach88/ramc/internal/symbol"
)

// Program is a compiled RAM program: the main code buffer, one buffer per
// subroutine, the relation registry, the I/O directive list addressed by
// LOAD/STORE operands and the shared string table.
type Program struct {
	Main         Code
	Subroutines  map[string]Code
	Relations    *relation.Registry
	IODirectives []ram.IODirectives
	Symbols      *symbol.Table
}

// SubroutineNames returns subroutine names in sorted order.
func (p *Program) SubroutineNames() []string {
	names := make([]string, 0, len(p.Subroutines))
	for name := range p.Subroutines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instruction is one decoded instruction.
type Instruction struct {
	Addr     Address
	Op       Opcode
	Operands []Word
}

// Next returns the address of the following instruction.
func (in Instruction) Next() Address {
	return in.Addr + Address(1+len(in.Operands))
}

// OperandKind returns the kind of operand i.
func (in Instruction) OperandKind(i int) OperandKind {
	info := opcodes[in.Op]
	if i < len(info.Operands) {
		return info.Operands[i]
	}
	switch info.Trailing {
	case TrailingMasks:
		return OperandMask
	case TrailingAddresses:
		return OperandAddress
	}
	return OperandValue
}

// Decode splits code into instructions. Mask lengths are derived from the
// arity of the relation operand, so every relation handle must be known to
// the program's registry. Every address operand must name an instruction
// boundary or the end of the buffer.
func (p *Program) Decode(code Code) ([]Instruction, error) {
	var out []Instruction
	boundaries := make(map[Address]bool)
	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		info, ok := op.Info()
		if !ok {
			return nil, fmt.Errorf("address %d: unknown opcode %d", pc, code[pc])
		}
		n := len(info.Operands)
		if pc+1+n > len(code) {
			return nil, fmt.Errorf("address %d: %s truncated", pc, op)
		}
		switch info.Trailing {
		case TrailingMasks:
			arity, err := p.relationArity(info, code[pc+1:pc+1+n])
			if err != nil {
				return nil, fmt.Errorf("address %d: %s: %w", pc, op, err)
			}
			n += MaskWords(arity)
		case TrailingAddresses:
			count := int(code[pc+1])
			if count < 0 {
				return nil, fmt.Errorf("address %d: %s: negative child count %d", pc, op, count)
			}
			n += count
		}
		if pc+1+n > len(code) {
			return nil, fmt.Errorf("address %d: %s truncated", pc, op)
		}
		boundaries[Address(pc)] = true
		out = append(out, Instruction{
			Addr:     Address(pc),
			Op:       op,
			Operands: code[pc+1 : pc+1+n : pc+1+n],
		})
		pc += 1 + n
	}
	boundaries[code.Len()] = true

	for _, in := range out {
		for i, w := range in.Operands {
			if in.OperandKind(i) == OperandAddress && !boundaries[Address(w)] {
				return nil, fmt.Errorf("address %d: %s jumps to %d, not an instruction", in.Addr, in.Op, w)
			}
		}
	}
	return out, nil
}

func (p *Program) relationArity(info Info, fixed []Word) (int, error) {
	for i, kind := range info.Operands {
		if kind != OperandRelation {
			continue
		}
		if p.Relations == nil {
			return 0, fmt.Errorf("no relation registry")
		}
		desc, ok := p.Relations.Decode(relation.Handle(fixed[i]))
		if !ok {
			return 0, fmt.Errorf("unknown relation handle %d", fixed[i])
		}
		return desc.Arity, nil
	}
	return 0, fmt.Errorf("no relation operand")
}
