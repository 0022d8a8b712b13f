package lvm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/ramc/internal/canon"
	"github.com/roach88/ramc/internal/relation"
	"github.com/roach88/ramc/internal/symbol"
)

// Disassemble writes a human-readable listing of p: the relation table, the
// I/O directives, then every code buffer with one instruction per line.
func Disassemble(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "relations:")
	if p.Relations != nil {
		for _, d := range p.Relations.Descriptors() {
			fmt.Fprintf(bw, "  %d %s/%d %s orders=%d\n", d.Handle, d.Name, d.Arity, d.Kind, len(d.Orders))
		}
	}
	if len(p.IODirectives) > 0 {
		fmt.Fprintln(bw, "io:")
		for i, dir := range p.IODirectives {
			data, err := canon.Marshal(ioDirectivesObject(dir))
			if err != nil {
				return fmt.Errorf("io directive %d: %w", i, err)
			}
			fmt.Fprintf(bw, "  %d %s\n", i, data)
		}
	}

	fmt.Fprintln(bw, "main:")
	if err := p.disassembleCode(bw, p.Main); err != nil {
		return fmt.Errorf("main: %w", err)
	}
	for _, name := range p.SubroutineNames() {
		fmt.Fprintf(bw, "subroutine %s:\n", name)
		if err := p.disassembleCode(bw, p.Subroutines[name]); err != nil {
			return fmt.Errorf("subroutine %s: %w", name, err)
		}
	}
	return bw.Flush()
}

func (p *Program) disassembleCode(w io.Writer, code Code) error {
	instrs, err := p.Decode(code)
	if err != nil {
		return err
	}
	for _, in := range instrs {
		fmt.Fprintf(w, "%6d  %s\n", in.Addr, p.FormatInstruction(in))
	}
	return nil
}

// FormatInstruction renders one instruction with symbolic operands.
func (p *Program) FormatInstruction(in Instruction) string {
	var sb strings.Builder
	sb.WriteString(in.Op.String())
	for i, w := range in.Operands {
		sb.WriteByte(' ')
		sb.WriteString(p.formatOperand(in.OperandKind(i), w))
	}
	return sb.String()
}

func (p *Program) formatOperand(kind OperandKind, w Word) string {
	switch kind {
	case OperandTuple:
		return "t" + strconv.Itoa(int(w))
	case OperandElement:
		return "e" + strconv.Itoa(int(w))
	case OperandCount:
		return "n=" + strconv.Itoa(int(w))
	case OperandArity:
		return "arity=" + strconv.Itoa(int(w))
	case OperandArgument:
		return "arg" + strconv.Itoa(int(w))
	case OperandSymbol:
		if p.Symbols != nil {
			if s, ok := p.Symbols.Lookup(symbol.Symbol(w)); ok {
				return strconv.Quote(s)
			}
		}
		return "sym?" + strconv.Itoa(int(w))
	case OperandRelation:
		if p.Relations != nil {
			if d, ok := p.Relations.Decode(relation.Handle(w)); ok {
				return d.Name
			}
		}
		return "rel?" + strconv.Itoa(int(w))
	case OperandOrder:
		return "order=" + strconv.Itoa(int(w))
	case OperandMask:
		return "mask=" + strconv.FormatUint(uint64(uint32(w)), 2)
	case OperandIterator:
		return "it" + strconv.Itoa(int(w))
	case OperandTimer:
		return "timer" + strconv.Itoa(int(w))
	case OperandAddress:
		return "@" + strconv.Itoa(int(w))
	case OperandIO:
		return "io" + strconv.Itoa(int(w))
	}
	return strconv.Itoa(int(w))
}
