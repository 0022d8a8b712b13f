package codegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ramc/internal/index"
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/relation"
	"github.com/roach88/ramc/internal/symbol"
)

// exitTarget is the label an Exit or Break jumps to. The zero value means
// there is no enclosing loop or iteration.
type exitTarget struct {
	label Label
	ok    bool
}

var noTarget = exitTarget{}

func targetOf(l Label) exitTarget {
	return exitTarget{label: l, ok: true}
}

// lowerer runs one lowering pass.
type lowerer struct {
	state    *LoweringState
	labels   *LabelTable
	registry *relation.Registry
	resolver *Resolver
	symbols  *symbol.Table
	parallel ParallelStrategy
}

func (l *lowerer) relation(rel *ram.Relation) (lvm.Word, error) {
	h, err := l.registry.Encode(rel)
	if err != nil {
		return 0, defect(DefectRelation, "", "%v", err)
	}
	return lvm.Word(h), nil
}

func (l *lowerer) symbol(s string) lvm.Word {
	return lvm.Word(l.symbols.Intern(s))
}

// jump emits op with the address of target.
func (l *lowerer) jump(op lvm.Opcode, target Label) error {
	addr, err := l.labels.Lookup(target)
	if err != nil {
		return err
	}
	l.state.emitOp(op, lvm.Word(addr))
	return nil
}

func (l *lowerer) resolveHere(target Label) error {
	return l.labels.Resolve(target, l.state.here())
}

// pushPattern lowers the bound entries of values[:limit] in descending
// attribute order and returns one bound flag per entry of values.
func (l *lowerer) pushPattern(values []ram.Expression, limit int) ([]bool, error) {
	bound := make([]bool, len(values))
	for i := limit - 1; i >= 0; i-- {
		if ram.IsUndef(values[i]) {
			continue
		}
		if err := l.expression(values[i]); err != nil {
			return nil, err
		}
		bound[i] = true
	}
	return bound, nil
}

// orderFor resolves the order number serving the search performed by n.
func (l *lowerer) orderFor(n ram.Node, rel *ram.Relation) (lvm.Word, error) {
	sig, ok := index.SearchSignature(n)
	if !ok {
		return 0, defect(DefectUnknownNode, nodeName(n), "not a search site")
	}
	order, err := l.resolver.Resolve(rel, sig)
	if err != nil {
		var de *DefectError
		if errors.As(err, &de) {
			de.Node = nodeName(n)
		}
		return 0, err
	}
	return lvm.Word(order), nil
}

// withMasks emits oneArg when the masks fit in a single word and op
// otherwise, followed by operands and the mask words.
func (l *lowerer) withMasks(oneArg, op lvm.Opcode, bound []bool, operands ...lvm.Word) {
	masks := lvm.PackMask(bound)
	if len(masks) == 1 {
		l.state.emitOp(oneArg, append(operands, masks[0])...)
		return
	}
	l.state.emitOp(op, append(operands, masks...)...)
}

func anyBound(bound []bool) bool {
	for _, b := range bound {
		if b {
			return true
		}
	}
	return false
}

func allBound(bound []bool) bool {
	for _, b := range bound {
		if !b {
			return false
		}
	}
	return true
}

// nodeName is the kind of n used in defect messages.
func nodeName(n ram.Node) string {
	if n == nil {
		return "nil"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ram.")
}
