package codegen

import (
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
)

var constraintOpcodes = map[ram.ConstraintOp]lvm.Opcode{
	ram.CmpEQ:          lvm.OpEQ,
	ram.CmpNE:          lvm.OpNE,
	ram.CmpLT:          lvm.OpLT,
	ram.CmpLE:          lvm.OpLE,
	ram.CmpGT:          lvm.OpGT,
	ram.CmpGE:          lvm.OpGE,
	ram.CmpMatch:       lvm.OpMatch,
	ram.CmpNotMatch:    lvm.OpNotMatch,
	ram.CmpContains:    lvm.OpContains,
	ram.CmpNotContains: lvm.OpNotContains,
}

func (l *lowerer) condition(c ram.Condition) error {
	switch c := c.(type) {
	case *ram.True:
		l.state.emitOp(lvm.OpTrue)
	case *ram.False:
		l.state.emitOp(lvm.OpFalse)
	case *ram.Conjunction:
		if err := l.condition(c.LHS); err != nil {
			return err
		}
		if err := l.condition(c.RHS); err != nil {
			return err
		}
		l.state.emitOp(lvm.OpConjunction)
	case *ram.Negation:
		if err := l.condition(c.Operand); err != nil {
			return err
		}
		l.state.emitOp(lvm.OpNegation)
	case *ram.EmptinessCheck:
		rel, err := l.relation(c.Relation)
		if err != nil {
			return err
		}
		l.state.emitOp(lvm.OpEmptinessCheck, rel)
	case *ram.ExistenceCheck:
		return l.existence(c, c.Relation, c.Values, len(c.Values), true)
	case *ram.ProvenanceExistenceCheck:
		return l.existence(c, c.Relation, c.Values, len(c.Values)-2, false)
	case *ram.Constraint:
		op, ok := constraintOpcodes[c.Op]
		if !ok {
			return defect(DefectUnsupportedOperator, "Constraint", "unsupported comparison %s", c.Op)
		}
		l.state.emitOp(lvm.OpConstraint)
		if err := l.expression(c.LHS); err != nil {
			return err
		}
		if err := l.expression(c.RHS); err != nil {
			return err
		}
		l.state.emitOp(op)
	case nil:
		return defect(DefectUnknownNode, "nil", "missing condition")
	default:
		return defect(DefectUnknownNode, nodeName(c), "unknown condition")
	}
	return nil
}

// existence lowers an existence check over values[:limit]. A check with no
// bound attribute is a non-emptiness test; when contain is set, a check
// binding every attribute is a membership test.
func (l *lowerer) existence(n ram.Node, r *ram.Relation, values []ram.Expression, limit int, contain bool) error {
	rel, err := l.relation(r)
	if err != nil {
		return err
	}
	bound, err := l.pushPattern(values, limit)
	if err != nil {
		return err
	}
	switch {
	case !anyBound(bound):
		l.state.emitOp(lvm.OpEmptinessCheck, rel)
		l.state.emitOp(lvm.OpNegation)
	case contain && allBound(bound):
		l.state.emitOp(lvm.OpContainCheck, rel)
	default:
		order, err := l.orderFor(n, r)
		if err != nil {
			return err
		}
		l.withMasks(lvm.OpExistenceCheckOneArg, lvm.OpExistenceCheck, bound, rel, order)
	}
	return nil
}
