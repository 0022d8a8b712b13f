package codegen

import (
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
)

var functorOpcodes = map[ram.FunctorOp]lvm.Opcode{
	ram.OpOrd:      lvm.OpOrd,
	ram.OpStrlen:   lvm.OpStrlen,
	ram.OpNeg:      lvm.OpNeg,
	ram.OpBNot:     lvm.OpBNot,
	ram.OpLNot:     lvm.OpLNot,
	ram.OpToNumber: lvm.OpToNumber,
	ram.OpToString: lvm.OpToString,
	ram.OpAdd:      lvm.OpAdd,
	ram.OpSub:      lvm.OpSub,
	ram.OpMul:      lvm.OpMul,
	ram.OpDiv:      lvm.OpDiv,
	ram.OpExp:      lvm.OpExp,
	ram.OpMod:      lvm.OpMod,
	ram.OpBAnd:     lvm.OpBAnd,
	ram.OpBOr:      lvm.OpBOr,
	ram.OpBXor:     lvm.OpBXor,
	ram.OpLAnd:     lvm.OpLAnd,
	ram.OpLOr:      lvm.OpLOr,
	ram.OpMax:      lvm.OpMax,
	ram.OpMin:      lvm.OpMin,
	ram.OpCat:      lvm.OpCat,
	ram.OpSubstr:   lvm.OpSubstr,
}

func (l *lowerer) expression(e ram.Expression) error {
	switch e := e.(type) {
	case *ram.Number:
		l.state.emitOp(lvm.OpNumber, e.Value)
	case *ram.TupleElement:
		l.state.emitOp(lvm.OpTupleElement, lvm.Word(e.Tuple), lvm.Word(e.Element))
	case *ram.AutoIncrement:
		l.state.emitOp(lvm.OpAutoIncrement)
	case *ram.IntrinsicOperator:
		return l.intrinsic(e)
	case *ram.UserDefinedOperator:
		for i := len(e.Args) - 1; i >= 0; i-- {
			if err := l.expression(e.Args[i]); err != nil {
				return err
			}
		}
		l.state.emitOp(lvm.OpUserDefinedOperator, l.symbol(e.Name), l.symbol(e.Type), lvm.Word(len(e.Args)))
	case *ram.PackRecord:
		if err := l.expressions(e.Args); err != nil {
			return err
		}
		l.state.emitOp(lvm.OpPackRecord, lvm.Word(len(e.Args)))
	case *ram.SubroutineArgument:
		l.state.emitOp(lvm.OpArgument, lvm.Word(e.Index))
	case *ram.UndefValue, nil:
		return defect(DefectUndefinedValue, "UndefValue", "undefined value in a computed position")
	default:
		return defect(DefectUnknownNode, nodeName(e), "unknown expression")
	}
	return nil
}

// expressions lowers args in order.
func (l *lowerer) expressions(args []ram.Expression) error {
	for _, arg := range args {
		if err := l.expression(arg); err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) intrinsic(e *ram.IntrinsicOperator) error {
	op, ok := functorOpcodes[e.Op]
	want, known := e.Op.Operands()
	if !ok || !known {
		return defect(DefectUnsupportedOperator, "IntrinsicOperator", "unsupported functor %s", e.Op)
	}
	if (want < 0 && len(e.Args) == 0) || (want >= 0 && len(e.Args) != want) {
		return defect(DefectOperandCount, "IntrinsicOperator", "%s takes %d arguments, got %d", e.Op, want, len(e.Args))
	}

	switch e.Op {
	case ram.OpMax, ram.OpMin:
		if err := l.expressions(e.Args); err != nil {
			return err
		}
		l.state.emitOp(op, lvm.Word(len(e.Args)))
	case ram.OpCat:
		for i := len(e.Args) - 1; i >= 0; i-- {
			if err := l.expression(e.Args[i]); err != nil {
				return err
			}
		}
		l.state.emitOp(op, lvm.Word(len(e.Args)))
	default:
		if err := l.expressions(e.Args); err != nil {
			return err
		}
		l.state.emitOp(op)
	}
	return nil
}
