package codegen

import (
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
)

func (l *lowerer) statement(s ram.Statement, exit exitTarget) error {
	switch s := s.(type) {
	case *ram.Sequence:
		l.state.emitOp(lvm.OpSequence)
		return l.statements(s.Statements, exit)
	case *ram.Parallel:
		return l.parallelStmt(s, exit)
	case *ram.Loop:
		return l.loop(s)
	case *ram.Exit:
		if !exit.ok {
			return defect(DefectNoExitTarget, "Exit", "exit outside of a loop")
		}
		if err := l.condition(s.Condition); err != nil {
			return err
		}
		return l.jump(lvm.OpJmpNZ, exit.label)
	case *ram.LogRelationTimer:
		timer := l.state.Timers.Next()
		rel, err := l.relation(s.Relation)
		if err != nil {
			return err
		}
		l.state.emitOp(lvm.OpLogRelationTimer, l.symbol(s.Message), timer, rel)
		if err := l.statement(s.Statement, exit); err != nil {
			return err
		}
		l.state.emitOp(lvm.OpStopLogTimer, timer)
	case *ram.LogTimer:
		timer := l.state.Timers.Next()
		l.state.emitOp(lvm.OpLogTimer, l.symbol(s.Message), timer)
		if err := l.statement(s.Statement, exit); err != nil {
			return err
		}
		l.state.emitOp(lvm.OpStopLogTimer, timer)
	case *ram.DebugInfo:
		l.state.emitOp(lvm.OpDebugInfo, l.symbol(s.Message))
		return l.statement(s.Statement, exit)
	case *ram.Stratum:
		l.state.emitOp(lvm.OpStratum)
		return l.statement(s.Body, exit)
	case *ram.Create:
		return l.relationOp(lvm.OpCreate, s.Relation)
	case *ram.Clear:
		return l.relationOp(lvm.OpClear, s.Relation)
	case *ram.Drop:
		return l.relationOp(lvm.OpDrop, s.Relation)
	case *ram.LogSize:
		rel, err := l.relation(s.Relation)
		if err != nil {
			return err
		}
		l.state.emitOp(lvm.OpLogSize, rel, l.symbol(s.Message))
	case *ram.Load:
		return l.io(lvm.OpLoad, s.Relation, s.Directives)
	case *ram.Store:
		return l.io(lvm.OpStore, s.Relation, s.Directives)
	case *ram.Fact:
		rel, err := l.relation(s.Relation)
		if err != nil {
			return err
		}
		for i := len(s.Values) - 1; i >= 0; i-- {
			if err := l.expression(s.Values[i]); err != nil {
				return err
			}
		}
		l.state.emitOp(lvm.OpFact, rel, lvm.Word(s.Relation.Arity))
	case *ram.Query:
		l.state.emitOp(lvm.OpQuery)
		return l.operation(s.Operation, exit)
	case *ram.Merge:
		return l.relationOp(lvm.OpMerge, s.Source, s.Target)
	case *ram.Swap:
		return l.relationOp(lvm.OpSwap, s.First, s.Second)
	case nil:
		return defect(DefectUnknownNode, "nil", "missing statement")
	default:
		return defect(DefectUnknownNode, nodeName(s), "unknown statement")
	}
	return nil
}

func (l *lowerer) statements(stmts []ram.Statement, exit exitTarget) error {
	for _, s := range stmts {
		if err := l.statement(s, exit); err != nil {
			return err
		}
	}
	return nil
}

// relationOp emits op with one relation handle per operand.
func (l *lowerer) relationOp(op lvm.Opcode, rels ...*ram.Relation) error {
	operands := make([]lvm.Word, len(rels))
	for i, r := range rels {
		h, err := l.relation(r)
		if err != nil {
			return err
		}
		operands[i] = h
	}
	l.state.emitOp(op, operands...)
	return nil
}

// io emits LOAD or STORE and appends dir to the directive list; the
// operand is the index of the appended entry.
func (l *lowerer) io(op lvm.Opcode, r *ram.Relation, dir ram.IODirectives) error {
	rel, err := l.relation(r)
	if err != nil {
		return err
	}
	l.state.IODirectives = append(l.state.IODirectives, dir)
	l.state.emitOp(op, rel, lvm.Word(len(l.state.IODirectives)-1))
	return nil
}

func (l *lowerer) parallelStmt(s *ram.Parallel, exit exitTarget) error {
	if l.parallel != ParallelForkJoin || len(s.Statements) <= 1 {
		return l.statements(s.Statements, exit)
	}

	n := len(s.Statements)
	end := l.labels.Create()
	operands := make([]lvm.Word, 0, n+2)
	operands = append(operands, lvm.Word(n))
	addr, err := l.labels.Lookup(end)
	if err != nil {
		return err
	}
	operands = append(operands, lvm.Word(addr))

	starts := make([]Label, n)
	for i := range starts {
		starts[i] = l.labels.Create()
		addr, err := l.labels.Lookup(starts[i])
		if err != nil {
			return err
		}
		operands = append(operands, lvm.Word(addr))
	}
	l.state.emitOp(lvm.OpParallel, operands...)

	for i, stmt := range s.Statements {
		if err := l.resolveHere(starts[i]); err != nil {
			return err
		}
		if err := l.statement(stmt, exit); err != nil {
			return err
		}
		l.state.emitOp(lvm.OpStopParallel)
		l.state.emitOp(lvm.OpNop)
	}
	return l.resolveHere(end)
}

// loop lowers a fixpoint loop. Exits inside the body jump to the reset of
// the iteration counter that follows the back edge.
func (l *lowerer) loop(s *ram.Loop) error {
	head := l.state.here()
	l.state.emitOp(lvm.OpLoop)
	out := l.labels.Create()

	if err := l.statement(s.Body, targetOf(out)); err != nil {
		return err
	}
	l.state.emitOp(lvm.OpIncIterationNumber)
	l.state.emitOp(lvm.OpGoto, lvm.Word(head))
	if err := l.resolveHere(out); err != nil {
		return err
	}
	l.state.emitOp(lvm.OpResetIterationNumber)
	return nil
}
