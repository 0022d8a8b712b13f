package codegen

import (
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
)

func (l *lowerer) operation(op ram.Operation, exit exitTarget) error {
	switch op := op.(type) {
	case *ram.Scan:
		return l.scan(op, exit)
	case *ram.Choice:
		return l.choice(op, exit)
	case *ram.IndexScan:
		return l.indexScan(op, exit)
	case *ram.IndexChoice:
		return l.indexChoice(op, exit)
	case *ram.UnpackRecord:
		return l.unpackRecord(op, exit)
	case *ram.Aggregate:
		return l.aggregate(aggregateSite{
			node: op, marker: lvm.OpAggregate, fn: op.Function, rel: op.Relation, tuple: op.Tuple,
			expr: op.Expression, cond: op.Condition, nested: op.Nested, profile: op.ProfileText,
		}, exit)
	case *ram.IndexAggregate:
		return l.aggregate(aggregateSite{
			node: op, marker: lvm.OpIndexAggregate, fn: op.Function, rel: op.Relation, tuple: op.Tuple,
			pattern: op.Pattern, indexed: true,
			expr: op.Expression, cond: op.Condition, nested: op.Nested, profile: op.ProfileText,
		}, exit)
	case *ram.Break:
		if !exit.ok {
			return defect(DefectNoExitTarget, "Break", "break outside of an iteration")
		}
		if err := l.condition(op.Condition); err != nil {
			return err
		}
		if err := l.jump(lvm.OpJmpNZ, exit.label); err != nil {
			return err
		}
		return l.operation(op.Nested, exit)
	case *ram.Filter:
		l.state.emitOp(lvm.OpFilter, l.symbol(op.ProfileText))
		skip := l.labels.Create()
		if err := l.condition(op.Condition); err != nil {
			return err
		}
		if err := l.jump(lvm.OpJmpEZ, skip); err != nil {
			return err
		}
		if err := l.operation(op.Nested, exit); err != nil {
			return err
		}
		return l.resolveHere(skip)
	case *ram.Project:
		rel, err := l.relation(op.Relation)
		if err != nil {
			return err
		}
		for i := len(op.Values) - 1; i >= 0; i-- {
			if err := l.expression(op.Values[i]); err != nil {
				return err
			}
		}
		l.state.emitOp(lvm.OpProject, lvm.Word(op.Relation.Arity), rel)
	case *ram.SubroutineReturn:
		types := make([]byte, 0, len(op.Values))
		for i := len(op.Values) - 1; i >= 0; i-- {
			if ram.IsUndef(op.Values[i]) {
				types = append(types, '_')
				continue
			}
			types = append(types, 'V')
			if err := l.expression(op.Values[i]); err != nil {
				return err
			}
		}
		l.state.emitOp(lvm.OpReturnValue, lvm.Word(len(op.Values)), l.symbol(string(types)))
	case nil:
		return defect(DefectUnknownNode, "nil", "missing operation")
	default:
		return defect(DefectUnknownNode, nodeName(op), "unknown operation")
	}
	return nil
}

// tupleOperation emits the SEARCH marker of a tuple-binding operation and
// lowers its nested operation.
func (l *lowerer) tupleOperation(profile string, nested ram.Operation, exit exitTarget) error {
	flag := lvm.Word(0)
	if profile != "" {
		flag = 1
	}
	l.state.emitOp(lvm.OpSearch, flag, l.symbol(profile))
	return l.operation(nested, exit)
}

// iterate emits the body of a cursor loop: test the iterator, leave to
// done at the end, bind the current tuple. It returns the loop head.
func (l *lowerer) iterate(iter lvm.Word, tuple int, done Label) (lvm.Address, error) {
	head := l.state.here()
	l.state.emitOp(lvm.OpIterNotAtEnd, iter)
	if err := l.jump(lvm.OpJmpEZ, done); err != nil {
		return 0, err
	}
	l.state.emitOp(lvm.OpIterSelect, iter, lvm.Word(tuple))
	return head, nil
}

// advance moves iter forward and jumps back to head.
func (l *lowerer) advance(iter lvm.Word, head lvm.Address) {
	l.state.emitOp(lvm.OpIterInc, iter)
	l.state.emitOp(lvm.OpGoto, lvm.Word(head))
}

// rangeInit lowers a search pattern and initializes iter over the matching
// tuples. An all-free pattern iterates the full index.
func (l *lowerer) rangeInit(n ram.Node, r *ram.Relation, rel, iter lvm.Word, pattern []ram.Expression) error {
	bound, err := l.pushPattern(pattern, len(pattern))
	if err != nil {
		return err
	}
	if !anyBound(bound) {
		l.state.emitOp(lvm.OpIterInitFullIndex, iter, rel)
		return nil
	}
	order, err := l.orderFor(n, r)
	if err != nil {
		return err
	}
	l.withMasks(lvm.OpIterInitRangeIndexOneArg, lvm.OpIterInitRangeIndex, bound, iter, rel, order)
	return nil
}

func (l *lowerer) scan(op *ram.Scan, exit exitTarget) error {
	l.state.emitOp(lvm.OpScan)
	iter := l.state.Iterators.Next()
	done := l.labels.Create()

	rel, err := l.relation(op.Relation)
	if err != nil {
		return err
	}
	l.state.emitOp(lvm.OpIterInitFullIndex, iter, rel)

	head, err := l.iterate(iter, op.Tuple, done)
	if err != nil {
		return err
	}
	if err := l.tupleOperation(op.ProfileText, op.Nested, targetOf(done)); err != nil {
		return err
	}
	l.advance(iter, head)
	return l.resolveHere(done)
}

func (l *lowerer) indexScan(op *ram.IndexScan, exit exitTarget) error {
	l.state.emitOp(lvm.OpIndexScan)
	iter := l.state.Iterators.Next()
	done := l.labels.Create()

	rel, err := l.relation(op.Relation)
	if err != nil {
		return err
	}
	if err := l.rangeInit(op, op.Relation, rel, iter, op.Pattern); err != nil {
		return err
	}

	head, err := l.iterate(iter, op.Tuple, done)
	if err != nil {
		return err
	}
	if err := l.tupleOperation(op.ProfileText, op.Nested, targetOf(done)); err != nil {
		return err
	}
	l.advance(iter, head)
	return l.resolveHere(done)
}

func (l *lowerer) choice(op *ram.Choice, exit exitTarget) error {
	l.state.emitOp(lvm.OpChoice)
	iter := l.state.Iterators.Next()
	found := l.labels.Create()
	done := l.labels.Create()

	rel, err := l.relation(op.Relation)
	if err != nil {
		return err
	}
	l.state.emitOp(lvm.OpIterInitFullIndex, iter, rel)
	return l.choose(iter, op.Tuple, op.Condition, op.ProfileText, op.Nested, found, done, exit)
}

func (l *lowerer) indexChoice(op *ram.IndexChoice, exit exitTarget) error {
	l.state.emitOp(lvm.OpIndexChoice)
	iter := l.state.Iterators.Next()
	found := l.labels.Create()
	done := l.labels.Create()

	rel, err := l.relation(op.Relation)
	if err != nil {
		return err
	}
	if err := l.rangeInit(op, op.Relation, rel, iter, op.Pattern); err != nil {
		return err
	}
	return l.choose(iter, op.Tuple, op.Condition, op.ProfileText, op.Nested, found, done, exit)
}

// choose emits the search loop of a choice: the first tuple satisfying
// cond jumps to found, where the nested operation runs once.
func (l *lowerer) choose(iter lvm.Word, tuple int, cond ram.Condition, profile string, nested ram.Operation, found, done Label, exit exitTarget) error {
	head, err := l.iterate(iter, tuple, done)
	if err != nil {
		return err
	}
	if err := l.condition(cond); err != nil {
		return err
	}
	if err := l.jump(lvm.OpJmpNZ, found); err != nil {
		return err
	}
	l.advance(iter, head)

	if err := l.resolveHere(found); err != nil {
		return err
	}
	if err := l.tupleOperation(profile, nested, exit); err != nil {
		return err
	}
	return l.resolveHere(done)
}

func (l *lowerer) unpackRecord(op *ram.UnpackRecord, exit exitTarget) error {
	if err := l.expression(op.Expression); err != nil {
		return err
	}
	skip := l.labels.Create()
	addr, err := l.labels.Lookup(skip)
	if err != nil {
		return err
	}
	l.state.emitOp(lvm.OpUnpackRecord, lvm.Word(op.Arity), lvm.Word(op.Tuple), lvm.Word(addr))
	if err := l.tupleOperation(op.ProfileText, op.Nested, exit); err != nil {
		return err
	}
	return l.resolveHere(skip)
}

// aggregateSite is the common shape of Aggregate and IndexAggregate.
type aggregateSite struct {
	node    ram.Node
	marker  lvm.Opcode
	fn      ram.AggregateFunction
	rel     *ram.Relation
	tuple   int
	pattern []ram.Expression
	indexed bool
	expr    ram.Expression
	cond    ram.Condition
	nested  ram.Operation
	profile string
}

// aggregateInit is the starting accumulator of each fold. Min and max start
// at the opposite domain extreme, which also marks "no tuple seen".
func aggregateInit(fn ram.AggregateFunction) lvm.Word {
	switch fn {
	case ram.AggMin:
		return lvm.MaxDomain
	case ram.AggMax:
		return lvm.MinDomain
	}
	return 0
}

func (l *lowerer) aggregate(a aggregateSite, exit exitTarget) error {
	l.state.emitOp(a.marker)
	iter := l.state.Iterators.Next()
	done := l.labels.Create()
	skip := l.labels.Create()

	rel, err := l.relation(a.rel)
	if err != nil {
		return err
	}
	if a.indexed {
		if err := l.rangeInit(a.node, a.rel, rel, iter, a.pattern); err != nil {
			return err
		}
	} else {
		l.state.emitOp(lvm.OpIterInitFullIndex, iter, rel)
	}

	if a.fn == ram.AggCount && ram.IsTrue(a.cond) {
		l.state.emitOp(lvm.OpAggregateCount, iter)
	} else if err := l.fold(a, iter, done); err != nil {
		return err
	}

	if err := l.resolveHere(done); err != nil {
		return err
	}
	l.state.emitOp(lvm.OpAggregateReturn, lvm.Word(a.tuple))

	if a.fn == ram.AggMin || a.fn == ram.AggMax {
		l.state.emitOp(lvm.OpTupleElement, lvm.Word(a.tuple), 0)
		l.state.emitOp(lvm.OpNumber, aggregateInit(a.fn))
		l.state.emitOp(lvm.OpEQ)
		if err := l.jump(lvm.OpJmpNZ, skip); err != nil {
			return err
		}
	}
	if err := l.tupleOperation(a.profile, a.nested, exit); err != nil {
		return err
	}
	return l.resolveHere(skip)
}

// fold emits the accumulation loop of an aggregate.
func (l *lowerer) fold(a aggregateSite, iter lvm.Word, done Label) error {
	switch a.fn {
	case ram.AggMin, ram.AggMax, ram.AggCount, ram.AggSum:
	default:
		return defect(DefectUnsupportedOperator, nodeName(a.node), "unsupported aggregate %s", a.fn)
	}
	l.state.emitOp(lvm.OpNumber, aggregateInit(a.fn))

	head, err := l.iterate(iter, a.tuple, done)
	if err != nil {
		return err
	}

	next := l.labels.Create()
	if !ram.IsTrue(a.cond) {
		if err := l.condition(a.cond); err != nil {
			return err
		}
		if err := l.jump(lvm.OpJmpEZ, next); err != nil {
			return err
		}
	}
	if a.fn != ram.AggCount {
		if err := l.expression(a.expr); err != nil {
			return err
		}
	}

	switch a.fn {
	case ram.AggMin:
		l.state.emitOp(lvm.OpMin, 2)
	case ram.AggMax:
		l.state.emitOp(lvm.OpMax, 2)
	case ram.AggCount:
		l.state.emitOp(lvm.OpNumber, 1)
		l.state.emitOp(lvm.OpAdd)
	case ram.AggSum:
		l.state.emitOp(lvm.OpAdd)
	}

	if err := l.resolveHere(next); err != nil {
		return err
	}
	l.advance(iter, head)
	return nil
}
