package ram

// Children returns the direct children of n in evaluation order.
// Nil children (an absent condition or expression) are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c == nil {
			return
		}
		out = append(out, c)
	}
	addExprs := func(es []Expression) {
		for _, e := range es {
			if e != nil {
				out = append(out, e)
			}
		}
	}

	switch n := n.(type) {
	case *IntrinsicOperator:
		addExprs(n.Args)
	case *UserDefinedOperator:
		addExprs(n.Args)
	case *PackRecord:
		addExprs(n.Args)

	case *Conjunction:
		add(n.LHS)
		add(n.RHS)
	case *Negation:
		add(n.Operand)
	case *ExistenceCheck:
		addExprs(n.Values)
	case *ProvenanceExistenceCheck:
		addExprs(n.Values)
	case *Constraint:
		add(n.LHS)
		add(n.RHS)

	case *Scan:
		add(n.Nested)
	case *Choice:
		add(n.Condition)
		add(n.Nested)
	case *IndexScan:
		addExprs(n.Pattern)
		add(n.Nested)
	case *IndexChoice:
		addExprs(n.Pattern)
		add(n.Condition)
		add(n.Nested)
	case *UnpackRecord:
		add(n.Expression)
		add(n.Nested)
	case *Aggregate:
		add(n.Condition)
		add(n.Expression)
		add(n.Nested)
	case *IndexAggregate:
		addExprs(n.Pattern)
		add(n.Condition)
		add(n.Expression)
		add(n.Nested)
	case *Break:
		add(n.Condition)
		add(n.Nested)
	case *Filter:
		add(n.Condition)
		add(n.Nested)
	case *Project:
		addExprs(n.Values)
	case *SubroutineReturn:
		addExprs(n.Values)

	case *Sequence:
		for _, s := range n.Statements {
			add(s)
		}
	case *Parallel:
		for _, s := range n.Statements {
			add(s)
		}
	case *Loop:
		add(n.Body)
	case *Exit:
		add(n.Condition)
	case *LogRelationTimer:
		add(n.Statement)
	case *LogTimer:
		add(n.Statement)
	case *DebugInfo:
		add(n.Statement)
	case *Stratum:
		add(n.Body)
	case *Fact:
		addExprs(n.Values)
	case *Query:
		add(n.Operation)
	}
	return out
}

// Walk visits n and its descendants in pre-order. When fn returns false the
// children of the current node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// WalkProgram walks the main statement and every subroutine (sorted by name).
func WalkProgram(p *Program, fn func(Node) bool) {
	Walk(p.Main, fn)
	for _, name := range p.SubroutineNames() {
		Walk(p.Subroutines[name], fn)
	}
}
