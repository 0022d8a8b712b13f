package ram

import (
	"errors"
	"fmt"
)

// ValidationError describes one structural problem in a RAM program.
type ValidationError struct {
	Node    string // node kind, e.g. "IndexScan"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Node == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Node, e.Message)
}

// Validate checks the structural invariants the bytecode generator relies on:
//
//  1. Relation names are unique, arities are in [0, MaxArity] and match the
//     declared attribute types; eqrel relations are binary.
//  2. Every referenced relation is declared (same name and arity).
//  3. Value lists (patterns, existence values, projections, facts) have one
//     entry per attribute.
//  4. UndefValue appears only in search patterns, existence values and
//     subroutine return values.
//  5. Exit appears only inside a Loop; operators have the right arity.
//
// All problems are reported, joined with errors.Join. Validate returns nil
// for a valid program.
func Validate(p *Program) error {
	if p == nil {
		return &ValidationError{Message: "nil program"}
	}
	v := &validator{prog: p, declared: make(map[string]*Relation)}
	v.validateRelations()
	if p.Main == nil {
		v.addError("Program", "main statement is required")
	} else {
		v.validateStatement(p.Main, 0)
	}
	for _, name := range p.SubroutineNames() {
		if p.Subroutines[name] == nil {
			v.addError("Program", "subroutine %q has no body", name)
			continue
		}
		v.validateStatement(p.Subroutines[name], 0)
	}
	return errors.Join(v.errs...)
}

// validator accumulates errors during traversal.
type validator struct {
	prog     *Program
	declared map[string]*Relation
	errs     []error
}

func (v *validator) addError(node, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{Node: node, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validateRelations() {
	for _, rel := range v.prog.Relations {
		if rel == nil {
			v.addError("Relation", "nil relation declaration")
			continue
		}
		if rel.Name == "" {
			v.addError("Relation", "relation name is required")
			continue
		}
		if _, dup := v.declared[rel.Name]; dup {
			v.addError("Relation", "duplicate relation %q", rel.Name)
			continue
		}
		v.declared[rel.Name] = rel
		if rel.Arity < 0 || rel.Arity > MaxArity {
			v.addError("Relation", "relation %q has arity %d outside [0, %d]", rel.Name, rel.Arity, MaxArity)
		}
		if len(rel.AttributeTypes) > 0 && len(rel.AttributeTypes) != rel.Arity {
			v.addError("Relation", "relation %q declares %d attribute types for arity %d",
				rel.Name, len(rel.AttributeTypes), rel.Arity)
		}
		if len(rel.AttributeNames) > 0 && len(rel.AttributeNames) != rel.Arity {
			v.addError("Relation", "relation %q declares %d attribute names for arity %d",
				rel.Name, len(rel.AttributeNames), rel.Arity)
		}
		if rel.Representation == RepresentationEqRel && rel.Arity != 2 {
			v.addError("Relation", "eqrel relation %q must be binary, has arity %d", rel.Name, rel.Arity)
		}
	}
}

// checkRelation verifies that rel is declared and returns its arity.
func (v *validator) checkRelation(node string, rel *Relation) (int, bool) {
	if rel == nil {
		v.addError(node, "relation is required")
		return 0, false
	}
	decl, ok := v.declared[rel.Name]
	if !ok {
		v.addError(node, "relation %q is not declared", rel.Name)
		return 0, false
	}
	if decl.Arity != rel.Arity {
		v.addError(node, "relation %q referenced with arity %d, declared %d", rel.Name, rel.Arity, decl.Arity)
		return 0, false
	}
	return rel.Arity, true
}

// checkValues verifies a per-attribute value list.
func (v *validator) checkValues(node string, rel *Relation, values []Expression, allowUndef bool) {
	arity, ok := v.checkRelation(node, rel)
	if ok && len(values) != arity {
		v.addError(node, "relation %q has arity %d but %d values were given", rel.Name, arity, len(values))
	}
	for _, e := range values {
		if e == nil {
			if !allowUndef {
				v.addError(node, "missing value")
			}
			continue
		}
		v.validateExpression(e, allowUndef)
	}
}

func (v *validator) validateExpression(e Expression, allowUndef bool) {
	switch e := e.(type) {
	case *Number, *TupleElement, *AutoIncrement:
	case *SubroutineArgument:
		if e.Index < 0 {
			v.addError("SubroutineArgument", "negative argument index %d", e.Index)
		}
	case *UndefValue:
		if !allowUndef {
			v.addError("UndefValue", "undefined value outside a search pattern")
		}
	case *IntrinsicOperator:
		n, ok := e.Op.Operands()
		switch {
		case !ok:
			v.addError("IntrinsicOperator", "unsupported operator %s", e.Op)
		case n < 0 && len(e.Args) == 0:
			v.addError("IntrinsicOperator", "%s needs at least one argument", e.Op)
		case n >= 0 && len(e.Args) != n:
			v.addError("IntrinsicOperator", "%s takes %d arguments, got %d", e.Op, n, len(e.Args))
		}
		for _, arg := range e.Args {
			v.validateOperand("IntrinsicOperator", arg)
		}
	case *UserDefinedOperator:
		if e.Name == "" {
			v.addError("UserDefinedOperator", "operator name is required")
		}
		for _, arg := range e.Args {
			v.validateOperand("UserDefinedOperator", arg)
		}
	case *PackRecord:
		for _, arg := range e.Args {
			v.validateOperand("PackRecord", arg)
		}
	default:
		v.addError("Expression", "unknown expression type %T", e)
	}
}

func (v *validator) validateOperand(node string, e Expression) {
	if e == nil {
		v.addError(node, "missing argument")
		return
	}
	v.validateExpression(e, false)
}

func (v *validator) validateCondition(c Condition) {
	if c == nil {
		v.addError("Condition", "condition is required")
		return
	}
	switch c := c.(type) {
	case *True, *False:
	case *Conjunction:
		v.validateCondition(c.LHS)
		v.validateCondition(c.RHS)
	case *Negation:
		v.validateCondition(c.Operand)
	case *EmptinessCheck:
		v.checkRelation("EmptinessCheck", c.Relation)
	case *ExistenceCheck:
		v.checkValues("ExistenceCheck", c.Relation, c.Values, true)
	case *ProvenanceExistenceCheck:
		v.checkValues("ProvenanceExistenceCheck", c.Relation, c.Values, true)
		if c.Relation != nil && c.Relation.Arity < 2 {
			v.addError("ProvenanceExistenceCheck", "relation %q lacks provenance attributes", c.Relation.Name)
		}
	case *Constraint:
		if _, ok := constraintNames[c.Op]; !ok {
			v.addError("Constraint", "unsupported operator %s", c.Op)
		}
		v.validateOperand("Constraint", c.LHS)
		v.validateOperand("Constraint", c.RHS)
	default:
		v.addError("Condition", "unknown condition type %T", c)
	}
}

func (v *validator) validateNested(node string, op Operation, loops int) {
	if op == nil {
		v.addError(node, "nested operation is required")
		return
	}
	v.validateOperation(op, loops)
}

func (v *validator) validateAggregateFunction(node string, f AggregateFunction, expr Expression) {
	if _, ok := aggregateNames[f]; !ok {
		v.addError(node, "unsupported aggregate function %s", f)
		return
	}
	if f != AggCount {
		v.validateOperand(node, expr)
	}
}

func (v *validator) validateOperation(op Operation, loops int) {
	switch op := op.(type) {
	case *Scan:
		v.checkRelation("Scan", op.Relation)
		v.validateNested("Scan", op.Nested, loops)
	case *Choice:
		v.checkRelation("Choice", op.Relation)
		v.validateCondition(op.Condition)
		v.validateNested("Choice", op.Nested, loops)
	case *IndexScan:
		v.checkValues("IndexScan", op.Relation, op.Pattern, true)
		v.validateNested("IndexScan", op.Nested, loops)
	case *IndexChoice:
		v.checkValues("IndexChoice", op.Relation, op.Pattern, true)
		v.validateCondition(op.Condition)
		v.validateNested("IndexChoice", op.Nested, loops)
	case *UnpackRecord:
		v.validateOperand("UnpackRecord", op.Expression)
		if op.Arity < 0 {
			v.addError("UnpackRecord", "negative arity %d", op.Arity)
		}
		v.validateNested("UnpackRecord", op.Nested, loops)
	case *Aggregate:
		v.checkRelation("Aggregate", op.Relation)
		v.validateAggregateFunction("Aggregate", op.Function, op.Expression)
		v.validateCondition(op.Condition)
		v.validateNested("Aggregate", op.Nested, loops)
	case *IndexAggregate:
		v.checkValues("IndexAggregate", op.Relation, op.Pattern, true)
		v.validateAggregateFunction("IndexAggregate", op.Function, op.Expression)
		v.validateCondition(op.Condition)
		v.validateNested("IndexAggregate", op.Nested, loops)
	case *Break:
		v.validateCondition(op.Condition)
		v.validateNested("Break", op.Nested, loops)
	case *Filter:
		v.validateCondition(op.Condition)
		v.validateNested("Filter", op.Nested, loops)
	case *Project:
		v.checkValues("Project", op.Relation, op.Values, false)
	case *SubroutineReturn:
		for _, e := range op.Values {
			if e != nil {
				v.validateExpression(e, true)
			}
		}
	case nil:
		v.addError("Operation", "operation is required")
	default:
		v.addError("Operation", "unknown operation type %T", op)
	}
}

func (v *validator) validateStatement(s Statement, loops int) {
	switch s := s.(type) {
	case *Sequence:
		for _, child := range s.Statements {
			v.validateStatement(child, loops)
		}
	case *Parallel:
		for _, child := range s.Statements {
			v.validateStatement(child, loops)
		}
	case *Loop:
		v.validateStatement(s.Body, loops+1)
	case *Exit:
		if loops == 0 {
			v.addError("Exit", "exit outside a loop")
		}
		v.validateCondition(s.Condition)
	case *LogRelationTimer:
		v.checkRelation("LogRelationTimer", s.Relation)
		v.validateStatement(s.Statement, loops)
	case *LogTimer:
		v.validateStatement(s.Statement, loops)
	case *DebugInfo:
		v.validateStatement(s.Statement, loops)
	case *Stratum:
		v.validateStatement(s.Body, loops)
	case *Create:
		v.checkRelation("Create", s.Relation)
	case *Clear:
		v.checkRelation("Clear", s.Relation)
	case *Drop:
		v.checkRelation("Drop", s.Relation)
	case *LogSize:
		v.checkRelation("LogSize", s.Relation)
	case *Load:
		v.checkRelation("Load", s.Relation)
	case *Store:
		v.checkRelation("Store", s.Relation)
	case *Fact:
		v.checkValues("Fact", s.Relation, s.Values, false)
	case *Query:
		v.validateNested("Query", s.Operation, loops)
	case *Merge:
		v.checkRelation("Merge", s.Source)
		v.checkRelation("Merge", s.Target)
	case *Swap:
		v.checkRelation("Swap", s.First)
		v.checkRelation("Swap", s.Second)
	case nil:
		v.addError("Statement", "statement is required")
	default:
		v.addError("Statement", "unknown statement type %T", s)
	}
}
