package ram

import "fmt"

// Condition is a node that evaluates to a boolean.
//
// This is a sealed interface - only types in this package implement it.
type Condition interface {
	Node
	condition()
}

// True is the constant true condition.
type True struct{}

// False is the constant false condition.
type False struct{}

// Conjunction holds when both sides hold.
type Conjunction struct {
	LHS Condition
	RHS Condition
}

// Negation inverts its operand.
type Negation struct {
	Operand Condition
}

// EmptinessCheck holds when Relation has no tuples.
type EmptinessCheck struct {
	Relation *Relation
}

// ExistenceCheck holds when Relation contains a tuple matching Values.
// Values has one entry per attribute; UndefValue leaves the attribute free.
type ExistenceCheck struct {
	Relation *Relation
	Values   []Expression
}

// ProvenanceExistenceCheck is an ExistenceCheck on a provenance relation.
// The last two attributes carry provenance annotations and never
// participate in the search.
type ProvenanceExistenceCheck struct {
	Relation *Relation
	Values   []Expression
}

// Constraint compares two values.
type Constraint struct {
	Op  ConstraintOp
	LHS Expression
	RHS Expression
}

func (*True) ramNode()                     {}
func (*False) ramNode()                    {}
func (*Conjunction) ramNode()              {}
func (*Negation) ramNode()                 {}
func (*EmptinessCheck) ramNode()           {}
func (*ExistenceCheck) ramNode()           {}
func (*ProvenanceExistenceCheck) ramNode() {}
func (*Constraint) ramNode()               {}

func (*True) condition()                     {}
func (*False) condition()                    {}
func (*Conjunction) condition()              {}
func (*Negation) condition()                 {}
func (*EmptinessCheck) condition()           {}
func (*ExistenceCheck) condition()           {}
func (*ProvenanceExistenceCheck) condition() {}
func (*Constraint) condition()               {}

// IsTrue reports whether c is the constant True condition.
func IsTrue(c Condition) bool {
	_, ok := c.(*True)
	return ok
}

// ConstraintOp is a binary comparison.
type ConstraintOp int

const (
	CmpEQ ConstraintOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
	CmpMatch
	CmpNotMatch
	CmpContains
	CmpNotContains
)

var constraintNames = map[ConstraintOp]string{
	CmpEQ:          "eq",
	CmpNE:          "ne",
	CmpLT:          "lt",
	CmpLE:          "le",
	CmpGT:          "gt",
	CmpGE:          "ge",
	CmpMatch:       "match",
	CmpNotMatch:    "not_match",
	CmpContains:    "contains",
	CmpNotContains: "not_contains",
}

func (op ConstraintOp) String() string {
	if name, ok := constraintNames[op]; ok {
		return name
	}
	return fmt.Sprintf("ConstraintOp(%d)", int(op))
}

// ParseConstraintOp maps a comparison name to its ConstraintOp.
func ParseConstraintOp(s string) (ConstraintOp, error) {
	for op, name := range constraintNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown constraint operator %q", s)
}
