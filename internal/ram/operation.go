package ram

import "fmt"

// Operation is a node that produces zero or more tuples for its nested
// operation.
//
// This is a sealed interface - only types in this package implement it.
type Operation interface {
	Node
	operation()
}

// Scan iterates over every tuple of Relation, binding each to slot Tuple.
type Scan struct {
	Relation    *Relation
	Tuple       int
	Nested      Operation
	ProfileText string
}

// Choice binds the first tuple of Relation satisfying Condition and runs
// Nested once for it.
type Choice struct {
	Relation    *Relation
	Tuple       int
	Condition   Condition
	Nested      Operation
	ProfileText string
}

// IndexScan iterates over the tuples of Relation matching Pattern.
// Pattern has one entry per attribute; UndefValue leaves it free.
type IndexScan struct {
	Relation    *Relation
	Tuple       int
	Pattern     []Expression
	Nested      Operation
	ProfileText string
}

// IndexChoice is a Choice restricted to the tuples matching Pattern.
type IndexChoice struct {
	Relation    *Relation
	Tuple       int
	Pattern     []Expression
	Condition   Condition
	Nested      Operation
	ProfileText string
}

// UnpackRecord unpacks the record referenced by Expression into slot Tuple.
// A null reference skips Nested.
type UnpackRecord struct {
	Expression  Expression
	Arity       int
	Tuple       int
	Nested      Operation
	ProfileText string
}

// Aggregate folds Expression over the tuples of Relation that satisfy
// Condition and binds the result to attribute 0 of slot Tuple.
type Aggregate struct {
	Function    AggregateFunction
	Relation    *Relation
	Tuple       int
	Expression  Expression // unused for count
	Condition   Condition
	Nested      Operation
	ProfileText string
}

// IndexAggregate is an Aggregate over the tuples matching Pattern.
type IndexAggregate struct {
	Function    AggregateFunction
	Relation    *Relation
	Tuple       int
	Pattern     []Expression
	Expression  Expression
	Condition   Condition
	Nested      Operation
	ProfileText string
}

// Break leaves the enclosing iteration when Condition holds, otherwise runs
// Nested.
type Break struct {
	Condition Condition
	Nested    Operation
}

// Filter runs Nested only when Condition holds.
type Filter struct {
	Condition   Condition
	Nested      Operation
	ProfileText string
}

// Project inserts Values as a tuple into Relation.
type Project struct {
	Relation *Relation
	Values   []Expression
}

// SubroutineReturn returns Values from a subroutine. UndefValue entries
// are returned as absent.
type SubroutineReturn struct {
	Values []Expression
}

func (*Scan) ramNode()             {}
func (*Choice) ramNode()           {}
func (*IndexScan) ramNode()        {}
func (*IndexChoice) ramNode()      {}
func (*UnpackRecord) ramNode()     {}
func (*Aggregate) ramNode()        {}
func (*IndexAggregate) ramNode()   {}
func (*Break) ramNode()            {}
func (*Filter) ramNode()           {}
func (*Project) ramNode()          {}
func (*SubroutineReturn) ramNode() {}

func (*Scan) operation()             {}
func (*Choice) operation()           {}
func (*IndexScan) operation()        {}
func (*IndexChoice) operation()      {}
func (*UnpackRecord) operation()     {}
func (*Aggregate) operation()        {}
func (*IndexAggregate) operation()   {}
func (*Break) operation()            {}
func (*Filter) operation()           {}
func (*Project) operation()          {}
func (*SubroutineReturn) operation() {}

// AggregateFunction is the fold applied by an aggregate.
type AggregateFunction int

const (
	AggMin AggregateFunction = iota
	AggMax
	AggCount
	AggSum
)

var aggregateNames = map[AggregateFunction]string{
	AggMin:   "min",
	AggMax:   "max",
	AggCount: "count",
	AggSum:   "sum",
}

func (f AggregateFunction) String() string {
	if name, ok := aggregateNames[f]; ok {
		return name
	}
	return fmt.Sprintf("AggregateFunction(%d)", int(f))
}

// ParseAggregateFunction maps an aggregate name to its function.
func ParseAggregateFunction(s string) (AggregateFunction, error) {
	for f, name := range aggregateNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown aggregate function %q", s)
}
