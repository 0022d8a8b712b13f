package ram

import "fmt"

// Node is any RAM tree node.
type Node interface {
	ramNode()
}

// Expression is a node that evaluates to a single value.
//
// This is a sealed interface - only types in this package implement it.
type Expression interface {
	Node
	expression()
}

// Number is a numeric constant.
type Number struct {
	Value int32
}

// TupleElement reads attribute Element of the tuple bound to slot Tuple.
type TupleElement struct {
	Tuple   int
	Element int
}

// AutoIncrement yields the next value of the global counter.
type AutoIncrement struct{}

// IntrinsicOperator applies a built-in functor to its arguments.
type IntrinsicOperator struct {
	Op   FunctorOp
	Args []Expression
}

// UserDefinedOperator calls an externally defined functor.
// Type is the functor's type signature string.
type UserDefinedOperator struct {
	Name string
	Type string
	Args []Expression
}

// PackRecord builds a record from its fields.
type PackRecord struct {
	Args []Expression
}

// SubroutineArgument reads argument Index of the running subroutine.
type SubroutineArgument struct {
	Index int
}

// UndefValue is an intentionally unspecified value.
type UndefValue struct{}

func (*Number) ramNode()              {}
func (*TupleElement) ramNode()        {}
func (*AutoIncrement) ramNode()       {}
func (*IntrinsicOperator) ramNode()   {}
func (*UserDefinedOperator) ramNode() {}
func (*PackRecord) ramNode()          {}
func (*SubroutineArgument) ramNode()  {}
func (*UndefValue) ramNode()          {}

func (*Number) expression()              {}
func (*TupleElement) expression()        {}
func (*AutoIncrement) expression()       {}
func (*IntrinsicOperator) expression()   {}
func (*UserDefinedOperator) expression() {}
func (*PackRecord) expression()          {}
func (*SubroutineArgument) expression()  {}
func (*UndefValue) expression()          {}

// IsUndef reports whether e is an UndefValue (or nil).
func IsUndef(e Expression) bool {
	if e == nil {
		return true
	}
	_, ok := e.(*UndefValue)
	return ok
}

// FunctorOp identifies a built-in functor.
type FunctorOp int

const (
	// unary
	OpOrd FunctorOp = iota
	OpStrlen
	OpNeg
	OpBNot
	OpLNot
	OpToNumber
	OpToString

	// binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpExp
	OpMod
	OpBAnd
	OpBOr
	OpBXor
	OpLAnd
	OpLOr

	// variadic
	OpMax
	OpMin
	OpCat

	// ternary
	OpSubstr
)

var functorNames = map[FunctorOp]string{
	OpOrd:      "ord",
	OpStrlen:   "strlen",
	OpNeg:      "neg",
	OpBNot:     "bnot",
	OpLNot:     "lnot",
	OpToNumber: "to_number",
	OpToString: "to_string",
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpDiv:      "div",
	OpExp:      "exp",
	OpMod:      "mod",
	OpBAnd:     "band",
	OpBOr:      "bor",
	OpBXor:     "bxor",
	OpLAnd:     "land",
	OpLOr:      "lor",
	OpMax:      "max",
	OpMin:      "min",
	OpCat:      "cat",
	OpSubstr:   "substr",
}

func (op FunctorOp) String() string {
	if name, ok := functorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("FunctorOp(%d)", int(op))
}

// ParseFunctorOp maps a functor name to its FunctorOp.
func ParseFunctorOp(s string) (FunctorOp, error) {
	for op, name := range functorNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown functor %q", s)
}

// Operands returns the number of arguments op takes, or -1 when op is
// variadic (at least one argument). ok is false for unknown operators.
func (op FunctorOp) Operands() (n int, ok bool) {
	switch {
	case op >= OpOrd && op <= OpToString:
		return 1, true
	case op >= OpAdd && op <= OpLOr:
		return 2, true
	case op >= OpMax && op <= OpCat:
		return -1, true
	case op == OpSubstr:
		return 3, true
	}
	return 0, false
}
