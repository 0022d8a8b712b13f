package ram

// Statement is a control node.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	Node
	statement()
}

// Sequence runs Statements in order.
type Sequence struct {
	Statements []Statement
}

// Parallel runs Statements, which do not depend on each other.
type Parallel struct {
	Statements []Statement
}

// Loop repeats Body until an Exit inside it fires.
type Loop struct {
	Body Statement
}

// Exit leaves the enclosing Loop when Condition holds.
type Exit struct {
	Condition Condition
}

// LogRelationTimer profiles Statement and reports the size of Relation.
type LogRelationTimer struct {
	Message   string
	Relation  *Relation
	Statement Statement
}

// LogTimer profiles Statement.
type LogTimer struct {
	Message   string
	Statement Statement
}

// DebugInfo attaches a message to Statement.
type DebugInfo struct {
	Message   string
	Statement Statement
}

// Stratum wraps the statements of one evaluation stratum.
type Stratum struct {
	Index int
	Body  Statement
}

// Create allocates Relation.
type Create struct {
	Relation *Relation
}

// Clear removes every tuple of Relation.
type Clear struct {
	Relation *Relation
}

// Drop releases Relation.
type Drop struct {
	Relation *Relation
}

// LogSize reports the size of Relation with Message.
type LogSize struct {
	Relation *Relation
	Message  string
}

// Load reads Relation from the source described by Directives.
type Load struct {
	Relation   *Relation
	Directives IODirectives
}

// Store writes Relation to the sink described by Directives.
type Store struct {
	Relation   *Relation
	Directives IODirectives
}

// Fact inserts a constant tuple into Relation.
type Fact struct {
	Relation *Relation
	Values   []Expression
}

// Query evaluates Operation.
type Query struct {
	Operation Operation
}

// Merge inserts every tuple of Source into Target.
type Merge struct {
	Source *Relation
	Target *Relation
}

// Swap exchanges the contents of First and Second.
type Swap struct {
	First  *Relation
	Second *Relation
}

func (*Sequence) ramNode()         {}
func (*Parallel) ramNode()         {}
func (*Loop) ramNode()             {}
func (*Exit) ramNode()             {}
func (*LogRelationTimer) ramNode() {}
func (*LogTimer) ramNode()         {}
func (*DebugInfo) ramNode()        {}
func (*Stratum) ramNode()          {}
func (*Create) ramNode()           {}
func (*Clear) ramNode()            {}
func (*Drop) ramNode()             {}
func (*LogSize) ramNode()          {}
func (*Load) ramNode()             {}
func (*Store) ramNode()            {}
func (*Fact) ramNode()             {}
func (*Query) ramNode()            {}
func (*Merge) ramNode()            {}
func (*Swap) ramNode()             {}

func (*Sequence) statement()         {}
func (*Parallel) statement()         {}
func (*Loop) statement()             {}
func (*Exit) statement()             {}
func (*LogRelationTimer) statement() {}
func (*LogTimer) statement()         {}
func (*DebugInfo) statement()        {}
func (*Stratum) statement()          {}
func (*Create) statement()           {}
func (*Clear) statement()            {}
func (*Drop) statement()             {}
func (*LogSize) statement()          {}
func (*Load) statement()             {}
func (*Store) statement()            {}
func (*Fact) statement()             {}
func (*Query) statement()            {}
func (*Merge) statement()            {}
func (*Swap) statement()             {}
