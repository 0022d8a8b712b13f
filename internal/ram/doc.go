// Package ram defines the relational algebra machine (RAM) tree consumed by
// the bytecode generator.
//
// The tree is produced upstream (after adornment and magic-set rewriting) and
// is read-only here. It has four node categories:
//
//	Expression  pushes one value      (Number, TupleElement, IntrinsicOperator, ...)
//	Condition   pushes one boolean    (Conjunction, ExistenceCheck, Constraint, ...)
//	Operation   produces tuples       (Scan, IndexScan, Aggregate, Project, ...)
//	Statement   controls evaluation   (Sequence, Loop, Query, Create, Load, ...)
//
// SEALED INTERFACES:
//
// Expression, Condition, Operation and Statement are sealed with unexported
// marker methods, so only types in this package implement them. Backends can
// switch exhaustively over the concrete pointer types:
//
//	switch n := node.(type) {
//	case *ram.Scan:
//	    // lower scan
//	case *ram.IndexScan:
//	    // lower index scan
//	default:
//	    // unknown node kind: a defect in the producer
//	}
//
// UNDEFINED VALUES:
//
// UndefValue marks an attribute that is intentionally left unconstrained. It
// is only meaningful inside search patterns (index operations, existence
// checks) and subroutine return values. Validate reports it anywhere else.
package ram
