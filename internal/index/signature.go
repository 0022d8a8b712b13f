// Package index implements search signatures and index selection for RAM
// relations.
//
// A search signature marks which attributes of a relation a search binds.
// The selection maps every signature used against a relation to one of the
// relation's materialized attribute orderings (its lexicographic order
// number), so that a single ordering serves every search whose bound
// attributes form a prefix of it.
package index

import (
	"math/bits"
	"strings"

	"github.com/roach88/ramc/internal/ram"
)

// Signature is a bound/free bitmask over a relation's attributes. Bit i is
// set when attribute i is bound.
type Signature uint64

// Full returns the signature with every attribute of an arity-wide relation
// bound.
func Full(arity int) Signature {
	if arity >= 64 {
		return ^Signature(0)
	}
	return Signature(1)<<uint(arity) - 1
}

// SignatureOf builds a signature from per-attribute bound flags.
func SignatureOf(bound []bool) Signature {
	var s Signature
	for i, b := range bound {
		if b && i < 64 {
			s |= 1 << uint(i)
		}
	}
	return s
}

// Bound reports whether attribute i is bound.
func (s Signature) Bound(i int) bool {
	return i >= 0 && i < 64 && s&(1<<uint(i)) != 0
}

// Count returns the number of bound attributes.
func (s Signature) Count() int {
	return bits.OnesCount64(uint64(s))
}

// StrictSubsetOf reports whether every attribute bound in s is bound in o
// and o binds at least one more.
func (s Signature) StrictSubsetOf(o Signature) bool {
	return s&o == s && s != o
}

// Format renders s as one character per attribute, 'b' for bound and 'f'
// for free, attribute 0 first.
func (s Signature) Format(arity int) string {
	var sb strings.Builder
	sb.Grow(arity)
	for i := 0; i < arity; i++ {
		if s.Bound(i) {
			sb.WriteByte('b')
		} else {
			sb.WriteByte('f')
		}
	}
	return sb.String()
}

// SearchSignature returns the signature of a search site: index scans,
// index choices, index aggregates and existence checks. The last two
// attributes of a provenance existence check never participate. ok is false
// for nodes that do not search a relation.
func SearchSignature(n ram.Node) (sig Signature, ok bool) {
	switch n := n.(type) {
	case *ram.IndexScan:
		return patternSignature(n.Pattern, len(n.Pattern)), true
	case *ram.IndexChoice:
		return patternSignature(n.Pattern, len(n.Pattern)), true
	case *ram.IndexAggregate:
		return patternSignature(n.Pattern, len(n.Pattern)), true
	case *ram.ExistenceCheck:
		return patternSignature(n.Values, len(n.Values)), true
	case *ram.ProvenanceExistenceCheck:
		return patternSignature(n.Values, len(n.Values)-2), true
	}
	return 0, false
}

// searchRelation returns the relation a search site reads.
func searchRelation(n ram.Node) *ram.Relation {
	switch n := n.(type) {
	case *ram.IndexScan:
		return n.Relation
	case *ram.IndexChoice:
		return n.Relation
	case *ram.IndexAggregate:
		return n.Relation
	case *ram.ExistenceCheck:
		return n.Relation
	case *ram.ProvenanceExistenceCheck:
		return n.Relation
	}
	return nil
}

func patternSignature(values []ram.Expression, limit int) Signature {
	var s Signature
	for i := 0; i < limit && i < len(values) && i < 64; i++ {
		if !ram.IsUndef(values[i]) {
			s |= 1 << uint(i)
		}
	}
	return s
}
