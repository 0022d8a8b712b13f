package codegen

import (
	"github.com/roach88/ramc/internal/index"
	"github.com/roach88/ramc/internal/ram"
)

// Resolver maps search signatures to the order numbers of a relation's
// materialized orderings.
type Resolver struct {
	analysis index.Analysis
}

// NewResolver returns a resolver backed by analysis.
func NewResolver(analysis index.Analysis) *Resolver {
	return &Resolver{analysis: analysis}
}

// Resolve returns the order number serving sig on rel. An empty signature
// is a full-table iteration and resolves like the full signature.
func (r *Resolver) Resolve(rel *ram.Relation, sig index.Signature) (int, error) {
	if sig == 0 {
		sig = index.Full(rel.Arity)
	}
	set := r.analysis.Indexes(rel)
	if set == nil {
		return 0, defect(DefectUnknownSignature, "", "relation %q has no index orderings", rel.Name)
	}
	n, ok := set.LexOrderNum(sig)
	if !ok {
		return 0, defect(DefectUnknownSignature, "", "relation %q has no ordering for signature %s",
			rel.Name, sig.Format(rel.Arity))
	}
	return n, nil
}
