// Package relation assigns dense runtime handles to RAM relations and
// records the storage representation chosen for each.
package relation

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/roach88/ramc/internal/index"
	"github.com/roach88/ramc/internal/ram"
)

// MaxDirectArity is the widest relation stored directly; wider relations
// always use the indirect representation.
const MaxDirectArity = 12

// Handle is the dense runtime identity of a relation.
type Handle int32

// Kind is the concrete storage representation of a relation.
type Kind int

const (
	KindBTree    Kind = iota // ordered multi-index
	KindBrie                 // trie
	KindEqRel                // union-find
	KindIndirect             // wide-tuple fallback
)

var kindNames = map[Kind]string{
	KindBTree:    "btree",
	KindBrie:     "brie",
	KindEqRel:    "eqrel",
	KindIndirect: "indirect",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown relation kind %q", s)
}

// SelectKind chooses the storage representation for a relation of the given
// arity and declared representation.
func SelectKind(arity int, rep ram.Representation) Kind {
	if arity > MaxDirectArity {
		return KindIndirect
	}
	switch rep {
	case ram.RepresentationBrie:
		return KindBrie
	case ram.RepresentationEqRel:
		return KindEqRel
	default:
		return KindBTree
	}
}

// Descriptor describes one registered relation. Descriptors are immutable
// once created.
type Descriptor struct {
	Handle Handle
	Name   string
	Arity  int
	Types  []string
	Kind   Kind
	Orders []index.Order
}

// Registry interns relations by name into dense handles assigned from 0 in
// first-seen order.
type Registry struct {
	analysis index.Analysis
	byName   map[string]Handle
	descs    []*Descriptor
}

// NewRegistry returns an empty registry that takes index orderings from
// analysis.
func NewRegistry(analysis index.Analysis) *Registry {
	return &Registry{analysis: analysis, byName: make(map[string]Handle)}
}

// Restore rebuilds a registry from descriptors in handle order. A restored
// registry has no analysis, so it cannot encode new relations.
func Restore(descs []*Descriptor) (*Registry, error) {
	r := NewRegistry(nil)
	for i, d := range descs {
		if d == nil {
			return nil, fmt.Errorf("descriptor %d is nil", i)
		}
		if int(d.Handle) != i {
			return nil, fmt.Errorf("descriptor %q has handle %d at position %d", d.Name, d.Handle, i)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate relation %q", d.Name)
		}
		r.byName[d.Name] = d.Handle
		r.descs = append(r.descs, d)
	}
	return r, nil
}

// Encode returns the handle of rel, registering it on first use.
func (r *Registry) Encode(rel *ram.Relation) (Handle, error) {
	if rel == nil {
		return 0, fmt.Errorf("encode: nil relation")
	}
	if h, ok := r.byName[rel.Name]; ok {
		return h, nil
	}
	if r.analysis == nil {
		return 0, fmt.Errorf("encode %q: registry has no index analysis", rel.Name)
	}
	set := r.analysis.Indexes(rel)
	if set == nil {
		return 0, fmt.Errorf("encode %q: no index orderings", rel.Name)
	}

	h := Handle(len(r.descs))
	r.descs = append(r.descs, &Descriptor{
		Handle: h,
		Name:   rel.Name,
		Arity:  rel.Arity,
		Types:  slices.Clone(rel.AttributeTypes),
		Kind:   SelectKind(rel.Arity, rel.Representation),
		Orders: set.Orders(),
	})
	r.byName[rel.Name] = h
	return h, nil
}

// Decode returns the descriptor of h.
func (r *Registry) Decode(h Handle) (*Descriptor, bool) {
	if h < 0 || int(h) >= len(r.descs) {
		return nil, false
	}
	return r.descs[h], true
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	h, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.descs[h], true
}

// Len returns the number of registered relations.
func (r *Registry) Len() int {
	return len(r.descs)
}

// Descriptors returns every descriptor in handle order.
func (r *Registry) Descriptors() []*Descriptor {
	return slices.Clone(r.descs)
}
