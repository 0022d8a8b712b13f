package ram

import (
	"fmt"
	"sort"
)

// MaxArity is the widest relation a search pattern can address. Search
// signatures are 64-bit masks.
const MaxArity = 64

// Representation is the storage kind declared for a relation.
type Representation int

const (
	RepresentationDefault Representation = iota
	RepresentationBTree
	RepresentationBrie
	RepresentationEqRel
)

var representationNames = map[Representation]string{
	RepresentationDefault: "default",
	RepresentationBTree:   "btree",
	RepresentationBrie:    "brie",
	RepresentationEqRel:   "eqrel",
}

func (r Representation) String() string {
	if name, ok := representationNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Representation(%d)", int(r))
}

// ParseRepresentation maps a declared representation name to its value.
// The empty string is the default representation.
func ParseRepresentation(s string) (Representation, error) {
	if s == "" {
		return RepresentationDefault, nil
	}
	for r, name := range representationNames {
		if name == s {
			return r, nil
		}
	}
	return RepresentationDefault, fmt.Errorf("unknown representation %q", s)
}

// Relation is a declared relation. Relations are identified by name.
type Relation struct {
	Name           string
	Arity          int
	AttributeNames []string // optional
	AttributeTypes []string // optional, one type tag per attribute
	Representation Representation
}

// IODirectives is one load/store configuration (key/value pairs such as
// "IO": "file", "filename": "edge.facts").
type IODirectives map[string]string

// Program is a complete RAM program: declared relations, the main statement
// and named subroutines.
type Program struct {
	Relations   []*Relation
	Main        Statement
	Subroutines map[string]Statement
}

// Relation returns the declared relation with the given name, or nil.
func (p *Program) Relation(name string) *Relation {
	for _, rel := range p.Relations {
		if rel.Name == name {
			return rel
		}
	}
	return nil
}

// SubroutineNames returns subroutine names in sorted order.
func (p *Program) SubroutineNames() []string {
	names := make([]string, 0, len(p.Subroutines))
	for name := range p.Subroutines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
