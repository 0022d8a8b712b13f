package index

import (
	"fmt"
	"sort"

	"github.com/roach88/ramc/internal/ram"
)

// Order is an attribute ordering of a materialized index.
type Order []int

// OrderSet is the set of orderings materialized for one relation together
// with the mapping from search signatures to order numbers.
type OrderSet struct {
	orders []Order
	lex    map[Signature]int
}

// NewOrderSet builds an order set from explicit orderings and a signature
// mapping. Every mapped order number must name one of the orderings.
func NewOrderSet(orders []Order, lex map[Signature]int) (*OrderSet, error) {
	set := &OrderSet{orders: orders, lex: make(map[Signature]int, len(lex))}
	for sig, n := range lex {
		if n < 0 || n >= len(orders) {
			return nil, fmt.Errorf("signature %#x maps to order %d, only %d orders", uint64(sig), n, len(orders))
		}
		set.lex[sig] = n
	}
	return set, nil
}

// Orders returns the materialized orderings in order-number order.
func (s *OrderSet) Orders() []Order {
	return s.orders
}

// Len returns the number of materialized orderings.
func (s *OrderSet) Len() int {
	return len(s.orders)
}

// LexOrderNum returns the order number serving sig.
func (s *OrderSet) LexOrderNum(sig Signature) (int, bool) {
	n, ok := s.lex[sig]
	return n, ok
}

// Signatures returns every mapped signature in ascending order.
func (s *OrderSet) Signatures() []Signature {
	out := make([]Signature, 0, len(s.lex))
	for sig := range s.lex {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Analysis provides the materialized orderings of each relation.
type Analysis interface {
	Indexes(rel *ram.Relation) *OrderSet
}

// Selection is the reference Analysis computed from the search sites of a
// program.
type Selection struct {
	sets map[string]*OrderSet
}

// Analyze collects every search signature used against each relation of
// prog and selects orderings covering them.
func Analyze(prog *ram.Program) *Selection {
	type site struct {
		arity int
		sigs  map[Signature]struct{}
	}
	sites := make(map[string]*site)
	siteFor := func(rel *ram.Relation) *site {
		s, ok := sites[rel.Name]
		if !ok {
			s = &site{arity: rel.Arity, sigs: make(map[Signature]struct{})}
			sites[rel.Name] = s
		}
		return s
	}

	for _, rel := range prog.Relations {
		if rel != nil {
			siteFor(rel)
		}
	}
	ram.WalkProgram(prog, func(n ram.Node) bool {
		sig, ok := SearchSignature(n)
		if !ok {
			return true
		}
		rel := searchRelation(n)
		if rel == nil {
			return true
		}
		siteFor(rel).sigs[sig] = struct{}{}
		return true
	})

	sel := &Selection{sets: make(map[string]*OrderSet, len(sites))}
	for name, s := range sites {
		sigs := make([]Signature, 0, len(s.sigs))
		for sig := range s.sigs {
			sigs = append(sigs, sig)
		}
		sel.sets[name] = Select(s.arity, sigs)
	}
	return sel
}

// Indexes returns the orderings selected for rel. Relations never seen by
// Analyze get a single identity ordering.
func (s *Selection) Indexes(rel *ram.Relation) *OrderSet {
	if set, ok := s.sets[rel.Name]; ok {
		return set
	}
	return Select(rel.Arity, nil)
}

// Select computes a greedy chain cover of sigs for an arity-wide relation.
//
// Signatures are taken in ascending bound-count order; each joins the first
// chain whose last signature is a strict subset of it, or starts a new
// chain. Each chain yields one ordering: the attributes added by each chain
// step, in ascending attribute order, followed by every attribute the chain
// leaves free. The full signature is always covered and the empty signature
// is treated as the full one.
func Select(arity int, sigs []Signature) *OrderSet {
	full := Full(arity)
	seen := map[Signature]struct{}{full: {}}
	all := []Signature{full}
	for _, sig := range sigs {
		sig &= full
		if sig == 0 {
			sig = full
		}
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		all = append(all, sig)
	}
	sort.Slice(all, func(i, j int) bool {
		ci, cj := all[i].Count(), all[j].Count()
		if ci != cj {
			return ci < cj
		}
		return all[i] < all[j]
	})

	var chains [][]Signature
	for _, sig := range all {
		placed := false
		for i, chain := range chains {
			if chain[len(chain)-1].StrictSubsetOf(sig) {
				chains[i] = append(chain, sig)
				placed = true
				break
			}
		}
		if !placed {
			chains = append(chains, []Signature{sig})
		}
	}

	set := &OrderSet{lex: make(map[Signature]int, len(all))}
	for n, chain := range chains {
		set.orders = append(set.orders, chainOrder(arity, chain))
		for _, sig := range chain {
			set.lex[sig] = n
		}
	}
	return set
}

func chainOrder(arity int, chain []Signature) Order {
	order := make(Order, 0, arity)
	var covered Signature
	for _, sig := range chain {
		for i := 0; i < arity; i++ {
			if sig.Bound(i) && !covered.Bound(i) {
				order = append(order, i)
			}
		}
		covered |= sig
	}
	for i := 0; i < arity; i++ {
		if !covered.Bound(i) {
			order = append(order, i)
		}
	}
	return order
}
