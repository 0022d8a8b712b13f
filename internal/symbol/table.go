// Package symbol provides the string table shared by the bytecode generator
// and the programs it produces.
package symbol

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// Symbol is the integer handle of an interned string.
type Symbol int32

// Table interns strings into dense symbols assigned from 0 in first-seen
// order. It is safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	interned []string          // symbol -> string
	toindex  map[string]Symbol // string -> symbol
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{toindex: make(map[string]Symbol)}
}

// FromStrings rebuilds a table whose symbol i is strs[i].
func FromStrings(strs []string) (*Table, error) {
	t := NewTable()
	for i, s := range strs {
		if _, dup := t.toindex[s]; dup {
			return nil, fmt.Errorf("duplicate symbol %q at %d", s, i)
		}
		t.toindex[s] = Symbol(i)
		t.interned = append(t.interned, s)
	}
	return t, nil
}

// Intern returns the symbol of x, interning it if needed.
func (t *Table) Intern(x string) Symbol {
	t.mu.RLock()
	sym, ok := t.toindex[x]
	t.mu.RUnlock()
	if ok {
		return sym
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if sym, ok := t.toindex[x]; ok {
		return sym
	}
	sym = Symbol(len(t.interned))
	t.toindex[x] = sym
	t.interned = append(t.interned, x)
	return sym
}

// Symbolize returns the symbol of x without interning it.
func (t *Table) Symbolize(x string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym, ok := t.toindex[x]
	return sym, ok
}

// Lookup returns the string of sym. It returns ("", false) when sym was
// never assigned.
func (t *Table) Lookup(sym Symbol) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if sym < 0 || int(sym) >= len(t.interned) {
		return "", false
	}
	return t.interned[sym], true
}

// Get is Lookup without the presence flag.
func (t *Table) Get(sym Symbol) string {
	s, _ := t.Lookup(sym)
	return s
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.interned)
}

// Strings returns a copy of the interned strings in symbol order.
func (t *Table) Strings() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.interned)
}
