package codegen

import "github.com/roach88/ramc/internal/lvm"

// Label names a jump target whose address may not be known yet.
type Label int

// LabelTable maps labels to addresses across the two lowering passes.
//
// During the first pass labels are created and resolved as the traversal
// reaches them; looking up a label that is not resolved yet returns a
// placeholder. The final pass replays label creation positionally, so the
// n-th label created refers to the same target as in the first pass; every
// lookup must then hit a resolved label and every resolution must reproduce
// the first-pass address.
type LabelTable struct {
	addrs    []lvm.Address
	resolved []bool
	created  int
	final    bool
}

// NewLabelTable returns an empty table in first-pass mode.
func NewLabelTable() *LabelTable {
	return &LabelTable{}
}

// Create returns the next label of the current pass.
func (t *LabelTable) Create() Label {
	l := Label(t.created)
	t.created++
	if !t.final {
		t.addrs = append(t.addrs, 0)
		t.resolved = append(t.resolved, false)
	}
	return l
}

// Resolve records addr for l.
func (t *LabelTable) Resolve(l Label, addr lvm.Address) error {
	if l < 0 || int(l) >= len(t.addrs) {
		return defect(DefectUnresolvedLabel, "", "label %d was never created", l)
	}
	if t.final {
		if addr != t.addrs[l] {
			return defect(DefectPassMismatch, "", "label %d resolves to %d, first pass resolved it to %d", l, addr, t.addrs[l])
		}
		return nil
	}
	t.addrs[l] = addr
	t.resolved[l] = true
	return nil
}

// Lookup returns the address of l. In the first pass an unresolved label
// yields a placeholder (the table size); in the final pass it is a defect.
func (t *LabelTable) Lookup(l Label) (lvm.Address, error) {
	if l >= 0 && int(l) < len(t.addrs) && t.resolved[l] {
		return t.addrs[l], nil
	}
	if t.final {
		return 0, defect(DefectUnresolvedLabel, "", "label %d is not resolved", l)
	}
	return lvm.Address(len(t.addrs)), nil
}

// Len returns the number of labels created in the current pass.
func (t *LabelTable) Len() int {
	return t.created
}

// Unresolved returns the labels that have no address.
func (t *LabelTable) Unresolved() []Label {
	var out []Label
	for i, ok := range t.resolved {
		if !ok {
			out = append(out, Label(i))
		}
	}
	return out
}

// BeginFinalPass switches to final-pass mode and restarts label numbering.
// Every label must be resolved.
func (t *LabelTable) BeginFinalPass() error {
	if un := t.Unresolved(); len(un) > 0 {
		return defect(DefectUnresolvedLabel, "", "%d labels left unresolved after the first pass (first: %d)", len(un), un[0])
	}
	t.final = true
	t.created = 0
	return nil
}
