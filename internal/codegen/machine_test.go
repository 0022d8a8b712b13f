package codegen

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/relation"
)

// machine is a small reference interpreter covering the instructions the
// tests in this package produce. Relations are plain tuple lists. Record
// reference 0 is null; packed records are numbered from 1.
type machine struct {
	t       *testing.T
	prog    *lvm.Program
	rels    map[lvm.Word][][]lvm.Word
	tuples  map[lvm.Word][]lvm.Word
	iters   map[lvm.Word]*cursor
	records [][]lvm.Word
	stack   []lvm.Word
}

type cursor struct {
	rows [][]lvm.Word
	pos  int
}

func newMachine(t *testing.T, prog *lvm.Program) *machine {
	t.Helper()
	return &machine{
		t:      t,
		prog:   prog,
		rels:   make(map[lvm.Word][][]lvm.Word),
		tuples: make(map[lvm.Word][]lvm.Word),
		iters:  make(map[lvm.Word]*cursor),
	}
}

func (m *machine) push(w lvm.Word) { m.stack = append(m.stack, w) }

func (m *machine) pop() lvm.Word {
	m.t.Helper()
	require.NotEmpty(m.t, m.stack, "stack underflow")
	w := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return w
}

func (m *machine) popTuple(arity int) []lvm.Word {
	tuple := make([]lvm.Word, arity)
	for i := range tuple {
		tuple[i] = m.pop()
	}
	return tuple
}

// pack returns the reference of record fields, reusing an equal record.
func (m *machine) pack(fields []lvm.Word) lvm.Word {
	for i, rec := range m.records {
		if equalTuple(rec, fields) {
			return lvm.Word(i + 1)
		}
	}
	m.records = append(m.records, fields)
	return lvm.Word(len(m.records))
}

func boolWord(b bool) lvm.Word {
	if b {
		return 1
	}
	return 0
}

func (m *machine) arity(rel lvm.Word) int {
	d, ok := m.prog.Relations.Decode(relation.Handle(rel))
	require.True(m.t, ok, "relation handle %d", rel)
	return d.Arity
}

func (m *machine) insert(rel lvm.Word, tuple []lvm.Word) {
	for _, row := range m.rels[rel] {
		if equalTuple(row, tuple) {
			return
		}
	}
	m.rels[rel] = append(m.rels[rel], tuple)
}

func equalTuple(a, b []lvm.Word) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// matching returns the rows of rel whose bound attributes equal the values
// on the stack. Values are popped in ascending attribute order.
func (m *machine) matching(rel lvm.Word, masks []lvm.Word) [][]lvm.Word {
	bound := lvm.UnpackMask(masks, m.arity(rel))
	key := make(map[int]lvm.Word)
	for i, b := range bound {
		if b {
			key[i] = m.pop()
		}
	}
	var out [][]lvm.Word
	for _, row := range m.sorted(rel) {
		ok := true
		for i, v := range key {
			if row[i] != v {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, row)
		}
	}
	return out
}

func (m *machine) sorted(rel lvm.Word) [][]lvm.Word {
	rows := append([][]lvm.Word(nil), m.rels[rel]...)
	sort.Slice(rows, func(i, j int) bool {
		for k := range rows[i] {
			if rows[i][k] != rows[j][k] {
				return rows[i][k] < rows[j][k]
			}
		}
		return false
	})
	return rows
}

// relation returns the sorted contents of the named relation.
func (m *machine) relation(name string) [][]lvm.Word {
	d, ok := m.prog.Relations.Lookup(name)
	require.True(m.t, ok, "relation %s", name)
	return m.sorted(lvm.Word(d.Handle))
}

func (m *machine) run(code lvm.Code) {
	m.t.Helper()
	instrs, err := m.prog.Decode(code)
	require.NoError(m.t, err)
	at := make(map[lvm.Address]lvm.Instruction, len(instrs))
	for _, in := range instrs {
		at[in.Addr] = in
	}

	pc := lvm.Address(0)
	for steps := 0; ; steps++ {
		require.Less(m.t, steps, 100000, "program does not terminate")
		in, ok := at[pc]
		require.True(m.t, ok, "no instruction at %d", pc)
		ops := in.Operands
		next := in.Next()

		switch in.Op {
		case lvm.OpSequence, lvm.OpQuery, lvm.OpScan, lvm.OpIndexScan, lvm.OpChoice,
			lvm.OpIndexChoice, lvm.OpAggregate, lvm.OpIndexAggregate, lvm.OpSearch,
			lvm.OpFilter, lvm.OpConstraint, lvm.OpStratum, lvm.OpLoop, lvm.OpNop,
			lvm.OpIncIterationNumber, lvm.OpResetIterationNumber, lvm.OpDebugInfo:
		case lvm.OpCreate, lvm.OpClear:
			m.rels[ops[0]] = nil
		case lvm.OpNumber:
			m.push(ops[0])
		case lvm.OpTupleElement:
			m.push(m.tuples[ops[0]][ops[1]])
		case lvm.OpAdd:
			b, a := m.pop(), m.pop()
			m.push(a + b)
		case lvm.OpMin, lvm.OpMax:
			best := m.pop()
			for i := 1; i < int(ops[0]); i++ {
				v := m.pop()
				if (in.Op == lvm.OpMin && v < best) || (in.Op == lvm.OpMax && v > best) {
					best = v
				}
			}
			m.push(best)
		case lvm.OpEQ, lvm.OpNE, lvm.OpLT, lvm.OpGT:
			b, a := m.pop(), m.pop()
			switch in.Op {
			case lvm.OpEQ:
				m.push(boolWord(a == b))
			case lvm.OpNE:
				m.push(boolWord(a != b))
			case lvm.OpLT:
				m.push(boolWord(a < b))
			case lvm.OpGT:
				m.push(boolWord(a > b))
			}
		case lvm.OpTrue:
			m.push(1)
		case lvm.OpFalse:
			m.push(0)
		case lvm.OpConjunction:
			b, a := m.pop(), m.pop()
			m.push(boolWord(a != 0 && b != 0))
		case lvm.OpNegation:
			m.push(boolWord(m.pop() == 0))
		case lvm.OpEmptinessCheck:
			m.push(boolWord(len(m.rels[ops[0]]) == 0))
		case lvm.OpContainCheck:
			tuple := m.popTuple(m.arity(ops[0]))
			found := false
			for _, row := range m.rels[ops[0]] {
				found = found || equalTuple(row, tuple)
			}
			m.push(boolWord(found))
		case lvm.OpExistenceCheckOneArg, lvm.OpExistenceCheck:
			m.push(boolWord(len(m.matching(ops[0], ops[2:])) > 0))
		case lvm.OpIterInitFullIndex:
			m.iters[ops[0]] = &cursor{rows: m.sorted(ops[1])}
		case lvm.OpIterInitRangeIndexOneArg, lvm.OpIterInitRangeIndex:
			m.iters[ops[0]] = &cursor{rows: m.matching(ops[1], ops[3:])}
		case lvm.OpIterNotAtEnd:
			c := m.iters[ops[0]]
			m.push(boolWord(c.pos < len(c.rows)))
		case lvm.OpIterSelect:
			c := m.iters[ops[0]]
			m.tuples[ops[1]] = c.rows[c.pos]
		case lvm.OpIterInc:
			m.iters[ops[0]].pos++
		case lvm.OpAggregateCount:
			c := m.iters[ops[0]]
			m.push(lvm.Word(len(c.rows) - c.pos))
		case lvm.OpAggregateReturn:
			m.tuples[ops[0]] = []lvm.Word{m.pop()}
		case lvm.OpPackRecord:
			fields := make([]lvm.Word, ops[0])
			for i := len(fields) - 1; i >= 0; i-- {
				fields[i] = m.pop()
			}
			m.push(m.pack(fields))
		case lvm.OpUnpackRecord:
			ref := m.pop()
			if ref == 0 {
				next = lvm.Address(ops[2])
				break
			}
			require.Positive(m.t, ref, "record reference")
			require.LessOrEqual(m.t, int(ref), len(m.records), "record reference %d", ref)
			rec := m.records[ref-1]
			require.Len(m.t, rec, int(ops[0]), "record arity")
			m.tuples[ops[1]] = rec
		case lvm.OpProject:
			m.insert(ops[1], m.popTuple(int(ops[0])))
		case lvm.OpFact:
			m.insert(ops[0], m.popTuple(int(ops[1])))
		case lvm.OpGoto:
			next = lvm.Address(ops[0])
		case lvm.OpJmpEZ:
			if m.pop() == 0 {
				next = lvm.Address(ops[0])
			}
		case lvm.OpJmpNZ:
			if m.pop() != 0 {
				next = lvm.Address(ops[0])
			}
		case lvm.OpStop:
			require.Empty(m.t, m.stack, "values left on the stack")
			return
		default:
			m.t.Fatalf("machine: unsupported instruction %s at %d", in.Op, pc)
		}
		pc = next
	}
}
