package codegen

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ramc/internal/index"
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/symbol"
)

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
}

func compile(t *testing.T, prog *ram.Program, opts Options) *lvm.Program {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietOptions().Logger
	}
	out, err := New(symbol.NewTable(), opts).Generate(prog)
	require.NoError(t, err)
	return out
}

func opcodesOf(t *testing.T, p *lvm.Program, code lvm.Code) []lvm.Opcode {
	t.Helper()
	instrs, err := p.Decode(code)
	require.NoError(t, err)
	ops := make([]lvm.Opcode, len(instrs))
	for i, in := range instrs {
		ops[i] = in.Op
	}
	return ops
}

func instructionsOf(t *testing.T, p *lvm.Program, code lvm.Code) []lvm.Instruction {
	t.Helper()
	instrs, err := p.Decode(code)
	require.NoError(t, err)
	return instrs
}

func find(instrs []lvm.Instruction, op lvm.Opcode) (lvm.Instruction, bool) {
	for _, in := range instrs {
		if in.Op == op {
			return in, true
		}
	}
	return lvm.Instruction{}, false
}

func num(v int32) ram.Expression { return &ram.Number{Value: v} }

func elem(tuple, element int) ram.Expression {
	return &ram.TupleElement{Tuple: tuple, Element: element}
}

func undef() ram.Expression { return &ram.UndefValue{} }

var (
	relR   = &ram.Relation{Name: "R", Arity: 2}
	relS   = &ram.Relation{Name: "S", Arity: 2}
	relE   = &ram.Relation{Name: "E", Arity: 1}
	relOut = &ram.Relation{Name: "Out", Arity: 1}
)

// withFacts builds a program over R, S, E and Out that loads the given R
// tuples and then runs query.
func withFacts(facts [][2]int32, stmts ...ram.Statement) *ram.Program {
	seq := &ram.Sequence{}
	for _, f := range facts {
		seq.Statements = append(seq.Statements, &ram.Fact{Relation: relR, Values: []ram.Expression{num(f[0]), num(f[1])}})
	}
	seq.Statements = append(seq.Statements, stmts...)
	return &ram.Program{
		Relations: []*ram.Relation{relR, relS, relE, relOut},
		Main:      seq,
	}
}

func execute(t *testing.T, prog *ram.Program, opts Options) *machine {
	t.Helper()
	out := compile(t, prog, opts)
	m := newMachine(t, out)
	m.run(out.Main)
	return m
}

func TestGenerate_ScanProjectGolden(t *testing.T) {
	edge := &ram.Relation{Name: "edge", Arity: 2}
	path := &ram.Relation{Name: "path", Arity: 2}
	prog := &ram.Program{
		Relations: []*ram.Relation{edge, path},
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Query{Operation: &ram.Scan{
				Relation: edge,
				Tuple:    0,
				Nested:   &ram.Project{Relation: path, Values: []ram.Expression{elem(0, 0), elem(0, 1)}},
			}},
		}},
	}
	out := compile(t, prog, Options{})

	var buf bytes.Buffer
	require.NoError(t, lvm.Disassemble(&buf, out))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "scan_project", buf.Bytes())
}

func TestGenerate_ScanProjectExecutes(t *testing.T) {
	prog := withFacts([][2]int32{{1, 2}, {3, 4}},
		&ram.Query{Operation: &ram.Scan{
			Relation: relR,
			Tuple:    0,
			Nested:   &ram.Project{Relation: relS, Values: []ram.Expression{elem(0, 0), elem(0, 1)}},
		}},
	)
	m := execute(t, prog, Options{})
	assert.Equal(t, [][]lvm.Word{{1, 2}, {3, 4}}, m.relation("S"))
}

func TestGenerate_IndexScan(t *testing.T) {
	scan := &ram.IndexScan{
		Relation: relR,
		Tuple:    0,
		Pattern:  []ram.Expression{num(5), undef()},
		Nested:   &ram.Project{Relation: relS, Values: []ram.Expression{elem(0, 0), elem(0, 1)}},
	}
	prog := withFacts([][2]int32{{1, 2}, {5, 6}, {5, 7}}, &ram.Query{Operation: scan})

	out := compile(t, prog, Options{})
	init, ok := find(instructionsOf(t, out, out.Main), lvm.OpIterInitRangeIndexOneArg)
	require.True(t, ok)
	assert.Equal(t, []lvm.Word{0, 0, 0, 0b01}, init.Operands, "it0 R order=0 mask=01")

	m := newMachine(t, out)
	m.run(out.Main)
	assert.Equal(t, [][]lvm.Word{{5, 6}, {5, 7}}, m.relation("S"))
}

func TestGenerate_IndexScanAllFree(t *testing.T) {
	prog := withFacts(nil, &ram.Query{Operation: &ram.IndexScan{
		Relation: relR,
		Pattern:  []ram.Expression{undef(), undef()},
		Nested:   &ram.Project{Relation: relS, Values: []ram.Expression{elem(0, 0), elem(0, 1)}},
	}})
	out := compile(t, prog, Options{})
	ops := opcodesOf(t, out, out.Main)
	assert.Contains(t, ops, lvm.OpIterInitFullIndex)
	assert.NotContains(t, ops, lvm.OpIterInitRangeIndexOneArg)
	assert.NotContains(t, ops, lvm.OpIterInitRangeIndex)
}

func TestGenerate_WideRangeUsesMaskWords(t *testing.T) {
	wide := &ram.Relation{Name: "wide", Arity: 40}
	pattern := make([]ram.Expression, 40)
	for i := range pattern {
		pattern[i] = undef()
	}
	pattern[0] = num(1)
	pattern[33] = num(2)
	prog := &ram.Program{
		Relations: []*ram.Relation{wide, relOut},
		Main: &ram.Query{Operation: &ram.IndexScan{
			Relation: wide,
			Pattern:  pattern,
			Nested:   &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 0)}},
		}},
	}
	out := compile(t, prog, Options{})
	init, ok := find(instructionsOf(t, out, out.Main), lvm.OpIterInitRangeIndex)
	require.True(t, ok)
	require.Len(t, init.Operands, 5)
	assert.Equal(t, lvm.Word(1), init.Operands[3])
	assert.Equal(t, lvm.Word(0b10), init.Operands[4])

	desc, ok := out.Relations.Lookup("wide")
	require.True(t, ok)
	assert.Equal(t, "indirect", desc.Kind.String())
}

func TestGenerate_ExistenceCheckClassification(t *testing.T) {
	tests := []struct {
		name   string
		values []ram.Expression
		want   []lvm.Opcode
		absent []lvm.Opcode
	}{
		{
			name:   "nothing bound",
			values: []ram.Expression{undef(), undef()},
			want:   []lvm.Opcode{lvm.OpEmptinessCheck, lvm.OpNegation},
			absent: []lvm.Opcode{lvm.OpContainCheck, lvm.OpExistenceCheckOneArg},
		},
		{
			name:   "all bound",
			values: []ram.Expression{num(1), num(2)},
			want:   []lvm.Opcode{lvm.OpContainCheck},
			absent: []lvm.Opcode{lvm.OpEmptinessCheck, lvm.OpExistenceCheckOneArg},
		},
		{
			name:   "partially bound",
			values: []ram.Expression{num(1), undef()},
			want:   []lvm.Opcode{lvm.OpExistenceCheckOneArg},
			absent: []lvm.Opcode{lvm.OpEmptinessCheck, lvm.OpContainCheck},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := withFacts(nil, &ram.Query{Operation: &ram.Filter{
				Condition: &ram.ExistenceCheck{Relation: relR, Values: tt.values},
				Nested:    &ram.Project{Relation: relOut, Values: []ram.Expression{num(7)}},
			}})
			out := compile(t, prog, Options{})
			ops := opcodesOf(t, out, out.Main)
			for _, op := range tt.want {
				assert.Contains(t, ops, op)
			}
			for _, op := range tt.absent {
				assert.NotContains(t, ops, op)
			}
		})
	}
}

func TestGenerate_ExistenceCheckExecutes(t *testing.T) {
	for _, tc := range []struct {
		key  int32
		want [][]lvm.Word
	}{
		{1, [][]lvm.Word{{7}}},
		{5, nil},
	} {
		prog := withFacts([][2]int32{{1, 2}, {3, 4}}, &ram.Query{Operation: &ram.Filter{
			Condition: &ram.ExistenceCheck{Relation: relR, Values: []ram.Expression{num(tc.key), undef()}},
			Nested:    &ram.Project{Relation: relOut, Values: []ram.Expression{num(7)}},
		}})
		m := execute(t, prog, Options{})
		assert.Equal(t, tc.want, m.relation("Out"), "key %d", tc.key)
	}
}

func TestGenerate_ProvenanceExistenceCheck(t *testing.T) {
	prov := &ram.Relation{Name: "prov", Arity: 4}
	check := func(values ...ram.Expression) *ram.Program {
		return &ram.Program{
			Relations: []*ram.Relation{prov, relOut},
			Main: &ram.Query{Operation: &ram.Filter{
				Condition: &ram.ProvenanceExistenceCheck{Relation: prov, Values: values},
				Nested:    &ram.Project{Relation: relOut, Values: []ram.Expression{&ram.AutoIncrement{}}},
			}},
		}
	}

	out := compile(t, check(num(1), num(2), num(3), num(4)), Options{})
	in, ok := find(instructionsOf(t, out, out.Main), lvm.OpExistenceCheckOneArg)
	require.True(t, ok, "a provenance check never becomes a membership test")
	assert.Equal(t, lvm.Word(0b0011), in.Operands[2])

	out = compile(t, check(undef(), undef(), num(3), num(4)), Options{})
	ops := opcodesOf(t, out, out.Main)
	assert.Contains(t, ops, lvm.OpEmptinessCheck)
	assert.NotContains(t, ops, lvm.OpNumber, "annotation values are not pushed")
}

func TestGenerate_Aggregates(t *testing.T) {
	facts := [][2]int32{{1, 2}, {3, 4}}
	aggregate := func(rel *ram.Relation, fn ram.AggregateFunction, expr ram.Expression, cond ram.Condition) ram.Statement {
		return &ram.Query{Operation: &ram.Aggregate{
			Function:   fn,
			Relation:   rel,
			Tuple:      0,
			Expression: expr,
			Condition:  cond,
			Nested:     &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 0)}},
		}}
	}
	greaterThanOne := &ram.Constraint{Op: ram.CmpGT, LHS: elem(0, 0), RHS: num(1)}

	tests := []struct {
		name string
		stmt ram.Statement
		want [][]lvm.Word
	}{
		{"min", aggregate(relR, ram.AggMin, elem(0, 0), &ram.True{}), [][]lvm.Word{{1}}},
		{"max", aggregate(relR, ram.AggMax, elem(0, 1), &ram.True{}), [][]lvm.Word{{4}}},
		{"sum", aggregate(relR, ram.AggSum, elem(0, 1), &ram.True{}), [][]lvm.Word{{6}}},
		{"count", aggregate(relR, ram.AggCount, nil, &ram.True{}), [][]lvm.Word{{2}}},
		{"count filtered", aggregate(relR, ram.AggCount, nil, greaterThanOne), [][]lvm.Word{{1}}},
		{"min filtered", aggregate(relR, ram.AggMin, elem(0, 1), greaterThanOne), [][]lvm.Word{{4}}},
		{"min of nothing", aggregate(relE, ram.AggMin, elem(0, 0), &ram.True{}), nil},
		{"max of nothing", aggregate(relE, ram.AggMax, elem(0, 0), &ram.True{}), nil},
		{"count of nothing", aggregate(relE, ram.AggCount, nil, &ram.True{}), [][]lvm.Word{{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := execute(t, withFacts(facts, tt.stmt), Options{})
			assert.Equal(t, tt.want, m.relation("Out"))
		})
	}
}

func TestGenerate_CountShortcut(t *testing.T) {
	count := func(cond ram.Condition) *ram.Program {
		return withFacts(nil, &ram.Query{Operation: &ram.Aggregate{
			Function:  ram.AggCount,
			Relation:  relR,
			Condition: cond,
			Nested:    &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 0)}},
		}})
	}

	out := compile(t, count(&ram.True{}), Options{})
	ops := opcodesOf(t, out, out.Main)
	assert.Contains(t, ops, lvm.OpAggregateCount)
	assert.NotContains(t, ops, lvm.OpIterSelect)

	out = compile(t, count(&ram.False{}), Options{})
	ops = opcodesOf(t, out, out.Main)
	assert.NotContains(t, ops, lvm.OpAggregateCount)
	assert.Contains(t, ops, lvm.OpIterSelect)
}

func TestGenerate_MinSentinelCheck(t *testing.T) {
	prog := withFacts(nil, &ram.Query{Operation: &ram.Aggregate{
		Function:   ram.AggMin,
		Relation:   relR,
		Expression: elem(0, 0),
		Condition:  &ram.True{},
		Nested:     &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 0)}},
	}})
	out := compile(t, prog, Options{})
	instrs := instructionsOf(t, out, out.Main)

	var ret int
	for i, in := range instrs {
		if in.Op == lvm.OpAggregateReturn {
			ret = i
		}
	}
	require.NotZero(t, ret)
	tail := instrs[ret+1 : ret+5]
	assert.Equal(t, lvm.OpTupleElement, tail[0].Op)
	assert.Equal(t, lvm.OpNumber, tail[1].Op)
	assert.Equal(t, []lvm.Word{lvm.MaxDomain}, tail[1].Operands)
	assert.Equal(t, lvm.OpEQ, tail[2].Op)
	assert.Equal(t, lvm.OpJmpNZ, tail[3].Op)
	assert.Equal(t, lvm.Word(out.Main.Len()-1), tail[3].Operands[0], "skips to the end of the aggregate")
}

func TestGenerate_IndexAggregate(t *testing.T) {
	prog := withFacts([][2]int32{{1, 2}, {1, 5}, {3, 4}}, &ram.Query{Operation: &ram.IndexAggregate{
		Function:   ram.AggSum,
		Relation:   relR,
		Pattern:    []ram.Expression{num(1), undef()},
		Expression: elem(0, 1),
		Condition:  &ram.True{},
		Nested:     &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 0)}},
	}})
	m := execute(t, prog, Options{})
	assert.Equal(t, [][]lvm.Word{{7}}, m.relation("Out"))
}

func TestGenerate_Choice(t *testing.T) {
	prog := withFacts([][2]int32{{1, 2}, {3, 4}, {5, 6}}, &ram.Query{Operation: &ram.Choice{
		Relation:  relR,
		Condition: &ram.Constraint{Op: ram.CmpGT, LHS: elem(0, 0), RHS: num(2)},
		Nested:    &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 1)}},
	}})
	m := execute(t, prog, Options{})
	assert.Equal(t, [][]lvm.Word{{4}}, m.relation("Out"), "only the first match")
}

func TestGenerate_BreakLeavesScan(t *testing.T) {
	prog := withFacts([][2]int32{{1, 2}, {3, 4}, {5, 6}}, &ram.Query{Operation: &ram.Scan{
		Relation: relR,
		Nested: &ram.Break{
			Condition: &ram.Constraint{Op: ram.CmpEQ, LHS: elem(0, 0), RHS: num(3)},
			Nested:    &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 0)}},
		},
	}})
	m := execute(t, prog, Options{})
	assert.Equal(t, [][]lvm.Word{{1}}, m.relation("Out"))
}

func TestGenerate_LoopExit(t *testing.T) {
	prog := withFacts([][2]int32{{1, 2}}, &ram.Loop{Body: &ram.Sequence{Statements: []ram.Statement{
		&ram.Query{Operation: &ram.Scan{
			Relation: relR,
			Nested:   &ram.Project{Relation: relS, Values: []ram.Expression{elem(0, 1), elem(0, 0)}},
		}},
		&ram.Exit{Condition: &ram.Negation{Operand: &ram.EmptinessCheck{Relation: relS}}},
	}}})
	out := compile(t, prog, Options{})

	instrs := instructionsOf(t, out, out.Main)
	exit, ok := find(instrs[len(instrs)-6:], lvm.OpJmpNZ)
	require.True(t, ok)
	reset, ok := find(instrs, lvm.OpResetIterationNumber)
	require.True(t, ok)
	assert.Equal(t, lvm.Word(reset.Addr), exit.Operands[0], "exit lands on the counter reset")

	m := newMachine(t, out)
	m.run(out.Main)
	assert.Equal(t, [][]lvm.Word{{2, 1}}, m.relation("S"))
}

func TestGenerate_Parallel(t *testing.T) {
	prog := &ram.Program{
		Relations: []*ram.Relation{relR, relS},
		Main: &ram.Parallel{Statements: []ram.Statement{
			&ram.Create{Relation: relR},
			&ram.Create{Relation: relS},
		}},
	}

	seq := compile(t, prog, Options{Parallel: ParallelSequential})
	assert.Equal(t, []lvm.Opcode{lvm.OpCreate, lvm.OpCreate, lvm.OpStop}, opcodesOf(t, seq, seq.Main))

	fj := compile(t, prog, Options{Parallel: ParallelForkJoin})
	assert.Equal(t, lvm.Code{
		lvm.Word(lvm.OpParallel), 2, 13, 5, 9,
		lvm.Word(lvm.OpCreate), 0, lvm.Word(lvm.OpStopParallel), lvm.Word(lvm.OpNop),
		lvm.Word(lvm.OpCreate), 1, lvm.Word(lvm.OpStopParallel), lvm.Word(lvm.OpNop),
		lvm.Word(lvm.OpStop),
	}, fj.Main)

	single := &ram.Program{
		Relations: []*ram.Relation{relR},
		Main:      &ram.Parallel{Statements: []ram.Statement{&ram.Create{Relation: relR}}},
	}
	out := compile(t, single, Options{Parallel: ParallelForkJoin})
	assert.Equal(t, []lvm.Opcode{lvm.OpCreate, lvm.OpStop}, opcodesOf(t, out, out.Main))
}

func TestGenerate_LoadStoreDirectives(t *testing.T) {
	in := ram.IODirectives{"IO": "file", "filename": "R.facts"}
	outDir := ram.IODirectives{"IO": "stdout"}
	prog := &ram.Program{
		Relations: []*ram.Relation{relR},
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.Load{Relation: relR, Directives: in},
			&ram.Store{Relation: relR, Directives: outDir},
		}},
		Subroutines: map[string]ram.Statement{
			"dump": &ram.Store{Relation: relR, Directives: outDir},
		},
	}
	out := compile(t, prog, Options{})
	assert.Equal(t, []ram.IODirectives{in, outDir, outDir}, out.IODirectives)
	assert.Equal(t, lvm.Code{
		lvm.Word(lvm.OpSequence),
		lvm.Word(lvm.OpLoad), 0, 0,
		lvm.Word(lvm.OpStore), 0, 1,
		lvm.Word(lvm.OpStop),
	}, out.Main)
	assert.Equal(t, lvm.Code{lvm.Word(lvm.OpStore), 0, 2, lvm.Word(lvm.OpStop)}, out.Subroutines["dump"])
}

func TestGenerate_Expressions(t *testing.T) {
	syms := symbol.NewTable()
	prog := &ram.Program{
		Relations: []*ram.Relation{relOut},
		Main: &ram.Query{Operation: &ram.Project{Relation: relOut, Values: []ram.Expression{
			&ram.IntrinsicOperator{Op: ram.OpCat, Args: []ram.Expression{num(1), num(2), num(3)}},
		}}},
		Subroutines: map[string]ram.Statement{
			"udf": &ram.Query{Operation: &ram.SubroutineReturn{Values: []ram.Expression{
				&ram.UserDefinedOperator{Name: "f", Type: "NN", Args: []ram.Expression{num(1), &ram.SubroutineArgument{Index: 0}}},
				undef(),
				&ram.IntrinsicOperator{Op: ram.OpMax, Args: []ram.Expression{num(4), num(5)}},
			}}},
		},
	}
	out, err := New(syms, quietOptions()).Generate(prog)
	require.NoError(t, err)

	assert.Equal(t, lvm.Code{
		lvm.Word(lvm.OpQuery),
		lvm.Word(lvm.OpNumber), 3,
		lvm.Word(lvm.OpNumber), 2,
		lvm.Word(lvm.OpNumber), 1,
		lvm.Word(lvm.OpCat), 3,
		lvm.Word(lvm.OpProject), 1, 0,
		lvm.Word(lvm.OpStop),
	}, out.Main)

	f, _ := syms.Symbolize("f")
	nn, _ := syms.Symbolize("NN")
	types, ok := syms.Symbolize("V_V")
	require.True(t, ok)
	assert.Equal(t, lvm.Code{
		lvm.Word(lvm.OpQuery),
		lvm.Word(lvm.OpNumber), 4,
		lvm.Word(lvm.OpNumber), 5,
		lvm.Word(lvm.OpMax), 2,
		lvm.Word(lvm.OpArgument), 0,
		lvm.Word(lvm.OpNumber), 1,
		lvm.Word(lvm.OpUserDefinedOperator), lvm.Word(f), lvm.Word(nn), 2,
		lvm.Word(lvm.OpReturnValue), 3, lvm.Word(types),
		lvm.Word(lvm.OpStop),
	}, out.Subroutines["udf"])
}

func TestGenerate_TimersAndDebugInfo(t *testing.T) {
	prog := &ram.Program{
		Relations: []*ram.Relation{relR},
		Main: &ram.Sequence{Statements: []ram.Statement{
			&ram.LogTimer{Message: "a", Statement: &ram.Create{Relation: relR}},
			&ram.LogRelationTimer{Message: "b", Relation: relR, Statement: &ram.DebugInfo{
				Message:   "c",
				Statement: &ram.Stratum{Index: 0, Body: &ram.LogSize{Relation: relR, Message: "d"}},
			}},
		}},
	}
	out := compile(t, prog, Options{})
	instrs := instructionsOf(t, out, out.Main)

	var timers []lvm.Word
	for _, in := range instrs {
		switch in.Op {
		case lvm.OpLogTimer:
			timers = append(timers, in.Operands[1])
		case lvm.OpLogRelationTimer:
			timers = append(timers, in.Operands[1])
		}
	}
	assert.Equal(t, []lvm.Word{0, 1}, timers)
	assert.Equal(t, []lvm.Opcode{
		lvm.OpSequence,
		lvm.OpLogTimer, lvm.OpCreate, lvm.OpStopLogTimer,
		lvm.OpLogRelationTimer, lvm.OpDebugInfo, lvm.OpStratum, lvm.OpLogSize, lvm.OpStopLogTimer,
		lvm.OpStop,
	}, opcodesOf(t, out, out.Main))
}

func TestGenerate_Deterministic(t *testing.T) {
	build := func() *ram.Program {
		return withFacts([][2]int32{{1, 2}}, &ram.Loop{Body: &ram.Sequence{Statements: []ram.Statement{
			&ram.Query{Operation: &ram.IndexScan{
				Relation: relR,
				Pattern:  []ram.Expression{undef(), num(2)},
				Nested: &ram.Filter{
					Condition: &ram.ExistenceCheck{Relation: relS, Values: []ram.Expression{elem(0, 1), undef()}},
					Nested:    &ram.Project{Relation: relS, Values: []ram.Expression{elem(0, 1), elem(0, 0)}},
				},
			}},
			&ram.Exit{Condition: &ram.True{}},
		}}})
	}

	a := compile(t, build(), Options{})
	b := compile(t, build(), Options{})
	assert.Equal(t, a.Main, b.Main)

	idA, err := lvm.ProgramID(a)
	require.NoError(t, err)
	idB, err := lvm.ProgramID(b)
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
}

func TestGenerate_Defects(t *testing.T) {
	tests := []struct {
		name string
		prog *ram.Program
		opts Options
		want DefectCode
	}{
		{
			name: "break without target",
			prog: withFacts(nil, &ram.Query{Operation: &ram.Break{
				Condition: &ram.True{},
				Nested:    &ram.Project{Relation: relOut, Values: []ram.Expression{num(1)}},
			}}),
			want: DefectNoExitTarget,
		},
		{
			name: "signature without ordering",
			prog: withFacts(nil, &ram.Query{Operation: &ram.IndexScan{
				Relation: relR,
				Pattern:  []ram.Expression{num(5), undef()},
				Nested:   &ram.Project{Relation: relOut, Values: []ram.Expression{elem(0, 0)}},
			}}),
			opts: Options{Analysis: fullOnly{}},
			want: DefectUnknownSignature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = quietOptions().Logger
			_, err := New(symbol.NewTable(), tt.opts).Generate(tt.prog)
			require.Error(t, err)
			assert.True(t, IsDefect(err))
			code, ok := DefectCodeOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestGenerate_RejectsInvalidProgram(t *testing.T) {
	prog := &ram.Program{
		Main: &ram.Create{Relation: relR},
	}
	_, err := New(nil, quietOptions()).Generate(prog)
	require.Error(t, err)
	assert.False(t, IsDefect(err))
	assert.Contains(t, err.Error(), "validate")
}

// fullOnly materializes a single identity ordering for every relation.
type fullOnly struct{}

func (fullOnly) Indexes(rel *ram.Relation) *index.OrderSet {
	return index.Select(rel.Arity, nil)
}
