package lvm

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ramc/internal/index"
	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/relation"
	"github.com/roach88/ramc/internal/symbol"
)

func TestMaskWords(t *testing.T) {
	assert.Equal(t, 0, MaskWords(0))
	assert.Equal(t, 1, MaskWords(1))
	assert.Equal(t, 1, MaskWords(32))
	assert.Equal(t, 2, MaskWords(33))
	assert.Equal(t, 2, MaskWords(64))
}

func TestMaskRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for arity := 0; arity <= 100; arity++ {
		bound := make([]bool, arity)
		for i := range bound {
			bound[i] = rng.Intn(2) == 1
		}
		words := PackMask(bound)
		require.Len(t, words, MaskWords(arity))
		assert.Equal(t, bound, UnpackMask(words, arity), "arity %d", arity)
	}
}

func TestPackMask_BitLayout(t *testing.T) {
	bound := make([]bool, 40)
	bound[0] = true
	bound[31] = true
	bound[33] = true

	words := PackMask(bound)
	require.Len(t, words, 2)
	assert.Equal(t, uint32(1|1<<31), uint32(words[0]))
	assert.Equal(t, Word(0b10), words[1])
}

func TestOpcodeTable(t *testing.T) {
	seen := map[string]bool{}
	for _, op := range Opcodes() {
		info, ok := op.Info()
		require.True(t, ok)
		require.NotEmpty(t, info.Name, "opcode %d has no name", int(op))
		assert.False(t, seen[info.Name], "duplicate name %s", info.Name)
		seen[info.Name] = true

		parsed, ok := ParseOpcode(info.Name)
		require.True(t, ok)
		assert.Equal(t, op, parsed)
	}
	assert.False(t, Opcode(-1).Valid())
	assert.Equal(t, "Opcode(9999)", Opcode(9999).String())
}

func testProgram(t *testing.T) *Program {
	t.Helper()
	reg := relation.NewRegistry(index.Analyze(&ram.Program{}))
	_, err := reg.Encode(&ram.Relation{Name: "edge", Arity: 2, AttributeTypes: []string{"i", "i"}})
	require.NoError(t, err)
	_, err = reg.Encode(&ram.Relation{Name: "wide", Arity: 40})
	require.NoError(t, err)

	syms := symbol.NewTable()
	msg := syms.Intern("edge size")

	return &Program{
		Main: Code{
			Word(OpSequence),
			Word(OpCreate), 0,
			Word(OpExistenceCheckOneArg), 0, 0, 0b01,
			Word(OpJmpNZ), 11,
			Word(OpClear), 0,
			Word(OpLogSize), 0, Word(msg),
			Word(OpExistenceCheck), 1, 0, 1, 0b10,
			Word(OpLoad), 0, 0,
			Word(OpStop),
		},
		Subroutines: map[string]Code{
			"sub": {Word(OpArgument), 0, Word(OpStop)},
		},
		Relations:    reg,
		IODirectives: []ram.IODirectives{{"IO": "file", "filename": "edge.facts"}},
		Symbols:      syms,
	}
}

func TestDecode(t *testing.T) {
	p := testProgram(t)

	instrs, err := p.Decode(p.Main)
	require.NoError(t, err)

	var ops []Opcode
	for _, in := range instrs {
		ops = append(ops, in.Op)
	}
	assert.Equal(t, []Opcode{
		OpSequence, OpCreate, OpExistenceCheckOneArg, OpJmpNZ, OpClear,
		OpLogSize, OpExistenceCheck, OpLoad, OpStop,
	}, ops)

	wide := instrs[6]
	assert.Equal(t, Address(14), wide.Addr)
	assert.Len(t, wide.Operands, 4, "two mask words for arity 40")
	assert.Equal(t, OperandMask, wide.OperandKind(3))
	assert.Equal(t, Address(19), wide.Next())
}

func TestDecode_Errors(t *testing.T) {
	p := testProgram(t)

	tests := []struct {
		name string
		code Code
		want string
	}{
		{"unknown opcode", Code{9999}, "unknown opcode"},
		{"truncated", Code{Word(OpTupleElement), 0}, "truncated"},
		{"unknown relation", Code{Word(OpExistenceCheck), 7, 0}, "unknown relation handle 7"},
		{"mid-instruction jump", Code{Word(OpGoto), 1}, "not an instruction"},
		{"jump past end", Code{Word(OpGoto), 5}, "not an instruction"},
		{"negative children", Code{Word(OpParallel), -1, 0}, "negative child count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Decode(tt.code)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_Parallel(t *testing.T) {
	p := testProgram(t)
	code := Code{
		Word(OpParallel), 2, 11, 5, 8,
		Word(OpSequence), Word(OpStopParallel), Word(OpNop),
		Word(OpSequence), Word(OpStopParallel), Word(OpNop),
		Word(OpStop),
	}
	instrs, err := p.Decode(code)
	require.NoError(t, err)
	require.Len(t, instrs, 8)
	assert.Equal(t, []Word{2, 11, 5, 8}, instrs[0].Operands)
	assert.Equal(t, OperandAddress, instrs[0].OperandKind(3))
}

func TestDisassemble(t *testing.T) {
	p := testProgram(t)

	var buf bytes.Buffer
	require.NoError(t, Disassemble(&buf, p))

	want := `relations:
  0 edge/2 btree orders=1
  1 wide/40 indirect orders=1
io:
  0 {"IO":"file","filename":"edge.facts"}
main:
     0  SEQUENCE
     1  CREATE edge
     3  EXISTENCE_CHECK_ONE_ARG edge order=0 mask=1
     7  JMPNZ @11
     9  CLEAR edge
    11  LOG_SIZE edge "edge size"
    14  EXISTENCE_CHECK wide order=0 mask=1 mask=10
    19  LOAD edge io0
    22  STOP
subroutine sub:
     0  ARGUMENT arg0
     2  STOP
`
	assert.Equal(t, want, buf.String())
}

func TestMarshalProgram_RoundTrip(t *testing.T) {
	p := testProgram(t)

	data, err := MarshalProgram(p)
	require.NoError(t, err)

	decoded, err := UnmarshalProgram(data)
	require.NoError(t, err)

	assert.Equal(t, p.Main, decoded.Main)
	assert.Equal(t, p.Subroutines, decoded.Subroutines)
	assert.Equal(t, p.IODirectives, decoded.IODirectives)
	assert.Equal(t, p.Symbols.Strings(), decoded.Symbols.Strings())
	assert.Equal(t, p.Relations.Descriptors(), decoded.Relations.Descriptors())

	again, err := MarshalProgram(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	id1, err := ProgramID(p)
	require.NoError(t, err)
	id2, err := ProgramID(decoded)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
}

func TestProgramID_ChangesWithCode(t *testing.T) {
	p := testProgram(t)
	before, err := ProgramID(p)
	require.NoError(t, err)

	p.Main[2] = 1
	after, err := ProgramID(p)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestUnmarshalProgram_Errors(t *testing.T) {
	for _, input := range []string{
		`[]`,
		`{"version":2}`,
		`{"version":1,"relations":[],"symbols":[],"io":[],"main":[1.5],"subroutines":{}}`,
		`{"version":1,"relations":[{"name":"a","arity":1,"types":[],"kind":"hash","orders":[]}],"symbols":[],"io":[],"main":[],"subroutines":{}}`,
		`{"version":1,"relations":[],"symbols":["a","a"],"io":[],"main":[],"subroutines":{}}`,
	} {
		_, err := UnmarshalProgram([]byte(input))
		assert.Error(t, err, input)
	}
}

func TestMarshalProgram_KeepsUnicodeForms(t *testing.T) {
	p := testProgram(t)
	composed := p.Symbols.Intern("caf\u00e9")
	decomposed := p.Symbols.Intern("cafe\u0301")
	require.NotEqual(t, composed, decomposed)
	p.IODirectives[0]["filename"] = "cafe\u0301.facts"

	data, err := MarshalProgram(p)
	require.NoError(t, err)

	decoded, err := UnmarshalProgram(data)
	require.NoError(t, err)
	assert.Equal(t, p.Symbols.Strings(), decoded.Symbols.Strings())
	s, ok := decoded.Symbols.Lookup(decomposed)
	require.True(t, ok)
	assert.Equal(t, "cafe\u0301", s)
	assert.Equal(t, "cafe\u0301.facts", decoded.IODirectives[0]["filename"])
}

func TestProgramID_DistinguishesUnicodeForms(t *testing.T) {
	composed := testProgram(t)
	composed.Symbols.Intern("caf\u00e9")
	decomposed := testProgram(t)
	decomposed.Symbols.Intern("cafe\u0301")

	id1, err := ProgramID(composed)
	require.NoError(t, err)
	id2, err := ProgramID(decomposed)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}
