package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/ramc/internal/codegen"
	"github.com/roach88/ramc/internal/loader"
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/testutil"
)

// createTestStore opens a fresh store in a temp dir with stable build ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithBuildIDs(testutil.BuildIDs(testutil.NewClock())))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// compileTestProgram compiles CUE source into a program.
func compileTestProgram(t *testing.T, src string, parallel codegen.ParallelStrategy) *lvm.Program {
	t.Helper()
	prog, err := loader.LoadBytes("test.cue", []byte(src))
	if err != nil {
		t.Fatalf("LoadBytes() failed: %v", err)
	}
	gen := codegen.New(nil, codegen.Options{
		Parallel: parallel,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	p, err := gen.Generate(prog)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	return p
}

const copySource = `
relations: {
	a: {arity: 2}
	b: {arity: 2}
}
main: sequence: [
	{create: "a"},
	{create: "b"},
	{query: scan: {relation: "a", tuple: 0, nested: project: {relation: "b", values: [{tuple: [0, 1]}, {tuple: [0, 0]}]}}},
]
`

const parallelSource = `
relations: {
	a: {arity: 1}
	b: {arity: 1}
}
main: parallel: [{create: "a"}, {create: "b"}]
`
