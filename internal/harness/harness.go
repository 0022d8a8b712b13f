package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ramc/internal/codegen"
	"github.com/roach88/ramc/internal/loader"
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/store"
	"github.com/roach88/ramc/internal/testutil"
)

// Harness runs scenarios against one scratch store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. A failed
// expectation is reported in the result; an error is returned only when the
// harness itself cannot proceed.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithBuildIDs(testutil.BuildIDs(testutil.NewClock())))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	result := NewResult()

	parallel, err := codegen.ParseParallelStrategy(s.Options.Parallel)
	if err != nil {
		return nil, err
	}

	out, err := h.compile(s, parallel)
	if err != nil {
		result.CompileError = err.Error()
		for _, msg := range evaluateError(s.Expect, err) {
			result.AddError(msg)
		}
		return result, nil
	}
	if s.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected compilation error containing %q, program compiled", s.Expect.Error))
	}

	source := s.Source
	if source == "" {
		source = "inline"
	}
	build, err := h.store.SaveProgram(ctx, out, store.BuildInfo{
		Name:     s.Name,
		Source:   source,
		Parallel: parallel.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("save program: %w", err)
	}
	stored, _, err := h.store.LoadProgram(ctx, build.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	result.ProgramID = build.ProgramID
	result.BuildID = build.ID

	if err := collect(result, stored); err != nil {
		return nil, err
	}
	var direct bytes.Buffer
	if err := lvm.Disassemble(&direct, out); err != nil {
		return nil, fmt.Errorf("disassemble: %w", err)
	}
	if direct.String() != result.Disassembly {
		result.AddError("stored program disassembles differently from the compiled one")
	}

	for _, msg := range EvaluateExpectations(result, s.Expect) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", s.Name,
		"program", result.ProgramID,
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) compile(s *Scenario, parallel codegen.ParallelStrategy) (*lvm.Program, error) {
	var prog *ram.Program
	var err error
	if s.Program != "" {
		prog, err = loader.LoadBytes(s.Name+".cue", []byte(s.Program))
	} else {
		prog, err = loader.LoadFile(s.Source)
	}
	if err != nil {
		return nil, err
	}

	gen := codegen.New(nil, codegen.Options{Parallel: parallel, Logger: h.logger})
	return gen.Generate(prog)
}

// collect fills the program-derived fields of result from p.
func collect(result *Result, p *lvm.Program) error {
	var buf bytes.Buffer
	if err := lvm.Disassemble(&buf, p); err != nil {
		return fmt.Errorf("disassemble: %w", err)
	}
	result.Disassembly = buf.String()

	for _, d := range p.Relations.Descriptors() {
		result.Relations = append(result.Relations, d.Name)
	}

	codes := []lvm.Code{p.Main}
	for _, name := range p.SubroutineNames() {
		codes = append(codes, p.Subroutines[name])
	}
	for i, code := range codes {
		instrs, err := p.Decode(code)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if i == 0 {
			result.Instructions = len(instrs)
		}
		for _, in := range instrs {
			result.Opcodes[in.Op.String()]++
		}
	}
	return nil
}
