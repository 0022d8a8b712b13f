// Package codegen lowers RAM programs to LVM bytecode.
//
// Every code unit (the main statement and each subroutine) is lowered
// twice over the same tree. The first pass resolves every jump label; the
// second pass starts from a fresh LoweringState, reuses the label table and
// emits the final code with concrete jump targets. Both passes must produce
// the same number of words and labels.
package codegen

import (
	"fmt"
	"log/slog"

	"github.com/roach88/ramc/internal/index"
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/relation"
	"github.com/roach88/ramc/internal/symbol"
)

// Generator compiles RAM programs. A Generator is not safe for concurrent
// use; independent compilations each need their own Generator. The string
// table may be shared.
type Generator struct {
	opts    Options
	symbols *symbol.Table
	logger  *slog.Logger
}

// New returns a generator interning strings into symbols.
func New(symbols *symbol.Table, opts Options) *Generator {
	if symbols == nil {
		symbols = symbol.NewTable()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{opts: opts, symbols: symbols, logger: logger}
}

// Generate validates prog and compiles it. Any defect aborts the whole
// compilation and no program is returned.
func (g *Generator) Generate(prog *ram.Program) (*lvm.Program, error) {
	if err := ram.Validate(prog); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	analysis := g.opts.Analysis
	if analysis == nil {
		analysis = index.Analyze(prog)
	}
	registry := relation.NewRegistry(analysis)
	for _, rel := range prog.Relations {
		if _, err := registry.Encode(rel); err != nil {
			return nil, defect(DefectRelation, "", "%v", err)
		}
	}

	c := &compilation{
		gen:      g,
		registry: registry,
		resolver: NewResolver(analysis),
	}

	main, err := c.compileUnit("main", prog.Main)
	if err != nil {
		return nil, fmt.Errorf("main: %w", err)
	}
	subs := make(map[string]lvm.Code, len(prog.Subroutines))
	for _, name := range prog.SubroutineNames() {
		code, err := c.compileUnit(name, prog.Subroutines[name])
		if err != nil {
			return nil, fmt.Errorf("subroutine %s: %w", name, err)
		}
		subs[name] = code
	}

	g.logger.Info("program compiled",
		"relations", registry.Len(),
		"subroutines", len(subs),
		"instructions", len(main),
		"io_directives", len(c.io),
	)
	return &lvm.Program{
		Main:         main,
		Subroutines:  subs,
		Relations:    registry,
		IODirectives: c.io,
		Symbols:      g.symbols,
	}, nil
}

// compilation is the state shared by the code units of one program.
type compilation struct {
	gen      *Generator
	registry *relation.Registry
	resolver *Resolver
	io       []ram.IODirectives
}

// compileUnit runs both lowering passes over stmt and returns the final
// code, terminated by STOP.
func (c *compilation) compileUnit(name string, stmt ram.Statement) (lvm.Code, error) {
	labels := NewLabelTable()

	first := c.newLowerer(labels)
	if err := first.statement(stmt, noTarget); err != nil {
		return nil, err
	}
	if err := labels.BeginFinalPass(); err != nil {
		return nil, err
	}
	c.gen.logger.Debug("first lowering pass",
		"unit", name,
		"instructions", len(first.state.Code),
		"labels", len(labels.addrs),
		"iterators", first.state.Iterators.Count(),
		"timers", first.state.Timers.Count(),
	)

	final := c.newLowerer(labels)
	if err := final.statement(stmt, noTarget); err != nil {
		return nil, err
	}
	if len(final.state.Code) != len(first.state.Code) {
		return nil, defect(DefectPassMismatch, "", "final pass emitted %d words, first pass %d",
			len(final.state.Code), len(first.state.Code))
	}
	if labels.Len() != len(labels.addrs) {
		return nil, defect(DefectPassMismatch, "", "final pass created %d labels, first pass %d",
			labels.Len(), len(labels.addrs))
	}
	final.state.emitOp(lvm.OpStop)

	c.io = final.state.IODirectives
	c.gen.logger.Debug("final lowering pass",
		"unit", name,
		"instructions", len(final.state.Code),
		"relations", c.registry.Len(),
	)
	return final.state.Code, nil
}

func (c *compilation) newLowerer(labels *LabelTable) *lowerer {
	return &lowerer{
		state:    newLoweringState(c.io),
		labels:   labels,
		registry: c.registry,
		resolver: c.resolver,
		symbols:  c.gen.symbols,
		parallel: c.gen.opts.Parallel,
	}
}
