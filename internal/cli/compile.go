package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ramc/internal/codegen"
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // canonical program output path
	Database string // program store path
	Parallel string // parallel strategy name
	Name     string // program name recorded in the store
}

// RelationSummary describes one relation of a compiled program.
type RelationSummary struct {
	Handle int    `json:"handle"`
	Name   string `json:"name"`
	Arity  int    `json:"arity"`
	Kind   string `json:"kind"`
	Orders int    `json:"orders"`
}

// CompileSummary is the result of the compile command.
type CompileSummary struct {
	Source       string            `json:"source"`
	ProgramID    string            `json:"program_id"`
	Relations    []RelationSummary `json:"relations"`
	Subroutines  []string          `json:"subroutines"`
	MainWords    int               `json:"main_words"`
	Instructions int               `json:"instructions"`
	Symbols      int               `json:"symbols"`
	IODirectives int               `json:"io_directives"`
	Output       string            `json:"output,omitempty"`
	BuildID      string            `json:"build_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program>",
		Short: "Compile a RAM program to LVM bytecode",
		Long: `Compile a RAM program (CUE or JSON) to LVM bytecode.

Prints a summary of the compiled program. With --output the canonical
program encoding is written to a file; with --db the program is saved into
a program store.

Exit codes:
  0 - Program compiled
  1 - Program is invalid
  2 - Command error (missing file, store unavailable, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the canonical program to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "save the program into this SQLite store")
	cmd.Flags().StringVar(&opts.Parallel, "parallel", "sequential", "parallel lowering (sequential|forkjoin)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "program name recorded in the store (default: file name)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	parallel, err := codegen.ParseParallelStrategy(opts.Parallel)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	formatter.VerboseLog("Compiling %s (parallel=%s)", path, parallel)
	_, prog, err := compileProgram(path, parallel, logger)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), err)
	}

	summary, err := summarize(path, prog)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if opts.Output != "" {
		if err := writeProgram(prog, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, &CodedError{Code: ErrCodeWriteFailed, Message: "writing output file", Err: err})
		}
		summary.Output = opts.Output
	}

	if opts.Database != "" {
		name := opts.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		build, err := saveProgram(cmd, opts.Database, prog, store.BuildInfo{
			Name:     name,
			Source:   path,
			Parallel: parallel.String(),
		})
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		logger.Info("program saved", "db", opts.Database, "program", build.ProgramID, "build", build.ID)
		summary.BuildID = build.ID
	}

	return formatter.Success(summary, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Compiled %s: %d relation(s), %d instruction(s)\n",
			path, len(summary.Relations), summary.Instructions)
		fmt.Fprintf(w, "  program %s\n", summary.ProgramID)
		for _, r := range summary.Relations {
			fmt.Fprintf(w, "  %d %s/%d %s orders=%d\n", r.Handle, r.Name, r.Arity, r.Kind, r.Orders)
		}
		if len(summary.Subroutines) > 0 {
			fmt.Fprintf(w, "  subroutines: %s\n", strings.Join(summary.Subroutines, ", "))
		}
		if summary.Output != "" {
			fmt.Fprintf(w, "Wrote canonical program to %s\n", summary.Output)
		}
		if summary.BuildID != "" {
			fmt.Fprintf(w, "Saved build %s to %s\n", summary.BuildID, opts.Database)
		}
	})
}

func summarize(path string, prog *lvm.Program) (*CompileSummary, error) {
	id, err := lvm.ProgramID(prog)
	if err != nil {
		return nil, err
	}
	instrs, err := prog.Decode(prog.Main)
	if err != nil {
		return nil, err
	}

	s := &CompileSummary{
		Source:       path,
		ProgramID:    id,
		Relations:    []RelationSummary{},
		Subroutines:  prog.SubroutineNames(),
		MainWords:    len(prog.Main),
		Instructions: len(instrs),
		Symbols:      prog.Symbols.Len(),
		IODirectives: len(prog.IODirectives),
	}
	for _, d := range prog.Relations.Descriptors() {
		s.Relations = append(s.Relations, RelationSummary{
			Handle: int(d.Handle),
			Name:   d.Name,
			Arity:  d.Arity,
			Kind:   d.Kind.String(),
			Orders: len(d.Orders),
		})
	}
	return s, nil
}

// writeProgram writes the canonical program encoding to filename.
func writeProgram(prog *lvm.Program, filename string) error {
	data, err := lvm.MarshalProgram(prog)
	if err != nil {
		return fmt.Errorf("marshaling program: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func saveProgram(cmd *cobra.Command, dbPath string, prog *lvm.Program, info store.BuildInfo) (store.Build, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return store.Build{}, &CodedError{Code: ErrCodeStore, Message: "failed to open database", Err: err}
	}
	defer st.Close()

	build, err := st.SaveProgram(cmd.Context(), prog, info)
	if err != nil {
		return store.Build{}, &CodedError{Code: ErrCodeStore, Message: "failed to save program", Err: err}
	}
	return build, nil
}
