package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ramc/internal/codegen"
	"github.com/roach88/ramc/internal/lvm"
)

// DisasmOptions holds flags for the disasm command.
type DisasmOptions struct {
	*RootOptions
	Parallel string
}

// Listing is the JSON form of a disassembly.
type Listing struct {
	ProgramID string `json:"program_id"`
	Text      string `json:"text"`
}

// NewDisasmCommand creates the disasm command.
func NewDisasmCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DisasmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "disasm <program>",
		Short: "Compile a RAM program and print its disassembly",
		Long: `Compile a RAM program and print the bytecode listing: the relation
table, the I/O directives, then main and every subroutine with one
instruction per line.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisasm(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parallel, "parallel", "sequential", "parallel lowering (sequential|forkjoin)")

	return cmd
}

func runDisasm(opts *DisasmOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	parallel, err := codegen.ParseParallelStrategy(opts.Parallel)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	_, prog, err := compileProgram(path, parallel, opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return formatter.Fail(exitCodeFor(err), err)
	}
	return printListing(formatter, prog)
}

func printListing(formatter *OutputFormatter, prog *lvm.Program) error {
	id, err := lvm.ProgramID(prog)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	var buf bytes.Buffer
	if err := lvm.Disassemble(&buf, prog); err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	return formatter.Success(Listing{ProgramID: id, Text: buf.String()}, func(w io.Writer) {
		fmt.Fprint(w, buf.String())
	})
}
