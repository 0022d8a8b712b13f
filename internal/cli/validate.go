package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ramc/internal/codegen"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool       `json:"valid"`
	Errors []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Check a RAM program without writing output",
		Long: `Check a RAM program: decode it, run the structural checks and lower it
to bytecode, discarding the result. Every structural problem is reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, _, err := compileProgram(path, codegen.ParallelSequential, opts.Logger(cmd.ErrOrStderr()))
	if err == nil {
		result := ValidationResult{Valid: true}
		return formatter.Success(result, func(w io.Writer) {
			fmt.Fprintf(w, "✓ %s is valid\n", path)
		})
	}

	exitCode := exitCodeFor(err)
	if exitCode == ExitCommandError {
		return formatter.Fail(exitCode, err)
	}

	result := ValidationResult{Valid: false, Errors: validationErrors(err)}
	if opts.Format == "json" {
		_ = formatter.Success(result, nil)
	} else {
		w := formatter.Writer
		fmt.Fprintf(w, "✗ %s is invalid\n\n", path)
		for _, e := range result.Errors {
			if e.File != "" && e.Line > 0 {
				fmt.Fprintf(w, "%s:%d:%d\n", e.File, e.Line, e.Column)
			}
			fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

// validationErrors expands a program failure into one CLIError per problem.
func validationErrors(err error) []CLIError {
	e := describeError(err)
	msgs, ok := e.Details.([]string)
	if !ok {
		return []CLIError{e}
	}
	out := make([]CLIError, len(msgs))
	for i, msg := range msgs {
		out[i] = CLIError{Code: e.Code, Message: msg}
	}
	return out
}
