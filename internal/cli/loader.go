package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/roach88/ramc/internal/codegen"
	"github.com/roach88/ramc/internal/loader"
	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/store"
)

// Error code constants - unified across all CLI commands. Loader failures
// keep the loader's own E0xx/E2xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path or stored program not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Program store failure
	ErrCodeAmbiguous   = "E009" // Program id prefix matches several programs

	ErrCodeInvalidProgram = "E301" // RAM structural validation failed
	ErrCodeDefect         = "E302" // Generator rejected the tree
)

// ValidationFailure carries every structural problem of one program.
type ValidationFailure struct {
	Problems []*ram.ValidationError
}

func (e *ValidationFailure) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	return fmt.Sprintf("%d validation errors, first: %v", len(e.Problems), e.Problems[0])
}

// CodedError attaches a CLI error code to a command failure.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// loadProgram decodes and validates the RAM program at path.
func loadProgram(path string) (*ram.Program, error) {
	prog, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ram.Validate(prog); err != nil {
		return nil, &ValidationFailure{Problems: validationProblems(err)}
	}
	return prog, nil
}

// compileProgram loads, validates and compiles the program at path.
func compileProgram(path string, parallel codegen.ParallelStrategy, logger *slog.Logger) (*ram.Program, *lvm.Program, error) {
	prog, err := loadProgram(path)
	if err != nil {
		return nil, nil, err
	}
	gen := codegen.New(nil, codegen.Options{Parallel: parallel, Logger: logger.With("source", path)})
	out, err := gen.Generate(prog)
	if err != nil {
		return nil, nil, err
	}
	return prog, out, nil
}

func validationProblems(err error) []*ram.ValidationError {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	problems := make([]*ram.ValidationError, 0, len(errs))
	for _, e := range errs {
		var ve *ram.ValidationError
		if errors.As(e, &ve) {
			problems = append(problems, ve)
		} else {
			problems = append(problems, &ram.ValidationError{Message: e.Error()})
		}
	}
	return problems
}

// describeError maps a command failure to its CLI error code.
func describeError(err error) CLIError {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		e := CLIError{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			e.File = loadErr.Pos.Filename()
			e.Line = loadErr.Pos.Line()
			e.Column = loadErr.Pos.Column()
		}
		return e
	}

	var vf *ValidationFailure
	if errors.As(err, &vf) {
		msgs := make([]string, len(vf.Problems))
		for i, p := range vf.Problems {
			msgs[i] = p.Error()
		}
		return CLIError{Code: ErrCodeInvalidProgram, Message: vf.Error(), Details: msgs}
	}

	if code, ok := codegen.DefectCodeOf(err); ok {
		return CLIError{Code: ErrCodeDefect, Message: err.Error(), Details: string(code)}
	}

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return CLIError{Code: ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, store.ErrAmbiguousID):
		return CLIError{Code: ErrCodeAmbiguous, Message: err.Error()}
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return CLIError{Code: coded.Code, Message: coded.Error()}
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// exitCodeFor picks the exit code of a program failure: problems in the
// program itself are failures, everything else is a command error.
func exitCodeFor(err error) int {
	var loadErr *loader.LoadError
	var vf *ValidationFailure
	switch {
	case errors.As(err, &loadErr) && loadErr.Code != loader.ErrCodeNotFound:
		return ExitFailure
	case errors.As(err, &vf), codegen.IsDefect(err):
		return ExitFailure
	}
	return ExitCommandError
}
