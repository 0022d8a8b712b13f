package harness

import (
	"fmt"
	"strings"
)

// ExpectationError describes one failed expectation.
type ExpectationError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("expect.%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// EvaluateExpectations checks a compiled result against e and returns one
// message per failed check.
func EvaluateExpectations(result *Result, e Expect) []string {
	var errs []error

	if e.Instructions != nil && *e.Instructions != result.Instructions {
		errs = append(errs, &ExpectationError{
			Field:    "instructions",
			Expected: fmt.Sprint(*e.Instructions),
			Actual:   fmt.Sprint(result.Instructions),
		})
	}

	if len(e.Relations) > 0 && !equalStrings(e.Relations, result.Relations) {
		errs = append(errs, &ExpectationError{
			Field:    "relations",
			Expected: fmt.Sprintf("%v", e.Relations),
			Actual:   fmt.Sprintf("%v", result.Relations),
		})
	}

	for _, name := range e.Contains {
		if result.Opcodes[name] == 0 {
			errs = append(errs, &ExpectationError{
				Field:    "contains",
				Expected: name,
				Actual:   "no such instruction",
			})
		}
	}

	for _, name := range e.Absent {
		if n := result.Opcodes[name]; n > 0 {
			errs = append(errs, &ExpectationError{
				Field:    "absent",
				Expected: "no " + name,
				Actual:   fmt.Sprintf("%d occurrences", n),
			})
		}
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// evaluateError checks a compilation failure against e.
func evaluateError(e Expect, err error) []string {
	if e.Error == "" {
		return []string{fmt.Sprintf("compile: %v", err)}
	}
	if !strings.Contains(err.Error(), e.Error) {
		return []string{(&ExpectationError{
			Field:    "error",
			Expected: fmt.Sprintf("error containing %q", e.Error),
			Actual:   fmt.Sprintf("%q", err.Error()),
		}).Error()}
	}
	return nil
}

func equalStrings(a, b []string) bool {
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
