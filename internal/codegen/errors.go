package codegen

import (
	"errors"
	"fmt"
)

// DefectError reports a RAM tree the generator cannot lower. Defects are
// contract violations of the producer of the tree; no program is produced.
type DefectError struct {
	// Code identifies the defect category.
	Code DefectCode

	// Node is the kind of the offending node, when there is one.
	Node string

	// Message is a human-readable description.
	Message string
}

// DefectCode categorizes defects.
type DefectCode string

const (
	DefectUnknownNode         DefectCode = "UNKNOWN_NODE"
	DefectUnsupportedOperator DefectCode = "UNSUPPORTED_OPERATOR"
	DefectUndefinedValue      DefectCode = "UNDEFINED_VALUE"
	DefectOperandCount        DefectCode = "OPERAND_COUNT"
	DefectNoExitTarget        DefectCode = "NO_EXIT_TARGET"
	DefectUnknownSignature    DefectCode = "UNKNOWN_SIGNATURE"
	DefectUnresolvedLabel     DefectCode = "UNRESOLVED_LABEL"
	DefectPassMismatch        DefectCode = "PASS_MISMATCH"
	DefectRelation            DefectCode = "RELATION"
)

// Error implements the error interface.
func (e *DefectError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDefect reports whether err is (or wraps) a DefectError.
func IsDefect(err error) bool {
	var de *DefectError
	return errors.As(err, &de)
}

// DefectCodeOf returns the code of the DefectError in err's chain.
func DefectCodeOf(err error) (DefectCode, bool) {
	var de *DefectError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

func defect(code DefectCode, node, format string, args ...any) *DefectError {
	return &DefectError{Code: code, Node: node, Message: fmt.Sprintf(format, args...)}
}
