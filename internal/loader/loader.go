// Package loader reads RAM programs written in CUE (or JSON, which is a
// CUE subset) and builds ram.Program trees.
//
// A source file has three top-level fields:
//
//	relations:   { edge: { arity: 2, types: ["i", "i"], representation: "btree" } }
//	main:        <statement>
//	subroutines: { name: <statement> }
//
// Every tree node is a single-field struct {<kind>: <payload>}. Integers
// are numeric constants and the string "_" is the undefined value.
package loader

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ramc/internal/ram"
)

// Error codes carried by LoadError.
const (
	ErrCodeNotFound        = "E005" // source file missing or unreadable
	ErrCodeBuildFailed     = "E006" // CUE syntax or evaluation error
	ErrCodeInvalidNode     = "E201" // malformed or unknown tree node
	ErrCodeUnknownRelation = "E202" // reference to an undeclared relation
	ErrCodeInvalidRelation = "E203" // malformed relation declaration
	ErrCodeInvalidValue    = "E204" // wrong kind or out-of-range value
)

// LoadError is a source error with its CUE position when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadFile reads and decodes the program at path.
func LoadFile(path string) (*ram.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return LoadBytes(path, data)
}

// LoadBytes decodes a program from source text; name is used in positions.
func LoadBytes(name string, data []byte) (*ram.Program, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, err)
	}
	return LoadValue(v)
}

// LoadValue decodes a program from an evaluated CUE value.
func LoadValue(v cue.Value) (*ram.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, err)
	}
	d := &decoder{relations: make(map[string]*ram.Relation)}
	prog := &ram.Program{}

	if rels := v.LookupPath(cue.ParsePath("relations")); rels.Exists() {
		decls, err := d.relationDecls(rels)
		if err != nil {
			return nil, err
		}
		prog.Relations = decls
	}

	main := v.LookupPath(cue.ParsePath("main"))
	if !main.Exists() {
		return nil, &LoadError{Code: ErrCodeInvalidNode, Message: "main is required", Pos: v.Pos()}
	}
	stmt, err := d.statement(main)
	if err != nil {
		return nil, err
	}
	prog.Main = stmt

	if subs := v.LookupPath(cue.ParsePath("subroutines")); subs.Exists() {
		iter, err := subs.Fields()
		if err != nil {
			return nil, formatCUEError(ErrCodeInvalidNode, err)
		}
		prog.Subroutines = make(map[string]ram.Statement)
		for iter.Next() {
			stmt, err := d.statement(iter.Value())
			if err != nil {
				return nil, err
			}
			prog.Subroutines[iter.Label()] = stmt
		}
	}
	return prog, nil
}

// formatCUEError converts the first CUE error into a LoadError with its
// position.
func formatCUEError(code string, err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

type decoder struct {
	relations map[string]*ram.Relation
}

func (d *decoder) fail(code string, v cue.Value, format string, args ...any) error {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

// relationDecls decodes the relation declarations in source order.
func (d *decoder) relationDecls(v cue.Value) ([]*ram.Relation, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(ErrCodeInvalidRelation, err)
	}
	var out []*ram.Relation
	for iter.Next() {
		name := iter.Label()
		decl := iter.Value()

		arity, err := d.intField(decl, "arity", ErrCodeInvalidRelation)
		if err != nil {
			return nil, err
		}
		rel := &ram.Relation{Name: name, Arity: arity}
		if rel.AttributeTypes, err = d.optionalStrings(decl, "types"); err != nil {
			return nil, err
		}
		if rel.AttributeNames, err = d.optionalStrings(decl, "names"); err != nil {
			return nil, err
		}
		if r := decl.LookupPath(cue.ParsePath("representation")); r.Exists() {
			s, err := r.String()
			if err != nil {
				return nil, formatCUEError(ErrCodeInvalidRelation, err)
			}
			if rel.Representation, err = ram.ParseRepresentation(s); err != nil {
				return nil, d.fail(ErrCodeInvalidRelation, r, "%v", err)
			}
		}
		d.relations[name] = rel
		out = append(out, rel)
	}
	return out, nil
}

// node splits a single-field struct into its kind and payload.
func (d *decoder) node(v cue.Value, what string) (string, cue.Value, error) {
	if v.Kind() != cue.StructKind {
		return "", cue.Value{}, d.fail(ErrCodeInvalidNode, v, "%s must be a {kind: payload} struct, got %s", what, v.Kind())
	}
	iter, err := v.Fields()
	if err != nil {
		return "", cue.Value{}, formatCUEError(ErrCodeInvalidNode, err)
	}
	var (
		kind    string
		payload cue.Value
		n       int
	)
	for iter.Next() {
		kind, payload = iter.Label(), iter.Value()
		n++
	}
	if n != 1 {
		return "", cue.Value{}, d.fail(ErrCodeInvalidNode, v, "%s must have exactly one field, has %d", what, n)
	}
	return kind, payload, nil
}

func (d *decoder) field(v cue.Value, name string) (cue.Value, error) {
	return d.required(v, name, ErrCodeInvalidNode)
}

func (d *decoder) required(v cue.Value, name, code string) (cue.Value, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return cue.Value{}, d.fail(code, v, "field %q is required", name)
	}
	return f, nil
}

func (d *decoder) intValue(v cue.Value, code string) (int, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(code, err)
	}
	if n < -1<<31 || n > 1<<31-1 {
		return 0, d.fail(ErrCodeInvalidValue, v, "%d does not fit in 32 bits", n)
	}
	return int(n), nil
}

func (d *decoder) intField(v cue.Value, name, code string) (int, error) {
	f, err := d.required(v, name, code)
	if err != nil {
		return 0, err
	}
	return d.intValue(f, code)
}

// optionalInt returns def when the field is absent.
func (d *decoder) optionalInt(v cue.Value, name string, def int) (int, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return def, nil
	}
	return d.intValue(f, ErrCodeInvalidValue)
}

func (d *decoder) stringField(v cue.Value, name string) (string, error) {
	f, err := d.field(v, name)
	if err != nil {
		return "", err
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(ErrCodeInvalidValue, err)
	}
	return s, nil
}

func (d *decoder) optionalString(v cue.Value, name string) (string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(ErrCodeInvalidValue, err)
	}
	return s, nil
}

func (d *decoder) optionalStrings(v cue.Value, name string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(ErrCodeInvalidValue, err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(ErrCodeInvalidValue, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// relationRef resolves a relation name.
func (d *decoder) relationRef(v cue.Value) (*ram.Relation, error) {
	name, err := v.String()
	if err != nil {
		return nil, formatCUEError(ErrCodeInvalidValue, err)
	}
	rel, ok := d.relations[name]
	if !ok {
		return nil, d.fail(ErrCodeUnknownRelation, v, "relation %q is not declared", name)
	}
	return rel, nil
}

func (d *decoder) relationField(v cue.Value, name string) (*ram.Relation, error) {
	f, err := d.field(v, name)
	if err != nil {
		return nil, err
	}
	return d.relationRef(f)
}
