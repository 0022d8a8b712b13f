package lvm

import (
	"fmt"

	"github.com/roach88/ramc/internal/canon"
	"github.com/roach88/ramc/internal/index"
	"github.com/roach88/ramc/internal/ram"
	"github.com/roach88/ramc/internal/relation"
	"github.com/roach88/ramc/internal/symbol"
)

// DomainProgram is the hash domain of program identities. The version
// suffix changes whenever the encoding does.
const DomainProgram = "ramc/program/v1"

// encodingVersion is stored in every encoded program.
const encodingVersion = 1

// Canonical returns the canonical value of p.
func (p *Program) Canonical() (canon.Object, error) {
	if p.Relations == nil || p.Symbols == nil {
		return nil, fmt.Errorf("program has no relation registry or string table")
	}
	rels := canon.Array{}
	for _, d := range p.Relations.Descriptors() {
		orders := make(canon.Array, len(d.Orders))
		for i, o := range d.Orders {
			orders[i] = canon.Ints(o)
		}
		rels = append(rels, canon.Object{
			"name":   canon.Verbatim(d.Name),
			"arity":  canon.Int(d.Arity),
			"types":  canon.Strings(d.Types),
			"kind":   canon.String(d.Kind.String()),
			"orders": orders,
		})
	}
	io := make(canon.Array, len(p.IODirectives))
	for i, dir := range p.IODirectives {
		io[i] = ioDirectivesObject(dir)
	}
	subs := canon.Object{}
	for name, code := range p.Subroutines {
		subs[name] = canon.Ints(code)
	}
	return canon.Object{
		"version":     canon.Int(encodingVersion),
		"relations":   rels,
		"symbols":     canon.Verbatims(p.Symbols.Strings()),
		"io":          io,
		"main":        canon.Ints(p.Main),
		"subroutines": subs,
	}, nil
}

// Directive values such as file paths keep their exact bytes.
func ioDirectivesObject(dir ram.IODirectives) canon.Object {
	obj := make(canon.Object, len(dir))
	for k, v := range dir {
		obj[k] = canon.Verbatim(v)
	}
	return obj
}

// MarshalProgram returns the canonical encoding of p.
func MarshalProgram(p *Program) ([]byte, error) {
	obj, err := p.Canonical()
	if err != nil {
		return nil, err
	}
	return canon.Marshal(obj)
}

// ProgramID returns the content address of p.
func ProgramID(p *Program) (string, error) {
	obj, err := p.Canonical()
	if err != nil {
		return "", err
	}
	return canon.ID(DomainProgram, obj)
}

// UnmarshalProgram decodes a program produced by MarshalProgram.
func UnmarshalProgram(data []byte) (*Program, error) {
	v, err := canon.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	obj, ok := v.(canon.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal program: top level is %T, want object", v)
	}
	d := decoder{}
	version := d.intField(obj, "version")
	if d.err == nil && version != encodingVersion {
		return nil, fmt.Errorf("unmarshal program: unsupported version %d", version)
	}

	var descs []*relation.Descriptor
	for i, rv := range d.arrayField(obj, "relations") {
		ro := d.objectValue(rv, "relations")
		kind, err := relation.ParseKind(d.stringField(ro, "kind"))
		if err != nil && d.err == nil {
			d.err = err
		}
		var orders []index.Order
		for _, ov := range d.arrayField(ro, "orders") {
			orders = append(orders, index.Order(d.intsValue(ov, "orders")))
		}
		types := d.stringsField(ro, "types")
		if len(types) == 0 {
			types = nil
		}
		descs = append(descs, &relation.Descriptor{
			Handle: relation.Handle(i),
			Name:   d.stringField(ro, "name"),
			Arity:  d.intField(ro, "arity"),
			Types:  types,
			Kind:   kind,
			Orders: orders,
		})
	}
	symbols := d.stringsField(obj, "symbols")

	var dirs []ram.IODirectives
	for _, iv := range d.arrayField(obj, "io") {
		io := ram.IODirectives{}
		for k, sv := range d.objectValue(iv, "io") {
			io[k] = d.asString(sv, k)
		}
		dirs = append(dirs, io)
	}

	main := d.codeValue(obj["main"], "main")
	subs := map[string]Code{}
	for name, sv := range d.objectValue(obj["subroutines"], "subroutines") {
		subs[name] = d.codeValue(sv, name)
	}
	if d.err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", d.err)
	}

	reg, err := relation.Restore(descs)
	if err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	tab, err := symbol.FromStrings(symbols)
	if err != nil {
		return nil, fmt.Errorf("unmarshal program: %w", err)
	}
	return &Program{
		Main:         main,
		Subroutines:  subs,
		Relations:    reg,
		IODirectives: dirs,
		Symbols:      tab,
	}, nil
}

// decoder extracts typed fields from canonical values, keeping the first
// error.
type decoder struct {
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func (d *decoder) objectValue(v canon.Value, what string) canon.Object {
	obj, ok := v.(canon.Object)
	if !ok {
		d.fail("%s: got %T, want object", what, v)
	}
	return obj
}

func (d *decoder) arrayField(obj canon.Object, key string) canon.Array {
	arr, ok := obj[key].(canon.Array)
	if !ok {
		d.fail("%s: got %T, want array", key, obj[key])
	}
	return arr
}

func (d *decoder) intField(obj canon.Object, key string) int {
	n, ok := obj[key].(canon.Int)
	if !ok {
		d.fail("%s: got %T, want integer", key, obj[key])
	}
	return int(n)
}

func (d *decoder) stringField(obj canon.Object, key string) string {
	return d.asString(obj[key], key)
}

func (d *decoder) asString(v canon.Value, what string) string {
	s, ok := v.(canon.String)
	if !ok {
		d.fail("%s: got %T, want string", what, v)
	}
	return string(s)
}

func (d *decoder) stringsField(obj canon.Object, key string) []string {
	arr := d.arrayField(obj, key)
	out := make([]string, len(arr))
	for i, v := range arr {
		out[i] = d.asString(v, key)
	}
	return out
}

func (d *decoder) intsValue(v canon.Value, what string) []int {
	arr, ok := v.(canon.Array)
	if !ok {
		d.fail("%s: got %T, want array", what, v)
		return nil
	}
	out := make([]int, len(arr))
	for i, e := range arr {
		n, ok := e.(canon.Int)
		if !ok {
			d.fail("%s[%d]: got %T, want integer", what, i, e)
		}
		out[i] = int(n)
	}
	return out
}

func (d *decoder) codeValue(v canon.Value, what string) Code {
	ns := d.intsValue(v, what)
	code := make(Code, len(ns))
	for i, n := range ns {
		if n < int(MinDomain) || n > int(MaxDomain) {
			d.fail("%s[%d]: %d outside the word range", what, i, n)
		}
		code[i] = Word(n)
	}
	return code
}
