package loader

import (
	"cuelang.org/go/cue"

	"github.com/roach88/ramc/internal/ram"
)

func (d *decoder) operation(v cue.Value) (ram.Operation, error) {
	kind, p, err := d.node(v, "operation")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "scan", "choice", "indexscan", "indexchoice":
		return d.search(kind, p)
	case "unpack":
		op := &ram.UnpackRecord{}
		f, err := d.field(p, "expr")
		if err != nil {
			return nil, err
		}
		if op.Expression, err = d.expression(f); err != nil {
			return nil, err
		}
		if op.Arity, err = d.intField(p, "arity", ErrCodeInvalidValue); err != nil {
			return nil, err
		}
		if op.Tuple, err = d.optionalInt(p, "tuple", 0); err != nil {
			return nil, err
		}
		if op.ProfileText, err = d.optionalString(p, "profile"); err != nil {
			return nil, err
		}
		if op.Nested, err = d.nested(p); err != nil {
			return nil, err
		}
		return op, nil
	case "aggregate", "indexaggregate":
		return d.aggregate(kind, p)
	case "break":
		op := &ram.Break{}
		if op.Condition, err = d.conditionField(p, "condition"); err != nil {
			return nil, err
		}
		if op.Nested, err = d.nested(p); err != nil {
			return nil, err
		}
		return op, nil
	case "filter":
		op := &ram.Filter{}
		if op.Condition, err = d.conditionField(p, "condition"); err != nil {
			return nil, err
		}
		if op.ProfileText, err = d.optionalString(p, "profile"); err != nil {
			return nil, err
		}
		if op.Nested, err = d.nested(p); err != nil {
			return nil, err
		}
		return op, nil
	case "project":
		op := &ram.Project{}
		if op.Relation, err = d.relationField(p, "relation"); err != nil {
			return nil, err
		}
		if op.Values, err = d.expressionsField(p, "values"); err != nil {
			return nil, err
		}
		return op, nil
	case "return":
		values, err := d.expressions(p)
		if err != nil {
			return nil, err
		}
		return &ram.SubroutineReturn{Values: values}, nil
	}
	return nil, d.fail(ErrCodeInvalidNode, v, "unknown operation %q", kind)
}

func (d *decoder) nested(p cue.Value) (ram.Operation, error) {
	f, err := d.field(p, "nested")
	if err != nil {
		return nil, err
	}
	return d.operation(f)
}

// search decodes the four relation iterations. Index variants take a
// pattern; choices take a condition.
func (d *decoder) search(kind string, p cue.Value) (ram.Operation, error) {
	rel, err := d.relationField(p, "relation")
	if err != nil {
		return nil, err
	}
	tuple, err := d.optionalInt(p, "tuple", 0)
	if err != nil {
		return nil, err
	}
	profile, err := d.optionalString(p, "profile")
	if err != nil {
		return nil, err
	}
	nested, err := d.nested(p)
	if err != nil {
		return nil, err
	}

	var (
		pattern []ram.Expression
		cond    ram.Condition
	)
	if kind == "indexscan" || kind == "indexchoice" {
		if pattern, err = d.expressionsField(p, "pattern"); err != nil {
			return nil, err
		}
	}
	if kind == "choice" || kind == "indexchoice" {
		if cond, err = d.conditionField(p, "condition"); err != nil {
			return nil, err
		}
	}

	switch kind {
	case "scan":
		return &ram.Scan{Relation: rel, Tuple: tuple, Nested: nested, ProfileText: profile}, nil
	case "choice":
		return &ram.Choice{Relation: rel, Tuple: tuple, Condition: cond, Nested: nested, ProfileText: profile}, nil
	case "indexscan":
		return &ram.IndexScan{Relation: rel, Tuple: tuple, Pattern: pattern, Nested: nested, ProfileText: profile}, nil
	}
	return &ram.IndexChoice{Relation: rel, Tuple: tuple, Pattern: pattern, Condition: cond, Nested: nested, ProfileText: profile}, nil
}

func (d *decoder) aggregate(kind string, p cue.Value) (ram.Operation, error) {
	name, err := d.stringField(p, "function")
	if err != nil {
		return nil, err
	}
	fn, err := ram.ParseAggregateFunction(name)
	if err != nil {
		return nil, d.fail(ErrCodeInvalidValue, p, "%v", err)
	}
	rel, err := d.relationField(p, "relation")
	if err != nil {
		return nil, err
	}
	tuple, err := d.optionalInt(p, "tuple", 0)
	if err != nil {
		return nil, err
	}
	expr, err := d.optionalExpression(p, "expr")
	if err != nil {
		return nil, err
	}
	cond, err := d.optionalCondition(p, "condition")
	if err != nil {
		return nil, err
	}
	profile, err := d.optionalString(p, "profile")
	if err != nil {
		return nil, err
	}
	nested, err := d.nested(p)
	if err != nil {
		return nil, err
	}

	if kind == "aggregate" {
		return &ram.Aggregate{
			Function: fn, Relation: rel, Tuple: tuple, Expression: expr,
			Condition: cond, Nested: nested, ProfileText: profile,
		}, nil
	}
	pattern, err := d.expressionsField(p, "pattern")
	if err != nil {
		return nil, err
	}
	return &ram.IndexAggregate{
		Function: fn, Relation: rel, Tuple: tuple, Pattern: pattern, Expression: expr,
		Condition: cond, Nested: nested, ProfileText: profile,
	}, nil
}

func (d *decoder) statement(v cue.Value) (ram.Statement, error) {
	kind, p, err := d.node(v, "statement")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "sequence", "parallel":
		stmts, err := d.statements(p)
		if err != nil {
			return nil, err
		}
		if kind == "parallel" {
			return &ram.Parallel{Statements: stmts}, nil
		}
		return &ram.Sequence{Statements: stmts}, nil
	case "loop":
		body, err := d.statement(p)
		if err != nil {
			return nil, err
		}
		return &ram.Loop{Body: body}, nil
	case "exit":
		c, err := d.condition(p)
		if err != nil {
			return nil, err
		}
		return &ram.Exit{Condition: c}, nil
	case "logtimer", "logrelationtimer", "debug":
		return d.annotated(kind, p)
	case "stratum":
		s := &ram.Stratum{}
		if s.Index, err = d.optionalInt(p, "index", 0); err != nil {
			return nil, err
		}
		body, err := d.field(p, "body")
		if err != nil {
			return nil, err
		}
		if s.Body, err = d.statement(body); err != nil {
			return nil, err
		}
		return s, nil
	case "create", "clear", "drop":
		rel, err := d.relationRef(p)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "create":
			return &ram.Create{Relation: rel}, nil
		case "clear":
			return &ram.Clear{Relation: rel}, nil
		}
		return &ram.Drop{Relation: rel}, nil
	case "logsize":
		s := &ram.LogSize{}
		if s.Relation, err = d.relationField(p, "relation"); err != nil {
			return nil, err
		}
		if s.Message, err = d.optionalString(p, "message"); err != nil {
			return nil, err
		}
		return s, nil
	case "load", "store":
		rel, err := d.relationField(p, "relation")
		if err != nil {
			return nil, err
		}
		dir, err := d.directives(p)
		if err != nil {
			return nil, err
		}
		if kind == "load" {
			return &ram.Load{Relation: rel, Directives: dir}, nil
		}
		return &ram.Store{Relation: rel, Directives: dir}, nil
	case "fact":
		s := &ram.Fact{}
		if s.Relation, err = d.relationField(p, "relation"); err != nil {
			return nil, err
		}
		if s.Values, err = d.expressionsField(p, "values"); err != nil {
			return nil, err
		}
		return s, nil
	case "query":
		op, err := d.operation(p)
		if err != nil {
			return nil, err
		}
		return &ram.Query{Operation: op}, nil
	case "merge":
		s := &ram.Merge{}
		if s.Source, err = d.relationField(p, "source"); err != nil {
			return nil, err
		}
		if s.Target, err = d.relationField(p, "target"); err != nil {
			return nil, err
		}
		return s, nil
	case "swap":
		s := &ram.Swap{}
		if s.First, err = d.relationField(p, "first"); err != nil {
			return nil, err
		}
		if s.Second, err = d.relationField(p, "second"); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, d.fail(ErrCodeInvalidNode, v, "unknown statement %q", kind)
}

func (d *decoder) statements(v cue.Value) ([]ram.Statement, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(ErrCodeInvalidValue, err)
	}
	var out []ram.Statement
	for iter.Next() {
		s, err := d.statement(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// annotated decodes the statements that wrap another statement with a
// message.
func (d *decoder) annotated(kind string, p cue.Value) (ram.Statement, error) {
	msg, err := d.optionalString(p, "message")
	if err != nil {
		return nil, err
	}
	f, err := d.field(p, "statement")
	if err != nil {
		return nil, err
	}
	inner, err := d.statement(f)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "logtimer":
		return &ram.LogTimer{Message: msg, Statement: inner}, nil
	case "debug":
		return &ram.DebugInfo{Message: msg, Statement: inner}, nil
	}
	rel, err := d.relationField(p, "relation")
	if err != nil {
		return nil, err
	}
	return &ram.LogRelationTimer{Message: msg, Relation: rel, Statement: inner}, nil
}

// directives decodes the optional string map of a load or store.
func (d *decoder) directives(p cue.Value) (ram.IODirectives, error) {
	dir := ram.IODirectives{}
	f := p.LookupPath(cue.ParsePath("directives"))
	if !f.Exists() {
		return dir, nil
	}
	iter, err := f.Fields()
	if err != nil {
		return nil, formatCUEError(ErrCodeInvalidValue, err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(ErrCodeInvalidValue, err)
		}
		dir[iter.Label()] = s
	}
	return dir, nil
}
