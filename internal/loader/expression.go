package loader

import (
	"cuelang.org/go/cue"

	"github.com/roach88/ramc/internal/ram"
)

func (d *decoder) expression(v cue.Value) (ram.Expression, error) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := d.intValue(v, ErrCodeInvalidValue)
		if err != nil {
			return nil, err
		}
		return &ram.Number{Value: int32(n)}, nil
	case cue.StringKind:
		s, _ := v.String()
		if s == "_" {
			return &ram.UndefValue{}, nil
		}
		return nil, d.fail(ErrCodeInvalidNode, v, "unexpected string %q in expression position", s)
	}

	kind, p, err := d.node(v, "expression")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "tuple":
		pair, err := d.ints(p)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, d.fail(ErrCodeInvalidValue, p, "tuple takes [tuple, element], got %d values", len(pair))
		}
		return &ram.TupleElement{Tuple: pair[0], Element: pair[1]}, nil
	case "autoinc":
		return &ram.AutoIncrement{}, nil
	case "intrinsic":
		name, err := d.stringField(p, "op")
		if err != nil {
			return nil, err
		}
		op, err := ram.ParseFunctorOp(name)
		if err != nil {
			return nil, d.fail(ErrCodeInvalidValue, p, "%v", err)
		}
		args, err := d.expressionsField(p, "args")
		if err != nil {
			return nil, err
		}
		return &ram.IntrinsicOperator{Op: op, Args: args}, nil
	case "udf":
		name, err := d.stringField(p, "name")
		if err != nil {
			return nil, err
		}
		typ, err := d.optionalString(p, "type")
		if err != nil {
			return nil, err
		}
		args, err := d.expressionsField(p, "args")
		if err != nil {
			return nil, err
		}
		return &ram.UserDefinedOperator{Name: name, Type: typ, Args: args}, nil
	case "pack":
		args, err := d.expressions(p)
		if err != nil {
			return nil, err
		}
		return &ram.PackRecord{Args: args}, nil
	case "arg":
		n, err := d.intValue(p, ErrCodeInvalidValue)
		if err != nil {
			return nil, err
		}
		return &ram.SubroutineArgument{Index: n}, nil
	}
	return nil, d.fail(ErrCodeInvalidNode, v, "unknown expression %q", kind)
}

func (d *decoder) expressions(v cue.Value) ([]ram.Expression, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(ErrCodeInvalidValue, err)
	}
	var out []ram.Expression
	for iter.Next() {
		e, err := d.expression(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) expressionsField(v cue.Value, name string) ([]ram.Expression, error) {
	f, err := d.field(v, name)
	if err != nil {
		return nil, err
	}
	return d.expressions(f)
}

func (d *decoder) optionalExpression(v cue.Value, name string) (ram.Expression, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil, nil
	}
	return d.expression(f)
}

func (d *decoder) ints(v cue.Value) ([]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(ErrCodeInvalidValue, err)
	}
	var out []int
	for iter.Next() {
		n, err := d.intValue(iter.Value(), ErrCodeInvalidValue)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (d *decoder) condition(v cue.Value) (ram.Condition, error) {
	if v.Kind() == cue.StringKind {
		s, _ := v.String()
		switch s {
		case "true":
			return &ram.True{}, nil
		case "false":
			return &ram.False{}, nil
		}
		return nil, d.fail(ErrCodeInvalidNode, v, "unknown condition %q", s)
	}

	kind, p, err := d.node(v, "condition")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "and":
		iter, err := p.List()
		if err != nil {
			return nil, formatCUEError(ErrCodeInvalidValue, err)
		}
		var conds []ram.Condition
		for iter.Next() {
			c, err := d.condition(iter.Value())
			if err != nil {
				return nil, err
			}
			conds = append(conds, c)
		}
		if len(conds) < 2 {
			return nil, d.fail(ErrCodeInvalidValue, p, "and takes at least two conditions, got %d", len(conds))
		}
		out := conds[0]
		for _, c := range conds[1:] {
			out = &ram.Conjunction{LHS: out, RHS: c}
		}
		return out, nil
	case "not":
		c, err := d.condition(p)
		if err != nil {
			return nil, err
		}
		return &ram.Negation{Operand: c}, nil
	case "empty":
		rel, err := d.relationRef(p)
		if err != nil {
			return nil, err
		}
		return &ram.EmptinessCheck{Relation: rel}, nil
	case "exists", "provexists":
		rel, err := d.relationField(p, "relation")
		if err != nil {
			return nil, err
		}
		values, err := d.expressionsField(p, "values")
		if err != nil {
			return nil, err
		}
		if kind == "provexists" {
			return &ram.ProvenanceExistenceCheck{Relation: rel, Values: values}, nil
		}
		return &ram.ExistenceCheck{Relation: rel, Values: values}, nil
	case "constraint":
		name, err := d.stringField(p, "op")
		if err != nil {
			return nil, err
		}
		op, err := ram.ParseConstraintOp(name)
		if err != nil {
			return nil, d.fail(ErrCodeInvalidValue, p, "%v", err)
		}
		lhs, err := d.field(p, "lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := d.field(p, "rhs")
		if err != nil {
			return nil, err
		}
		c := &ram.Constraint{Op: op}
		if c.LHS, err = d.expression(lhs); err != nil {
			return nil, err
		}
		if c.RHS, err = d.expression(rhs); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, d.fail(ErrCodeInvalidNode, v, "unknown condition %q", kind)
}

// optionalCondition returns True when the field is absent.
func (d *decoder) optionalCondition(v cue.Value, name string) (ram.Condition, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return &ram.True{}, nil
	}
	return d.condition(f)
}

func (d *decoder) conditionField(v cue.Value, name string) (ram.Condition, error) {
	f, err := d.field(v, name)
	if err != nil {
		return nil, err
	}
	return d.condition(f)
}
