package interp

import (
	"strings"

	"github.com/josephlewis42/honeybash/core/flow"
	"mvdan.cc/sh/v3/syntax"
)

// declClause runs declare, local, export, readonly and typeset. Their
// arguments are expanded like assignments and passed to the builtin as
// name=value words; array values are written in a form the builtin parses
// back.
func (r *Runner) declClause(c *syntax.DeclClause) (flow.Result, error) {
	r.substStatus = -1
	args := []string{c.Variant.Value}
	if c.Variant.Value == "nameref" {
		args = []string{"declare", "-n"}
	}
	assoc := false

	for _, as := range c.Args {
		if as.Name == nil {
			fields, err := r.fields(as.Value)
			if err != nil {
				return flow.Result{}, err
			}
			for _, f := range fields {
				if strings.HasPrefix(f, "-") && strings.Contains(f, "A") {
					assoc = true
				}
			}
			args = append(args, fields...)
			continue
		}

		name := as.Name.Value
		if as.Index != nil {
			key, err := r.subscript(name, as.Index, assoc)
			if err != nil {
				return flow.Result{}, err
			}
			name += "[" + key + "]"
		}
		if as.Naked {
			args = append(args, name)
			continue
		}

		op := "="
		if as.Append {
			op = "+="
		}
		if as.Array != nil {
			elems, err := r.compoundElems(as.Name.Value, as.Array, assoc)
			if err != nil {
				return flow.Result{}, err
			}
			args = append(args, name+op+"("+compoundText(elems)+")")
			continue
		}
		value, err := r.literal(as.Value)
		if err != nil {
			return flow.Result{}, err
		}
		args = append(args, name+op+value)
	}

	trace := make([]string, len(args))
	for i, a := range args {
		trace[i] = quoteTrace(a)
	}
	r.trace(trace)
	return r.run(args, nil, int(c.Pos().Line()))
}
