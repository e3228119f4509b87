package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/commands"
	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/frames"
	"github.com/josephlewis42/honeybash/core/logger"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/vars"
	"mvdan.cc/sh/v3/syntax"
)

// CommandNotFound is the status of an unknown command.
const CommandNotFound = 127

func (r *Runner) call(c *syntax.CallExpr) (flow.Result, error) {
	r.substStatus = -1
	args, err := r.fields(c.Args...)
	if err != nil {
		return flow.Result{}, err
	}

	if len(args) == 0 {
		var trace []string
		for _, as := range c.Assigns {
			text, err := r.assign(as)
			if err != nil {
				return flow.Result{}, r.assignError(err)
			}
			trace = append(trace, text)
		}
		r.trace(trace)
		status := 0
		if r.substStatus >= 0 {
			status = r.substStatus
		}
		return flow.Result{ExitCode: status}, nil
	}

	prefix := make([]frames.Assignment, 0, len(c.Assigns))
	var trace []string
	for _, as := range c.Assigns {
		value := ""
		if as.Value != nil {
			if value, err = r.literal(as.Value); err != nil {
				return flow.Result{}, err
			}
		}
		prefix = append(prefix, frames.Assignment{Name: as.Name.Value, Value: value})
		trace = append(trace, as.Name.Value+"="+quoteTrace(value))
	}
	for _, arg := range args {
		trace = append(trace, quoteTrace(arg))
	}
	r.trace(trace)

	return r.run(args, prefix, int(c.Pos().Line()))
}

// run looks up and executes a command: functions first, then builtins.
func (r *Runner) run(args []string, prefix []frames.Assignment, line int) (flow.Result, error) {
	name := args[0]
	if fn, ok := r.funcs[name]; ok {
		return r.callFunction(name, fn, args[1:], prefix, line)
	}

	if b, ok := r.builtins[name]; ok {
		r.record(logger.EventRunCommand, map[string]interface{}{"args": logger.Strings(args)})
		if len(prefix) == 0 {
			return r.runBuiltin(name, b, args)
		}
		scope := r.vars.PushScope()
		defer r.vars.PopScope(scope)
		for _, a := range prefix {
			if err := r.bindPrefix(a); err != nil {
				return flow.Result{}, r.assignError(err)
			}
		}
		return r.runBuiltin(name, b, args)
	}

	r.record(logger.EventUnknownCommand, map[string]interface{}{"args": logger.Strings(args)})
	return flow.Result{
		Stderr:   fmt.Sprintf("bash: %s: command not found\n", name),
		ExitCode: CommandNotFound,
	}, nil
}

func (r *Runner) bindPrefix(a frames.Assignment) error {
	if err := r.vars.DeclareLocal(a.Name); err != nil {
		return err
	}
	if err := r.vars.Set(a.Name, a.Value); err != nil {
		return err
	}
	return r.vars.Export(a.Name)
}

func (r *Runner) callFunction(name string, fn *funcDef, args []string, prefix []frames.Assignment, line int) (flow.Result, error) {
	r.record(logger.EventFunctionCall, map[string]interface{}{
		"name":  name,
		"args":  logger.Strings(args),
		"depth": r.frames.Depth() + 1,
	})

	site := frames.Site{
		Name:   name,
		Line:   line,
		Source: fn.file,
		Prefix: prefix,
		Posix:  r.opts.Enabled(options.Posix),
	}

	savedLoops := r.loopDepth
	r.loopDepth = 0
	defer func() { r.loopDepth = savedLoops }()

	return r.frames.Call(args, site, func() (flow.Result, error) {
		return r.withSource(fn.src, func() (flow.Result, error) {
			return r.stmt(fn.body)
		})
	})
}

// runBuiltin runs b with fresh output buffers. In posix mode a failing
// special builtin becomes fatal.
func (r *Runner) runBuiltin(name string, b commands.ShellBuiltin, args []string) (flow.Result, error) {
	prev := r.out
	r.out = &callIO{}
	defer func() { r.out = prev }()

	status, err := b.Main(r, args)
	res := flow.Result{Stdout: r.out.stdout.String(), Stderr: r.out.stderr.String(), ExitCode: status}
	if err != nil {
		if sig, ok := flow.As(err); ok {
			sig.Prepend(res.Stdout, res.Stderr)
			return flow.Result{}, sig
		}
		res.Stderr += fmt.Sprintf("bash: %s: %s\n", name, err)
		if res.ExitCode == 0 {
			res.ExitCode = 1
		}
	}

	if res.ExitCode != 0 && r.opts.Enabled(options.Posix) && commands.SpecialBuiltins[name] && !isFlowBuiltin(name) {
		sig := flow.NewPosixFatal(res.ExitCode, fmt.Sprintf("%s: special builtin failed", name))
		sig.Prepend(res.Stdout, res.Stderr)
		return flow.Result{}, sig
	}
	return res, nil
}

func isFlowBuiltin(name string) bool {
	switch name {
	case "break", "continue", "return", "exit", "eval", ".":
		return true
	}
	return false
}

// assignError reports a failed assignment. It is fatal in posix mode.
func (r *Runner) assignError(err error) error {
	if _, ok := flow.As(err); ok {
		return err
	}
	if r.opts.Enabled(options.Posix) {
		sig := flow.NewPosixFatal(1, err.Error())
		sig.Stderr = fmt.Sprintf("bash: %s\n", err)
		return sig
	}
	return err
}

// assign performs one assignment word and returns its trace text.
func (r *Runner) assign(as *syntax.Assign) (string, error) {
	name := as.Name.Value
	op := "="
	if as.Append {
		op = "+="
	}

	if as.Array != nil {
		elems, err := r.compoundElems(name, as.Array, false)
		if err != nil {
			return "", err
		}
		if err := r.vars.AssignCompound(name, elems, as.Append); err != nil {
			return "", err
		}
		r.autoExport(name)
		return name + op + "(" + compoundText(elems) + ")", nil
	}

	value := ""
	if as.Value != nil {
		var err error
		if value, err = r.literal(as.Value); err != nil {
			return "", err
		}
	}

	if as.Index != nil {
		key, err := r.subscript(name, as.Index, false)
		if err != nil {
			return "", err
		}
		if as.Append {
			old, _ := r.vars.LookupKey(name, key)
			value = old + value
		}
		if err := r.vars.SetKey(name, key, value); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]%s%s", name, key, op, quoteTrace(value)), nil
	}

	var err error
	if as.Append {
		err = r.vars.Append(name, value)
	} else {
		err = r.vars.Set(name, value)
	}
	if err != nil {
		return "", err
	}
	r.autoExport(name)
	return name + op + quoteTrace(value), nil
}

func (r *Runner) autoExport(name string) {
	if r.opts.Enabled(options.Allexport) {
		_ = r.vars.Export(name)
	}
}

// subscript evaluates an array index. Associative arrays take the key as
// written after expansion; other variables evaluate it arithmetically.
func (r *Runner) subscript(name string, index syntax.ArithmExpr, assoc bool) (string, error) {
	if info, ok := r.vars.Describe(name); ok && info.Kind == vars.Assoc {
		assoc = true
	}
	if assoc {
		if w, ok := index.(*syntax.Word); ok {
			return r.literal(w)
		}
		return r.text(index), nil
	}
	n, err := r.arith(index)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}

// compoundElems expands the elements of name=(...). Unkeyed elements are
// split and globbed like arguments; keyed ones are single words.
func (r *Runner) compoundElems(name string, arr *syntax.ArrayExpr, assoc bool) ([]vars.CompoundElem, error) {
	var out []vars.CompoundElem
	for _, el := range arr.Elems {
		if el.Index == nil {
			if el.Value == nil {
				continue
			}
			fields, err := r.fields(el.Value)
			if err != nil {
				return nil, err
			}
			for _, f := range fields {
				out = append(out, vars.CompoundElem{Value: f})
			}
			continue
		}

		key, err := r.subscript(name, el.Index, assoc)
		if err != nil {
			return nil, err
		}
		value := ""
		if el.Value != nil {
			if value, err = r.literal(el.Value); err != nil {
				return nil, err
			}
		}
		out = append(out, vars.CompoundElem{Key: key, HasKey: true, Value: value})
	}
	return out, nil
}

// compoundText writes elements back in a form vars.ParseCompound reads.
func compoundText(elems []vars.CompoundElem) string {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		if e.HasKey {
			parts = append(parts, "["+vars.DeclareQuote(e.Key)+"]="+vars.DeclareQuote(e.Value))
			continue
		}
		parts = append(parts, vars.DeclareQuote(e.Value))
	}
	return strings.Join(parts, " ")
}
