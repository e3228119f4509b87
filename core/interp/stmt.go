package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/pattern"
	"mvdan.cc/sh/v3/syntax"
)

// stmts runs a statement list, stopping at the first signal.
func (r *Runner) stmts(list []*syntax.Stmt) (flow.Result, error) {
	var res flow.Result
	for _, st := range list {
		if err := r.ctx.Err(); err != nil {
			return flow.Result{}, flow.Prepend(flow.NewExit(130), res.Stdout, res.Stderr)
		}
		out, err := r.stmt(st)
		if err != nil {
			return flow.Result{}, flow.Prepend(err, res.Stdout, res.Stderr)
		}
		res.Append(out)
	}
	return res, nil
}

// then appends the outcome of a step to the output already produced.
func then(prev flow.Result, res flow.Result, err error) (flow.Result, error) {
	if err != nil {
		return flow.Result{}, flow.Prepend(err, prev.Stdout, prev.Stderr)
	}
	prev.Append(res)
	return prev, nil
}

func (r *Runner) stmt(st *syntax.Stmt) (flow.Result, error) {
	if r.opts.Enabled(options.Noexec) {
		return flow.Result{}, nil
	}
	_ = r.vars.Set("LINENO", strconv.Itoa(int(st.Pos().Line())))

	rd, err := r.redirects(st.Redirs)
	if err != nil {
		return r.stmtError(err)
	}
	if rd.stdin != nil {
		prev := r.stdin
		r.stdin = rd.stdin
		defer func() { r.stdin = prev }()
	}

	res, err := r.cmd(st.Cmd)
	if err != nil {
		sig, ok := flow.As(err)
		if !ok {
			res.Stderr += fmt.Sprintf("bash: %s\n", err)
			res.ExitCode = 1
		} else {
			sig.Stdout, sig.Stderr = rd.route(sig.Stdout, sig.Stderr)
			sig.Prepend("", r.takePending())
			if ferr := r.flush(rd); ferr != nil {
				sig.Stderr += fmt.Sprintf("bash: %s\n", ferr)
			}
			return flow.Result{}, sig
		}
	}

	res.Stdout, res.Stderr = rd.route(res.Stdout, res.Stderr)
	res.Stderr = r.takePending() + res.Stderr
	if err := r.flush(rd); err != nil {
		res.Stderr += fmt.Sprintf("bash: %s\n", err)
		res.ExitCode = 1
	}

	if st.Negated {
		if res.ExitCode == 0 {
			res.ExitCode = 1
		} else {
			res.ExitCode = 0
		}
	}
	r.vars.Status = res.ExitCode

	if res.ExitCode != 0 && !st.Negated && r.errexitApplies(st.Cmd) {
		sig := flow.NewErrexit(res.ExitCode)
		sig.Prepend(res.Stdout, res.Stderr)
		return flow.Result{}, sig
	}
	return res, nil
}

// stmtError reports a failure that happened before the command ran.
func (r *Runner) stmtError(err error) (flow.Result, error) {
	if _, ok := flow.As(err); ok {
		return flow.Result{}, flow.Prepend(err, "", r.takePending())
	}
	r.vars.Status = 1
	res := flow.Result{Stderr: r.takePending() + fmt.Sprintf("bash: %s\n", err), ExitCode: 1}
	if r.errexitApplies(nil) {
		sig := flow.NewErrexit(1)
		sig.Prepend(res.Stdout, res.Stderr)
		return flow.Result{}, sig
	}
	return res, nil
}

// errexitApplies reports whether a failing cmd ends the shell under set -e.
// Compound commands are exempt since the command that failed inside them
// was already checked.
func (r *Runner) errexitApplies(cmd syntax.Command) bool {
	if !r.opts.Enabled(options.Errexit) || r.noErrexit > 0 {
		return false
	}
	switch c := cmd.(type) {
	case nil, *syntax.CallExpr, *syntax.ArithmCmd, *syntax.TestClause,
		*syntax.DeclClause, *syntax.LetClause, *syntax.Subshell:
		return true
	case *syntax.BinaryCmd:
		return c.Op == syntax.Pipe || c.Op == syntax.PipeAll
	}
	return false
}

// condition runs the test part of if, while and until, where errexit is
// ignored.
func (r *Runner) condition(list []*syntax.Stmt) (flow.Result, error) {
	r.noErrexit++
	defer func() { r.noErrexit-- }()
	return r.stmts(list)
}

func (r *Runner) cmd(cmd syntax.Command) (flow.Result, error) {
	switch c := cmd.(type) {
	case nil:
		return flow.Result{}, nil
	case *syntax.CallExpr:
		return r.call(c)
	case *syntax.Block:
		return r.stmts(c.Stmts)
	case *syntax.Subshell:
		return r.runSubshell(func(sub *Runner) (flow.Result, error) {
			return sub.stmts(c.Stmts)
		}), nil
	case *syntax.IfClause:
		return r.ifClause(c)
	case *syntax.WhileClause:
		return r.whileClause(c)
	case *syntax.ForClause:
		return r.forClause(c)
	case *syntax.CaseClause:
		return r.caseClause(c)
	case *syntax.BinaryCmd:
		return r.binaryCmd(c)
	case *syntax.FuncDecl:
		return r.funcDecl(c)
	case *syntax.ArithmCmd:
		return r.arithmCmd(c)
	case *syntax.TestClause:
		return r.testClause(c)
	case *syntax.DeclClause:
		return r.declClause(c)
	case *syntax.LetClause:
		return r.letClause(c)
	case *syntax.TimeClause:
		if c.Stmt == nil {
			return flow.Result{}, nil
		}
		res, err := r.stmt(c.Stmt)
		if err != nil {
			return res, err
		}
		res.Stderr += "\nreal\t0m0.000s\nuser\t0m0.000s\nsys\t0m0.000s\n"
		return res, nil
	}
	return flow.Result{}, fmt.Errorf("%s: unsupported command", strings.Fields(r.text(cmd) + " ?")[0])
}

func (r *Runner) ifClause(c *syntax.IfClause) (flow.Result, error) {
	var res flow.Result
	for ; c != nil; c = c.Else {
		if len(c.Cond) == 0 {
			body, err := r.stmts(c.Then)
			return then(res, body, err)
		}
		cond, err := r.condition(c.Cond)
		if err != nil {
			return then(res, cond, err)
		}
		res.Append(cond)
		if cond.ExitCode == 0 {
			body, err := r.stmts(c.Then)
			return then(res, body, err)
		}
	}
	res.ExitCode = 0
	return res, nil
}

// loop runs iterations until next reports false. Break and continue are
// consumed here when they target this loop.
func (r *Runner) loop(next func() (bool, flow.Result, error), body []*syntax.Stmt) (flow.Result, error) {
	r.loopDepth++
	defer func() { r.loopDepth-- }()

	var res flow.Result
	status := 0
	for {
		if err := r.ctx.Err(); err != nil {
			return flow.Result{}, flow.Prepend(flow.NewExit(130), res.Stdout, res.Stderr)
		}
		ok, head, err := next()
		res.Stdout += head.Stdout
		res.Stderr += head.Stderr
		if err == nil && !ok {
			break
		}
		if err == nil {
			var out flow.Result
			out, err = r.stmts(body)
			res.Stdout += out.Stdout
			res.Stderr += out.Stderr
			status = out.ExitCode
		}

		action, out, err := flow.HandleLoop(err)
		res.Stdout += out.Stdout
		res.Stderr += out.Stderr
		if err != nil {
			return flow.Result{}, flow.Prepend(err, res.Stdout, res.Stderr)
		}
		if action != flow.LoopNext {
			status = 0
		}
		if action == flow.LoopBreak {
			break
		}
	}
	res.ExitCode = status
	return res, nil
}

func (r *Runner) whileClause(c *syntax.WhileClause) (flow.Result, error) {
	return r.loop(func() (bool, flow.Result, error) {
		cond, err := r.condition(c.Cond)
		if err != nil {
			return false, cond, err
		}
		return (cond.ExitCode == 0) != c.Until, flow.Result{Stdout: cond.Stdout, Stderr: cond.Stderr}, nil
	}, c.Do)
}

func (r *Runner) forClause(c *syntax.ForClause) (flow.Result, error) {
	switch l := c.Loop.(type) {
	case *syntax.WordIter:
		var items []string
		if l.InPos.IsValid() {
			var err error
			if items, err = r.fields(l.Items...); err != nil {
				return flow.Result{}, err
			}
		} else {
			items = r.vars.Positional()
		}
		i := 0
		return r.loop(func() (bool, flow.Result, error) {
			if i >= len(items) {
				return false, flow.Result{}, nil
			}
			item := items[i]
			i++
			if err := r.vars.Set(l.Name.Value, item); err != nil {
				return false, flow.Result{}, err
			}
			return true, flow.Result{}, nil
		}, c.Do)

	case *syntax.CStyleLoop:
		if l.Init != nil {
			if _, err := r.arith(l.Init); err != nil {
				return flow.Result{}, err
			}
		}
		first := true
		return r.loop(func() (bool, flow.Result, error) {
			if !first && l.Post != nil {
				if _, err := r.arith(l.Post); err != nil {
					return false, flow.Result{}, err
				}
			}
			first = false
			if l.Cond == nil {
				return true, flow.Result{}, nil
			}
			n, err := r.arith(l.Cond)
			return n != 0, flow.Result{}, err
		}, c.Do)
	}
	return flow.Result{}, fmt.Errorf("unsupported loop")
}

func (r *Runner) caseClause(c *syntax.CaseClause) (flow.Result, error) {
	word, err := r.literal(c.Word)
	if err != nil {
		return flow.Result{}, err
	}
	opts := pattern.Options{
		Extglob:    r.opts.ShoptEnabled(options.Extglob),
		IgnoreCase: r.opts.ShoptEnabled(options.Nocasematch),
		Warnf:      r.warnf,
	}

	var res flow.Result
	for i := 0; i < len(c.Items); i++ {
		matched, err := r.caseMatch(c.Items[i], word, opts)
		if err != nil {
			return then(res, flow.Result{}, err)
		}
		if !matched {
			continue
		}
		for {
			body, err := r.stmts(c.Items[i].Stmts)
			if res, err = then(res, body, err); err != nil {
				return res, err
			}
			if c.Items[i].Op != syntax.Fallthrough || i+1 >= len(c.Items) {
				break
			}
			i++
		}
		if c.Items[i].Op != syntax.Resume {
			break
		}
	}
	return res, nil
}

func (r *Runner) caseMatch(item *syntax.CaseItem, word string, opts pattern.Options) (bool, error) {
	for _, p := range item.Patterns {
		pat, err := r.patternString(p)
		if err != nil {
			return false, err
		}
		if pattern.Match(pat, word, opts) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Runner) binaryCmd(c *syntax.BinaryCmd) (flow.Result, error) {
	switch c.Op {
	case syntax.AndStmt, syntax.OrStmt:
		r.noErrexit++
		x, err := r.stmt(c.X)
		r.noErrexit--
		if err != nil {
			return flow.Result{}, err
		}
		if (x.ExitCode == 0) == (c.Op == syntax.AndStmt) {
			y, err := r.stmt(c.Y)
			return then(x, y, err)
		}
		return x, nil
	}
	return r.pipeline(c)
}

type pipeElem struct {
	stmt *syntax.Stmt
	// all sends stderr down the pipe too, as with |&.
	all bool
}

// flattenPipe lists the commands of a pipeline from left to right.
func flattenPipe(st *syntax.Stmt, all bool, out []pipeElem) []pipeElem {
	if c, ok := st.Cmd.(*syntax.BinaryCmd); ok && (c.Op == syntax.Pipe || c.Op == syntax.PipeAll) &&
		!st.Negated && !st.Background && len(st.Redirs) == 0 {
		out = flattenPipe(c.X, c.Op == syntax.PipeAll, out)
		return flattenPipe(c.Y, all, out)
	}
	return append(out, pipeElem{stmt: st, all: all})
}

// pipeline runs each command in turn, feeding its output to the next. Every
// command runs in a subshell except the last one under lastpipe.
func (r *Runner) pipeline(c *syntax.BinaryCmd) (flow.Result, error) {
	elems := flattenPipe(c.X, c.Op == syntax.PipeAll, nil)
	elems = flattenPipe(c.Y, false, elems)

	var res flow.Result
	stdin := r.stdin
	statuses := make([]string, 0, len(elems))
	failed := 0
	for i, el := range elems {
		last := i == len(elems)-1
		var out flow.Result
		if last && r.opts.ShoptEnabled("lastpipe") {
			prev := r.stdin
			r.stdin = stdin
			var err error
			out, err = r.stmt(el.stmt)
			r.stdin = prev
			if err != nil {
				return flow.Result{}, flow.Prepend(err, res.Stdout, res.Stderr)
			}
		} else {
			in := stdin
			out = r.runSubshell(func(sub *Runner) (flow.Result, error) {
				sub.stdin = in
				return sub.stmt(el.stmt)
			})
		}

		statuses = append(statuses, strconv.Itoa(out.ExitCode))
		if out.ExitCode != 0 {
			failed = out.ExitCode
		}
		if last {
			res.Stdout += out.Stdout
			res.Stderr += out.Stderr
			res.ExitCode = out.ExitCode
			break
		}
		piped := out.Stdout
		if el.all {
			piped += out.Stderr
		} else {
			res.Stderr += out.Stderr
		}
		stdin = strings.NewReader(piped)
	}

	if r.opts.Enabled(options.Pipefail) {
		res.ExitCode = failed
	}
	_ = r.vars.SetArray("PIPESTATUS", statuses)
	return res, nil
}

func (r *Runner) funcDecl(c *syntax.FuncDecl) (flow.Result, error) {
	r.funcs[c.Name.Value] = &funcDef{
		body: c.Body,
		file: r.file,
		src:  r.src,
		text: r.text(c),
	}
	return flow.Result{}, nil
}
