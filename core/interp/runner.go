// Package interp executes bash programs parsed by mvdan.cc/sh. It walks the
// syntax tree, expanding words through core/expand, core/ifs and
// core/pattern, and reports control flow with core/flow signals.
package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/josephlewis42/honeybash/commands"
	"github.com/josephlewis42/honeybash/core/config"
	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/frames"
	"github.com/josephlewis42/honeybash/core/logger"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/vars"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/syntax"
)

type funcDef struct {
	body *syntax.Stmt
	// file and src are the program the function was defined in.
	file string
	src  string
	// text is the definition as written.
	text string
}

// callIO collects the output of the running builtin.
type callIO struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// Runner holds the state of one shell.
type Runner struct {
	vars   *vars.Store
	opts   *options.Options
	frames *frames.Manager

	fs       afero.Fs
	dir      string
	stdin    io.Reader
	funcs    map[string]*funcDef
	builtins map[string]commands.ShellBuiltin
	log      *logger.SessionLogger
	parser   *syntax.Parser
	history  *[]string

	ctx context.Context
	// src and file name the program currently executing.
	src  string
	file string

	loopDepth  int
	subshell   int
	sourcing   int
	noErrexit  int
	arithDepth int

	// pending holds diagnostics produced while expanding the current
	// statement, such as xtrace lines and warnings.
	pending strings.Builder
	out     *callIO

	// substStatus is the status of the last command substitution in the
	// current simple command, or -1.
	substStatus int

	exited   bool
	exitKind flow.Kind
}

var _ commands.Shell = (*Runner)(nil)

// RunnerOption configures a Runner.
type RunnerOption func(r *Runner)

// WithFs sets the filesystem used for globbing, file tests, redirections and
// source.
func WithFs(fs afero.Fs) RunnerOption {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithDir sets the working directory.
func WithDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithStdin sets the input read by builtins like read.
func WithStdin(stdin io.Reader) RunnerOption {
	return func(r *Runner) {
		r.stdin = stdin
	}
}

// WithLogger records trace events to the given session.
func WithLogger(l *logger.SessionLogger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithBuiltins replaces the builtin table.
func WithBuiltins(builtins map[string]commands.ShellBuiltin) RunnerOption {
	return func(r *Runner) {
		r.builtins = builtins
	}
}

// New creates a shell from a configuration.
func New(cfg *config.Configuration, opts ...RunnerOption) (*Runner, error) {
	store, err := cfg.NewStore()
	if err != nil {
		return nil, fmt.Errorf("setting up variables: %w", err)
	}
	shellOpts, err := cfg.NewOptions()
	if err != nil {
		return nil, fmt.Errorf("setting up options: %w", err)
	}

	r := &Runner{
		vars:        store,
		opts:        shellOpts,
		frames:      frames.New(store, cfg.MaxCallDepth),
		fs:          afero.NewMemMapFs(),
		dir:         "/",
		stdin:       strings.NewReader(""),
		funcs:       make(map[string]*funcDef),
		builtins:    commands.AllBuiltins,
		log:         logger.NewNopLogger().Sessionless(),
		parser:      syntax.NewParser(syntax.Variant(syntax.LangBash)),
		history:     new([]string),
		ctx:         context.Background(),
		substStatus: -1,
	}
	r.frames.MainSource = cfg.ScriptName
	for _, opt := range opts {
		opt(r)
	}
	r.install()
	if _, ok := r.vars.Lookup(commands.EnvPWD); !ok {
		_ = r.vars.Set(commands.EnvPWD, r.dir)
	}
	return r, nil
}

// install hooks the runner into its variable store.
func (r *Runner) install() {
	r.opts.SetPublisher(r.vars)
	r.vars.Arithmetic = r.arithText
	r.vars.Warnf = r.warnf
}

// Run parses and executes src. The returned error is only set for parse
// errors; every signal is mapped to an exit status in the result.
func (r *Runner) Run(ctx context.Context, src, name string) (flow.Result, error) {
	file, err := r.parser.Parse(strings.NewReader(src), name)
	if err != nil {
		r.vars.Status = 2
		return flow.Result{Stderr: fmt.Sprintf("bash: %s\n", err), ExitCode: 2}, err
	}

	r.ctx = ctx
	prevSrc, prevFile := r.src, r.file
	r.src, r.file = src, name
	defer func() { r.src, r.file = prevSrc, prevFile }()

	var res flow.Result
	for _, st := range file.Stmts {
		if ctx.Err() != nil {
			return r.finish(res, flow.NewExit(130)), nil
		}
		if r.opts.Enabled(options.Verbose) {
			res.Stderr += r.text(st) + "\n"
		}
		out, err := r.stmt(st)
		if err != nil {
			return r.finish(res, err), nil
		}
		res.Append(out)
	}
	return res, nil
}

// finish turns the signal that ended a run into its result.
func (r *Runner) finish(prev flow.Result, err error) flow.Result {
	res := flow.Result{Stdout: prev.Stdout, Stderr: prev.Stderr}
	sig, ok := flow.As(err)
	if !ok {
		res.Stderr += fmt.Sprintf("bash: %s\n", err)
		res.ExitCode = 1
		r.vars.Status = 1
		return res
	}

	res.Stdout += sig.Stdout
	res.Stderr += sig.Stderr
	res.ExitCode = flow.ExitCode(err)
	r.vars.Status = res.ExitCode
	if !flow.IsStray(err, r.loopDepth, r.CanReturn()) {
		r.exited = true
		r.exitKind = sig.Kind
	}
	r.record(logger.EventSignal, map[string]interface{}{
		"kind":    sig.Kind.String(),
		"code":    res.ExitCode,
		"message": sig.Error(),
	})
	return res
}

// Exited reports whether a terminating signal has ended the shell.
func (r *Runner) Exited() bool {
	return r.exited
}

// ExitKind reports the signal that ended the shell.
func (r *Runner) ExitKind() (flow.Kind, bool) {
	return r.exitKind, r.exited
}

// Incomplete reports whether src stops in the middle of a statement, such
// as an open quote or a loop missing its done.
func Incomplete(src string) bool {
	_, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(src), "")
	return err != nil && syntax.IsIncomplete(err)
}

// Reset clears the exited state so an interactive shell can keep reading
// after an error.
func (r *Runner) Reset() {
	r.exited = false
}

// AddHistory appends a line read by an interactive shell.
func (r *Runner) AddHistory(line string) {
	*r.history = append(*r.history, line)
}

// fork copies the runner for a subshell.
func (r *Runner) fork() *Runner {
	store := r.vars.Clone()
	store.BashPid++
	sub := &Runner{
		vars:        store,
		opts:        r.opts.Clone(),
		frames:      r.frames.Clone(store),
		fs:          r.fs,
		dir:         r.dir,
		stdin:       r.stdin,
		funcs:       make(map[string]*funcDef, len(r.funcs)),
		builtins:    r.builtins,
		log:         r.log,
		parser:      r.parser,
		history:     r.history,
		ctx:         r.ctx,
		src:         r.src,
		file:        r.file,
		loopDepth:   r.loopDepth,
		subshell:    r.subshell + 1,
		sourcing:    r.sourcing,
		noErrexit:   r.noErrexit,
		substStatus: -1,
	}
	for name, fn := range r.funcs {
		sub.funcs[name] = fn
	}
	sub.install()
	return sub
}

// subshell runs fn in a copy of the shell. Every signal ends the subshell
// and becomes its result.
func (r *Runner) runSubshell(fn func(sub *Runner) (flow.Result, error)) flow.Result {
	sub := r.fork()
	res, err := fn(sub)
	if err != nil {
		if sig, ok := flow.As(err); ok {
			res = flow.Result{Stdout: sig.Stdout, Stderr: sig.Stderr, ExitCode: flow.ExitCode(err)}
		} else {
			res.Stderr += fmt.Sprintf("bash: %s\n", err)
			res.ExitCode = 1
		}
	}
	res.Stderr = sub.pending.String() + res.Stderr
	return res
}

func (r *Runner) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(&r.pending, "bash: warning: %s\n", msg)
	r.record(logger.EventWarning, map[string]interface{}{"message": msg})
}

func (r *Runner) record(event string, fields map[string]interface{}) {
	if r.log == nil {
		return
	}
	if err := r.log.Record(event, fields); err != nil {
		log.Printf("recording %s event: %v", event, err)
	}
}

// takePending returns and clears the buffered diagnostics.
func (r *Runner) takePending() string {
	out := r.pending.String()
	r.pending.Reset()
	return out
}

// text returns the source of a node, printing it when the node didn't come
// from the current source.
func (r *Runner) text(n syntax.Node) string {
	start, end := int(n.Pos().Offset()), int(n.End().Offset())
	if n.Pos().IsValid() && start <= end && end <= len(r.src) {
		return r.src[start:end]
	}
	var sb strings.Builder
	if err := syntax.NewPrinter(syntax.SingleLine(true)).Print(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// withSource runs fn with src as the current program text.
func (r *Runner) withSource(src string, fn func() (flow.Result, error)) (flow.Result, error) {
	prev := r.src
	r.src = src
	defer func() { r.src = prev }()
	return fn()
}

// Vars implements commands.Shell.
func (r *Runner) Vars() *vars.Store {
	return r.vars
}
