package interp

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/frames"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/spf13/afero"
)

// Options implements commands.Shell.
func (r *Runner) Options() *options.Options {
	return r.opts
}

// Frames implements commands.Shell.
func (r *Runner) Frames() *frames.Manager {
	return r.frames
}

// Fs implements commands.Shell.
func (r *Runner) Fs() afero.Fs {
	return r.fs
}

// Stdin implements commands.Shell.
func (r *Runner) Stdin() io.Reader {
	return r.stdin
}

// Stdout implements commands.Shell.
func (r *Runner) Stdout() io.Writer {
	if r.out == nil {
		return io.Discard
	}
	return &r.out.stdout
}

// Stderr implements commands.Shell.
func (r *Runner) Stderr() io.Writer {
	if r.out == nil {
		return &r.pending
	}
	return &r.out.stderr
}

// LoopDepth implements commands.Shell.
func (r *Runner) LoopDepth() int {
	return r.loopDepth
}

// InSubshell implements commands.Shell.
func (r *Runner) InSubshell() bool {
	return r.subshell > 0
}

// CanReturn implements commands.Shell.
func (r *Runner) CanReturn() bool {
	return r.frames.Depth() > 0 || r.sourcing > 0
}

// Eval implements commands.Shell, running src in the current shell.
func (r *Runner) Eval(src string) (flow.Result, error) {
	file, err := r.parser.Parse(strings.NewReader(src), "eval")
	if err != nil {
		return flow.Result{Stderr: fmt.Sprintf("bash: %s\n", err), ExitCode: 2}, nil
	}
	return r.withSource(src, func() (flow.Result, error) {
		return r.stmts(file.Stmts)
	})
}

// Source implements commands.Shell, running a file in the current shell.
// A return inside the file ends it.
func (r *Runner) Source(name string, args []string) (flow.Result, error) {
	data, err := afero.ReadFile(r.fs, r.resolve(name))
	if err != nil {
		return flow.Result{Stderr: fmt.Sprintf("bash: %s: %s\n", name, describeFsError(err)), ExitCode: 1}, nil
	}
	src := string(data)
	file, err := r.parser.Parse(strings.NewReader(src), name)
	if err != nil {
		return flow.Result{Stderr: fmt.Sprintf("bash: %s\n", err), ExitCode: 2}, nil
	}

	if len(args) > 0 {
		saved := r.vars.Positional()
		r.vars.SetPositional(args)
		defer r.vars.SetPositional(saved)
	}
	prevFile := r.file
	r.file = name
	r.sourcing++
	defer func() {
		r.sourcing--
		r.file = prevFile
	}()

	res, err := r.withSource(src, func() (flow.Result, error) {
		return r.stmts(file.Stmts)
	})
	if sig, ok := flow.As(err); ok && sig.Kind == flow.Return {
		return flow.Result{Stdout: sig.Stdout, Stderr: sig.Stderr, ExitCode: sig.Code}, nil
	}
	return res, err
}

// Arithmetic implements commands.Shell.
func (r *Runner) Arithmetic(expr string) (int, error) {
	return r.arithText(expr)
}

// Functions implements commands.Shell.
func (r *Runner) Functions() []string {
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FunctionSource implements commands.Shell.
func (r *Runner) FunctionSource(name string) (string, bool) {
	fn, ok := r.funcs[name]
	if !ok {
		return "", false
	}
	return fn.text, true
}

// UnsetFunction implements commands.Shell.
func (r *Runner) UnsetFunction(name string) bool {
	_, ok := r.funcs[name]
	delete(r.funcs, name)
	return ok
}

// Dir implements commands.Shell.
func (r *Runner) Dir() string {
	return r.dir
}

// Chdir implements commands.Shell.
func (r *Runner) Chdir(dir string) error {
	target := r.resolve(dir)
	info, err := r.fs.Stat(target)
	if err != nil {
		return fmt.Errorf("%s: %s", dir, describeFsError(err))
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: Not a directory", dir)
	}
	_ = r.vars.Set("OLDPWD", r.dir)
	r.dir = target
	_ = r.vars.Set("PWD", target)
	return nil
}

// History implements commands.Shell.
func (r *Runner) History() []string {
	return append([]string(nil), (*r.history)...)
}

// ClearHistory implements commands.Shell.
func (r *Runner) ClearHistory() {
	*r.history = nil
}

// resolve makes p absolute against the working directory.
func (r *Runner) resolve(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(r.dir, p)
}

func describeFsError(err error) string {
	switch {
	case os.IsNotExist(err):
		return "No such file or directory"
	case os.IsPermission(err):
		return "Permission denied"
	case os.IsExist(err):
		return "File exists"
	}
	return err.Error()
}
