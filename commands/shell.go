package commands

import (
	"io"
	"sort"

	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/frames"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/vars"
	"github.com/spf13/afero"
)

const (
	EnvHome   = "HOME"
	EnvPWD    = "PWD"
	EnvOldPWD = "OLDPWD"
	EnvReply  = "REPLY"
	EnvIFS    = "IFS"
	EnvPrompt = "PS1"
	EnvPS4    = "PS4"

	DefaultColorPrompt = `\033[01;32mbash\033[00m:\033[01;34m\w\033[00m\$ `
	DefaultPrompt      = `bash:\w\$ `
)

// Shell is the interpreter state a builtin runs against.
type Shell interface {
	Vars() *vars.Store
	Options() *options.Options
	Frames() *frames.Manager
	Fs() afero.Fs

	Stdin() io.Reader
	Stdout() io.Writer
	Stderr() io.Writer

	// LoopDepth is the number of loops enclosing the builtin in the current
	// function.
	LoopDepth() int
	InSubshell() bool
	// CanReturn reports whether return has a function or sourced file to
	// leave.
	CanReturn() bool

	Eval(src string) (flow.Result, error)
	Source(path string, args []string) (flow.Result, error)
	Arithmetic(expr string) (int, error)

	Functions() []string
	FunctionSource(name string) (string, bool)
	UnsetFunction(name string) bool

	Dir() string
	Chdir(dir string) error

	History() []string
	ClearHistory()
}

// ShellBuiltin is a command run inside the shell process. Errors are
// reserved for control-flow signals; failures are reported on Stderr and
// through the status.
type ShellBuiltin interface {
	Main(s Shell, args []string) (int, error)
}

// ShellBuiltinFunc adapts a function to a ShellBuiltin.
type ShellBuiltinFunc func(s Shell, args []string) (int, error)

func (f ShellBuiltinFunc) Main(s Shell, args []string) (int, error) {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// SpecialBuiltins are the POSIX special builtins. In posix mode a failing
// special builtin ends the shell.
var SpecialBuiltins = map[string]bool{
	":":        true,
	".":        true,
	"break":    true,
	"continue": true,
	"eval":     true,
	"exit":     true,
	"export":   true,
	"readonly": true,
	"return":   true,
	"set":      true,
	"shift":    true,
	"unset":    true,
}

// BuiltinNames lists the registered builtins in sorted order.
func BuiltinNames() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func addBuiltin(name string, fn func(s Shell, args []string) (int, error)) {
	AllBuiltins[name] = ShellBuiltinFunc(fn)
}

// simpleBuiltin registers a builtin that never raises a signal.
func simpleBuiltin(name string, fn func(s Shell, args []string) int) {
	AllBuiltins[name] = ShellBuiltinFunc(func(s Shell, args []string) (int, error) {
		return fn(s, args), nil
	})
}
