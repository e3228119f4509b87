// Package flow defines the control-flow signals that unwind through the
// executor: loop control, function return and the terminating errors.
//
// A Signal is an ordinary Go error. Each signal carries the output produced
// before it fired; every executing layer it passes through prepends its own
// output so the text stays in execution order.
package flow

import (
	"errors"
	"fmt"
)

// Kind tags the variant of a Signal.
type Kind int

// The closed set of signal kinds.
const (
	Break Kind = iota
	Continue
	Return
	Errexit
	Nounset
	Exit
	Arithmetic
	BadSubstitution
	Glob
	BraceExpansion
	ExecutionLimit
	SubshellExit
	PosixFatal
)

var kindNames = map[Kind]string{
	Break:           "break",
	Continue:        "continue",
	Return:          "return",
	Errexit:         "errexit",
	Nounset:         "nounset",
	Exit:            "exit",
	Arithmetic:      "arithmetic",
	BadSubstitution: "bad substitution",
	Glob:            "glob",
	BraceExpansion:  "brace expansion",
	ExecutionLimit:  "execution limit",
	SubshellExit:    "subshell exit",
	PosixFatal:      "posix fatal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ExecutionLimitCode is the exit status used when the call depth is exceeded.
const ExecutionLimitCode = 126

// Signal is a propagating control-flow outcome.
type Signal struct {
	Kind Kind
	// Code is the exit status carried by return, exit and the errors.
	Code int
	// Levels counts the remaining enclosing loops for break and continue.
	Levels int
	// Name is the variable of a nounset signal.
	Name string
	// Msg is a diagnostic without trailing newline.
	Msg string

	Stdout string
	Stderr string
}

func (s *Signal) Error() string {
	switch s.Kind {
	case Break, Continue:
		return fmt.Sprintf("%s %d", s.Kind, s.Levels)
	case Return, Exit, Errexit, SubshellExit:
		return fmt.Sprintf("%s %d", s.Kind, s.Code)
	case Nounset:
		return fmt.Sprintf("%s: unbound variable", s.Name)
	}
	if s.Msg != "" {
		return s.Msg
	}
	return s.Kind.String()
}

// Prepend adds output produced before the signal reached the caller.
func (s *Signal) Prepend(stdout, stderr string) {
	s.Stdout = stdout + s.Stdout
	s.Stderr = stderr + s.Stderr
}

// Result is the outcome of executing something that did not raise a signal.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Append adds the output of r2 and takes its exit status.
func (r *Result) Append(r2 Result) {
	r.Stdout += r2.Stdout
	r.Stderr += r2.Stderr
	r.ExitCode = r2.ExitCode
}

// NewBreak creates a break signal for n enclosing loops.
func NewBreak(n int) *Signal {
	return &Signal{Kind: Break, Levels: n}
}

// NewContinue creates a continue signal for the n-th enclosing loop.
func NewContinue(n int) *Signal {
	return &Signal{Kind: Continue, Levels: n}
}

// NewReturn creates a return signal with the given status.
func NewReturn(code int) *Signal {
	return &Signal{Kind: Return, Code: code}
}

// NewExit creates an exit signal.
func NewExit(code int) *Signal {
	return &Signal{Kind: Exit, Code: code}
}

// NewSubshellExit creates the signal raised by exit inside a subshell. It
// ends only the subshell.
func NewSubshellExit(code int) *Signal {
	return &Signal{Kind: SubshellExit, Code: code}
}

// NewErrexit creates the signal raised when a command fails under set -e.
func NewErrexit(code int) *Signal {
	return &Signal{Kind: Errexit, Code: code}
}

// NewNounset creates the signal raised when an unset variable is read under
// set -u. code is the status of the last command.
func NewNounset(name string, code int) *Signal {
	return &Signal{
		Kind:   Nounset,
		Name:   name,
		Code:   code,
		Stderr: fmt.Sprintf("bash: %s: unbound variable\n", name),
	}
}

// NewExecutionLimit creates the signal raised when functions nest too deep.
func NewExecutionLimit(msg string) *Signal {
	return &Signal{Kind: ExecutionLimit, Code: ExecutionLimitCode, Msg: msg, Stderr: "bash: " + msg + "\n"}
}

// NewPosixFatal creates the signal raised by a failing special builtin in
// posix mode.
func NewPosixFatal(code int, msg string) *Signal {
	return &Signal{Kind: PosixFatal, Code: code, Msg: msg}
}

// NewError creates one of the expansion error signals, which always exit
// with status 1 and report msg on stderr.
func NewError(kind Kind, msg string) *Signal {
	return &Signal{Kind: kind, Code: 1, Msg: msg, Stderr: "bash: " + msg + "\n"}
}

// As extracts the Signal from err.
func As(err error) (*Signal, bool) {
	var sig *Signal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}

// Is reports whether err is a signal of the given kind.
func Is(err error, kind Kind) bool {
	sig, ok := As(err)
	return ok && sig.Kind == kind
}

// Prepend adds output produced before err to it if err is a signal. Other
// errors are returned unchanged.
func Prepend(err error, stdout, stderr string) error {
	if sig, ok := As(err); ok {
		sig.Prepend(stdout, stderr)
	}
	return err
}
