package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/honeybash/core/flow"
)

// writeResult copies the output of a nested run to the builtin's streams.
func writeResult(s Shell, res flow.Result) {
	fmt.Fprint(s.Stdout(), res.Stdout)
	fmt.Fprint(s.Stderr(), res.Stderr)
}

// Eval implements the eval builtin.
func Eval(s Shell, args []string) (int, error) {
	src := strings.Join(args[1:], " ")
	if strings.TrimSpace(src) == "" {
		return 0, nil
	}
	res, err := s.Eval(src)
	writeResult(s, res)
	return res.ExitCode, err
}

// Source implements source and its POSIX name ".".
func Source(s Shell, args []string) (int, error) {
	if len(args) < 2 {
		fmt.Fprintf(s.Stderr(), "bash: %s: filename argument required\n", args[0])
		fmt.Fprintf(s.Stderr(), "%s: usage: %s filename [arguments]\n", args[0], args[0])
		return StatusUsage, nil
	}
	res, err := s.Source(args[1], args[2:])
	writeResult(s, res)
	return res.ExitCode, err
}

// Let implements let when it is invoked indirectly; the parser handles
// let statements itself.
func Let(s Shell, args []string) (int, error) {
	if len(args) < 2 {
		fmt.Fprintln(s.Stderr(), "bash: let: expression expected")
		return 1, nil
	}
	n := 0
	for _, expr := range args[1:] {
		var err error
		if n, err = s.Arithmetic(expr); err != nil {
			return 1, err
		}
	}
	if n == 0 {
		return 1, nil
	}
	return 0, nil
}

// Builtin implements the builtin builtin, which skips function lookup.
func Builtin(s Shell, args []string) (int, error) {
	if len(args) < 2 {
		return 0, nil
	}
	b, ok := AllBuiltins[args[1]]
	if !ok {
		fmt.Fprintf(s.Stderr(), "bash: builtin: %s: not a shell builtin\n", args[1])
		return 1, nil
	}
	return b.Main(s, args[1:])
}

func init() {
	addBuiltin("eval", Eval)
	addBuiltin("source", Source)
	addBuiltin(".", Source)
	addBuiltin("let", Let)
	addBuiltin("builtin", Builtin)
}
