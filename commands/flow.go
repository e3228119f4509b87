package commands

import (
	"fmt"
	"strconv"

	"github.com/josephlewis42/honeybash/core/flow"
)

// numericArg parses the optional count or status argument of the flow
// builtins.
func numericArg(s Shell, args []string, def int) (int, bool) {
	if len(args) < 2 {
		return def, true
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(s.Stderr(), "bash: %s: %s: numeric argument required\n", args[0], args[1])
		return 0, false
	}
	return n, true
}

// loopControl implements break and continue. Outside a loop they do
// nothing; counts larger than the loop depth are clamped.
func loopControl(newSignal func(int) *flow.Signal) func(s Shell, args []string) (int, error) {
	return func(s Shell, args []string) (int, error) {
		n, ok := numericArg(s, args, 1)
		if !ok {
			return 1, nil
		}
		if n < 1 {
			fmt.Fprintf(s.Stderr(), "bash: %s: %d: loop count out of range\n", args[0], n)
			return 1, nil
		}
		depth := s.LoopDepth()
		if depth == 0 {
			return 0, nil
		}
		if n > depth {
			n = depth
		}
		return 0, newSignal(n)
	}
}

// Return implements the return builtin.
func Return(s Shell, args []string) (int, error) {
	if !s.CanReturn() {
		fmt.Fprintln(s.Stderr(), "bash: return: can only `return' from a function or sourced script")
		return 1, nil
	}
	code, ok := numericArg(s, args, s.Vars().Status)
	if !ok {
		return 2, flow.NewReturn(2)
	}
	return 0, flow.NewReturn(code & 0xff)
}

// Exit implements the exit builtin. Inside a subshell it only leaves the
// subshell.
func Exit(s Shell, args []string) (int, error) {
	code, ok := numericArg(s, args, s.Vars().Status)
	if !ok {
		code = 2
	}
	code &= 0xff
	if s.InSubshell() {
		return code, flow.NewSubshellExit(code)
	}
	return code, flow.NewExit(code)
}

func init() {
	simpleBuiltin(":", func(Shell, []string) int { return 0 })
	simpleBuiltin("true", func(Shell, []string) int { return 0 })
	simpleBuiltin("false", func(Shell, []string) int { return 1 })
	addBuiltin("break", loopControl(flow.NewBreak))
	addBuiltin("continue", loopControl(flow.NewContinue))
	addBuiltin("return", Return)
	addBuiltin("exit", Exit)
}
