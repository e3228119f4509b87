package flow

// IsScopeExit reports whether err is break, continue or return: signals an
// enclosing loop or function is expected to catch.
func IsScopeExit(err error) bool {
	sig, ok := As(err)
	if !ok {
		return false
	}
	switch sig.Kind {
	case Break, Continue, Return:
		return true
	}
	return false
}

// IsTerminating reports whether err must end the script. Errors that are
// not signals count as terminating.
func IsTerminating(err error) bool {
	return err != nil && !IsScopeExit(err)
}

// IsStray reports whether err is a scope-exit signal with nothing left to
// catch it: break or continue outside any loop, or return where no function
// or sourced file is running. Shells treat those as no-ops.
func IsStray(err error, loopDepth int, canReturn bool) bool {
	sig, ok := As(err)
	if !ok {
		return false
	}
	switch sig.Kind {
	case Break, Continue:
		return loopDepth == 0
	case Return:
		return !canReturn
	}
	return false
}

// LoopAction tells a loop what to do after its body raised.
type LoopAction int

// Loop actions.
const (
	LoopNext LoopAction = iota
	LoopBreak
	LoopContinue
)

// HandleLoop interprets the error returned by one iteration of a loop body.
// Break and continue consume one level; if levels remain the signal is
// returned so the loop exits and the next enclosing loop handles it. When
// the loop catches the signal, the output it carried is returned in out.
func HandleLoop(err error) (action LoopAction, out Result, rerr error) {
	if err == nil {
		return LoopNext, out, nil
	}
	sig, ok := As(err)
	if !ok {
		return LoopBreak, out, err
	}

	switch sig.Kind {
	case Break, Continue:
		sig.Levels--
		if sig.Levels > 0 {
			return LoopBreak, out, sig
		}
		out = Result{Stdout: sig.Stdout, Stderr: sig.Stderr}
		if sig.Kind == Continue {
			return LoopContinue, out, nil
		}
		return LoopBreak, out, nil
	}
	return LoopBreak, out, err
}

// ExitCode maps err to the exit status the top-level runner reports.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	sig, ok := As(err)
	if !ok {
		return 1
	}
	switch sig.Kind {
	case Break, Continue:
		return 0
	case ExecutionLimit:
		return ExecutionLimitCode
	}
	return sig.Code
}
