package commands_test

import "testing"

func TestLoopControl(t *testing.T) {
	cases := scriptSuite{
		"break": {
			script: `for i in 1 2 3; do echo $i; break; done`,
			stdout: "1\n",
		},
		"continue": {
			script: `for i in 1 2 3; do [[ $i == 2 ]] && continue; echo $i; done`,
			stdout: "1\n3\n",
		},
		"continue-outer": {
			script: `for i in a b; do for j in 1 2; do continue 2; echo no; done; echo no; done; echo done`,
			stdout: "done\n",
		},
		"break-clamped": {
			script: `for i in a b; do for j in 1 2; do break 9; done; done; echo $i $j`,
			stdout: "a 1\n",
		},
		"outside-loop": {
			script: `break; echo after`,
			stdout: "after\n",
		},
		"zero-count": {
			script: `for i in 1; do break 0; done`,
			stderr: "bash: break: 0: loop count out of range\n",
			status: 1,
		},
		"not-numeric": {
			script: `for i in 1; do continue x; done`,
			stderr: "bash: continue: x: numeric argument required\n",
			status: 1,
		},
	}

	cases.Run(t)
}

func TestReturn(t *testing.T) {
	cases := scriptSuite{
		"status": {
			script: `f() { return 3; echo no; }; f; echo $?`,
			stdout: "3\n",
		},
		"last-status": {
			script: `f() { false; return; }; f; echo $?`,
			stdout: "1\n",
		},
		"wraps": {
			script: `f() { return 257; }; f; echo $?`,
			stdout: "1\n",
		},
		"top-level": {
			script: `return`,
			stderr: "bash: return: can only `return' from a function or sourced script\n",
			status: 1,
		},
		"inside-loop": {
			script: `f() { for i in 1 2; do return 4; done; }; f; echo $?`,
			stdout: "4\n",
		},
	}

	cases.Run(t)
}

func TestExit(t *testing.T) {
	cases := scriptSuite{
		"code": {
			script: `echo before; exit 4; echo after`,
			stdout: "before\n",
			status: 4,
		},
		"subshell": {
			script: `(exit 3); echo $?`,
			stdout: "3\n",
		},
		"last-status": {
			script: `false; exit`,
			status: 1,
		},
		"from-function": {
			script: `f() { exit 5; }; f; echo no`,
			status: 5,
		},
	}

	cases.Run(t)
}

func TestTrueFalse(t *testing.T) {
	cases := scriptSuite{
		"true":  {script: `true`},
		"colon": {script: `: ignored args`},
		"false": {script: `false`, status: 1},
	}

	cases.Run(t)
}
