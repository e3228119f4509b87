package flow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleHandleLoop() {
	// break 2 raised inside two nested loops.
	sig := NewBreak(2)

	action, _, err := HandleLoop(sig)
	fmt.Println("inner:", action == LoopBreak, err != nil)

	action, _, err = HandleLoop(err)
	fmt.Println("outer:", action == LoopBreak, err != nil)

	// Output: inner: true true
	// outer: true false
}

func TestHandleLoop(t *testing.T) {
	cases := map[string]struct {
		err        error
		action     LoopAction
		propagates bool
	}{
		"nil":              {nil, LoopNext, false},
		"break":            {NewBreak(1), LoopBreak, false},
		"break-outer":      {NewBreak(3), LoopBreak, true},
		"continue":         {NewContinue(1), LoopContinue, false},
		"continue-outer":   {NewContinue(2), LoopBreak, true},
		"return":           {NewReturn(3), LoopBreak, true},
		"exit":             {NewExit(1), LoopBreak, true},
		"plain-error":      {errors.New("boom"), LoopBreak, true},
		"wrapped-continue": {fmt.Errorf("wrapped: %w", NewContinue(1)), LoopContinue, false},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			action, _, err := HandleLoop(tc.err)
			assert.Equal(t, tc.action, action)
			assert.Equal(t, tc.propagates, err != nil)
		})
	}
}

func TestHandleLoopKeepsOutput(t *testing.T) {
	sig := NewBreak(1)
	sig.Prepend("before\n", "warn\n")

	_, out, err := HandleLoop(sig)
	require.NoError(t, err)
	assert.Equal(t, "before\n", out.Stdout)
	assert.Equal(t, "warn\n", out.Stderr)
}

func TestPrependOrder(t *testing.T) {
	sig := NewExit(2)
	sig.Stdout = "third\n"

	err := Prepend(sig, "second\n", "")
	err = Prepend(err, "first\n", "e\n")

	got, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "first\nsecond\nthird\n", got.Stdout)
	assert.Equal(t, "e\n", got.Stderr)

	plain := errors.New("plain")
	assert.Equal(t, plain, Prepend(plain, "x", "y"))
}

func TestClassification(t *testing.T) {
	scopeExit := []error{NewBreak(1), NewContinue(1), NewReturn(0)}
	terminating := []error{
		NewExit(0),
		NewErrexit(1),
		NewNounset("x", 1),
		NewExecutionLimit("f: maximum function nesting level exceeded (2)"),
		NewPosixFatal(2, "set: bad option"),
		NewError(Arithmetic, "division by 0"),
		NewError(BadSubstitution, "${x!}: bad substitution"),
		NewError(Glob, "no match: *.x"),
		NewError(BraceExpansion, "brace expansion too large"),
		errors.New("internal"),
	}

	for _, err := range scopeExit {
		assert.True(t, IsScopeExit(err), err.Error())
		assert.True(t, IsStray(err, 0, false), err.Error())
		assert.False(t, IsTerminating(err), err.Error())
	}
	for _, err := range terminating {
		assert.False(t, IsScopeExit(err), err.Error())
		assert.True(t, IsTerminating(err), err.Error())
		assert.False(t, IsStray(err, 0, false), err.Error())
	}
	assert.False(t, IsTerminating(nil))
}

func TestIsStray(t *testing.T) {
	cases := map[string]struct {
		err       error
		loopDepth int
		canReturn bool
		want      bool
	}{
		"break-top":          {err: NewBreak(1), want: true},
		"break-in-loop":      {err: NewBreak(1), loopDepth: 1},
		"break-in-function":  {err: NewBreak(1), canReturn: true, want: true},
		"continue-in-loop":   {err: NewContinue(2), loopDepth: 2},
		"return-top":         {err: NewReturn(0), want: true},
		"return-in-function": {err: NewReturn(0), canReturn: true},
		"return-in-loop":     {err: NewReturn(3), loopDepth: 1, want: true},
		"exit":               {err: NewExit(0)},
		"nil":                {},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, IsStray(tc.err, tc.loopDepth, tc.canReturn))
		})
	}
}

func TestExitCode(t *testing.T) {
	cases := map[string]struct {
		err      error
		expected int
	}{
		"nil":             {nil, 0},
		"stray-break":     {NewBreak(1), 0},
		"return":          {NewReturn(4), 4},
		"exit":            {NewExit(7), 7},
		"errexit":         {NewErrexit(3), 3},
		"nounset":         {NewNounset("x", 1), 1},
		"execution-limit": {NewExecutionLimit("too deep"), 126},
		"posix-fatal":     {NewPosixFatal(2, "x"), 2},
		"arithmetic":      {NewError(Arithmetic, "x"), 1},
		"plain":           {errors.New("x"), 1},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExitCode(tc.err))
		})
	}
}

func TestNounsetMessage(t *testing.T) {
	sig := NewNounset("FOO", 1)
	assert.Equal(t, "bash: FOO: unbound variable\n", sig.Stderr)
	assert.Equal(t, "FOO: unbound variable", sig.Error())
}
