package commands_test

import (
	"testing"

	"github.com/josephlewis42/honeybash/commands"
	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
		stop     bool
	}{
		{"not escaped", "not escaped", false},
		{`newline\n`, "newline\n", false},
		{`double-escape\\n`, `double-escape\n`, false},
		{`unknown\q`, `unknown\q`, false},
		{`trailing\`, `trailing\`, false},
		// Octal
		{`\07`, string(rune(7)), false},
		{`\011`, "\t", false},
		{`\0101`, "A", false},
		{`\0`, "\x00", false},
		// Hex
		{`\x7`, string(rune(07)), false},
		{`\x9`, "\t", false},
		{`\x4A`, "J", false},
		{`\xZ`, `\xZ`, false},
		// Unicode
		{`☺`, "☺", false},
		{`\U0001F600`, "😀", false},
		// Stop
		{`abc\cdef`, "abc", true},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			actual, stop := commands.Unescape(tc.escaped)

			assert.Equal(t, tc.expected, actual)
			assert.Equal(t, tc.stop, stop)
		})
	}
}

func TestUnescapeANSIC(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
	}{
		{"plain", "plain"},
		{`tab\there`, "tab\there"},
		{`quote\'s`, "quote's"},
		{`dquote\"`, `dquote"`},
		{`question\?`, "question?"},
		{`\101\102`, "AB"},
		{`\x41`, "A"},
		{`\e[0m`, "\x1b[0m"},
		{`\cA`, "\x01"},
		{`\ca`, "\x01"},
		{`é`, "é"},
		{`\z`, `\z`},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			assert.Equal(t, tc.expected, commands.UnescapeANSIC(tc.escaped))
		})
	}
}

func TestEcho(t *testing.T) {
	cases := scriptSuite{
		"words":          {script: `echo hello   world`, stdout: "hello world\n"},
		"no-args":        {script: `echo`, stdout: "\n"},
		"no-newline":     {script: `echo -n hi`, stdout: "hi"},
		"escapes":        {script: `echo -e 'a\tb'`, stdout: "a\tb\n"},
		"no-escapes":     {script: `echo -E 'a\tb'`, stdout: "a\\tb\n"},
		"combined-flags": {script: `echo -ne 'x\n'`, stdout: "x\n"},
		"stop-output":    {script: `echo -e 'x\cy' z; echo w`, stdout: "xw\n"},
		"not-a-flag":     {script: `echo -x -n`, stdout: "-x -n\n"},
		"lone-dash":      {script: `echo -`, stdout: "-\n"},
		"xpg-echo":       {script: `shopt -s xpg_echo; echo 'a\nb'`, stdout: "a\nb\n"},
		"ansi-c-quoting": {script: `echo $'one\ttwo'`, stdout: "one\ttwo\n"},
		"status-is-zero": {script: `false; echo; echo $?`, stdout: "\n0\n"},
	}

	cases.Run(t)
}
