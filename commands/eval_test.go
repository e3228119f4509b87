package commands_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	cases := scriptSuite{
		"assignment": {
			script: `eval 'x=$((2+3))'; echo $x`,
			stdout: "5\n",
		},
		"joins-args": {
			script: `cmd=echo; eval $cmd a '&&' echo b`,
			stdout: "a\nb\n",
		},
		"status": {
			script: `eval false; echo $?`,
			stdout: "1\n",
		},
		"empty": {
			script: `false; eval; echo $?`,
			stdout: "0\n",
		},
		"return-from-function": {
			script: `f() { eval 'return 3'; echo no; }; f; echo $?`,
			stdout: "3\n",
		},
	}

	cases.Run(t)
}

func TestSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/lib.sh", []byte("echo \"$1-$2\"\nlibvar=set\nreturn 7\necho no\n"), 0644))

	r := newShell(t, fs)
	res := runIn(t, r, `source /lib.sh a b; echo $? $libvar "$#"`)

	assert.Equal(t, "a-b\n7 set 0\n", res.Stdout)
	assert.Equal(t, "", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestSource_relative(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/profile", []byte("greeting=hello\n"), 0644))

	r := newShell(t, fs)
	res := runIn(t, r, `cd /etc; . profile; echo $greeting`)

	assert.Equal(t, "hello\n", res.Stdout)
}

func TestSource_errors(t *testing.T) {
	cases := scriptSuite{
		"no-args": {
			script: `.`,
			stderr: "bash: .: filename argument required\n.: usage: . filename [arguments]\n",
			status: 2,
		},
		"missing": {
			script: `source /missing.sh`,
			stderr: "bash: /missing.sh: No such file or directory\n",
			status: 1,
		},
	}

	cases.Run(t)
}

func TestBuiltin(t *testing.T) {
	cases := scriptSuite{
		"let": {
			script: `builtin let 'x=2*3'; echo $x`,
			stdout: "6\n",
		},
		"skips-functions": {
			script: `echo() { builtin echo "wrapped $*"; }; echo hi`,
			stdout: "wrapped hi\n",
		},
		"unknown": {
			script: `builtin nope`,
			stderr: "bash: builtin: nope: not a shell builtin\n",
			status: 1,
		},
		"let-false": {
			script: `builtin let 0; echo $?`,
			stdout: "1\n",
		},
	}

	cases.Run(t)
}
