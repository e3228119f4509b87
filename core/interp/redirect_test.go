package interp_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirects(t *testing.T) {
	cases := scriptSuite{
		"echo-cat": {
			script: `echo "hello" > foo; cat foo`,
			stdout: "hello\n",
		},
		"no-expand-args": {
			script: `A=B AA=$A$A echo "[$AA]"`,
			stdout: "[]\n",
		},
		"expand-after-set": {
			script: `A=B AA=$A$A; echo $AA`,
			stdout: "BB\n",
		},
		"redir-stdout-stderr": {
			script: `echo "hello" 1>&2`,
			stderr: "hello\n",
		},
		"redir-stderr-stdout": {
			script: `{ echo out; echo err >&2; } 2>&1`,
			stdout: "out\nerr\n",
		},
		"redir-dev-null": {
			script: `echo "hello" > /dev/null`,
		},
		"redir-out-err-file": {
			script: `echo "hello" 1>&2 2>tmp; cat tmp`,
			stderr: "hello\n",
		},
		"append": {
			script: `echo a > log; echo b >> log; cat log`,
			stdout: "a\nb\n",
		},
		"truncate": {
			script: `echo long > f; echo s > f; cat f`,
			stdout: "s\n",
		},
		"all": {
			script: `{ echo o; echo e >&2; } &> both; cat both`,
			stdout: "o\ne\n",
		},
		"input": {
			script: `echo data > in; read line < in; echo $line`,
			stdout: "data\n",
		},
		"missing-input": {
			script: `cat < missing; echo $?`,
			stdout: "1\n",
			stderr: "bash: missing: No such file or directory\n",
		},
		"noclobber": {
			script: `echo a > f; set -C; echo b > f; echo c >| f2; cat f f2`,
			stdout: "a\nc\n",
			stderr: "bash: f: cannot overwrite existing file\n",
		},
		"heredoc": {
			script: "x=1\ncat <<EOF\nx=$x\nEOF",
			stdout: "x=1\n",
		},
		"heredoc-dash": {
			script: "cat <<-EOF\n\tindented\n\tEOF",
			stdout: "indented\n",
		},
		"herestring": {
			script: `cat <<< "a b"`,
			stdout: "a b\n",
		},
		"function-output": {
			script: `f() { echo inside; }; f > out; cat out`,
			stdout: "inside\n",
		},
		"loop-output": {
			script: `for i in 1 2; do echo $i; done > out; cat out`,
			stdout: "1\n2\n",
		},
	}

	cases.Run(t, nil)
}

func TestRedirects_persist(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := newRunner(t, fs)

	res := run(t, r, `echo saved > /out.txt`)
	require.Equal(t, 0, res.ExitCode)

	data, err := afero.ReadFile(fs, "/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "saved\n", string(data))
}
