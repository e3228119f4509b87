package commands_test

import (
	"testing"
)

func TestSet(t *testing.T) {
	cases := scriptSuite{
		"positional": {
			script: `set -- a b c; echo $# $2`,
			stdout: "3 b\n",
		},
		"positional-without-dashes": {
			script: `set x y; echo "$@"`,
			stdout: "x y\n",
		},
		"clear-positional": {
			script: `set -- a; set --; echo $#`,
			stdout: "0\n",
		},
		"flag-on": {
			script: `set -u; [[ -o nounset ]] && echo on`,
			stdout: "on\n",
		},
		"flag-off": {
			script: `set -f; set +f; [[ -o noglob ]] || echo off`,
			stdout: "off\n",
		},
		"named-option": {
			script: `set -o pipefail; false | true; echo $?`,
			stdout: "1\n",
		},
		"combined-flags-and-args": {
			script: `set -fu -- one two; echo $1; [[ -o noglob ]] && echo noglob`,
			stdout: "one\nnoglob\n",
		},
		"invalid-flag": {
			script: `set -q`,
			stderr: "bash: set: -q: invalid option\nset: usage: set [-abefhkmnptuvxBCHP] [-o option-name] [--] [arg ...]\n",
			status: 2,
		},
		"invalid-name": {
			script: `set -o bogus`,
			stderr: "bash: set: bogus: invalid option name\n",
			status: 1,
		},
		"errexit": {
			script: "set -e\nfalse\necho unreachable",
			status: 1,
		},
	}

	cases.Run(t)
}

func TestSet_golden(t *testing.T) {
	cases := goldenTestSuite{
		"options":          {`set -o`},
		"reusable-options": {`set +o`},
	}

	cases.Run(t)
}

func TestShopt(t *testing.T) {
	cases := scriptSuite{
		"enable-and-query": {
			script: `shopt -s extglob; shopt extglob`,
			stdout: "extglob        \ton\n",
		},
		"query-off": {
			script: `shopt nullglob`,
			stdout: "nullglob       \toff\n",
			status: 1,
		},
		"quiet": {
			script: `shopt -q nullglob; echo $?; shopt -s nullglob; shopt -q nullglob; echo $?`,
			stdout: "1\n0\n",
		},
		"reusable": {
			script: `shopt -p dotglob`,
			stdout: "shopt -u dotglob\n",
			status: 1,
		},
		"set-o-names": {
			script: `shopt -s -o nounset; [[ -o nounset ]] && shopt -p -o nounset`,
			stdout: "shopt -s -o nounset\n",
		},
		"unknown": {
			script: `shopt -s nosuch`,
			stderr: "bash: shopt: nosuch: invalid shell option name\n",
			status: 1,
		},
		"set-and-unset": {
			script: `shopt -s -u extglob`,
			stderr: "bash: shopt: cannot set and unset shell options simultaneously\n",
			status: 1,
		},
	}

	cases.Run(t)
}

func TestShopt_golden(t *testing.T) {
	cases := goldenTestSuite{
		"all":      {`shopt`},
		"reusable": {`shopt -p`},
	}

	cases.Run(t)
}
