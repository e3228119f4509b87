package expand

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/josephlewis42/honeybash/core/pattern"
	"github.com/josephlewis42/honeybash/core/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleSplitArray() {
	elems := []string{"a b", "c"}

	fmt.Printf("%q\n", SplitArray(elems, Star, ":"))
	fmt.Printf("%q\n", SplitArray(elems, At, " "))

	// Output: ["a b" "c"]
	// ["a" "b" "c"]
}

func TestSplitArray(t *testing.T) {
	cases := map[string]struct {
		elems    []string
		mode     Mode
		ifs      string
		expected []string
	}{
		"star-default":    {[]string{"a b", "c"}, Star, " \t\n", []string{"a", "b", "c"}},
		"star-colon":      {[]string{"a", "", "b"}, Star, ":", []string{"a", "", "b"}},
		"at-colon":        {[]string{"a", "", "b"}, At, ":", []string{"a", "b"}},
		"star-joins-once": {[]string{"x:", "y"}, Star, ":", []string{"x", "", "y"}},
		"at-each":         {[]string{"x:", "y"}, At, ":", []string{"x", "y"}},
		"empty-ifs":       {[]string{"a b", "", "c"}, Star, "", []string{"a b", "c"}},
		"nothing":         {nil, At, " ", nil},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitArray(tc.elems, tc.mode, tc.ifs))
		})
	}
}

func TestSlice(t *testing.T) {
	elems := []string{"a", "b", "c", "d"}
	cases := map[string]struct {
		offset, length int
		hasLength      bool
		expected       []string
	}{
		"from-one":        {1, 0, false, []string{"b", "c", "d"}},
		"with-length":     {1, 2, true, []string{"b", "c"}},
		"negative-offset": {-2, 0, false, []string{"c", "d"}},
		"too-negative":    {-5, 0, false, nil},
		"past-end":        {4, 0, false, nil},
		"long-length":     {2, 10, true, []string{"c", "d"}},
		"zero-length":     {0, 0, true, nil},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out, err := Slice(elems, tc.offset, tc.length, tc.hasLength)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}

	_, err := Slice(elems, 0, -1, true)
	assert.True(t, errors.Is(err, ErrNegativeLength))
}

func TestSliceIndexed(t *testing.T) {
	elems := []vars.Element{{Key: "0", Value: "a"}, {Key: "5", Value: "b"}, {Key: "6", Value: "c"}}

	out, err := SliceIndexed(elems, 1, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, out)

	out, err = SliceIndexed(elems, -2, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, out)
}

func TestSliceString(t *testing.T) {
	cases := map[string]struct {
		s              string
		offset, length int
		hasLength      bool
		expected       string
	}{
		"offset":          {"hello", 1, 0, false, "ello"},
		"length":          {"hello", 1, 3, true, "ell"},
		"negative-offset": {"hello", -3, 0, false, "llo"},
		"negative-length": {"hello", 1, -1, true, "ell"},
		"unicode":         {"héllo", 1, 2, true, "él"},
		"past-end":        {"hi", 5, 0, false, ""},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out, err := SliceString(tc.s, tc.offset, tc.length, tc.hasLength)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}

	_, err := SliceString("hello", 3, -3, true)
	assert.ErrorIs(t, err, ErrNegativeLength)
}

func TestRemovePattern(t *testing.T) {
	cases := map[string]struct {
		value    string
		pattern  string
		op       RemoveOp
		expected string
	}{
		"short-prefix":   {"a/b/c", "*/", RemoveShortPrefix, "b/c"},
		"long-prefix":    {"a/b/c", "*/", RemoveLongPrefix, "c"},
		"short-suffix":   {"file.tar.gz", ".*", RemoveShortSuffix, "file.tar"},
		"long-suffix":    {"file.tar.gz", ".*", RemoveLongSuffix, "file"},
		"no-match":       {"file", "x*", RemoveShortPrefix, "file"},
		"literal-prefix": {"prefix-rest", "prefix-", RemoveShortPrefix, "rest"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out := RemovePattern([]string{tc.value}, tc.pattern, tc.op, pattern.Options{})
			assert.Equal(t, []string{tc.expected}, out)
		})
	}

	// Applied to each element.
	out := RemovePattern([]string{"a.txt", "b.md"}, ".*", RemoveShortSuffix, pattern.Options{})
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestReplacePattern(t *testing.T) {
	cases := map[string]struct {
		value    string
		pattern  string
		repl     string
		op       ReplaceOp
		expected string
	}{
		"first":          {"aaa", "a", "b", ReplaceFirst, "baa"},
		"all":            {"aaa", "a", "b", ReplaceAll, "bbb"},
		"longest":        {"abcabc", "a*c", "X", ReplaceFirst, "X"},
		"prefix":         {"abc", "a", "X", ReplacePrefix, "Xbc"},
		"prefix-miss":    {"abc", "b", "X", ReplacePrefix, "abc"},
		"suffix":         {"abc", "c", "X", ReplaceSuffix, "abX"},
		"delete":         {"a-b-c", "-", "", ReplaceAll, "abc"},
		"empty-pattern":  {"abc", "", "X", ReplaceAll, "abc"},
		"prepend":        {"abc", "", "X", ReplacePrefix, "Xabc"},
		"class":          {"a1b2", "[0-9]", "#", ReplaceAll, "a#b#"},
		"multibyte-keep": {"héllo", "l", "L", ReplaceAll, "héLLo"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out := ReplacePattern([]string{tc.value}, tc.pattern, tc.repl, tc.op, pattern.Options{})
			assert.Equal(t, []string{tc.expected}, out)
		})
	}
}

func TestCaseConvert(t *testing.T) {
	cases := map[string]struct {
		value    string
		pattern  string
		op       CaseOp
		expected string
	}{
		"upper-first": {"hello", "", UpperFirst, "Hello"},
		"upper-all":   {"hello", "", UpperAll, "HELLO"},
		"lower-first": {"HELLO", "", LowerFirst, "hELLO"},
		"lower-all":   {"HELLO", "", LowerAll, "hello"},
		"pattern":     {"hello", "[el]", UpperAll, "hELLo"},
		"first-miss":  {"hello", "x", UpperFirst, "hello"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out := CaseConvert([]string{tc.value}, tc.pattern, tc.op, pattern.Options{})
			assert.Equal(t, []string{tc.expected}, out)
		})
	}
}

type mapEnv map[string]string

func (m mapEnv) Get(name string) string {
	return m[name]
}

type expandingEnv struct {
	mapEnv
}

func (e expandingEnv) ExpandText(src string) (string, error) {
	return "<" + src + ">", nil
}

func TestPatternVars(t *testing.T) {
	env := mapEnv{"ext": "txt", "star": "*", "arr[1]": "one"}

	cases := map[string]struct {
		pattern  string
		expected string
	}{
		"unquoted-var":    {"*.$ext", "*.txt"},
		"braced-var":      {"*.${ext}", "*.txt"},
		"unquoted-glob":   {"a$star", "a*"},
		"double-quoted":   {`a"$star"`, `a\*`},
		"single-quoted":   {`'$star*'`, `$star\*`},
		"backslash":       {`\*$ext`, `\*txt`},
		"dq-escape":       {`"\$ext"`, `$ext`},
		"element":         {"${arr[1]}", "one"},
		"cmdsubst-kept":   {"$(echo hi)*", "$(echo hi)*"},
		"backtick-kept":   {"`echo hi`", "`echo hi`"},
		"complex-kept":    {"${ext%t}", "${ext%t}"},
		"lone-dollar":     {"a$", "a$"},
		"unterminated-sq": {"'a*", `'a\*`},
		"special":         {"$#", ""},
		"quoted-brackets": {`"[x]"`, `\[x\]`},
		"mixed":           {`x"y*"$star`, `xy\**`},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, PatternVars(tc.pattern, env))
		})
	}
}

func TestPatternVarsExec(t *testing.T) {
	env := expandingEnv{mapEnv{"x": "v"}}
	var ran []string
	exec := func(cmd string) (string, error) {
		ran = append(ran, cmd)
		return strings.ToUpper(cmd) + "*\n\n", nil
	}

	out, err := PatternVarsExec("$(echo a)-`b`", env, exec)
	require.NoError(t, err)
	assert.Equal(t, "ECHO A*-B*", out)
	assert.Equal(t, []string{"echo a", "b"}, ran)

	out, err = PatternVarsExec(`"$(q)"`, env, exec)
	require.NoError(t, err)
	assert.Equal(t, `Q\*`, out)

	out, err = PatternVarsExec("${x%v}$((1+2))", env, exec)
	require.NoError(t, err)
	assert.Equal(t, "<${x%v}><$((1+2))>", out)

	boom := errors.New("boom")
	_, err = PatternVarsExec("$(fail)", env, func(string) (string, error) { return "", boom })
	assert.Equal(t, boom, err)
}

func TestSplitFragments(t *testing.T) {
	lit := func(s string) Fragment { return Fragment{Text: s} }
	exp := func(s string) Fragment { return Fragment{Text: s, Split: true} }
	dq := func(s string) Fragment { return Fragment{Text: s, Quoted: true} }
	brk := Fragment{Break: true}

	values := func(fields []Field) []string {
		var out []string
		for _, f := range fields {
			out = append(out, f.Value)
		}
		return out
	}

	cases := map[string]struct {
		frags    []Fragment
		ifs      string
		expected []string
	}{
		"literal":            {[]Fragment{lit("abc")}, " ", []string{"abc"}},
		"split-expansion":    {[]Fragment{exp(" a  b ")}, " \t\n", []string{"a", "b"}},
		"join-across":        {[]Fragment{lit("x"), exp("a b"), lit("y")}, " ", []string{"xa", "by"}},
		"leading-space":      {[]Fragment{lit("x"), exp(" a")}, " ", []string{"x", "a"}},
		"quoted-not-split":   {[]Fragment{dq("a b")}, " ", []string{"a b"}},
		"empty-quoted":       {[]Fragment{dq("")}, " ", []string{""}},
		"empty-unquoted":     {[]Fragment{exp("")}, " ", nil},
		"only-spaces":        {[]Fragment{exp("   ")}, " ", nil},
		"colon-empty-middle": {[]Fragment{exp("a::b")}, ":", []string{"a", "", "b"}},
		"colon-leading":      {[]Fragment{exp(":a")}, ":", []string{"", "a"}},
		"colon-trailing":     {[]Fragment{exp("a:")}, ":", []string{"a"}},
		"space-around-colon": {[]Fragment{exp("a : b")}, " :", []string{"a", "b"}},
		"no-ifs":             {[]Fragment{exp("a b")}, "", []string{"a b"}},
		"at-elements":        {[]Fragment{lit("x"), dq("1"), brk, dq("2"), lit("y")}, " ", []string{"x1", "2y"}},
		"at-empty-element":   {[]Fragment{dq("a"), brk, dq("")}, " ", []string{"a", ""}},
		"quoted-after-space": {[]Fragment{exp("a "), dq("b")}, " ", []string{"a", "b"}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, values(SplitFragments(tc.frags, tc.ifs, false)))
		})
	}
}

func TestFieldPatterns(t *testing.T) {
	fields := SplitFragments([]Fragment{
		{Text: "*.go"},
		{Text: " "},
		{Text: "*", Quoted: true},
	}, " ", false)
	require.Len(t, fields, 1)
	assert.Equal(t, "*.go *", fields[0].Value)
	assert.Equal(t, `*.go \*`, fields[0].Pattern)
	assert.True(t, fields[0].Glob)

	quoted := SplitFragments([]Fragment{{Text: "*", Quoted: true}}, " ", false)
	require.Len(t, quoted, 1)
	assert.False(t, quoted[0].Glob)

	joined := JoinFragments([]Fragment{{Text: "a", Quoted: true}, {Break: true}, {Text: "b", Quoted: true}}, false)
	assert.Equal(t, "a b", joined.Value)
}
