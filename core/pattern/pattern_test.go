package pattern

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleFixedLength() {
	fmt.Println(FixedLength("a?c", false))
	fmt.Println(FixedLength("a*c", false))
	fmt.Println(FixedLength("[abc]@(xy|zw)", true))

	// Output: 3 true
	// 0 false
	// 3 true
}

func TestMatch(t *testing.T) {
	cases := map[string]struct {
		pattern string
		opts    Options
		matches []string
		rejects []string
	}{
		"star-suffix": {
			pattern: "*.txt",
			matches: []string{"file.txt", ".txt", "dir/file.txt"},
			rejects: []string{"file.rs", "file.txt.bak"},
		},
		"exclude-star": {
			pattern: "*",
			opts:    Options{Exclude: true},
			matches: []string{"foo", ""},
			rejects: []string{"dir/foo"},
		},
		"question": {
			pattern: "a?c",
			matches: []string{"abc", "a/c"},
			rejects: []string{"ac", "abbc"},
		},
		"bracket-range": {
			pattern: "[a-c]x",
			matches: []string{"ax", "cx"},
			rejects: []string{"dx", "-x"},
		},
		"bracket-negated": {
			pattern: "[!a]",
			matches: []string{"b", "!"},
			rejects: []string{"a"},
		},
		"bracket-caret": {
			pattern: "[^a]",
			matches: []string{"b"},
			rejects: []string{"a"},
		},
		"bracket-leading-close": {
			pattern: "[]a]",
			matches: []string{"]", "a"},
			rejects: []string{"b"},
		},
		"posix-class": {
			pattern: "[[:digit:]][[:alpha:]]",
			matches: []string{"1a", "9Z"},
			rejects: []string{"a1", "11"},
		},
		"unterminated-bracket": {
			pattern: "[abc",
			matches: []string{"[abc"},
			rejects: []string{"a"},
		},
		"escaped-star": {
			pattern: `a\*`,
			matches: []string{"a*"},
			rejects: []string{"ab"},
		},
		"regex-chars-literal": {
			pattern: "a.b(c)",
			matches: []string{"a.b(c)"},
			rejects: []string{"axb(c)"},
		},
		"newline": {
			pattern: "a*b",
			matches: []string{"a\nb"},
		},
		"extglob-at": {
			pattern: "@(foo|bar)",
			opts:    Options{Extglob: true},
			matches: []string{"foo", "bar"},
			rejects: []string{"", "foobar", "baz"},
		},
		"extglob-star": {
			pattern: "*(ab)",
			opts:    Options{Extglob: true},
			matches: []string{"", "ab", "abab"},
			rejects: []string{"aba"},
		},
		"extglob-plus": {
			pattern: "x+(ab|c)",
			opts:    Options{Extglob: true},
			matches: []string{"xab", "xcab"},
			rejects: []string{"x"},
		},
		"extglob-optional": {
			pattern: "ab?(c)",
			opts:    Options{Extglob: true},
			matches: []string{"ab", "abc"},
			rejects: []string{"abcc"},
		},
		"extglob-not-variable": {
			pattern: "!(*.txt)",
			opts:    Options{Extglob: true},
			matches: []string{"file.rs", "txt"},
			rejects: []string{"a.txt"},
		},
		"extglob-not-fixed": {
			pattern: "!(foo|bar)",
			opts:    Options{Extglob: true},
			matches: []string{"", "fo", "baz", "fooo"},
			rejects: []string{"foo", "bar"},
		},
		"extglob-not-middle": {
			pattern: "a!(b)c",
			opts:    Options{Extglob: true},
			matches: []string{"ac", "axc", "abbc"},
			rejects: []string{"abc"},
		},
		// bash accepts "abc" by letting !(a*) match the empty prefix; the
		// lookahead here covers the whole remainder instead.
		"extglob-not-variable-prefix": {
			pattern: "!(a*)*",
			opts:    Options{Extglob: true},
			matches: []string{"", "xyz", "bac"},
			rejects: []string{"abc", "a"},
		},
		"extglob-disabled": {
			pattern: "@(a)",
			matches: []string{"@(a)"},
			rejects: []string{"a"},
		},
		"ignore-case": {
			pattern: "*.TXT",
			opts:    Options{IgnoreCase: true},
			matches: []string{"a.txt"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			m, err := Compile(tc.pattern, tc.opts)
			require.NoError(t, err)

			for _, s := range tc.matches {
				assert.True(t, m.Match(s), "%q should match %q", tc.pattern, s)
			}
			for _, s := range tc.rejects {
				assert.False(t, m.Match(s), "%q should not match %q", tc.pattern, s)
			}
		})
	}
}

func TestMatch_timeout(t *testing.T) {
	var warnings []string
	m, err := Compile("*(a|aa)*(a|aa)b", Options{
		Extglob: true,
		Warnf: func(format string, args ...interface{}) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	})
	require.NoError(t, err)

	start := time.Now()
	assert.False(t, m.Match(strings.Repeat("a", 40)))
	assert.Less(t, int64(time.Since(start)), int64(10*time.Second))
	assert.True(t, m.TimedOut())
	assert.Equal(t, []string{"*(a|aa)*(a|aa)b: pattern too complex, match abandoned"}, warnings)

	// later matches are refused without searching
	assert.False(t, m.Match("ab"))
	assert.Len(t, warnings, 1)
}

func TestFixedLength(t *testing.T) {
	cases := map[string]struct {
		pattern  string
		extglob  bool
		expected int
		fixed    bool
	}{
		"literal":             {"abc", false, 3, true},
		"question":            {"a?c", false, 3, true},
		"star":                {"a*c", false, 0, false},
		"bracket":             {"[a-z]x", false, 2, true},
		"escape":              {`\*x`, false, 2, true},
		"unterminated":        {"[ab", false, 3, true},
		"at-equal":            {"@(ab|cd)", true, 2, true},
		"at-unequal":          {"@(a|bc)", true, 0, false},
		"optional-group":      {"?(a)", true, 0, false},
		"negated-group":       {"!(a)", true, 0, false},
		"plus-group":          {"+(a)", true, 0, false},
		"group-without-ext":   {"@(ab)", false, 5, true},
		"question-before-par": {"?(a)", false, 4, true},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			n, ok := FixedLength(tc.pattern, tc.extglob)
			assert.Equal(t, tc.fixed, ok)
			assert.Equal(t, tc.expected, n)
		})
	}
}

func TestQuoteMeta(t *testing.T) {
	for _, s := range []string{"plain", "*.txt", "a[b]c", `back\slash`, "@(x|y)"} {
		t.Run(s, func(t *testing.T) {
			quoted := QuoteMeta(s)
			assert.False(t, HasMeta(quoted, true))
			assert.True(t, Match(quoted, s, Options{Extglob: true}))
			assert.Equal(t, s, Unquote(quoted))
		})
	}
}

func TestHasMeta(t *testing.T) {
	assert.True(t, HasMeta("*.go", false))
	assert.True(t, HasMeta("a[bc]", false))
	assert.False(t, HasMeta(`a\*`, false))
	assert.False(t, HasMeta("@(a)", false))
	assert.True(t, HasMeta("@(a)", true))
}

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, f := range []string{
		"/src/main.go",
		"/src/main_test.go",
		"/src/.hidden.go",
		"/src/README.md",
		"/src/pkg/util.go",
		"/docs/index.md",
	} {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0644))
	}
	return fs
}

func TestGlob(t *testing.T) {
	fs := newTestFs(t)

	cases := map[string]struct {
		pattern  string
		opts     GlobOptions
		expected []string
	}{
		"relative": {
			pattern:  "*.go",
			opts:     GlobOptions{Dir: "/src"},
			expected: []string{"main.go", "main_test.go"},
		},
		"absolute": {
			pattern:  "/src/*.md",
			expected: []string{"/src/README.md"},
		},
		"multi-segment": {
			pattern:  "/*/*.md",
			expected: []string{"/docs/index.md", "/src/README.md"},
		},
		"dotglob": {
			pattern:  "/src/*.go",
			opts:     GlobOptions{DotGlob: true},
			expected: []string{"/src/.hidden.go", "/src/main.go", "/src/main_test.go"},
		},
		"explicit-dot": {
			pattern:  "/src/.*",
			expected: []string{"/src/.hidden.go"},
		},
		"directories-only": {
			pattern:  "/src/*/",
			expected: []string{"/src/pkg/"},
		},
		"globignore": {
			pattern:  "/src/*.go",
			opts:     GlobOptions{Ignore: []string{"/src/*_test.go", "/src/.*"}},
			expected: []string{"/src/main.go"},
		},
		"extglob": {
			pattern:  "/src/!(*_test).go",
			opts:     GlobOptions{Extglob: true},
			expected: []string{"/src/main.go"},
		},
		"globignore-stays-in-component": {
			pattern:  "/src/*.go",
			opts:     GlobOptions{Ignore: []string{"*_test.go"}},
			expected: []string{"/src/.hidden.go", "/src/main.go", "/src/main_test.go"},
		},
		"no-match": {
			pattern:  "/src/*.rs",
			expected: nil,
		},
		"literal-existing": {
			pattern:  "/src/pkg/util.go",
			expected: []string{"/src/pkg/util.go"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out, err := Glob(fs, tc.pattern, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}
