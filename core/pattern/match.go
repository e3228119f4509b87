package pattern

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds the backtracking spent on a single match. A match
// that runs out of time counts as no match.
var MatchTimeout = 100 * time.Millisecond

// Options control how a pattern is compiled.
type Options struct {
	// Extglob enables the @() *() +() ?() !() group operators.
	Extglob bool
	// IgnoreCase matches letters case insensitively (nocaseglob, nocasematch).
	IgnoreCase bool
	// Exclude compiles in ignore-list mode where wildcards stop at '/'.
	Exclude bool
	// Warnf, when set, is told about matches abandoned after MatchTimeout.
	Warnf func(format string, args ...interface{})
}

// Matcher is a compiled glob pattern.
type Matcher struct {
	Pattern string
	re      *regexp2.Regexp
	warnf   func(format string, args ...interface{})
	// timedOut is set after the first abandoned match; later matches fail
	// without running so repeated substring searches stay bounded.
	timedOut bool
}

// Compile translates pattern and compiles the resulting regex.
func Compile(pattern string, opts Options) (*Matcher, error) {
	var expr string
	if opts.Exclude {
		expr = ToExcludeRegex(pattern, opts.Extglob)
	} else {
		expr = ToRegex(pattern, opts.Extglob)
	}

	flags := regexp2.None
	if opts.IgnoreCase {
		flags |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(expr, flags)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = MatchTimeout
	return &Matcher{Pattern: pattern, re: re, warnf: opts.Warnf}, nil
}

// Match reports whether the whole of s matches.
func (m *Matcher) Match(s string) bool {
	if m.timedOut {
		return false
	}
	ok, err := m.re.MatchString(s)
	if err != nil {
		m.timedOut = true
		if m.warnf != nil {
			m.warnf("%s: pattern too complex, match abandoned", m.Pattern)
		}
		return false
	}
	return ok
}

// TimedOut reports whether a match was abandoned after MatchTimeout.
func (m *Matcher) TimedOut() bool {
	return m.timedOut
}

// Match reports whether name matches pattern. Patterns that fail to compile
// fall back to a literal comparison.
func Match(pattern, name string, opts Options) bool {
	m, err := Compile(pattern, opts)
	if err != nil {
		if opts.IgnoreCase {
			return strings.EqualFold(Unquote(pattern), name)
		}
		return Unquote(pattern) == name
	}
	return m.Match(name)
}

// HasMeta reports whether pattern contains any unescaped glob syntax.
func HasMeta(pattern string, extglob bool) bool {
	p := []rune(pattern)
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '\\':
			i++
		case '*', '?', '[':
			return true
		case '@', '+', '!':
			if extglob && i+1 < len(p) && p[i+1] == '(' {
				return true
			}
		}
	}
	return false
}

const metaChars = `\*?[]()|@!+`

// QuoteMeta escapes every character in s that glob syntax would interpret.
func QuoteMeta(s string) string {
	if !strings.ContainsAny(s, metaChars) {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(metaChars, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Unquote removes pattern escapes, turning an unmatched glob back into the
// word it came from.
func Unquote(pattern string) string {
	if !strings.Contains(pattern, `\`) {
		return pattern
	}
	var sb strings.Builder
	p := []rune(pattern)
	for i := 0; i < len(p); i++ {
		if p[i] == '\\' && i+1 < len(p) {
			i++
		}
		sb.WriteRune(p[i])
	}
	return sb.String()
}
