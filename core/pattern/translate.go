// Package pattern translates shell glob and extglob patterns into anchored
// regular expressions and matches them against strings and paths.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// posixClasses maps [:name:] to the body of a regex character class.
var posixClasses = map[string]string{
	"alpha":  `a-zA-Z`,
	"digit":  `0-9`,
	"alnum":  `a-zA-Z0-9`,
	"upper":  `A-Z`,
	"lower":  `a-z`,
	"space":  ` \t\n\r\f\v`,
	"blank":  ` \t`,
	"punct":  `\x21-\x2F\x3A-\x40\x5B-\x60\x7B-\x7E`,
	"print":  `\x20-\x7E`,
	"graph":  `\x21-\x7E`,
	"cntrl":  `\x00-\x1F\x7F`,
	"xdigit": `0-9A-Fa-f`,
	"word":   `a-zA-Z0-9_`,
}

type mode int

const (
	// filenameMode lets * and ? match any character including '/'.
	filenameMode mode = iota
	// excludeMode keeps * and ? inside a single path component.
	excludeMode
)

// ToRegex converts a glob pattern into an anchored regular expression where
// wildcards may match any character, path separators included.
func ToRegex(pattern string, extglob bool) string {
	return translate(pattern, extglob, filenameMode)
}

// ToExcludeRegex converts a glob pattern for ignore-list filtering, in this
// mode wildcards never cross a '/'.
func ToExcludeRegex(pattern string, extglob bool) string {
	return translate(pattern, extglob, excludeMode)
}

func translate(pattern string, extglob bool, m mode) string {
	t := translator{extglob: extglob, mode: m}
	return `(?s)\A(?:` + t.body([]rune(pattern), `\z`) + `)\z`
}

type translator struct {
	extglob bool
	mode    mode
}

func (t translator) any() string {
	if t.mode == excludeMode {
		return `[^/]`
	}
	return `.`
}

// body translates p. tail is the regex that follows p in the enclosing
// expression, it anchors the lookahead emitted for !(...).
func (t translator) body(p []rune, tail string) string {
	var sb strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]

		if t.extglob && isExtOp(c) && i+1 < len(p) && p[i+1] == '(' {
			if end := closeParen(p, i+1); end >= 0 {
				alts := splitAlternatives(p[i+2 : end])
				sb.WriteString(t.group(c, alts, p[end+1:], tail))
				i = end
				continue
			}
		}

		switch c {
		case '*':
			for i+1 < len(p) && p[i+1] == '*' {
				i++
			}
			sb.WriteString(t.any() + "*")
		case '?':
			sb.WriteString(t.any())
		case '[':
			if class, end, ok := bracket(p, i); ok {
				sb.WriteString(class)
				i = end
			} else {
				sb.WriteString(`\[`)
			}
		case '\\':
			if i+1 < len(p) {
				i++
				sb.WriteString(quoteRune(p[i]))
			} else {
				sb.WriteString(`\\`)
			}
		default:
			sb.WriteString(quoteRune(c))
		}
	}
	return sb.String()
}

func (t translator) group(op rune, alts [][]rune, rest []rune, tail string) string {
	parts := make([]string, len(alts))
	for i, alt := range alts {
		parts[i] = t.body(alt, "")
	}
	alt := "(?:" + strings.Join(parts, "|") + ")"

	switch op {
	case '*':
		return alt + "*"
	case '+':
		return alt + "+"
	case '?':
		return alt + "?"
	case '!':
		if n, ok := fixedAlternatives(alts, t.extglob); ok {
			return t.fixedNegation(alt, n)
		}
		return "(?:(?!" + alt + t.body(rest, tail) + tail + ")" + t.any() + "*?)"
	default:
		return alt
	}
}

// fixedNegation matches any string that alt cannot match given that alt
// only ever matches strings of exactly n characters.
func (t translator) fixedNegation(alt string, n int) string {
	dot := t.any()
	if n == 0 {
		return "(?:" + dot + "+)"
	}
	return fmt.Sprintf("(?:(?!%s)%s{%d}|%s{0,%d}|%s{%d,})", alt, dot, n, dot, n-1, dot, n+1)
}

func isExtOp(c rune) bool {
	switch c {
	case '@', '*', '+', '?', '!':
		return true
	}
	return false
}

// closeParen returns the index of the ')' matching the '(' at open, or -1.
func closeParen(p []rune, open int) int {
	depth := 0
	for i := open; i < len(p); i++ {
		switch p[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitAlternatives splits an extglob body on top level '|'.
func splitAlternatives(p []rune) [][]rune {
	var out [][]rune
	depth, start := 0, 0
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				out = append(out, p[start:i])
				start = i + 1
			}
		}
	}
	return append(out, p[start:])
}

// bracket translates the bracket expression opening at p[start]. It returns
// the regex class, the index of the closing ']' and whether the expression
// was well formed.
func bracket(p []rune, start int) (string, int, bool) {
	var sb strings.Builder
	sb.WriteString("[")

	i := start + 1
	if i < len(p) && (p[i] == '!' || p[i] == '^') {
		sb.WriteString("^")
		i++
	}

	for first := true; i < len(p); i, first = i+1, false {
		c := p[i]
		switch {
		case c == ']' && !first:
			sb.WriteString("]")
			return sb.String(), i, true
		case c == '[' && i+1 < len(p) && p[i+1] == ':':
			end := indexFrom(p, i+2, ":]")
			if end < 0 {
				sb.WriteString(`\[`)
				continue
			}
			class, ok := posixClasses[string(p[i+2:end])]
			if !ok {
				return "", start, false
			}
			sb.WriteString(class)
			i = end + 1
		case c == '\\' && i+1 < len(p):
			i++
			sb.WriteString(quoteClassRune(p[i], true))
		default:
			sb.WriteString(quoteClassRune(c, false))
		}
	}

	return "", start, false
}

func indexFrom(p []rune, from int, needle string) int {
	if from > len(p) {
		return -1
	}
	idx := strings.Index(string(p[from:]), needle)
	if idx < 0 {
		return -1
	}
	return from + len([]rune(string(p[from:])[:idx]))
}

func quoteRune(c rune) string {
	return regexp.QuoteMeta(string(c))
}

func quoteClassRune(c rune, literalDash bool) string {
	switch c {
	case '\\', ']', '[', '^':
		return `\` + string(c)
	case '-':
		if literalDash {
			return `\-`
		}
	}
	return string(c)
}
