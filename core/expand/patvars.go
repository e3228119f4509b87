package expand

import (
	"strings"

	"github.com/josephlewis42/honeybash/core/pattern"
)

// Env supplies variable values.
type Env interface {
	Get(name string) string
}

// Expander is implemented by environments that can expand any parameter or
// arithmetic expansion from its source text, such as "${x%.*}".
type Expander interface {
	ExpandText(src string) (string, error)
}

// Exec runs the command of a command substitution and returns its output.
type Exec func(cmd string) (string, error)

// PatternVars substitutes the variables inside an uncompiled pattern.
// Command substitutions are left as they are.
func PatternVars(pat string, env Env) string {
	out, _ := patternVars(pat, env, nil)
	return out
}

// PatternVarsExec is PatternVars with command substitutions run by exec.
//
// Single quoted text is kept and glob escaped. Double quoted text has its
// expansions performed and the result glob escaped. Unquoted expansions are
// inserted raw so their value still acts as glob syntax, and backslash
// escapes are preserved for the pattern compiler.
func PatternVarsExec(pat string, env Env, exec Exec) (string, error) {
	return patternVars(pat, env, exec)
}

func patternVars(pat string, env Env, exec Exec) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(pat); {
		switch c := pat[i]; c {
		case '\\':
			end := i + 2
			if end > len(pat) {
				end = len(pat)
			}
			sb.WriteString(pat[i:end])
			i = end

		case '\'':
			end := strings.IndexByte(pat[i+1:], '\'')
			if end < 0 {
				sb.WriteString(pattern.QuoteMeta(pat[i:]))
				return sb.String(), nil
			}
			sb.WriteString(pattern.QuoteMeta(pat[i+1 : i+1+end]))
			i += end + 2

		case '"':
			end := closingQuote(pat, i+1)
			inner, err := expandQuoted(pat[i+1:end], env, exec)
			if err != nil {
				return "", err
			}
			sb.WriteString(pattern.QuoteMeta(inner))
			i = end + 1

		case '$', '`':
			val, n, err := expansion(pat[i:], env, exec)
			if err != nil {
				return "", err
			}
			sb.WriteString(val)
			i += n

		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// closingQuote finds the double quote ending a span starting at from, or
// len(s) if there is none.
func closingQuote(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		case '$':
			if i+1 < len(s) && (s[i+1] == '(' || s[i+1] == '{') {
				if n := construct(s[i:]); n > 0 {
					i += n - 1
				}
			}
		}
	}
	return len(s)
}

func expandQuoted(s string, env Env, exec Exec) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && strings.IndexByte("\"\\$`", s[i+1]) >= 0:
			sb.WriteByte(s[i+1])
			i += 2
		case c == '$' || c == '`':
			val, n, err := expansion(s[i:], env, exec)
			if err != nil {
				return "", err
			}
			sb.WriteString(val)
			i += n
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// expansion expands the construct at the start of s and reports how many
// bytes it used.
func expansion(s string, env Env, exec Exec) (string, int, error) {
	if s[0] == '`' {
		end := strings.IndexByte(s[1:], '`')
		if end < 0 {
			return s, len(s), nil
		}
		return commandSubst(s[:end+2], s[1:end+1], exec)
	}

	if len(s) < 2 {
		return s, len(s), nil
	}
	switch next := s[1]; {
	case next == '{':
		n := construct(s)
		if n < 0 {
			return s, len(s), nil
		}
		inner := s[2 : n-1]
		if isSimpleParam(inner) {
			return env.Get(inner), n, nil
		}
		if ex, ok := env.(Expander); ok {
			val, err := ex.ExpandText(s[:n])
			return val, n, err
		}
		return s[:n], n, nil

	case next == '(':
		n := construct(s)
		if n < 0 {
			return s, len(s), nil
		}
		if strings.HasPrefix(s, "$((") {
			if ex, ok := env.(Expander); ok {
				val, err := ex.ExpandText(s[:n])
				return val, n, err
			}
			return s[:n], n, nil
		}
		return commandSubst(s[:n], s[2:n-1], exec)

	case isNameStart(next):
		j := 2
		for j < len(s) && isNameChar(s[j]) {
			j++
		}
		return env.Get(s[1:j]), j, nil

	case strings.IndexByte("0123456789?#$!@*-", next) >= 0:
		return env.Get(s[1:2]), 2, nil
	}
	return "$", 1, nil
}

func commandSubst(src, cmd string, exec Exec) (string, int, error) {
	if exec == nil {
		return src, len(src), nil
	}
	out, err := exec(cmd)
	if err != nil {
		return "", len(src), err
	}
	return strings.TrimRight(out, "\n"), len(src), nil
}

// construct returns the length of the ${...}, $(...) or $((...)) at the
// start of s, or -1 if it is unterminated.
func construct(s string) int {
	opener, closer := s[1], byte('}')
	if opener == '(' {
		closer = ')'
	}
	depth := 0
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '\'':
			if opener == '(' {
				if end := strings.IndexByte(s[i+1:], '\''); end >= 0 {
					i += end + 1
				}
			}
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func isSimpleParam(s string) bool {
	if len(s) == 1 && strings.IndexByte("0123456789?#$!@*-", s[0]) >= 0 {
		return true
	}
	base := s
	if idx := strings.IndexByte(s, '['); idx > 0 && strings.HasSuffix(s, "]") {
		base = s[:idx]
	}
	if base == "" || !isNameStart(base[0]) {
		for _, c := range []byte(base) {
			if c < '0' || c > '9' {
				return false
			}
		}
		return base != ""
	}
	for i := 1; i < len(base); i++ {
		if !isNameChar(base[i]) {
			return false
		}
	}
	return true
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}
