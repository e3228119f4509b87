package commands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/josephlewis42/honeybash/core/options"
)

var simpleEscapes = map[byte]string{
	'a':  "\a",
	'b':  "\b",
	'e':  "\x1b",
	'E':  "\x1b",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'v':  "\v",
	'\\': `\`,
}

// readDigits reads up to max digits of the given base from s starting at i.
func readDigits(s string, i, max, base int) (value int64, end int) {
	end = i
	for end < len(s) && end-i < max && digitIn(s[end], base) {
		end++
	}
	if end == i {
		return 0, i
	}
	value, _ = strconv.ParseInt(s[i:end], base, 64)
	return value, end
}

func digitIn(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '7':
		return true
	case c == '8' || c == '9':
		return base > 8
	case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return base == 16
	}
	return false
}

func writeCodepoint(sb *strings.Builder, n int64) {
	if n > utf8.MaxRune {
		n = utf8.RuneError
	}
	sb.WriteRune(rune(n))
}

// unescapeCommon handles the escapes shared by echo -e and $'...'. It
// returns false when s[i] doesn't start one of them.
func unescapeCommon(sb *strings.Builder, s string, i int) (next int, ok bool) {
	c := s[i]
	if rep, found := simpleEscapes[c]; found {
		sb.WriteString(rep)
		return i + 1, true
	}
	switch c {
	case 'x':
		n, end := readDigits(s, i+1, 2, 16)
		if end == i+1 {
			return i, false
		}
		sb.WriteByte(byte(n))
		return end, true
	case 'u', 'U':
		max := 4
		if c == 'U' {
			max = 8
		}
		n, end := readDigits(s, i+1, max, 16)
		if end == i+1 {
			return i, false
		}
		writeCodepoint(sb, n)
		return end, true
	}
	return i, false
}

// Unescape interprets the backslash escapes understood by echo -e. Octal
// values are written \0nnn. stop reports a \c, which ends all output.
func Unescape(s string) (out string, stop bool) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		if s[i] == 'c' {
			return sb.String(), true
		}
		if s[i] == '0' {
			n, end := readDigits(s, i+1, 3, 8)
			sb.WriteByte(byte(n))
			i = end - 1
			continue
		}
		if next, ok := unescapeCommon(&sb, s, i); ok {
			i = next - 1
			continue
		}
		sb.WriteByte('\\')
		sb.WriteByte(s[i])
	}
	return sb.String(), false
}

// UnescapeANSIC interprets the body of a $'...' string.
func UnescapeANSIC(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case '\'', '"', '?':
			sb.WriteByte(c)
			continue
		case 'c':
			if i+1 < len(s) {
				i++
				sb.WriteByte(s[i] & 0x1f)
				continue
			}
		}
		if s[i] >= '0' && s[i] <= '7' {
			n, end := readDigits(s, i, 3, 8)
			sb.WriteByte(byte(n))
			i = end - 1
			continue
		}
		if next, ok := unescapeCommon(&sb, s, i); ok {
			i = next - 1
			continue
		}
		sb.WriteByte('\\')
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// Echo implements the echo builtin. Only leading words made entirely of
// n, e and E flags are options.
func Echo(s Shell, args []string) int {
	newline := true
	escapes := s.Options().ShoptEnabled(options.XpgEcho)

	words := args[1:]
	for len(words) > 0 {
		arg := words[0]
		if len(arg) < 2 || arg[0] != '-' || strings.Trim(arg[1:], "neE") != "" {
			break
		}
		for _, f := range arg[1:] {
			switch f {
			case 'n':
				newline = false
			case 'e':
				escapes = true
			case 'E':
				escapes = false
			}
		}
		words = words[1:]
	}

	w := s.Stdout()
	for i, arg := range words {
		if i > 0 {
			fmt.Fprint(w, " ")
		}

		if escapes {
			var stop bool
			if arg, stop = Unescape(arg); stop {
				fmt.Fprint(w, arg)
				return 0
			}
		}

		fmt.Fprint(w, arg)
	}

	if newline {
		fmt.Fprintln(w)
	}

	return 0
}

func init() {
	simpleBuiltin("echo", Echo)
}
