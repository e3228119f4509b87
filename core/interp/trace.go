package interp

import (
	"path"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/commands"
	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/logger"
	"github.com/josephlewis42/honeybash/core/options"
)

const defaultPS4 = "+ "

// traceSpecial lists the characters that make xtrace quote a word.
const traceSpecial = " \t\n'\"\\$`|&;<>()*?[]{}~#!"

// quoteTrace quotes a word the way xtrace prints it.
func quoteTrace(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, traceSpecial) {
		return s
	}
	return shellQuote(s)
}

// trace writes an xtrace line for the words of a command.
func (r *Runner) trace(words []string) {
	if len(words) > 0 {
		r.traceLine(strings.Join(words, " "))
	}
}

func (r *Runner) traceArith(expr string) {
	r.traceLine("(( " + expr + " ))")
}

// traceLine writes an xtrace line for a command printed as written.
func (r *Runner) traceLine(line string) {
	if !r.opts.Enabled(options.Xtrace) {
		return
	}
	r.pending.WriteString(r.ps4() + line + "\n")
	r.record(logger.EventXtrace, map[string]interface{}{"line": line})
}

// ps4 expands the xtrace prefix. Its first character is repeated once per
// subshell level.
func (r *Runner) ps4() string {
	ps4, ok := r.vars.Lookup(commands.EnvPS4)
	if !ok {
		ps4 = defaultPS4
	}
	// tracing is off while PS4 itself is expanded
	r.opts.Enable(options.Xtrace, false)
	defer r.opts.Enable(options.Xtrace, true)
	expanded, err := r.expandString(ps4)
	if err == nil {
		ps4 = expanded
	}
	if ps4 != "" && r.subshell > 0 {
		ps4 = strings.Repeat(ps4[:1], r.subshell) + ps4
	}
	return ps4
}

// expandString performs parameter, command and arithmetic expansion on s
// as if it were inside double quotes.
func (r *Runner) expandString(s string) (string, error) {
	if !strings.ContainsAny(s, "$`") {
		return s, nil
	}
	w, err := r.parser.Document(strings.NewReader(s))
	if err != nil {
		return s, err
	}
	var out string
	_, err = r.withSource(s, func() (flow.Result, error) {
		frags, err := r.wordFragments(w, modeHeredoc)
		if err != nil {
			return flow.Result{}, err
		}
		var sb strings.Builder
		for _, f := range frags {
			sb.WriteString(f.Text)
		}
		out = sb.String()
		return flow.Result{}, nil
	})
	return out, err
}

// Prompt expands the backslash escapes of a prompt string like PS1 and
// then, under promptvars, its parameter expansions.
func (r *Runner) Prompt(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'u':
			sb.WriteString(r.userName())
		case 'h', 'H':
			host := r.vars.Get("HOSTNAME")
			if host == "" {
				host = "localhost"
			}
			if e == 'h' {
				host = strings.SplitN(host, ".", 2)[0]
			}
			sb.WriteString(host)
		case 'w':
			sb.WriteString(r.tildeDir())
		case 'W':
			if dir := r.tildeDir(); dir == "~" || dir == "/" {
				sb.WriteString(dir)
			} else {
				sb.WriteString(path.Base(dir))
			}
		case '$':
			if r.userName() == "root" {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('$')
			}
		case 's':
			sb.WriteString("bash")
		case 'v', 'V':
			sb.WriteString("5.1")
		case 'n':
			sb.WriteByte('\n')
		case 'a':
			sb.WriteByte('\a')
		case 'e':
			sb.WriteByte(0x1b)
		case '[', ']':
		case '\\':
			sb.WriteByte('\\')
		case '0', '1', '2', '3':
			end := i + 1
			for end < len(s) && end < i+3 && s[end] >= '0' && s[end] <= '7' {
				end++
			}
			if n, err := strconv.ParseUint(s[i:end], 8, 8); err == nil {
				sb.WriteByte(byte(n))
				i = end - 1
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}

	out := sb.String()
	if r.opts.ShoptEnabled("promptvars") {
		if expanded, err := r.expandString(out); err == nil {
			out = expanded
		}
	}
	return out
}

func (r *Runner) userName() string {
	if user := r.vars.Get("USER"); user != "" {
		return user
	}
	return "root"
}

// tildeDir is the working directory with $HOME abbreviated to ~.
func (r *Runner) tildeDir() string {
	dir := r.dir
	home := r.vars.Get(commands.EnvHome)
	if home != "" && home != "/" && (dir == home || strings.HasPrefix(dir, home+"/")) {
		return "~" + strings.TrimPrefix(dir, home)
	}
	return dir
}
