package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/commands"
	"github.com/josephlewis42/honeybash/core/expand"
	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/ifs"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/pattern"
	shexpand "mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

type quoteMode int

const (
	modeUnquoted quoteMode = iota
	modeDquote
	modeHeredoc
	// modeScalar is unquoted text that is never split, where arrays join.
	modeScalar
)

func (m quoteMode) quoted() bool {
	return m == modeDquote || m == modeHeredoc
}

// maxBraceWords caps the number of words one brace expansion may produce.
const maxBraceWords = 100000

// ifsChars returns the field separators, the default set when IFS is unset.
func (r *Runner) ifsChars() string {
	if v, ok := r.vars.Lookup(commands.EnvIFS); ok {
		return v
	}
	return ifs.Default
}

// fields fully expands words into arguments: brace expansion, parameter,
// command and arithmetic expansion, field splitting, pathname expansion and
// quote removal.
func (r *Runner) fields(words ...*syntax.Word) ([]string, error) {
	var out []string
	for _, w := range words {
		expanded, err := r.braces(w)
		if err != nil {
			return nil, err
		}
		for _, bw := range expanded {
			frags, err := r.wordFragments(bw, modeUnquoted)
			if err != nil {
				return nil, err
			}
			extglob := r.opts.ShoptEnabled(options.Extglob)
			for _, f := range expand.SplitFragments(frags, r.ifsChars(), extglob) {
				if !f.Glob || r.opts.Enabled(options.Noglob) {
					out = append(out, f.Value)
					continue
				}
				matches, err := r.glob(f)
				if err != nil {
					return nil, err
				}
				out = append(out, matches...)
			}
		}
	}
	return out, nil
}

// literal expands w into a single string without splitting or globbing, as
// for assignments, case words and redirection targets.
func (r *Runner) literal(w *syntax.Word) (string, error) {
	if w == nil {
		return "", nil
	}
	frags, err := r.wordFragments(w, modeScalar)
	if err != nil {
		return "", err
	}
	return expand.JoinFragments(frags, false).Value, nil
}

func (r *Runner) braces(w *syntax.Word) ([]*syntax.Word, error) {
	if !r.opts.Enabled(options.Braceexpand) {
		return []*syntax.Word{w}, nil
	}
	cp := &syntax.Word{Parts: append([]syntax.WordPart(nil), w.Parts...)}
	if !syntax.SplitBraces(cp) {
		return []*syntax.Word{w}, nil
	}
	if braceCount(cp.Parts) > maxBraceWords {
		return nil, flow.NewError(flow.BraceExpansion, fmt.Sprintf("%s: brace expansion produces too many words", r.text(w)))
	}
	return shexpand.Braces(cp), nil
}

// braceCount estimates the words a split word expands to, saturating just
// above maxBraceWords.
func braceCount(parts []syntax.WordPart) int {
	total := 1
	for _, part := range parts {
		br, ok := part.(*syntax.BraceExp)
		if !ok {
			continue
		}
		n := 0
		if br.Sequence {
			n = sequenceLength(br)
		} else {
			for _, el := range br.Elems {
				n += braceCount(el.Parts)
			}
		}
		if n > 0 && total > maxBraceWords/n {
			return maxBraceWords + 1
		}
		total *= n
	}
	return total
}

func sequenceLength(br *syntax.BraceExp) int {
	if len(br.Elems) < 2 {
		return 1
	}
	from, err1 := strconv.Atoi(br.Elems[0].Lit())
	to, err2 := strconv.Atoi(br.Elems[1].Lit())
	if err1 != nil || err2 != nil {
		a, b := br.Elems[0].Lit(), br.Elems[1].Lit()
		if a == "" || b == "" {
			return 1
		}
		from, to = int(a[0]), int(b[0])
	}
	step := 1
	if len(br.Elems) > 2 {
		if n, err := strconv.Atoi(br.Elems[2].Lit()); err == nil && n != 0 {
			step = n
		}
	}
	if step < 0 {
		step = -step
	}
	span := to - from
	if span < 0 {
		span = -span
	}
	return span/step + 1
}

// wordFragments expands the parts of w.
func (r *Runner) wordFragments(w *syntax.Word, mode quoteMode) ([]expand.Fragment, error) {
	frags, _, err := r.partFragments(w.Parts, mode, !mode.quoted())
	return frags, err
}

// partFragments expands word parts. atList reports whether a "$@" style
// expansion took part, which decides if "" is an empty field.
func (r *Runner) partFragments(parts []syntax.WordPart, mode quoteMode, wordStart bool) (out []expand.Fragment, atList bool, err error) {
	quoted := mode.quoted()
	for i, part := range parts {
		switch p := part.(type) {
		case *syntax.Lit:
			value := p.Value
			if i == 0 && wordStart {
				var tilde []expand.Fragment
				tilde, value = r.tilde(value, len(parts) == 1)
				out = append(out, tilde...)
			}
			out = append(out, litFragments(value, mode)...)

		case *syntax.SglQuoted:
			value := p.Value
			switch {
			case p.Dollar:
				value = commands.UnescapeANSIC(value)
			case mode == modeDquote:
				// single quotes inside "${x:-'y'}" are literal
				value = "'" + value + "'"
			}
			out = append(out, expand.Fragment{Text: value, Quoted: true})

		case *syntax.DblQuoted:
			inner, at, err := r.partFragments(p.Parts, modeDquote, false)
			if err != nil {
				return nil, false, err
			}
			if !at {
				out = append(out, expand.Fragment{Quoted: true})
			}
			out = append(out, inner...)
			atList = atList || at

		case *syntax.ParamExp:
			frags, at, err := r.paramFragments(p, quoted, mode == modeScalar)
			if err != nil {
				return nil, false, err
			}
			out = append(out, frags...)
			atList = atList || at

		case *syntax.CmdSubst:
			text, err := r.cmdSubst(p.Stmts)
			if err != nil {
				return nil, false, err
			}
			out = append(out, valueFragment(text, quoted))

		case *syntax.ArithmExp:
			n, err := r.arith(p.X)
			if err != nil {
				return nil, false, err
			}
			out = append(out, valueFragment(strconv.Itoa(n), quoted))

		case *syntax.ExtGlob:
			out = append(out, expand.Fragment{Text: p.Op.String() + p.Pattern.Value + ")"})

		default:
			return nil, false, fmt.Errorf("%s: unsupported expansion", r.text(part))
		}
	}
	return out, atList, nil
}

// valueFragment wraps the result of an expansion. Only unquoted results are
// subject to field splitting.
func valueFragment(text string, quoted bool) expand.Fragment {
	if quoted {
		return expand.Fragment{Text: text, Quoted: true}
	}
	return expand.Fragment{Text: text, Split: true}
}

// litFragments performs backslash quote removal on literal text.
func litFragments(s string, mode quoteMode) []expand.Fragment {
	var out []expand.Fragment
	var run strings.Builder
	quoted := mode.quoted()
	flush := func() {
		if run.Len() > 0 {
			out = append(out, expand.Fragment{Text: run.String(), Quoted: quoted})
			run.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			run.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch mode {
		case modeUnquoted, modeScalar:
			flush()
			i++
			if next != '\n' {
				out = append(out, expand.Fragment{Text: string(next), Quoted: true})
			}
			continue
		case modeDquote:
			if strings.IndexByte("$`\"\\", next) >= 0 {
				run.WriteByte(next)
				i++
				continue
			}
		case modeHeredoc:
			if strings.IndexByte("$`\\", next) >= 0 {
				run.WriteByte(next)
				i++
				continue
			}
		}
		if next == '\n' {
			i++
			continue
		}
		run.WriteByte(c)
	}
	flush()
	return out
}

// tilde expands a leading ~, ~+ or ~- and returns the rest of the literal.
func (r *Runner) tilde(lit string, whole bool) ([]expand.Fragment, string) {
	if !strings.HasPrefix(lit, "~") {
		return nil, lit
	}
	prefix, rest := lit, ""
	if i := strings.IndexByte(lit, '/'); i >= 0 {
		prefix, rest = lit[:i], lit[i:]
	} else if !whole {
		return nil, lit
	}

	var name string
	switch prefix {
	case "~":
		name = commands.EnvHome
	case "~+":
		name = commands.EnvPWD
	case "~-":
		name = commands.EnvOldPWD
	default:
		return nil, lit
	}
	value, ok := r.vars.Lookup(name)
	if !ok {
		return nil, lit
	}
	return []expand.Fragment{{Text: value, Quoted: true}}, rest
}

// glob expands a field containing glob syntax against the filesystem.
func (r *Runner) glob(f expand.Field) ([]string, error) {
	opts := pattern.GlobOptions{
		Extglob:    r.opts.ShoptEnabled(options.Extglob),
		DotGlob:    r.opts.ShoptEnabled(options.Dotglob),
		IgnoreCase: r.opts.ShoptEnabled(options.Nocaseglob),
		Dir:        r.dir,
	}
	if ignore, ok := r.vars.Lookup("GLOBIGNORE"); ok && ignore != "" {
		opts.Ignore = strings.Split(ignore, ":")
	}

	matches, err := pattern.Glob(r.fs, f.Pattern, opts)
	if err != nil {
		return []string{f.Value}, nil
	}
	if len(matches) > 0 {
		return matches, nil
	}
	switch {
	case r.opts.ShoptEnabled(options.Failglob):
		return nil, flow.NewError(flow.Glob, "no match: "+f.Value)
	case r.opts.ShoptEnabled(options.Nullglob):
		return nil, nil
	}
	return []string{f.Value}, nil
}

// cmdSubst runs a command substitution in a subshell and returns its output
// without trailing newlines. Its stderr goes straight to the statement.
func (r *Runner) cmdSubst(stmts []*syntax.Stmt) (string, error) {
	res := r.runSubshell(func(sub *Runner) (flow.Result, error) {
		if !sub.opts.ShoptEnabled("inherit_errexit") && !sub.opts.Enabled(options.Posix) {
			sub.opts.Enable(options.Errexit, false)
		}
		return sub.stmts(stmts)
	})
	r.pending.WriteString(res.Stderr)
	r.substStatus = res.ExitCode
	r.vars.Status = res.ExitCode
	return strings.TrimRight(res.Stdout, "\n"), nil
}

// cmdSubstText parses and runs the text of a command substitution.
func (r *Runner) cmdSubstText(src string) (string, error) {
	file, err := r.parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return "", fmt.Errorf("command substitution: %v", err)
	}
	var out string
	_, err = r.withSource(src, func() (flow.Result, error) {
		var err error
		out, err = r.cmdSubst(file.Stmts)
		return flow.Result{}, err
	})
	return out, err
}

// patternString expands the variables in a pattern word while keeping its
// quoting meaningful to the pattern compiler.
func (r *Runner) patternString(w *syntax.Word) (string, error) {
	if w == nil {
		return "", nil
	}
	return r.patternText(r.text(w))
}

// patternEnv resolves the expansions embedded in patterns.
type patternEnv struct {
	r *Runner
}

func (e patternEnv) Get(name string) string {
	return e.r.vars.Get(name)
}

// ExpandText expands a ${...} or $((...)) construct from its source.
func (e patternEnv) ExpandText(src string) (string, error) {
	w, err := e.r.parser.Document(strings.NewReader(src))
	if err != nil {
		return "", flow.NewError(flow.BadSubstitution, fmt.Sprintf("%s: bad substitution", src))
	}
	var out string
	_, err = e.r.withSource(src, func() (flow.Result, error) {
		var err error
		out, err = e.r.literal(w)
		return flow.Result{}, err
	})
	return out, err
}
