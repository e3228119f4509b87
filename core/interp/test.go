package interp

import (
	"os"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/pattern"
	"github.com/spf13/afero"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/syntax"
)

// errBadRegex marks an =~ pattern that doesn't compile, status 2.
type errBadRegex struct{}

func (errBadRegex) Error() string { return "invalid regular expression" }

// testClause runs [[ expr ]].
func (r *Runner) testClause(c *syntax.TestClause) (flow.Result, error) {
	r.traceLine("[[ " + r.text(c.X) + " ]]")
	ok, err := r.test(c.X)
	if _, bad := err.(errBadRegex); bad {
		return flow.Result{ExitCode: 2}, nil
	}
	if err != nil {
		return flow.Result{}, err
	}
	return flow.Result{ExitCode: boolInt(!ok)}, nil
}

func (r *Runner) test(expr syntax.TestExpr) (bool, error) {
	switch x := expr.(type) {
	case *syntax.Word:
		s, err := r.literal(x)
		return s != "", err
	case *syntax.ParenTest:
		return r.test(x.X)
	case *syntax.UnaryTest:
		return r.unaryTest(x)
	case *syntax.BinaryTest:
		return r.binaryTest(x)
	}
	return false, nil
}

func (r *Runner) operand(expr syntax.TestExpr) (string, error) {
	if w, ok := expr.(*syntax.Word); ok {
		return r.literal(w)
	}
	return r.text(expr), nil
}

func (r *Runner) unaryTest(x *syntax.UnaryTest) (bool, error) {
	if x.Op == syntax.TsNot {
		ok, err := r.test(x.X)
		return !ok, err
	}
	arg, err := r.operand(x.X)
	if err != nil {
		return false, err
	}

	switch x.Op {
	case syntax.TsEmpStr:
		return arg == "", nil
	case syntax.TsNempStr:
		return arg != "", nil
	case syntax.TsVarSet:
		return r.vars.IsSet(arg), nil
	case syntax.TsRefVar:
		_, ok := r.vars.NamerefTarget(arg)
		return ok, nil
	case syntax.TsOptSet:
		on, err := r.opts.Get(arg)
		return err == nil && on, nil
	case syntax.TsFdTerm:
		switch arg {
		case "0":
			return term.IsTerminal(int(os.Stdin.Fd())), nil
		case "1":
			return term.IsTerminal(int(os.Stdout.Fd())), nil
		case "2":
			return term.IsTerminal(int(os.Stderr.Fd())), nil
		}
		return false, nil
	}

	p := r.resolve(arg)
	if x.Op == syntax.TsSmbLink {
		if lst, ok := r.fs.(afero.Lstater); ok {
			info, _, err := lst.LstatIfPossible(p)
			return err == nil && info.Mode()&os.ModeSymlink != 0, nil
		}
		return false, nil
	}

	info, err := r.fs.Stat(p)
	if err != nil {
		return false, nil
	}
	mode := info.Mode()
	switch x.Op {
	case syntax.TsExists, syntax.TsGrpOwn, syntax.TsUsrOwn, syntax.TsModif:
		return true, nil
	case syntax.TsRegFile:
		return mode.IsRegular(), nil
	case syntax.TsDirect:
		return mode.IsDir(), nil
	case syntax.TsCharSp:
		return mode&os.ModeCharDevice != 0, nil
	case syntax.TsBlckSp:
		return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0, nil
	case syntax.TsNmPipe:
		return mode&os.ModeNamedPipe != 0, nil
	case syntax.TsSocket:
		return mode&os.ModeSocket != 0, nil
	case syntax.TsSticky:
		return mode&os.ModeSticky != 0, nil
	case syntax.TsGIDSet:
		return mode&os.ModeSetgid != 0, nil
	case syntax.TsUIDSet:
		return mode&os.ModeSetuid != 0, nil
	case syntax.TsRead:
		return mode.Perm()&0444 != 0, nil
	case syntax.TsWrite:
		return mode.Perm()&0222 != 0, nil
	case syntax.TsExec:
		return mode.Perm()&0111 != 0, nil
	case syntax.TsNoEmpty:
		return info.Size() > 0, nil
	}
	return false, nil
}

func (r *Runner) binaryTest(x *syntax.BinaryTest) (bool, error) {
	switch x.Op {
	case syntax.AndTest, syntax.OrTest:
		left, err := r.test(x.X)
		if err != nil || left == (x.Op == syntax.OrTest) {
			return left, err
		}
		return r.test(x.Y)
	}

	left, err := r.operand(x.X)
	if err != nil {
		return false, err
	}

	switch x.Op {
	case syntax.TsMatch, syntax.TsMatchShort, syntax.TsNoMatch:
		w, _ := x.Y.(*syntax.Word)
		pat, err := r.patternString(w)
		if err != nil {
			return false, err
		}
		matched := pattern.Match(pat, left, pattern.Options{
			Extglob:    true,
			IgnoreCase: r.opts.ShoptEnabled(options.Nocasematch),
			Warnf:      r.warnf,
		})
		return matched == (x.Op != syntax.TsNoMatch), nil

	case syntax.TsReMatch:
		return r.regexMatch(left, x.Y)
	}

	right, err := r.operand(x.Y)
	if err != nil {
		return false, err
	}

	switch x.Op {
	case syntax.TsBefore:
		return left < right, nil
	case syntax.TsAfter:
		return left > right, nil
	case syntax.TsNewer, syntax.TsOlder:
		a, errA := r.fs.Stat(r.resolve(left))
		b, errB := r.fs.Stat(r.resolve(right))
		if x.Op == syntax.TsOlder {
			a, errA, b, errB = b, errB, a, errA
		}
		switch {
		case errA != nil:
			return false, nil
		case errB != nil:
			return true, nil
		}
		return a.ModTime().After(b.ModTime()), nil
	case syntax.TsDevIno:
		_, errA := r.fs.Stat(r.resolve(left))
		_, errB := r.fs.Stat(r.resolve(right))
		return errA == nil && errB == nil && r.resolve(left) == r.resolve(right), nil
	}

	a, err := r.arithText(left)
	if err != nil {
		return false, err
	}
	b, err := r.arithText(right)
	if err != nil {
		return false, err
	}
	switch x.Op {
	case syntax.TsEql:
		return a == b, nil
	case syntax.TsNeq:
		return a != b, nil
	case syntax.TsLss:
		return a < b, nil
	case syntax.TsLeq:
		return a <= b, nil
	case syntax.TsGtr:
		return a > b, nil
	case syntax.TsGeq:
		return a >= b, nil
	}
	return false, nil
}

// regexMatch implements =~. Quoted parts of the pattern match literally.
// Capture groups are stored in BASH_REMATCH.
func (r *Runner) regexMatch(s string, expr syntax.TestExpr) (bool, error) {
	var src strings.Builder
	if w, ok := expr.(*syntax.Word); ok {
		frags, err := r.wordFragments(w, modeScalar)
		if err != nil {
			return false, err
		}
		for _, f := range frags {
			if f.Quoted {
				src.WriteString(regexp2.Escape(f.Text))
			} else {
				src.WriteString(f.Text)
			}
		}
	} else {
		src.WriteString(r.text(expr))
	}

	flags := regexp2.None | regexp2.RE2
	if r.opts.ShoptEnabled(options.Nocasematch) {
		flags |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(src.String(), flags)
	if err != nil {
		return false, errBadRegex{}
	}
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		_ = r.vars.SetArray("BASH_REMATCH", nil)
		return false, nil
	}

	var groups []string
	for _, g := range m.Groups() {
		groups = append(groups, g.String())
	}
	if err := r.vars.SetArray("BASH_REMATCH", groups); err != nil {
		return false, err
	}
	return true, nil
}
