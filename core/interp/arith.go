package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/vars"
	"mvdan.cc/sh/v3/syntax"
)

// maxArithDepth bounds the recursive evaluation of variables holding
// expressions, as in a=b b=a; echo $((a)).
const maxArithDepth = 1024

func arithError(format string, args ...interface{}) error {
	return flow.NewError(flow.Arithmetic, fmt.Sprintf(format, args...))
}

// arithText parses and evaluates an arithmetic expression.
func (r *Runner) arithText(src string) (int, error) {
	if strings.TrimSpace(src) == "" {
		return 0, nil
	}
	expr, err := r.parser.Arithmetic(strings.NewReader(src))
	if err != nil || expr == nil {
		return 0, arithError("%s: syntax error in expression (error token is %q)", src, strings.TrimSpace(src))
	}
	var n int
	_, err = r.withSource(src, func() (flow.Result, error) {
		var err error
		n, err = r.arith(expr)
		return flow.Result{}, err
	})
	return n, err
}

func (r *Runner) arith(expr syntax.ArithmExpr) (int, error) {
	r.arithDepth++
	defer func() { r.arithDepth-- }()
	if r.arithDepth > maxArithDepth {
		return 0, arithError("%s: expression recursion level exceeded", r.text(expr))
	}

	switch x := expr.(type) {
	case *syntax.Word:
		if lv, ok := r.lvalue(x); ok {
			return lv.get()
		}
		s, err := r.literal(x)
		if err != nil {
			return 0, err
		}
		return r.arithValue(s)

	case *syntax.ParenArithm:
		return r.arith(x.X)

	case *syntax.UnaryArithm:
		return r.unaryArith(x)

	case *syntax.BinaryArithm:
		return r.binaryArith(x)
	}
	return 0, arithError("%s: syntax error in expression", r.text(expr))
}

// arithValue converts a variable's value or an expanded word to a number.
// Values that aren't numbers are evaluated as expressions.
func (r *Runner) arithValue(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	r.arithDepth++
	defer func() { r.arithDepth-- }()
	if r.arithDepth > maxArithDepth {
		return 0, arithError("%s: expression recursion level exceeded", s)
	}
	if vars.ValidName(s) {
		lv := r.nameLvalue(s)
		return lv.get()
	}
	if c := s[0]; c >= '0' && c <= '9' {
		return parseArithNumber(s)
	}
	return r.arithText(s)
}

// parseArithNumber reads decimal, 0x hex, 0 octal and base#digits numbers.
func parseArithNumber(s string) (int, error) {
	base := 10
	digits := s
	switch {
	case strings.Contains(s, "#"):
		i := strings.IndexByte(s, '#')
		b, err := strconv.Atoi(s[:i])
		if err != nil || b < 2 || b > 64 {
			return 0, arithError("%s: invalid arithmetic base (error token is %q)", s, s)
		}
		base, digits = b, s[i+1:]
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, digits = 16, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, digits = 8, s[1:]
	}
	if digits == "" {
		return 0, arithError("%s: invalid number (error token is %q)", s, s)
	}

	n := 0
	for _, c := range digits {
		d := digitValue(c, base)
		if d < 0 {
			return 0, arithError("%s: value too great for base (error token is %q)", s, s)
		}
		n = n*base + d
	}
	return n, nil
}

func digitValue(c rune, base int) int {
	d := -1
	switch {
	case c >= '0' && c <= '9':
		d = int(c - '0')
	case c >= 'a' && c <= 'z':
		d = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		d = int(c-'A') + 10
		if base > 36 {
			d += 26
		}
	case c == '@':
		d = 62
	case c == '_':
		d = 63
	}
	if d >= base {
		return -1
	}
	return d
}

// lvalue is an assignable operand: a variable or an array element.
type lvalue struct {
	get func() (int, error)
	set func(int) error
}

func (r *Runner) nameLvalue(name string) lvalue {
	return lvalue{
		get: func() (int, error) {
			val, ok := r.vars.Lookup(name)
			if !ok {
				if err := r.checkNounset(&paramRef{name: name}, paramValue{}); err != nil {
					return 0, err
				}
				return 0, nil
			}
			if strings.TrimSpace(val) == name {
				return 0, nil
			}
			return r.arithValue(val)
		},
		set: func(n int) error {
			return r.vars.Set(name, strconv.Itoa(n))
		},
	}
}

// lvalue recognizes x and a[i] operands.
func (r *Runner) lvalue(w *syntax.Word) (lvalue, bool) {
	if name := w.Lit(); vars.ValidName(name) {
		return r.nameLvalue(name), true
	}
	if len(w.Parts) != 1 {
		return lvalue{}, false
	}
	pe, ok := w.Parts[0].(*syntax.ParamExp)
	if !ok || !pe.Short || pe.Index == nil || pe.Dollar != pe.Param.ValuePos {
		return lvalue{}, false
	}
	name := pe.Param.Value
	key := func() (string, error) {
		return r.subscript(name, pe.Index, false)
	}
	return lvalue{
		get: func() (int, error) {
			k, err := key()
			if err != nil {
				return 0, err
			}
			val, ok := r.vars.LookupKey(name, k)
			if !ok {
				return 0, r.checkNounset(&paramRef{name: name, index: pe.Index, key: k}, paramValue{})
			}
			return r.arithValue(val)
		},
		set: func(n int) error {
			k, err := key()
			if err != nil {
				return err
			}
			return r.vars.SetKey(name, k, strconv.Itoa(n))
		},
	}, true
}

func (r *Runner) assignable(x syntax.ArithmExpr) (lvalue, error) {
	if w, ok := x.(*syntax.Word); ok {
		if lv, ok := r.lvalue(w); ok {
			return lv, nil
		}
	}
	return lvalue{}, arithError("%s: attempted assignment to non-variable (error token is %q)", r.text(x), r.text(x))
}

func (r *Runner) unaryArith(x *syntax.UnaryArithm) (int, error) {
	switch x.Op {
	case syntax.Inc, syntax.Dec:
		lv, err := r.assignable(x.X)
		if err != nil {
			return 0, err
		}
		old, err := lv.get()
		if err != nil {
			return 0, err
		}
		n := old + 1
		if x.Op == syntax.Dec {
			n = old - 1
		}
		if err := lv.set(n); err != nil {
			return 0, err
		}
		if x.Post {
			return old, nil
		}
		return n, nil
	}

	n, err := r.arith(x.X)
	if err != nil {
		return 0, err
	}
	switch x.Op {
	case syntax.Not:
		return boolInt(n == 0), nil
	case syntax.BitNegation:
		return ^n, nil
	case syntax.Minus:
		return -n, nil
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *Runner) binaryArith(x *syntax.BinaryArithm) (int, error) {
	switch x.Op {
	case syntax.AndArit, syntax.OrArit:
		a, err := r.arith(x.X)
		if err != nil {
			return 0, err
		}
		if (a != 0) == (x.Op == syntax.OrArit) {
			return boolInt(a != 0), nil
		}
		b, err := r.arith(x.Y)
		return boolInt(b != 0), err

	case syntax.Comma:
		if _, err := r.arith(x.X); err != nil {
			return 0, err
		}
		return r.arith(x.Y)

	case syntax.TernQuest:
		cond, err := r.arith(x.X)
		if err != nil {
			return 0, err
		}
		branches, ok := x.Y.(*syntax.BinaryArithm)
		if !ok || branches.Op != syntax.TernColon {
			return 0, arithError("%s: `:' expected for conditional expression", r.text(x))
		}
		if cond != 0 {
			return r.arith(branches.X)
		}
		return r.arith(branches.Y)

	case syntax.Assgn, syntax.AddAssgn, syntax.SubAssgn, syntax.MulAssgn, syntax.QuoAssgn,
		syntax.RemAssgn, syntax.AndAssgn, syntax.OrAssgn, syntax.XorAssgn, syntax.ShlAssgn, syntax.ShrAssgn:
		return r.assignArith(x)
	}

	a, err := r.arith(x.X)
	if err != nil {
		return 0, err
	}
	b, err := r.arith(x.Y)
	if err != nil {
		return 0, err
	}
	return r.applyArith(x, x.Op, a, b)
}

var assignOps = map[syntax.BinAritOperator]syntax.BinAritOperator{
	syntax.AddAssgn: syntax.Add,
	syntax.SubAssgn: syntax.Sub,
	syntax.MulAssgn: syntax.Mul,
	syntax.QuoAssgn: syntax.Quo,
	syntax.RemAssgn: syntax.Rem,
	syntax.AndAssgn: syntax.And,
	syntax.OrAssgn:  syntax.Or,
	syntax.XorAssgn: syntax.Xor,
	syntax.ShlAssgn: syntax.Shl,
	syntax.ShrAssgn: syntax.Shr,
}

func (r *Runner) assignArith(x *syntax.BinaryArithm) (int, error) {
	lv, err := r.assignable(x.X)
	if err != nil {
		return 0, err
	}
	n, err := r.arith(x.Y)
	if err != nil {
		return 0, err
	}
	if op, ok := assignOps[x.Op]; ok {
		old, err := lv.get()
		if err != nil {
			return 0, err
		}
		if n, err = r.applyArith(x, op, old, n); err != nil {
			return 0, err
		}
	}
	return n, lv.set(n)
}

func (r *Runner) applyArith(x *syntax.BinaryArithm, op syntax.BinAritOperator, a, b int) (int, error) {
	switch op {
	case syntax.Add:
		return a + b, nil
	case syntax.Sub:
		return a - b, nil
	case syntax.Mul:
		return a * b, nil
	case syntax.Quo, syntax.Rem:
		if b == 0 {
			return 0, arithError("%s: division by 0 (error token is %q)", r.text(x), r.text(x.Y))
		}
		if op == syntax.Quo {
			return a / b, nil
		}
		return a % b, nil
	case syntax.Pow:
		if b < 0 {
			return 0, arithError("%s: exponent less than 0 (error token is %q)", r.text(x), r.text(x.Y))
		}
		return intPow(a, b), nil
	case syntax.Eql:
		return boolInt(a == b), nil
	case syntax.Neq:
		return boolInt(a != b), nil
	case syntax.Lss:
		return boolInt(a < b), nil
	case syntax.Leq:
		return boolInt(a <= b), nil
	case syntax.Gtr:
		return boolInt(a > b), nil
	case syntax.Geq:
		return boolInt(a >= b), nil
	case syntax.And:
		return a & b, nil
	case syntax.Or:
		return a | b, nil
	case syntax.Xor:
		return a ^ b, nil
	case syntax.Shl:
		return a << uint(b&63), nil
	case syntax.Shr:
		return a >> uint(b&63), nil
	}
	return 0, arithError("%s: syntax error in expression", r.text(x))
}

// arithmCmd runs ((expr)), which succeeds when expr is non-zero.
func (r *Runner) arithmCmd(c *syntax.ArithmCmd) (flow.Result, error) {
	r.traceArith(r.text(c.X))
	n, err := r.arith(c.X)
	if err != nil {
		return flow.Result{}, err
	}
	return flow.Result{ExitCode: boolInt(n == 0)}, nil
}

// letClause runs let, whose status follows the last expression.
func (r *Runner) letClause(c *syntax.LetClause) (flow.Result, error) {
	n := 0
	for _, expr := range c.Exprs {
		var err error
		if n, err = r.arith(expr); err != nil {
			return flow.Result{}, err
		}
	}
	return flow.Result{ExitCode: boolInt(n == 0)}, nil
}

// intPow computes a**b by squaring, wrapping on overflow like bash.
func intPow(a, b int) int {
	n := 1
	for b > 0 {
		if b&1 == 1 {
			n *= a
		}
		a *= a
		b >>= 1
	}
	return n
}
