package interp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/commands"
	"github.com/josephlewis42/honeybash/core/expand"
	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/pattern"
	"github.com/josephlewis42/honeybash/core/vars"
	"mvdan.cc/sh/v3/syntax"
)

// paramRef names the variable a parameter expansion reads.
type paramRef struct {
	name string
	// index is the subscript as written, sub a subscript reached through
	// indirection.
	index  syntax.ArithmExpr
	sub    string
	hasSub bool
	// all is set for name[@], name[*], $@ and $*.
	all        bool
	mode       expand.Mode
	positional bool

	// key is the evaluated subscript after lookup.
	key string
}

// display is the name used in diagnostics.
func (ref *paramRef) display() string {
	switch {
	case ref.index != nil && !ref.all:
		return ref.name + "[" + ref.key + "]"
	case ref.hasSub:
		return ref.name + "[" + ref.sub + "]"
	case isPositionalParam(ref.name):
		return "$" + ref.name
	}
	return ref.name
}

// paramValue is the result of a parameter expansion before splitting.
type paramValue struct {
	str  string
	set  bool
	list []string
	// isList marks array results, split per element according to mode.
	isList bool
	mode   expand.Mode

	// frags holds an already expanded operator word, like the b of ${a:-b}.
	frags   []expand.Fragment
	isFrags bool
	at      bool
}

// null reports whether the value is unset or empty.
func (v paramValue) null() bool {
	if v.isList {
		return len(v.list) == 0 || strings.Join(v.list, "") == ""
	}
	return !v.set || v.str == ""
}

func (v paramValue) elems() []string {
	if v.isList {
		return v.list
	}
	return []string{v.str}
}

func (v paramValue) withElems(elems []string) paramValue {
	if v.isList {
		v.list = elems
		return v
	}
	if len(elems) > 0 {
		v.str = elems[0]
	}
	return v
}

func isPositionalParam(name string) bool {
	return name != "0" && name != "" && strings.Trim(name, "0123456789") == ""
}

func isSpecialParam(name string) bool {
	return len(name) == 1 && strings.Contains("?$!#@*-0", name) || isPositionalParam(name)
}

// paramFragments expands pe into word fragments. The boolean reports a
// quoted "$@" style expansion. With scalar set an unquoted list is joined
// into one value, as on the right of an assignment.
func (r *Runner) paramFragments(pe *syntax.ParamExp, quoted, scalar bool) ([]expand.Fragment, bool, error) {
	v, err := r.paramExp(pe, quoted)
	if err != nil {
		return nil, false, err
	}
	if v.isFrags {
		return v.frags, v.at, nil
	}
	if !v.isList {
		return []expand.Fragment{valueFragment(v.str, quoted)}, false, nil
	}

	var out []expand.Fragment
	if quoted {
		if v.mode == expand.Star {
			return []expand.Fragment{{Text: expand.Join(v.list, r.ifsChars()), Quoted: true}}, false, nil
		}
		for i, e := range v.list {
			if i > 0 {
				out = append(out, expand.Fragment{Break: true})
			}
			out = append(out, expand.Fragment{Text: e, Quoted: true})
		}
		return out, true, nil
	}

	if scalar {
		text := strings.Join(v.list, " ")
		if v.mode == expand.Star {
			text = expand.Join(v.list, r.ifsChars())
		}
		return []expand.Fragment{{Text: text}}, false, nil
	}

	for i, f := range expand.SplitArray(v.list, v.mode, r.ifsChars()) {
		if i > 0 {
			out = append(out, expand.Fragment{Break: true})
		}
		out = append(out, expand.Fragment{Text: f})
	}
	return out, false, nil
}

func (r *Runner) paramExp(pe *syntax.ParamExp, quoted bool) (paramValue, error) {
	name := pe.Param.Value

	if pe.Names != 0 {
		mode := expand.Star
		if pe.Names == syntax.NamesPrefixWords {
			mode = expand.At
		}
		return paramValue{list: r.namesWithPrefix(name), isList: true, set: true, mode: mode}, nil
	}

	ref := &paramRef{name: name, index: pe.Index}
	if w, ok := pe.Index.(*syntax.Word); ok {
		switch w.Lit() {
		case "@":
			ref.all, ref.mode = true, expand.At
		case "*":
			ref.all, ref.mode = true, expand.Star
		}
	}

	if pe.Excl {
		if ref.all {
			return r.arrayKeys(ref), nil
		}
		if target, ok := r.vars.NamerefTarget(name); ok && pe.Index == nil {
			return paramValue{str: target, set: true}, nil
		}
		target, err := r.indirect(ref)
		if err != nil {
			return paramValue{}, err
		}
		ref = target
	}

	switch ref.name {
	case "@":
		ref.positional, ref.all, ref.mode = true, true, expand.At
	case "*":
		ref.positional, ref.all, ref.mode = true, true, expand.Star
	}

	v, err := r.lookupRef(ref)
	if err != nil {
		return paramValue{}, err
	}

	if pe.Exp == nil || !unsetOp(pe.Exp.Op) {
		if err := r.checkNounset(ref, v); err != nil {
			return paramValue{}, err
		}
	}

	switch {
	case pe.Length:
		if v.isList {
			return paramValue{str: strconv.Itoa(len(v.list)), set: true}, nil
		}
		return paramValue{str: strconv.Itoa(expand.Length(v.str)), set: true}, nil
	case pe.Exp != nil:
		return r.paramOp(pe, ref, v, quoted)
	case pe.Repl != nil:
		return r.paramReplace(pe.Repl, v)
	case pe.Slice != nil:
		return r.paramSlice(pe.Slice, ref, v)
	}
	return v, nil
}

// unsetOp reports the operators that handle an unset parameter themselves.
func unsetOp(op syntax.ParExpOperator) bool {
	switch op {
	case syntax.DefaultUnset, syntax.DefaultUnsetOrNull,
		syntax.AlternateUnset, syntax.AlternateUnsetOrNull,
		syntax.AssignUnset, syntax.AssignUnsetOrNull,
		syntax.ErrorUnset, syntax.ErrorUnsetOrNull:
		return true
	}
	return false
}

func (r *Runner) checkNounset(ref *paramRef, v paramValue) error {
	if v.set || !r.opts.Enabled(options.Nounset) {
		return nil
	}
	if ref.all {
		return nil
	}
	return flow.NewNounset(ref.display(), r.vars.Status)
}

func (r *Runner) namesWithPrefix(prefix string) []string {
	var out []string
	for _, name := range r.vars.Names() {
		if strings.HasPrefix(name, prefix) && r.vars.IsSet(name) {
			out = append(out, name)
		}
	}
	return out
}

func (r *Runner) arrayKeys(ref *paramRef) paramValue {
	var keys []string
	if ref.name == "@" || ref.name == "*" {
		for i := range r.vars.Positional() {
			keys = append(keys, strconv.Itoa(i+1))
		}
	} else {
		for _, e := range r.vars.ArrayElements(ref.name) {
			keys = append(keys, e.Key)
		}
	}
	return paramValue{list: keys, isList: true, set: len(keys) > 0, mode: ref.mode}
}

// indirect follows ${!name}: the value of name is the parameter to expand.
func (r *Runner) indirect(ref *paramRef) (*paramRef, error) {
	v, err := r.lookupRef(ref)
	if err != nil {
		return nil, err
	}
	if v.isList {
		v.str = strings.Join(v.list, " ")
	}

	target := v.str
	base, sub, hasSub := vars.SplitSubscript(target)
	if !vars.ValidName(base) && !isSpecialParam(base) {
		return nil, flow.NewError(flow.BadSubstitution, fmt.Sprintf("%s: invalid indirect expansion", ref.display()))
	}
	out := &paramRef{name: base, sub: sub, hasSub: hasSub}
	switch {
	case hasSub && sub == "@":
		out.all, out.mode, out.hasSub = true, expand.At, false
	case hasSub && sub == "*":
		out.all, out.mode, out.hasSub = true, expand.Star, false
	}
	return out, nil
}

// lookupRef reads the value of ref.
func (r *Runner) lookupRef(ref *paramRef) (paramValue, error) {
	switch {
	case ref.positional:
		pos := r.vars.Positional()
		return paramValue{list: pos, isList: true, set: len(pos) > 0, mode: ref.mode}, nil

	case ref.all:
		values := r.vars.Values(ref.name)
		return paramValue{list: values, isList: true, set: len(values) > 0, mode: ref.mode}, nil

	case ref.index != nil:
		key, err := r.subscript(ref.name, ref.index, false)
		if err != nil {
			return paramValue{}, err
		}
		ref.key = key
		val, ok := r.vars.LookupKey(ref.name, key)
		return paramValue{str: val, set: ok}, nil

	case ref.hasSub:
		val, ok := r.vars.Lookup(ref.name + "[" + ref.sub + "]")
		return paramValue{str: val, set: ok}, nil
	}
	val, ok := r.vars.Lookup(ref.name)
	return paramValue{str: val, set: ok}, nil
}

// opWord expands the word of an operator in the quoting context of the
// expansion.
func (r *Runner) opWord(w *syntax.Word, quoted bool) (paramValue, error) {
	if w == nil {
		return paramValue{set: true}, nil
	}
	mode := modeUnquoted
	if quoted {
		mode = modeDquote
	}
	frags, at, err := r.partFragments(w.Parts, mode, !quoted)
	if err != nil {
		return paramValue{}, err
	}
	return paramValue{frags: frags, isFrags: true, at: at, set: true}, nil
}

func (r *Runner) paramOp(pe *syntax.ParamExp, ref *paramRef, v paramValue, quoted bool) (paramValue, error) {
	op := pe.Exp.Op
	switch op {
	case syntax.DefaultUnset, syntax.DefaultUnsetOrNull:
		if !v.set || (op == syntax.DefaultUnsetOrNull && v.null()) {
			return r.opWord(pe.Exp.Word, quoted)
		}
		return v, nil

	case syntax.AlternateUnset, syntax.AlternateUnsetOrNull:
		if !v.set || (op == syntax.AlternateUnsetOrNull && v.null()) {
			return paramValue{}, nil
		}
		return r.opWord(pe.Exp.Word, quoted)

	case syntax.AssignUnset, syntax.AssignUnsetOrNull:
		if v.set && !(op == syntax.AssignUnsetOrNull && v.null()) {
			return v, nil
		}
		if ref.positional || ref.all || isSpecialParam(ref.name) {
			return paramValue{}, flow.NewError(flow.BadSubstitution,
				fmt.Sprintf("$%s: cannot assign in this way", ref.name))
		}
		value, err := r.literal(pe.Exp.Word)
		if err != nil {
			return paramValue{}, err
		}
		if ref.index != nil {
			err = r.vars.SetKey(ref.name, ref.key, value)
		} else {
			err = r.vars.Set(ref.display(), value)
		}
		if err != nil {
			return paramValue{}, err
		}
		return paramValue{str: value, set: true}, nil

	case syntax.ErrorUnset, syntax.ErrorUnsetOrNull:
		if v.set && !(op == syntax.ErrorUnsetOrNull && v.null()) {
			return v, nil
		}
		msg := "parameter null or not set"
		if pe.Exp.Word != nil {
			text, err := r.literal(pe.Exp.Word)
			if err != nil {
				return paramValue{}, err
			}
			if text != "" {
				msg = text
			}
		}
		return paramValue{}, flow.NewError(flow.BadSubstitution, fmt.Sprintf("%s: %s", ref.display(), msg))

	case syntax.RemSmallPrefix, syntax.RemLargePrefix, syntax.RemSmallSuffix, syntax.RemLargeSuffix:
		pat, err := r.patternString(pe.Exp.Word)
		if err != nil {
			return paramValue{}, err
		}
		removeOps := map[syntax.ParExpOperator]expand.RemoveOp{
			syntax.RemSmallPrefix: expand.RemoveShortPrefix,
			syntax.RemLargePrefix: expand.RemoveLongPrefix,
			syntax.RemSmallSuffix: expand.RemoveShortSuffix,
			syntax.RemLargeSuffix: expand.RemoveLongSuffix,
		}
		if !v.set {
			return v, nil
		}
		return v.withElems(expand.RemovePattern(v.elems(), pat, removeOps[op], r.patternOptions())), nil

	case syntax.UpperFirst, syntax.UpperAll, syntax.LowerFirst, syntax.LowerAll:
		pat, err := r.patternString(pe.Exp.Word)
		if err != nil {
			return paramValue{}, err
		}
		caseOps := map[syntax.ParExpOperator]expand.CaseOp{
			syntax.UpperFirst: expand.UpperFirst,
			syntax.UpperAll:   expand.UpperAll,
			syntax.LowerFirst: expand.LowerFirst,
			syntax.LowerAll:   expand.LowerAll,
		}
		if !v.set {
			return v, nil
		}
		return v.withElems(expand.CaseConvert(v.elems(), pat, caseOps[op], r.patternOptions())), nil

	case syntax.OtherParamOps:
		return r.transform(pe.Exp.Word.Lit(), ref, v)
	}
	return paramValue{}, flow.NewError(flow.BadSubstitution, fmt.Sprintf("%s: bad substitution", r.text(pe)))
}

func (r *Runner) patternOptions() pattern.Options {
	return pattern.Options{Extglob: r.opts.ShoptEnabled(options.Extglob), Warnf: r.warnf}
}

func (r *Runner) paramReplace(repl *syntax.Replace, v paramValue) (paramValue, error) {
	op := expand.ReplaceFirst
	src := ""
	if repl.Orig != nil {
		src = r.text(repl.Orig)
	}
	switch {
	case repl.All:
		op = expand.ReplaceAll
	case strings.HasPrefix(src, "#"):
		op, src = expand.ReplacePrefix, src[1:]
	case strings.HasPrefix(src, "%"):
		op, src = expand.ReplaceSuffix, src[1:]
	}

	pat, err := r.patternText(src)
	if err != nil {
		return paramValue{}, err
	}
	with, err := r.literal(repl.With)
	if err != nil {
		return paramValue{}, err
	}
	if !v.set {
		return v, nil
	}
	return v.withElems(expand.ReplacePattern(v.elems(), pat, with, op, r.patternOptions())), nil
}

func (r *Runner) paramSlice(sl *syntax.Slice, ref *paramRef, v paramValue) (paramValue, error) {
	offset, err := r.arith(sl.Offset)
	if err != nil {
		return paramValue{}, err
	}
	length, hasLength := 0, sl.Length != nil
	if hasLength {
		if length, err = r.arith(sl.Length); err != nil {
			return paramValue{}, err
		}
	}

	var out paramValue
	switch {
	case ref.positional:
		elems := append([]string{r.vars.ScriptName}, r.vars.Positional()...)
		list, serr := expand.Slice(elems, offset, length, hasLength)
		out, err = paramValue{list: list, isList: true, set: true, mode: ref.mode}, serr
	case ref.all:
		var list []string
		if info, ok := r.vars.Describe(ref.name); ok && info.Kind == vars.Assoc {
			list, err = expand.Slice(v.list, offset, length, hasLength)
		} else {
			list, err = expand.SliceIndexed(r.vars.ArrayElements(ref.name), offset, length, hasLength)
		}
		out = paramValue{list: list, isList: true, set: true, mode: ref.mode}
	default:
		var s string
		s, err = expand.SliceString(v.str, offset, length, hasLength)
		out = paramValue{str: s, set: v.set}
	}

	if errors.Is(err, expand.ErrNegativeLength) {
		return paramValue{}, flow.NewError(flow.BadSubstitution,
			fmt.Sprintf("%s: substring expression < 0", r.text(sl.Length)))
	}
	return out, err
}

// transform applies the ${x@op} operators.
func (r *Runner) transform(op string, ref *paramRef, v paramValue) (paramValue, error) {
	if !v.set && op != "a" {
		return paramValue{}, nil
	}
	each := func(fn func(string) string) paramValue {
		elems := v.elems()
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i] = fn(e)
		}
		return v.withElems(out)
	}

	switch op {
	case "Q":
		return each(shellQuote), nil
	case "E":
		return each(commands.UnescapeANSIC), nil
	case "P":
		return each(r.Prompt), nil
	case "U":
		return v.withElems(expand.CaseConvert(v.elems(), "", expand.UpperAll, pattern.Options{})), nil
	case "u":
		return v.withElems(expand.CaseConvert(v.elems(), "", expand.UpperFirst, pattern.Options{})), nil
	case "L":
		return v.withElems(expand.CaseConvert(v.elems(), "", expand.LowerAll, pattern.Options{})), nil
	case "a":
		info, ok := r.vars.Describe(ref.name)
		if !ok {
			return paramValue{set: true}, nil
		}
		flags := strings.TrimPrefix((&vars.Variable{Kind: info.Kind, Attrs: info.Attrs}).Flags(), "-")
		return paramValue{str: strings.TrimPrefix(flags, "-"), set: true}, nil
	case "A":
		if decl, ok := r.vars.Declaration(ref.name); ok && (ref.all || ref.index == nil) {
			return paramValue{str: decl, set: true}, nil
		}
		return paramValue{str: ref.display() + "=" + shellQuote(v.str), set: true}, nil
	case "K":
		var parts []string
		if ref.all {
			for _, e := range r.vars.ArrayElements(ref.name) {
				parts = append(parts, e.Key, vars.DeclareQuote(e.Value))
			}
		} else {
			parts = append(parts, shellQuote(v.str))
		}
		return paramValue{str: strings.Join(parts, " "), set: true}, nil
	}
	return paramValue{}, flow.NewError(flow.BadSubstitution, fmt.Sprintf("%s: bad substitution", "${"+ref.name+"@"+op+"}"))
}

// shellQuote single-quotes s so the shell reads it back unchanged.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// patternText is patternString for pattern source that isn't a whole word.
func (r *Runner) patternText(src string) (string, error) {
	return expand.PatternVarsExec(src, patternEnv{r}, r.cmdSubstText)
}
