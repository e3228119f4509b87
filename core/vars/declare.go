package vars

import (
	"fmt"
	"sort"
	"strings"
)

// Flatten returns every stored value under its flat key: the name for
// scalars and namerefs, "<name>_<index>" for indexed arrays and
// "<name>_<key>" for associative arrays.
func (s *Store) Flatten() map[string]string {
	out := make(map[string]string)
	for name, v := range s.vars {
		switch v.Kind {
		case Scalar:
			out[name] = v.Value
		case Indexed, Assoc:
			for _, e := range v.elements() {
				out[name+"_"+e.Key] = e.Value
			}
		}
	}
	return out
}

// Flags returns the declare option letters for v, "--" when there are none.
func (v *Variable) Flags() string {
	var sb strings.Builder
	switch v.Kind {
	case Indexed:
		sb.WriteByte('a')
	case Assoc:
		sb.WriteByte('A')
	}
	for _, f := range []struct {
		attr Attr
		flag byte
	}{
		{Integer, 'i'},
		{Lower, 'l'},
		{Nameref, 'n'},
		{ReadOnly, 'r'},
		{Upper, 'u'},
		{Exported, 'x'},
	} {
		if v.Attrs&f.attr != 0 {
			sb.WriteByte(f.flag)
		}
	}
	if sb.Len() == 0 {
		return "--"
	}
	return "-" + sb.String()
}

var declareQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// DeclareQuote double-quotes s the way declare -p prints values.
func DeclareQuote(s string) string {
	return `"` + declareQuoter.Replace(s) + `"`
}

func quoteKey(k string) string {
	if ValidName(k) || isDigits(k) {
		return k
	}
	return DeclareQuote(k)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func declaration(name string, v *Variable) string {
	prefix := fmt.Sprintf("declare %s %s", v.Flags(), name)
	switch v.Kind {
	case Scalar:
		return prefix + "=" + DeclareQuote(v.Value)
	case Indexed:
		var parts []string
		for _, e := range v.elements() {
			parts = append(parts, fmt.Sprintf("[%s]=%s", e.Key, DeclareQuote(e.Value)))
		}
		return prefix + "=(" + strings.Join(parts, " ") + ")"
	case Assoc:
		var sb strings.Builder
		for _, e := range v.elements() {
			fmt.Fprintf(&sb, "[%s]=%s ", quoteKey(e.Key), DeclareQuote(e.Value))
		}
		return prefix + "=(" + sb.String() + ")"
	}
	return prefix
}

// Declaration returns the declare -p line for name without following
// namerefs.
func (s *Store) Declaration(name string) (string, bool) {
	v := s.vars[name]
	if v == nil {
		return "", false
	}
	return declaration(name, v), true
}

// Declarations lists declare -p lines for every stored variable, sorted by
// name.
func (s *Store) Declarations() []string {
	var out []string
	for _, name := range s.Names() {
		out = append(out, declaration(name, s.vars[name]))
	}
	return out
}

// Environ returns NAME=value for every exported scalar, sorted by name.
func (s *Store) Environ() []string {
	var env []string
	for name, v := range s.vars {
		if v.Attrs&Exported == 0 {
			continue
		}
		if v.Kind != Scalar {
			continue
		}
		val := v.Value
		if v.Attrs&Nameref != 0 {
			val = s.Get(name)
		}
		env = append(env, fmt.Sprintf("%s=%s", name, val))
	}
	sort.Strings(env)
	return env
}
