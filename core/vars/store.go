package vars

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
)

// MaxNamerefHops bounds nameref chains. Resolving a longer chain is treated
// as a circular reference.
const MaxNamerefHops = 8

// ErrReadOnly is returned when assigning to or unsetting a readonly name.
type ErrReadOnly struct {
	Name string
}

func (e *ErrReadOnly) Error() string {
	return fmt.Sprintf("%s: readonly variable", e.Name)
}

// ErrCircular is returned when writing through a nameref chain that never
// reaches a variable.
type ErrCircular struct {
	Name string
}

func (e *ErrCircular) Error() string {
	return fmt.Sprintf("%s: circular name reference", e.Name)
}

// CallStack exposes the function call stack, innermost call first.
type CallStack interface {
	FuncNames() []string
	CallLines() []string
	CallSources() []string
}

// Arithmetic evaluates an index expression.
type Arithmetic func(expr string) (int, error)

// Store holds every variable of one shell.
type Store struct {
	vars       map[string]*Variable
	positional []string
	scopes     []*scope
	nextScope  ScopeID

	// Status is the value of $?.
	Status int
	// Pid, PPid and BashPid back $$, PPID and BASHPID.
	Pid, PPid, BashPid int
	// ScriptName is $0.
	ScriptName string

	// Arithmetic evaluates numeric subscripts and integer assignments. When
	// nil only integers and variable names are understood.
	Arithmetic Arithmetic
	// Warnf reports recoverable problems like circular namerefs.
	Warnf func(format string, args ...interface{})

	clock      Clock
	rand       Rand
	seconds    secondsBase
	callStack  CallStack
	flags      string
	shellOpts  string
	bashOpts   string
	publishing bool
}

// New creates an empty store using the process clock and random source.
func New() *Store {
	pid := os.Getpid()
	s := &Store{
		vars:       make(map[string]*Variable),
		Pid:        pid,
		PPid:       os.Getppid(),
		BashPid:    pid,
		ScriptName: "bash",
		Warnf:      log.Printf,
	}
	s.SetClock(SystemClock{})
	s.rand = newRand(s.clock.Now().UnixNano())
	return s
}

// NewFromEnviron creates a store with every NAME=value entry exported.
func NewFromEnviron(environ []string) *Store {
	s := New()
	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		if !ValidName(key) {
			continue
		}
		_ = s.Set(key, value)
		_ = s.Export(key)
	}
	return s
}

// SetCallStack installs the provider for FUNCNAME, BASH_LINENO and
// BASH_SOURCE.
func (s *Store) SetCallStack(cs CallStack) {
	s.callStack = cs
}

// PublishOptions implements options.Publisher, backing $-, SHELLOPTS and
// BASHOPTS.
func (s *Store) PublishOptions(flags, shellopts, bashopts string) {
	s.flags, s.shellOpts, s.bashOpts = flags, shellopts, bashopts
	s.publishing = true
}

// Clone returns an independent copy, used for subshells.
func (s *Store) Clone() *Store {
	out := *s
	out.vars = make(map[string]*Variable, len(s.vars))
	for k, v := range s.vars {
		out.vars[k] = v.clone()
	}
	out.positional = append([]string(nil), s.positional...)
	out.scopes = nil
	for _, sc := range s.scopes {
		out.scopes = append(out.scopes, sc.clone())
	}
	return &out
}

// ValidName reports whether name is a valid shell identifier.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// SplitSubscript splits "name[sub]" into its parts.
func SplitSubscript(name string) (base, sub string, ok bool) {
	if !strings.HasSuffix(name, "]") {
		return name, "", false
	}
	idx := strings.IndexByte(name, '[')
	if idx <= 0 {
		return name, "", false
	}
	return name[:idx], name[idx+1 : len(name)-1], true
}

// resolve follows namerefs. The returned name may carry a subscript taken
// from the nameref target. ok is false when the chain doesn't terminate.
func (s *Store) resolve(name string) (resolved string, ok bool) {
	orig := name
	for hops := 0; ; hops++ {
		base, sub, hasSub := SplitSubscript(name)
		v := s.vars[base]
		if v == nil || v.Attrs&Nameref == 0 || v.Value == "" {
			return name, true
		}
		target := v.Value
		if target == base {
			return name, false
		}
		if hops >= MaxNamerefHops {
			s.warnf("%s: circular name reference", orig)
			return name, false
		}
		if hasSub {
			if _, _, targetSub := SplitSubscript(target); targetSub {
				return name, true
			}
			target = target + "[" + sub + "]"
		}
		name = target
	}
}

// ResolveName returns the variable name reached by following namerefs.
func (s *Store) ResolveName(name string) (string, bool) {
	return s.resolve(name)
}

// NamerefTarget returns the raw target of a nameref without following it.
func (s *Store) NamerefTarget(name string) (string, bool) {
	v := s.vars[name]
	if v == nil || v.Attrs&Nameref == 0 {
		return "", false
	}
	return v.Value, true
}

func (s *Store) warnf(format string, args ...interface{}) {
	if s.Warnf != nil {
		s.Warnf(format, args...)
	}
}

// Lookup returns the value of name and whether it is set. name may carry a
// subscript.
func (s *Store) Lookup(name string) (string, bool) {
	name, ok := s.resolve(name)
	if !ok {
		return "", false
	}
	base, sub, hasSub := SplitSubscript(name)

	v, special := s.special(base)
	if !special {
		v = s.vars[base]
	}
	if v == nil {
		return "", false
	}
	if !hasSub {
		return v.first()
	}
	return s.element(v, sub)
}

// Get returns the value of name or the empty string when it's unset.
func (s *Store) Get(name string) string {
	val, _ := s.Lookup(name)
	return val
}

// IsSet reports whether name has a value.
func (s *Store) IsSet(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// ArrayElements returns the elements of name in iteration order. A scalar
// is a single element array.
func (s *Store) ArrayElements(name string) []Element {
	name, ok := s.resolve(name)
	if !ok {
		return nil
	}
	base, sub, hasSub := SplitSubscript(name)
	v, special := s.special(base)
	if !special {
		v = s.vars[base]
	}
	if v == nil {
		return nil
	}
	if hasSub && sub != "@" && sub != "*" {
		val, ok := s.element(v, sub)
		if !ok {
			return nil
		}
		return []Element{{Key: sub, Value: val}}
	}
	return v.elements()
}

// Values returns the element values of name in iteration order.
func (s *Store) Values(name string) []string {
	var out []string
	for _, e := range s.ArrayElements(name) {
		out = append(out, e.Value)
	}
	return out
}

// Info describes a resolved variable.
type Info struct {
	Name  string
	Kind  Kind
	Attrs Attr
}

// Describe returns the shape and attributes of name after following
// namerefs.
func (s *Store) Describe(name string) (Info, bool) {
	name, ok := s.resolve(name)
	if !ok {
		return Info{}, false
	}
	base, _, _ := SplitSubscript(name)
	v, special := s.special(base)
	if !special {
		v = s.vars[base]
	}
	if v == nil {
		return Info{}, false
	}
	return Info{Name: base, Kind: v.Kind, Attrs: v.Attrs}, true
}

func (s *Store) element(v *Variable, sub string) (string, bool) {
	if sub == "@" || sub == "*" {
		if v.Kind == Declared {
			return "", false
		}
		var vals []string
		for _, e := range v.elements() {
			vals = append(vals, e.Value)
		}
		return strings.Join(vals, " "), true
	}

	switch v.Kind {
	case Assoc:
		val, ok := v.assoc[s.assocKey(sub)]
		return val, ok
	case Indexed, Scalar:
		idx, ok := s.index(v, sub)
		if !ok {
			return "", false
		}
		if v.Kind == Scalar {
			if idx == 0 {
				return v.Value, true
			}
			return "", false
		}
		val, ok := v.index[idx]
		return val, ok
	}
	return "", false
}

// index evaluates a numeric subscript, negative values count back from one
// past the highest index.
func (s *Store) index(v *Variable, sub string) (int, bool) {
	idx, err := s.evalIndex(sub)
	if err != nil {
		s.warnf("%s: bad array subscript", sub)
		return 0, false
	}
	if idx < 0 {
		max := 0
		if v.Kind == Indexed {
			max = v.maxIndex()
		}
		idx += max + 1
		if idx < 0 {
			return 0, false
		}
	}
	return idx, true
}

func (s *Store) evalIndex(sub string) (int, error) {
	if s.Arithmetic == nil {
		return s.simpleArithmetic(sub)
	}
	return s.Arithmetic(sub)
}

// simpleArithmetic handles integer literals and variable names.
func (s *Store) simpleArithmetic(expr string) (int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(expr); err == nil {
		return n, nil
	}
	name := strings.TrimPrefix(expr, "$")
	if ValidName(name) {
		val := strings.TrimSpace(s.Get(name))
		if val == "" {
			return 0, nil
		}
		return strconv.Atoi(val)
	}
	return 0, fmt.Errorf("%s: syntax error in expression", expr)
}

// assocKey turns a subscript into an associative key: one level of quotes
// is removed and $var or ${var} references are substituted outside single
// quotes.
func (s *Store) assocKey(sub string) string {
	if len(sub) >= 2 && sub[0] == '\'' && sub[len(sub)-1] == '\'' {
		return sub[1 : len(sub)-1]
	}
	if len(sub) >= 2 && sub[0] == '"' && sub[len(sub)-1] == '"' {
		sub = sub[1 : len(sub)-1]
	}
	if !strings.ContainsRune(sub, '$') {
		return sub
	}

	var sb strings.Builder
	for i := 0; i < len(sub); i++ {
		c := sub[i]
		if c == '\\' && i+1 < len(sub) {
			sb.WriteByte(sub[i+1])
			i++
			continue
		}
		if c != '$' || i+1 >= len(sub) {
			sb.WriteByte(c)
			continue
		}
		if sub[i+1] == '{' {
			end := strings.IndexByte(sub[i:], '}')
			if end < 0 {
				sb.WriteByte(c)
				continue
			}
			sb.WriteString(s.Get(sub[i+2 : i+end]))
			i += end
			continue
		}
		j := i + 1
		for j < len(sub) && isNameByte(sub[j], j == i+1) {
			j++
		}
		if j == i+1 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(s.Get(sub[i+1 : j]))
		i = j - 1
	}
	return sb.String()
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case !first && c >= '0' && c <= '9':
		return true
	}
	return false
}

// Names lists every stored variable name in sorted order.
func (s *Store) Names() []string {
	out := make([]string, 0, len(s.vars))
	for name := range s.vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LookupKey reads one element of name. For associative arrays key is used
// verbatim; other variables evaluate it as an index.
func (s *Store) LookupKey(name, key string) (string, bool) {
	resolved, ok := s.resolve(name)
	if !ok {
		return "", false
	}
	base, _, _ := SplitSubscript(resolved)
	if v := s.vars[base]; v != nil && v.Kind == Assoc {
		val, ok := v.assoc[key]
		return val, ok
	}
	return s.Lookup(base + "[" + key + "]")
}
