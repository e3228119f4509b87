package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/honeybash/core/vars"
)

// declareFlags are the options of the declare family.
type declareFlags struct {
	on, off map[byte]bool
	print   bool
	funcs   bool
	names   bool // -F
	global  bool
}

func (f *declareFlags) has(c byte) bool    { return f.on[c] }
func (f *declareFlags) hasOff(c byte) bool { return f.off[c] }

var declareAttrs = map[byte]vars.Attr{
	'i': vars.Integer,
	'l': vars.Lower,
	'u': vars.Upper,
	'x': vars.Exported,
	'r': vars.ReadOnly,
}

var declareUsage = map[string]string{
	"declare":  "declare [-aAfFgilnrtux] [-p] [name[=value] ...]",
	"typeset":  "typeset [-aAfFgilnrtux] [-p] name[=value] ...",
	"local":    "local [option] name[=value] ...",
	"export":   "export [-fn] [name[=value] ...] or export -p",
	"readonly": "readonly [-aAf] [name[=value] ...] or readonly -p",
}

// parseDeclareFlags reads the leading -x and +x words.
func parseDeclareFlags(s Shell, args []string) (*declareFlags, []string, bool) {
	name := args[0]
	valid := "aAfFgilnprtux"
	switch name {
	case "export":
		valid = "fnp"
	case "readonly":
		valid = "aAfp"
	}

	f := &declareFlags{on: make(map[byte]bool), off: make(map[byte]bool)}
	rest := args[1:]
	for len(rest) > 0 {
		arg := rest[0]
		if arg == "--" {
			rest = rest[1:]
			break
		}
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '+') {
			break
		}
		for _, c := range []byte(arg[1:]) {
			if strings.IndexByte(valid, c) < 0 {
				fmt.Fprintf(s.Stderr(), "bash: %s: %c%c: invalid option\n", name, arg[0], c)
				fmt.Fprintf(s.Stderr(), "%s: usage: %s\n", name, declareUsage[name])
				return nil, nil, false
			}
			switch c {
			case 'p':
				f.print = true
			case 'f':
				f.funcs = true
			case 'F':
				f.funcs, f.names = true, true
			case 'g':
				f.global = true
			default:
				if arg[0] == '-' {
					f.on[c] = true
				} else {
					f.off[c] = true
				}
			}
		}
		rest = rest[1:]
	}

	switch name {
	case "export":
		if f.on['n'] {
			delete(f.on, 'n')
			f.off['x'] = true
		} else {
			f.on['x'] = true
		}
	case "readonly":
		f.on['r'] = true
	}
	return f, rest, true
}

// matchesFlags reports whether a declaration carries every requested
// attribute.
func matchesFlags(decl string, f *declareFlags) bool {
	fields := strings.SplitN(decl, " ", 3)
	if len(fields) < 2 {
		return false
	}
	for c := range f.on {
		if strings.IndexByte(fields[1], c) < 0 {
			return false
		}
	}
	return true
}

// Declare implements declare, typeset, local, export and readonly.
func Declare(s Shell, args []string) int {
	name := args[0]
	f, rest, ok := parseDeclareFlags(s, args)
	if !ok {
		return StatusUsage
	}
	store := s.Vars()

	local := false
	switch name {
	case "local":
		if s.Frames().Depth() == 0 {
			fmt.Fprintf(s.Stderr(), "bash: local: %s\n", vars.ErrNoScope)
			return 1
		}
		local = true
	case "declare", "typeset":
		local = !f.global && s.Frames().Depth() > 0
	}

	if f.funcs {
		return declareFunctions(s, f, rest)
	}

	if len(rest) == 0 {
		if name == "local" {
			for _, n := range store.Locals() {
				if decl, ok := store.Declaration(n); ok {
					fmt.Fprintln(s.Stdout(), decl)
				}
			}
			return 0
		}
		for _, decl := range store.Declarations() {
			if matchesFlags(decl, f) {
				fmt.Fprintln(s.Stdout(), decl)
			}
		}
		return 0
	}

	if f.print {
		status := 0
		for _, n := range rest {
			decl, ok := store.Declaration(n)
			if !ok {
				fmt.Fprintf(s.Stderr(), "bash: %s: %s: not found\n", name, n)
				status = 1
				continue
			}
			fmt.Fprintln(s.Stdout(), decl)
		}
		return status
	}

	status := 0
	for _, arg := range rest {
		if err := declareOne(s, f, arg, local); err != nil {
			fmt.Fprintf(s.Stderr(), "bash: %s: %s\n", name, err)
			status = 1
		}
	}
	return status
}

func declareFunctions(s Shell, f *declareFlags, names []string) int {
	if len(names) == 0 {
		names = s.Functions()
	}
	status := 0
	for _, n := range names {
		src, ok := s.FunctionSource(n)
		if !ok {
			status = 1
			continue
		}
		if f.names {
			fmt.Fprintf(s.Stdout(), "declare -f %s\n", n)
		} else {
			fmt.Fprintln(s.Stdout(), src)
		}
	}
	return status
}

// declareOne applies the flags and optional value of one name[=value]
// argument.
func declareOne(s Shell, f *declareFlags, arg string, local bool) error {
	store := s.Vars()
	name, value, hasValue := arg, "", false
	appending := false
	if i := strings.IndexByte(arg, '='); i >= 0 {
		name, value, hasValue = arg[:i], arg[i+1:], true
		if strings.HasSuffix(name, "+") {
			name, appending = name[:len(name)-1], true
		}
	}

	base, _, _ := vars.SplitSubscript(name)
	if !vars.ValidName(base) {
		return fmt.Errorf("`%s': not a valid identifier", arg)
	}

	if local && !store.IsLocal(base) {
		if err := store.DeclareLocal(base); err != nil {
			return err
		}
	}

	if f.has('n') {
		if hasValue {
			return store.SetNameref(base, value)
		}
		return store.SetAttr(base, vars.Nameref, true)
	}
	if f.hasOff('n') {
		if err := store.SetAttr(base, vars.Nameref, false); err != nil {
			return err
		}
	}

	switch {
	case f.has('A'):
		if err := store.DeclareAssoc(base); err != nil {
			return err
		}
	case f.has('a'):
		if err := store.DeclareIndexed(base); err != nil {
			return err
		}
	}

	// attributes that transform the value apply before assignment
	for _, c := range []byte("ilu") {
		if f.has(c) {
			if err := store.SetAttr(base, declareAttrs[c], true); err != nil {
				return err
			}
		}
		if f.hasOff(c) {
			if err := store.SetAttr(base, declareAttrs[c], false); err != nil {
				return err
			}
		}
	}

	switch {
	case hasValue:
		if err := assignDeclared(store, name, value, appending); err != nil {
			return err
		}
	case !store.IsSet(name) && len(f.on) == 0 && len(f.off) == 0:
		if err := store.Declare(base); err != nil {
			return err
		}
	}

	switch {
	case f.has('x'):
		if err := store.Export(base); err != nil {
			return err
		}
	case f.hasOff('x'):
		if err := store.SetAttr(base, vars.Exported, false); err != nil {
			return err
		}
	}
	if f.has('r') {
		if err := store.SetReadOnly(base); err != nil {
			return err
		}
	}
	if f.hasOff('r') {
		if err := store.SetAttr(base, vars.ReadOnly, false); err != nil {
			return err
		}
	}
	return nil
}

// assignDeclared stores a declare value. A value written as (...) is a
// compound assignment.
func assignDeclared(store *vars.Store, name, value string, appending bool) error {
	_, _, hasSub := vars.SplitSubscript(name)
	if !hasSub && strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		elems, err := vars.ParseCompound(value)
		if err != nil {
			return err
		}
		return store.AssignCompound(name, elems, appending)
	}
	if appending {
		return store.Append(name, value)
	}
	return store.Set(name, value)
}

func init() {
	for _, name := range []string{"declare", "typeset", "local", "export", "readonly"} {
		simpleBuiltin(name, Declare)
	}
}
