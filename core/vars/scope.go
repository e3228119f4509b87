package vars

import (
	"errors"
	"sort"
)

// ScopeID identifies one local scope.
type ScopeID int

// ErrNoScope is returned by DeclareLocal outside any function.
var ErrNoScope = errors.New("can only be used in a function")

type shadowed struct {
	name    string
	prev    *Variable
	existed bool
}

type scope struct {
	id      ScopeID
	saved   []shadowed
	locals  map[string]bool
	exports map[string]bool
}

func (sc *scope) clone() *scope {
	out := &scope{
		id:      sc.id,
		locals:  make(map[string]bool, len(sc.locals)),
		exports: make(map[string]bool, len(sc.exports)),
	}
	for _, sh := range sc.saved {
		out.saved = append(out.saved, shadowed{sh.name, sh.prev.clone(), sh.existed})
	}
	for k := range sc.locals {
		out.locals[k] = true
	}
	for k := range sc.exports {
		out.exports[k] = true
	}
	return out
}

// PushScope opens a local scope.
func (s *Store) PushScope() ScopeID {
	s.nextScope++
	s.scopes = append(s.scopes, &scope{
		id:      s.nextScope,
		locals:  make(map[string]bool),
		exports: make(map[string]bool),
	})
	return s.nextScope
}

// ScopeDepth is the number of open local scopes.
func (s *Store) ScopeDepth() int {
	return len(s.scopes)
}

// DeclareLocal makes name local to the innermost scope. The current value
// is saved and name starts out declared but unset.
func (s *Store) DeclareLocal(name string) error {
	if len(s.scopes) == 0 {
		return ErrNoScope
	}
	sc := s.scopes[len(s.scopes)-1]
	if sc.locals[name] {
		return nil
	}
	prev, existed := s.vars[name]
	if existed && prev.Attrs&ReadOnly != 0 {
		return &ErrReadOnly{Name: name}
	}
	sc.saved = append(sc.saved, shadowed{name: name, prev: prev.clone(), existed: existed})
	sc.locals[name] = true
	s.vars[name] = &Variable{Kind: Declared}
	return nil
}

// IsLocal reports whether name is local to the innermost scope.
func (s *Store) IsLocal(name string) bool {
	if len(s.scopes) == 0 {
		return false
	}
	return s.scopes[len(s.scopes)-1].locals[name]
}

// Locals lists the names local to the innermost scope.
func (s *Store) Locals() []string {
	if len(s.scopes) == 0 {
		return nil
	}
	var out []string
	for name := range s.scopes[len(s.scopes)-1].locals {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LocalExports lists locals of the innermost scope that were exported.
func (s *Store) LocalExports() []string {
	if len(s.scopes) == 0 {
		return nil
	}
	var out []string
	for name := range s.scopes[len(s.scopes)-1].exports {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Store) tagLocalExport(name string) {
	if len(s.scopes) == 0 {
		return
	}
	sc := s.scopes[len(s.scopes)-1]
	if sc.locals[name] {
		sc.exports[name] = true
	}
}

// PopScope closes scope id and every scope opened after it, restoring each
// shadowed variable or removing it if it didn't exist before.
func (s *Store) PopScope(id ScopeID) {
	for len(s.scopes) > 0 {
		sc := s.scopes[len(s.scopes)-1]
		s.scopes = s.scopes[:len(s.scopes)-1]
		for i := len(sc.saved) - 1; i >= 0; i-- {
			sh := sc.saved[i]
			if sh.existed {
				s.vars[sh.name] = sh.prev
			} else {
				delete(s.vars, sh.name)
			}
		}
		if sc.id == id {
			return
		}
	}
}
