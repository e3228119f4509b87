package vars

import (
	"fmt"
	"strconv"
	"strings"
)

// target resolves name for writing and returns the stored variable, creating
// a declared placeholder when absent.
func (s *Store) target(name string) (base, sub string, hasSub bool, v *Variable, err error) {
	resolved, ok := s.resolve(name)
	if !ok {
		return "", "", false, nil, &ErrCircular{Name: name}
	}
	base, sub, hasSub = SplitSubscript(resolved)
	if !ValidName(base) && !IsSpecial(base) {
		return "", "", false, nil, fmt.Errorf("`%s': not a valid identifier", name)
	}
	v = s.vars[base]
	if v != nil && v.Attrs&ReadOnly != 0 {
		return base, sub, hasSub, v, &ErrReadOnly{Name: base}
	}
	if v == nil {
		v = &Variable{Kind: Declared}
	}
	return base, sub, hasSub, v, nil
}

func (s *Store) transform(v *Variable, value string) string {
	if v.Attrs&Integer != 0 {
		n, err := s.evalIndex(value)
		if err != nil {
			s.warnf("%s", err)
		}
		value = strconv.Itoa(n)
	}
	switch {
	case v.Attrs&Lower != 0:
		value = strings.ToLower(value)
	case v.Attrs&Upper != 0:
		value = strings.ToUpper(value)
	}
	return value
}

// Set assigns value to name, which may carry a subscript. Assigning to an
// array without a subscript sets element zero.
func (s *Store) Set(name, value string) error {
	if handled, err := s.assignSpecial(name, value); handled {
		return err
	}
	base, sub, hasSub, v, err := s.target(name)
	if err != nil {
		return err
	}
	if hasSub {
		return s.setElement(base, v, sub, value)
	}
	if handled, err := s.assignSpecial(base, value); handled {
		return err
	}

	value = s.transform(v, value)
	switch v.Kind {
	case Indexed:
		v.index[0] = value
	case Assoc:
		v.setKey("0", value)
	default:
		v.Kind = Scalar
		v.Value = value
	}
	s.vars[base] = v
	return nil
}

// SetIndex assigns one element of an array, converting a scalar to an
// indexed array first.
func (s *Store) SetIndex(name, sub, value string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	return s.setElement(base, v, sub, value)
}

func (s *Store) setElement(base string, v *Variable, sub, value string) error {
	value = s.transform(v, value)
	if v.Kind == Assoc {
		v.setKey(s.assocKey(sub), value)
		s.vars[base] = v
		return nil
	}

	v.toIndexed()
	idx, ok := s.index(v, sub)
	if !ok {
		return fmt.Errorf("%s[%s]: bad array subscript", base, sub)
	}
	v.index[idx] = value
	s.vars[base] = v
	return nil
}

// SetArray replaces name with an indexed array of values. An associative
// array keeps its type and takes values as alternating keys and values.
func (s *Store) SetArray(name string, values []string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	if v.Kind == Assoc {
		v.keys = nil
		v.assoc = make(map[string]string)
		for i := 0; i < len(values); i += 2 {
			val := ""
			if i+1 < len(values) {
				val = values[i+1]
			}
			v.setKey(values[i], s.transform(v, val))
		}
		s.vars[base] = v
		return nil
	}

	v.Kind = Indexed
	v.Value = ""
	v.index = make(map[int]string, len(values))
	for i, val := range values {
		v.index[i] = s.transform(v, val)
	}
	s.vars[base] = v
	return nil
}

// SetAssoc replaces name with an associative array.
func (s *Store) SetAssoc(name string, elems []Element) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	v.Kind = Assoc
	v.Value = ""
	v.index = nil
	v.keys = nil
	v.assoc = make(map[string]string, len(elems))
	for _, e := range elems {
		v.setKey(e.Key, s.transform(v, e.Value))
	}
	s.vars[base] = v
	return nil
}

// Clear removes every element of name but keeps its type and attributes.
func (s *Store) Clear(name string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	switch v.Kind {
	case Indexed:
		v.index = make(map[int]string)
	case Assoc:
		v.keys = nil
		v.assoc = make(map[string]string)
	case Scalar:
		v.Kind = Declared
		v.Value = ""
	}
	s.vars[base] = v
	return nil
}

// Append implements name+=value. Integer variables add instead of
// concatenating.
func (s *Store) Append(name, value string) error {
	resolved, ok := s.resolve(name)
	if !ok {
		return &ErrCircular{Name: name}
	}
	base, _, _ := SplitSubscript(resolved)
	old := s.Get(resolved)
	if v := s.vars[base]; v != nil && v.Attrs&Integer != 0 {
		a, _ := s.evalIndex(old)
		b, err := s.evalIndex(value)
		if err != nil {
			return err
		}
		return s.Set(resolved, strconv.Itoa(a+b))
	}
	return s.Set(resolved, old+value)
}

// AppendArray implements name+=(values...), adding after the highest index.
func (s *Store) AppendArray(name string, values []string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	if v.Kind == Assoc {
		for i := 0; i < len(values); i += 2 {
			val := ""
			if i+1 < len(values) {
				val = values[i+1]
			}
			v.setKey(values[i], s.transform(v, val))
		}
		s.vars[base] = v
		return nil
	}

	v.toIndexed()
	next := v.maxIndex() + 1
	for i, val := range values {
		v.index[next+i] = s.transform(v, val)
	}
	s.vars[base] = v
	return nil
}

// Unset removes name or, with a subscript, a single element. Unsetting a
// nameref unsets its target.
func (s *Store) Unset(name string) error {
	resolved, ok := s.resolve(name)
	if !ok {
		return nil
	}
	base, sub, hasSub := SplitSubscript(resolved)
	v := s.vars[base]
	if v == nil {
		return nil
	}
	if v.Attrs&ReadOnly != 0 {
		return &ErrReadOnly{Name: base}
	}
	if !hasSub || sub == "@" || sub == "*" {
		delete(s.vars, base)
		return nil
	}

	switch v.Kind {
	case Assoc:
		v.deleteKey(s.assocKey(sub))
	case Indexed:
		if idx, ok := s.index(v, sub); ok {
			delete(v.index, idx)
		}
	case Scalar:
		if idx, ok := s.index(v, sub); ok && idx == 0 {
			delete(s.vars, base)
		}
	}
	return nil
}

// UnsetNameref removes the nameref name itself rather than its target.
func (s *Store) UnsetNameref(name string) error {
	v := s.vars[name]
	if v == nil {
		return nil
	}
	if v.Attrs&ReadOnly != 0 {
		return &ErrReadOnly{Name: name}
	}
	delete(s.vars, name)
	return nil
}

// Declare makes sure name exists, without giving it a value.
func (s *Store) Declare(name string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	s.vars[base] = v
	return nil
}

// DeclareIndexed makes name an indexed array, keeping any scalar value as
// element zero.
func (s *Store) DeclareIndexed(name string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	if v.Kind == Assoc {
		return fmt.Errorf("%s: cannot convert associative to indexed array", base)
	}
	v.toIndexed()
	s.vars[base] = v
	return nil
}

// DeclareAssoc makes name an associative array.
func (s *Store) DeclareAssoc(name string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	if v.Kind == Indexed {
		return fmt.Errorf("%s: cannot convert indexed to associative array", base)
	}
	v.toAssoc()
	s.vars[base] = v
	return nil
}

// SetNameref makes name a reference to target. A reference to itself is
// accepted; reading it yields nothing.
func (s *Store) SetNameref(name, target string) error {
	if !ValidName(name) {
		return fmt.Errorf("`%s': not a valid identifier", name)
	}
	v := s.vars[name]
	if v != nil && v.Attrs&ReadOnly != 0 {
		return &ErrReadOnly{Name: name}
	}
	if v == nil {
		v = &Variable{}
	}
	if target == name {
		s.warnf("%s: nameref variable self references not allowed", name)
	}
	v.Kind = Scalar
	v.Value = target
	v.index = nil
	v.keys = nil
	v.assoc = nil
	if target == "" {
		v.Kind = Declared
	}
	v.Attrs |= Nameref
	s.vars[name] = v
	return nil
}

// SetAttr turns attributes on or off. Readonly can't be removed.
func (s *Store) SetAttr(name string, attrs Attr, on bool) error {
	if attrs&Nameref != 0 {
		v := s.vars[name]
		if v == nil {
			v = &Variable{Kind: Declared}
		}
		if on {
			v.Attrs |= Nameref
		} else {
			v.Attrs &^= Nameref
		}
		s.vars[name] = v
		attrs &^= Nameref
		if attrs == 0 {
			return nil
		}
	}

	resolved, ok := s.resolve(name)
	if !ok {
		return &ErrCircular{Name: name}
	}
	base, _, _ := SplitSubscript(resolved)
	if IsSpecial(base) {
		return nil
	}
	if !ValidName(base) {
		return fmt.Errorf("`%s': not a valid identifier", name)
	}
	v := s.vars[base]
	if v == nil {
		v = &Variable{Kind: Declared}
	}
	if on {
		v.Attrs |= attrs
		switch {
		case attrs&Lower != 0:
			v.Attrs &^= Upper
		case attrs&Upper != 0:
			v.Attrs &^= Lower
		}
	} else {
		if attrs&ReadOnly != 0 && v.Attrs&ReadOnly != 0 {
			return &ErrReadOnly{Name: base}
		}
		v.Attrs &^= attrs
	}
	s.vars[base] = v
	return nil
}

// Export marks name for inclusion in Environ.
func (s *Store) Export(name string) error {
	if err := s.SetAttr(name, Exported, true); err != nil {
		return err
	}
	s.tagLocalExport(name)
	return nil
}

// SetReadOnly forbids further assignment to name.
func (s *Store) SetReadOnly(name string) error {
	return s.SetAttr(name, ReadOnly, true)
}

// SetKey assigns one element of name. For associative arrays key is used
// verbatim; other variables evaluate it as an index.
func (s *Store) SetKey(name, key, value string) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}
	if v.Kind != Assoc {
		return s.setElement(base, v, key, value)
	}
	v.setKey(key, s.transform(v, value))
	s.vars[base] = v
	return nil
}

// UnsetKey removes one element of name, see SetKey for how key is read.
func (s *Store) UnsetKey(name, key string) error {
	resolved, ok := s.resolve(name)
	if !ok {
		return nil
	}
	base, _, _ := SplitSubscript(resolved)
	v := s.vars[base]
	if v == nil || v.Kind != Assoc {
		return s.Unset(base + "[" + key + "]")
	}
	if v.Attrs&ReadOnly != 0 {
		return &ErrReadOnly{Name: base}
	}
	v.deleteKey(key)
	return nil
}
