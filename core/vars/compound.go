package vars

import (
	"fmt"
	"strings"
)

// CompoundElem is one element of a compound assignment like a=(x [3]=y).
type CompoundElem struct {
	Key    string
	HasKey bool
	Value  string
}

// ParseCompound splits the text of a compound assignment into elements. The
// surrounding parentheses are optional. Quotes and backslashes are removed;
// no expansion is performed.
func ParseCompound(s string) ([]CompoundElem, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return nil, fmt.Errorf("%s: missing closing `)'", s)
		}
		s = s[1 : len(s)-1]
	}

	var out []CompoundElem
	for i := 0; i < len(s); {
		if c := s[i]; c == ' ' || c == '\t' || c == '\n' {
			i++
			continue
		}

		var elem CompoundElem
		if s[i] == '[' {
			end := strings.Index(s[i:], "]=")
			if end < 0 {
				return nil, fmt.Errorf("%s: must use subscript when assigning associative array", s[i:])
			}
			key, _, err := unquoteWord(s[i+1:i+end], 0)
			if err != nil {
				return nil, err
			}
			elem.Key, elem.HasKey = key, true
			i += end + 2
		}

		value, next, err := unquoteWord(s, i)
		if err != nil {
			return nil, err
		}
		elem.Value = value
		out = append(out, elem)
		i = next
	}
	return out, nil
}

// unquoteWord reads one blank-delimited word starting at from.
func unquoteWord(s string, from int) (string, int, error) {
	var sb strings.Builder
	i := from
	for i < len(s) {
		switch c := s[i]; c {
		case ' ', '\t', '\n':
			return sb.String(), i, nil
		case '\\':
			if i+1 < len(s) {
				sb.WriteByte(s[i+1])
			}
			i += 2
		case '\'':
			end := strings.IndexByte(s[i+1:], '\'')
			if end < 0 {
				return "", 0, fmt.Errorf("unexpected EOF while looking for matching `''")
			}
			sb.WriteString(s[i+1 : i+1+end])
			i += end + 2
		case '"':
			i++
			for ; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' && i+1 < len(s) && strings.IndexByte("\\\"$`", s[i+1]) >= 0 {
					i++
				}
				sb.WriteByte(s[i])
			}
			if i >= len(s) {
				return "", 0, fmt.Errorf("unexpected EOF while looking for matching `\"'")
			}
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i, nil
}

// AssignCompound assigns elems to name. Indexed arrays place unkeyed
// elements after the previous one; associative arrays use keys verbatim and
// read unkeyed elements as alternating keys and values. Unless appending,
// the variable is emptied first.
func (s *Store) AssignCompound(name string, elems []CompoundElem, appending bool) error {
	base, _, _, v, err := s.target(name)
	if err != nil {
		return err
	}

	if v.Kind == Assoc {
		if !appending {
			v.keys = nil
			v.assoc = make(map[string]string)
		}
		for i := 0; i < len(elems); i++ {
			e := elems[i]
			if e.HasKey {
				v.setKey(e.Key, s.transform(v, e.Value))
				continue
			}
			val := ""
			if i+1 < len(elems) && !elems[i+1].HasKey {
				val = elems[i+1].Value
				i++
			}
			v.setKey(e.Value, s.transform(v, val))
		}
		s.vars[base] = v
		return nil
	}

	if !appending || v.Kind != Indexed {
		keep := appending && v.Kind == Scalar
		v.toIndexed()
		if !keep {
			v.index = make(map[int]string)
		}
	}
	next := v.maxIndex() + 1
	for _, e := range elems {
		if e.HasKey {
			idx, ok := s.index(v, e.Key)
			if !ok {
				return fmt.Errorf("%s[%s]: bad array subscript", base, e.Key)
			}
			next = idx
		}
		v.index[next] = s.transform(v, e.Value)
		next++
	}
	s.vars[base] = v
	return nil
}
