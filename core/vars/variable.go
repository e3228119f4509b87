// Package vars implements shell variable storage: scalars, indexed and
// associative arrays, namerefs, positional parameters, special variables
// and the dynamic local scopes opened by function calls.
package vars

import (
	"sort"
	"strconv"
)

// Kind is the storage shape of a variable.
type Kind int

const (
	// Declared variables have attributes but no value yet, like `export X`.
	Declared Kind = iota
	Scalar
	Indexed
	Assoc
)

// Attr is a set of variable attributes.
type Attr uint

const (
	Exported Attr = 1 << iota
	ReadOnly
	Nameref
	Integer
	Lower
	Upper
)

// Element is one entry of an array, Key is the decimal index for indexed
// arrays.
type Element struct {
	Key   string
	Value string
}

// Variable is a single named binding.
type Variable struct {
	Kind  Kind
	Attrs Attr
	// Value holds the scalar value or, for namerefs, the target name.
	Value string

	index map[int]string
	keys  []string
	assoc map[string]string
}

func (v *Variable) clone() *Variable {
	if v == nil {
		return nil
	}
	out := *v
	if v.index != nil {
		out.index = make(map[int]string, len(v.index))
		for k, val := range v.index {
			out.index[k] = val
		}
	}
	if v.assoc != nil {
		out.keys = append([]string(nil), v.keys...)
		out.assoc = make(map[string]string, len(v.assoc))
		for k, val := range v.assoc {
			out.assoc[k] = val
		}
	}
	return &out
}

func (v *Variable) toIndexed() {
	switch v.Kind {
	case Indexed:
		return
	case Scalar:
		v.index = map[int]string{0: v.Value}
	default:
		v.index = make(map[int]string)
	}
	v.Kind = Indexed
	v.Value = ""
}

func (v *Variable) toAssoc() {
	switch v.Kind {
	case Assoc:
		return
	case Scalar:
		v.keys = []string{"0"}
		v.assoc = map[string]string{"0": v.Value}
	case Indexed:
		v.keys = nil
		v.assoc = make(map[string]string)
		for _, i := range v.indices() {
			key := strconv.Itoa(i)
			v.keys = append(v.keys, key)
			v.assoc[key] = v.index[i]
		}
	default:
		v.assoc = make(map[string]string)
	}
	v.index = nil
	v.Kind = Assoc
	v.Value = ""
}

func (v *Variable) indices() []int {
	out := make([]int, 0, len(v.index))
	for i := range v.index {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// maxIndex returns the highest index in use, or -1 for an empty array.
func (v *Variable) maxIndex() int {
	max := -1
	for i := range v.index {
		if i > max {
			max = i
		}
	}
	return max
}

func (v *Variable) setKey(key, value string) {
	if _, ok := v.assoc[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.assoc[key] = value
}

func (v *Variable) deleteKey(key string) {
	if _, ok := v.assoc[key]; !ok {
		return
	}
	delete(v.assoc, key)
	for i, k := range v.keys {
		if k == key {
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			break
		}
	}
}

// elements lists the values in iteration order.
func (v *Variable) elements() []Element {
	switch v.Kind {
	case Scalar:
		return []Element{{Key: "0", Value: v.Value}}
	case Indexed:
		var out []Element
		for _, i := range v.indices() {
			out = append(out, Element{Key: strconv.Itoa(i), Value: v.index[i]})
		}
		return out
	case Assoc:
		var out []Element
		for _, k := range v.keys {
			out = append(out, Element{Key: k, Value: v.assoc[k]})
		}
		return out
	}
	return nil
}

// first returns the value the bare name expands to.
func (v *Variable) first() (string, bool) {
	switch v.Kind {
	case Scalar:
		return v.Value, true
	case Indexed:
		val, ok := v.index[0]
		return val, ok
	case Assoc:
		val, ok := v.assoc["0"]
		return val, ok
	}
	return "", false
}
