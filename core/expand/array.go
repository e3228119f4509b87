// Package expand implements the parts of word expansion that sit between the
// variable store and the pattern engine: star/at array splitting, slicing,
// per-element pattern operations, variables embedded in patterns and the
// quote-aware field splitting of expanded words.
package expand

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/josephlewis42/honeybash/core/ifs"
	"github.com/josephlewis42/honeybash/core/vars"
)

// Mode selects how an unquoted array expansion is split.
type Mode int

const (
	// Star joins the elements with the first IFS character and splits the
	// result once, like $* and ${a[*]}.
	Star Mode = iota
	// At splits every element on its own, like $@ and ${a[@]}.
	At
)

// ErrNegativeLength is returned for slices whose length resolves below zero.
var ErrNegativeLength = errors.New("substring expression < 0")

// Join concatenates elems with the first character of sep.
func Join(elems []string, sep string) string {
	if r, size := utf8.DecodeRuneInString(sep); size > 0 {
		sep = string(r)
	}
	return strings.Join(elems, sep)
}

// SplitArray produces the fields of an unquoted array expansion.
//
// With an empty IFS no splitting happens and every non-empty element is a
// field of its own in both modes.
func SplitArray(elems []string, mode Mode, ifsChars string) []string {
	if ifsChars == "" {
		var out []string
		for _, e := range elems {
			if e != "" {
				out = append(out, e)
			}
		}
		return out
	}

	if mode == Star {
		return ifs.Split(Join(elems, ifsChars), ifsChars)
	}

	var out []string
	for _, e := range elems {
		out = append(out, ifs.Split(e, ifsChars)...)
	}
	return out
}

// Slice returns elems[offset:offset+length]. A negative offset counts back
// from the end; an offset before the start yields nothing.
func Slice(elems []string, offset, length int, hasLength bool) ([]string, error) {
	if hasLength && length < 0 {
		return nil, ErrNegativeLength
	}
	start := offset
	if start < 0 {
		start += len(elems)
		if start < 0 {
			return nil, nil
		}
	}
	if start >= len(elems) {
		return nil, nil
	}
	end := len(elems)
	if hasLength && start+length < end {
		end = start + length
	}
	return append([]string(nil), elems[start:end]...), nil
}

// SliceIndexed slices an indexed array by index rather than by position:
// elements whose index is at least offset are kept, negative offsets count
// back from one past the highest index.
func SliceIndexed(elems []vars.Element, offset, length int, hasLength bool) ([]string, error) {
	if hasLength && length < 0 {
		return nil, ErrNegativeLength
	}
	if offset < 0 {
		max := -1
		for _, e := range elems {
			if i, err := strconv.Atoi(e.Key); err == nil && i > max {
				max = i
			}
		}
		offset += max + 1
		if offset < 0 {
			return nil, nil
		}
	}

	var out []string
	for _, e := range elems {
		i, err := strconv.Atoi(e.Key)
		if err != nil || i < offset {
			continue
		}
		if hasLength && len(out) >= length {
			break
		}
		out = append(out, e.Value)
	}
	return out, nil
}

// SliceString returns the substring of s by character. A negative offset
// counts from the end; a negative length ends that many characters before
// the end.
func SliceString(s string, offset, length int, hasLength bool) (string, error) {
	r := []rune(s)
	start := offset
	if start < 0 {
		start += len(r)
		if start < 0 {
			return "", nil
		}
	}
	if start > len(r) {
		return "", nil
	}

	end := len(r)
	if hasLength {
		if length < 0 {
			end = len(r) + length
			if end < start {
				return "", ErrNegativeLength
			}
		} else if start+length < end {
			end = start + length
		}
	}
	return string(r[start:end]), nil
}
