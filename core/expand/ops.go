package expand

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/josephlewis42/honeybash/core/pattern"
)

// RemoveOp is one of the ${x#p} style operators.
type RemoveOp int

const (
	RemoveShortPrefix RemoveOp = iota // #
	RemoveLongPrefix                  // ##
	RemoveShortSuffix                 // %
	RemoveLongSuffix                  // %%
)

// ReplaceOp is one of the ${x/p/r} style operators.
type ReplaceOp int

const (
	ReplaceFirst  ReplaceOp = iota // /
	ReplaceAll                     // //
	ReplacePrefix                  // /#
	ReplaceSuffix                  // /%
)

// CaseOp is one of the ${x^p} style operators.
type CaseOp int

const (
	UpperFirst CaseOp = iota // ^
	UpperAll                 // ^^
	LowerFirst               // ,
	LowerAll                 // ,,
)

// boundaries lists the byte offsets of every rune start plus len(s).
func boundaries(s string) []int {
	out := make([]int, 0, len(s)+1)
	for i := range s {
		out = append(out, i)
	}
	return append(out, len(s))
}

type matchFunc func(string) bool

func compile(pat string, opts pattern.Options) matchFunc {
	m, err := pattern.Compile(pat, opts)
	if err != nil {
		return func(s string) bool {
			return pattern.Match(pat, s, opts)
		}
	}
	return m.Match
}

// RemovePattern applies a prefix or suffix removal to every element.
func RemovePattern(elems []string, pat string, op RemoveOp, opts pattern.Options) []string {
	match := compile(pat, opts)
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = remove(e, match, op)
	}
	return out
}

func remove(s string, match matchFunc, op RemoveOp) string {
	b := boundaries(s)
	switch op {
	case RemoveShortPrefix:
		for _, i := range b {
			if match(s[:i]) {
				return s[i:]
			}
		}
	case RemoveLongPrefix:
		for k := len(b) - 1; k >= 0; k-- {
			if match(s[:b[k]]) {
				return s[b[k]:]
			}
		}
	case RemoveShortSuffix:
		for k := len(b) - 1; k >= 0; k-- {
			if match(s[b[k]:]) {
				return s[:b[k]]
			}
		}
	case RemoveLongSuffix:
		for _, i := range b {
			if match(s[i:]) {
				return s[:i]
			}
		}
	}
	return s
}

// ReplacePattern substitutes repl for the matches of pat in every element.
// Unanchored matches are leftmost-longest and never empty.
func ReplacePattern(elems []string, pat, repl string, op ReplaceOp, opts pattern.Options) []string {
	match := compile(pat, opts)
	out := make([]string, len(elems))
	for i, e := range elems {
		if pat == "" && (op == ReplaceFirst || op == ReplaceAll) {
			out[i] = e
			continue
		}
		out[i] = replace(e, match, repl, op)
	}
	return out
}

func replace(s string, match matchFunc, repl string, op ReplaceOp) string {
	b := boundaries(s)
	switch op {
	case ReplacePrefix:
		for k := len(b) - 1; k >= 0; k-- {
			if match(s[:b[k]]) {
				return repl + s[b[k]:]
			}
		}
		return s
	case ReplaceSuffix:
		for _, i := range b {
			if match(s[i:]) {
				return s[:i] + repl
			}
		}
		return s
	}

	var sb strings.Builder
	replaced := false
	k := 0
	for k < len(b)-1 {
		start := b[k]
		end := -1
		if !replaced || op == ReplaceAll {
			for j := len(b) - 1; j > k; j-- {
				if match(s[start:b[j]]) {
					end = j
					break
				}
			}
		}
		if end < 0 {
			sb.WriteString(s[start:b[k+1]])
			k++
			continue
		}
		sb.WriteString(repl)
		replaced = true
		k = end
	}
	return sb.String()
}

// CaseConvert changes the case of characters matching pat, which defaults
// to any single character. The First variants only look at the first
// character.
func CaseConvert(elems []string, pat string, op CaseOp, opts pattern.Options) []string {
	if pat == "" {
		pat = "?"
	}
	match := compile(pat, opts)

	conv := unicode.ToUpper
	if op == LowerFirst || op == LowerAll {
		conv = unicode.ToLower
	}
	all := op == UpperAll || op == LowerAll

	out := make([]string, len(elems))
	for i, e := range elems {
		var sb strings.Builder
		for j, r := range e {
			if (all || j == 0) && match(string(r)) {
				r = conv(r)
			}
			sb.WriteRune(r)
		}
		out[i] = sb.String()
	}
	return out
}

// Length returns the number of characters in s, like ${#x}.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
