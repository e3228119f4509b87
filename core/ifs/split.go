// Package ifs implements field splitting on the characters of $IFS.
package ifs

import (
	"strings"
)

// Default is the value the shell uses when IFS is unset.
const Default = " \t\n"

// IsWhitespace reports whether r is one of the IFS whitespace characters.
func IsWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// token is a single input character, escaped characters never separate.
type token struct {
	r       rune
	escaped bool
}

func tokenize(s string, raw bool) []token {
	runes := []rune(s)
	out := make([]token, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		if !raw && runes[i] == '\\' {
			if i+1 < len(runes) {
				i++
				out = append(out, token{r: runes[i], escaped: true})
			}
			continue
		}
		out = append(out, token{r: runes[i]})
	}
	return out
}

func text(toks []token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteRune(t.r)
	}
	return sb.String()
}

// separators classifies characters against one IFS value.
type separators string

func (s separators) isSep(t token) bool {
	return !t.escaped && strings.ContainsRune(string(s), t.r)
}

func (s separators) isSpace(t token) bool {
	return s.isSep(t) && IsWhitespace(t.r)
}

func (s separators) isOther(t token) bool {
	return s.isSep(t) && !IsWhitespace(t.r)
}

func (s separators) skipSpace(toks []token, i int) int {
	for i < len(toks) && s.isSpace(toks[i]) {
		i++
	}
	return i
}

// skipBoundary consumes one field boundary starting at i: a whitespace run,
// at most one non-whitespace separator, then another whitespace run.
func (s separators) skipBoundary(toks []token, i int) int {
	i = s.skipSpace(toks, i)
	if i < len(toks) && s.isOther(toks[i]) {
		i = s.skipSpace(toks, i+1)
	}
	return i
}

func (s separators) split(toks []token, max int) []string {
	var fields []string

	i := s.skipSpace(toks, 0)
	for i < len(toks) {
		if max > 0 && len(fields) == max-1 {
			return append(fields, text(s.trimTail(toks[i:])))
		}

		start := i
		for i < len(toks) && !s.isSep(toks[i]) {
			i++
		}
		fields = append(fields, text(toks[start:i]))
		if i >= len(toks) {
			break
		}
		i = s.skipBoundary(toks, i)
	}

	return fields
}

func (s separators) trimTail(toks []token) []token {
	end := len(toks)
	for end > 0 && s.isSpace(toks[end-1]) {
		end--
	}
	if end == 0 || !s.isOther(toks[end-1]) {
		return toks[:end]
	}
	for _, t := range toks[:end-1] {
		if s.isOther(t) {
			return toks[:end]
		}
	}
	end--
	for end > 0 && s.isSpace(toks[end-1]) {
		end--
	}
	return toks[:end]
}

// Split breaks value into fields using the characters in ifs.
//
// An empty ifs disables splitting. Otherwise whitespace separators collapse
// and are trimmed from both ends while every non-whitespace separator marks
// a boundary of its own, so "a::b" with IFS=":" has an empty middle field.
func Split(value, ifs string) []string {
	if ifs == "" {
		if value == "" {
			return nil
		}
		return []string{value}
	}
	return separators(ifs).split(tokenize(value, true), 0)
}

// ReadOptions modify splitting for the read builtin.
type ReadOptions struct {
	// MaxFields caps the number of fields, the last one receives the rest of
	// the line. Zero means unlimited.
	MaxFields int
	// Raw disables backslash escaping.
	Raw bool
}

// ReadSplit splits a line the way the read builtin assigns it to names.
func ReadSplit(value, ifs string, opts ReadOptions) []string {
	toks := tokenize(value, opts.Raw)
	if ifs == "" {
		if len(toks) == 0 {
			return nil
		}
		return []string{text(toks)}
	}
	return separators(ifs).split(toks, opts.MaxFields)
}

// TrimReadTail removes trailing IFS whitespace from value and then a single
// trailing non-whitespace separator, provided no other non-whitespace
// separator occurs earlier in value.
func TrimReadTail(value, ifs string) string {
	return text(separators(ifs).trimTail(tokenize(value, true)))
}
