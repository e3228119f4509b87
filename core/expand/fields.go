package expand

import (
	"strings"

	"github.com/josephlewis42/honeybash/core/ifs"
	"github.com/josephlewis42/honeybash/core/pattern"
)

// Fragment is one piece of an expanded word.
type Fragment struct {
	Text string
	// Quoted text is never split or treated as glob syntax.
	Quoted bool
	// Split marks unquoted expansion results, the only text subject to IFS
	// splitting.
	Split bool
	// Break forces a field boundary, as between the elements of "$@".
	Break bool
}

// Field is one word after splitting.
type Field struct {
	// Value is the field text.
	Value string
	// Pattern is Value with quoted characters glob escaped.
	Pattern string
	// Glob reports whether Pattern contains unquoted glob syntax.
	Glob bool
}

type fieldBuilder struct {
	value   strings.Builder
	pattern strings.Builder
	glob    bool
	started bool
}

func (b *fieldBuilder) add(text string, quoted bool) {
	b.started = true
	b.value.WriteString(text)
	if quoted {
		b.pattern.WriteString(pattern.QuoteMeta(text))
	} else {
		b.pattern.WriteString(text)
	}
}

func (b *fieldBuilder) field(extglob bool) Field {
	p := b.pattern.String()
	return Field{
		Value:   b.value.String(),
		Pattern: p,
		Glob:    b.glob && pattern.HasMeta(p, extglob),
	}
}

// SplitFragments performs field splitting over the fragments of one word.
// Separators inside Split fragments end fields; everything else joins the
// current field. A word made only of empty unquoted expansions produces no
// fields while "" produces one empty field.
func SplitFragments(frags []Fragment, ifsChars string, extglob bool) []Field {
	var out []Field
	cur := &fieldBuilder{}
	pendingSpace := false

	emit := func() {
		out = append(out, cur.field(extglob))
		cur = &fieldBuilder{}
		pendingSpace = false
	}

	for _, f := range frags {
		if f.Break {
			emit()
			continue
		}

		if !f.Split || f.Quoted || ifsChars == "" {
			if pendingSpace {
				emit()
			}
			cur.add(f.Text, f.Quoted)
			if !f.Quoted {
				cur.glob = true
			}
			continue
		}

		for _, r := range f.Text {
			switch {
			case strings.ContainsRune(ifsChars, r) && ifs.IsWhitespace(r):
				if cur.started {
					pendingSpace = true
				}
			case strings.ContainsRune(ifsChars, r):
				emit()
			default:
				if pendingSpace {
					emit()
				}
				cur.add(string(r), false)
				cur.glob = true
			}
		}
	}

	if cur.started {
		out = append(out, cur.field(extglob))
	}
	return out
}

// JoinFragments concatenates fragments without splitting, as in assignments
// and other contexts that produce a single word.
func JoinFragments(frags []Fragment, extglob bool) Field {
	b := &fieldBuilder{}
	for _, f := range frags {
		if f.Break {
			b.add(" ", true)
			continue
		}
		b.add(f.Text, f.Quoted)
		if !f.Quoted {
			b.glob = true
		}
	}
	return b.field(extglob)
}
