package pattern

import (
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// GlobOptions control pathname expansion.
type GlobOptions struct {
	Extglob    bool
	DotGlob    bool
	IgnoreCase bool
	// Ignore holds GLOBIGNORE patterns, matched in exclusion-list mode
	// against each result. A non-empty list implies DotGlob.
	Ignore []string
	// Dir is the working directory relative patterns resolve against.
	Dir string
}

// Glob expands pattern against the filesystem and returns the sorted list of
// matching paths. Components without glob syntax must exist to match.
func Glob(fsys afero.Fs, pattern string, opts GlobOptions) ([]string, error) {
	if opts.Dir == "" {
		opts.Dir = "/"
	}
	if len(opts.Ignore) > 0 {
		opts.DotGlob = true
	}

	var candidates []string
	segments := splitSegments(pattern)
	if strings.HasPrefix(pattern, "/") {
		candidates = []string{"/"}
		segments = segments[1:]
	} else {
		candidates = []string{""}
	}

	for i, seg := range segments {
		last := i == len(segments)-1
		if seg == "" {
			if last {
				candidates = onlyDirs(fsys, opts.Dir, candidates)
			}
			continue
		}

		var next []string
		if !HasMeta(seg, opts.Extglob) {
			name := Unquote(seg)
			for _, c := range candidates {
				p := joinPath(c, name)
				if _, err := fsys.Stat(resolve(opts.Dir, p)); err == nil {
					next = append(next, p)
				}
			}
		} else {
			m, err := Compile(seg, Options{Extglob: opts.Extglob, IgnoreCase: opts.IgnoreCase})
			if err != nil {
				return nil, err
			}
			wantDot := strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, `\.`)
			for _, c := range candidates {
				entries, err := afero.ReadDir(fsys, resolve(opts.Dir, c))
				if err != nil {
					continue
				}
				for _, entry := range entries {
					name := entry.Name()
					if strings.HasPrefix(name, ".") && !wantDot && !opts.DotGlob {
						continue
					}
					if !last && !entry.IsDir() {
						continue
					}
					if m.Match(name) {
						next = append(next, joinPath(c, name))
					}
				}
			}
		}
		candidates = next
		if len(candidates) == 0 {
			return nil, nil
		}
	}

	if strings.HasSuffix(pattern, "/") {
		for i, c := range candidates {
			candidates[i] = c + "/"
		}
	}

	out, err := filterIgnored(candidates, opts)
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// splitSegments splits a pattern on '/' outside of bracket expressions.
func splitSegments(pattern string) []string {
	var out []string
	p := []rune(pattern)
	start := 0
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '\\':
			i++
		case '[':
			if _, end, ok := bracket(p, i); ok && !strings.ContainsRune(string(p[i:end]), '/') {
				i = end
			}
		case '/':
			out = append(out, string(p[start:i]))
			start = i + 1
		}
	}
	return append(out, string(p[start:]))
}

func filterIgnored(paths []string, opts GlobOptions) ([]string, error) {
	if len(opts.Ignore) == 0 {
		return paths, nil
	}

	var matchers []*Matcher
	for _, ig := range opts.Ignore {
		if ig == "" {
			continue
		}
		m, err := Compile(ig, Options{Extglob: opts.Extglob, IgnoreCase: opts.IgnoreCase, Exclude: true})
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	var out []string
outer:
	for _, p := range paths {
		base := path.Base(strings.TrimSuffix(p, "/"))
		if base == "." || base == ".." {
			continue
		}
		for _, m := range matchers {
			if m.Match(p) {
				continue outer
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func onlyDirs(fsys afero.Fs, dir string, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if ok, _ := afero.IsDir(fsys, resolve(dir, c)); ok {
			out = append(out, c)
		}
	}
	return out
}

func joinPath(dir, name string) string {
	switch dir {
	case "":
		return name
	case "/":
		return "/" + name
	default:
		return dir + "/" + name
	}
}

func resolve(dir, p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return path.Join(dir, p)
}
