// Package frames manages the call frames of shell functions: the depth
// limit, the FUNCNAME/BASH_LINENO/BASH_SOURCE stacks, local scopes and the
// positional parameters saved across a call.
package frames

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/vars"
)

// DefaultMaxDepth is the call depth limit when none is configured.
const DefaultMaxDepth = 1000

// Assignment is a prefix assignment such as X=1 in `X=1 f`.
type Assignment struct {
	Name  string
	Value string
}

// Site describes where a function was called from.
type Site struct {
	// Name is the function being called.
	Name string
	// Line is the line of the call.
	Line int
	// Source is the file the function was defined in.
	Source string

	// Prefix assignments are local to the call unless Posix is set, in which
	// case they persist after it.
	Prefix []Assignment
	Posix  bool
}

// Frame is the saved state of one call.
type Frame struct {
	site       Site
	scope      vars.ScopeID
	positional []string
	cleaned    bool
}

// Manager tracks active calls for one shell.
type Manager struct {
	store *vars.Store

	// MaxDepth is the deepest allowed call nesting.
	MaxDepth int
	// MainSource names the top level script in BASH_SOURCE.
	MainSource string

	depth int
	stack []Site
}

var _ vars.CallStack = (*Manager)(nil)

// New creates a manager and installs it as the store's call stack.
func New(store *vars.Store, maxDepth int) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	m := &Manager{
		store:      store,
		MaxDepth:   maxDepth,
		MainSource: "main",
	}
	store.SetCallStack(m)
	return m
}

// Depth is the number of active calls.
func (m *Manager) Depth() int {
	return m.depth
}

// limit is MaxDepth, lowered by a positive FUNCNEST.
func (m *Manager) limit() int {
	limit := m.MaxDepth
	if n, err := strconv.Atoi(strings.TrimSpace(m.store.Get("FUNCNEST"))); err == nil && n > 0 && n < limit {
		limit = n
	}
	return limit
}

// Setup enters a call. The depth is checked before anything else changes;
// on failure the depth is left as it was and an execution limit signal is
// returned.
func (m *Manager) Setup(args []string, site Site) (*Frame, error) {
	m.depth++
	if limit := m.limit(); m.depth > limit {
		m.depth--
		return nil, flow.NewExecutionLimit(fmt.Sprintf("%s: maximum function nesting level exceeded (%d)", site.Name, limit))
	}

	if site.Posix {
		for _, a := range site.Prefix {
			if err := m.store.Set(a.Name, a.Value); err != nil {
				m.depth--
				return nil, err
			}
		}
	}

	f := &Frame{
		site:       site,
		positional: m.store.Positional(),
	}
	m.stack = append(m.stack, site)
	f.scope = m.store.PushScope()
	m.store.SetPositional(args)

	if !site.Posix {
		for _, a := range site.Prefix {
			if err := m.store.DeclareLocal(a.Name); err != nil {
				m.Cleanup(f)
				return nil, err
			}
			if err := m.store.Set(a.Name, a.Value); err != nil {
				m.Cleanup(f)
				return nil, err
			}
			if err := m.store.Export(a.Name); err != nil {
				m.Cleanup(f)
				return nil, err
			}
		}
	}
	return f, nil
}

// Cleanup leaves a call, restoring shadowed variables and the caller's
// positional parameters. Calling it more than once has no further effect.
func (m *Manager) Cleanup(f *Frame) {
	if f == nil || f.cleaned {
		return
	}
	f.cleaned = true

	m.store.PopScope(f.scope)
	m.store.SetPositional(f.positional)
	if len(m.stack) > 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}
	m.depth--
}

// Call runs body inside a new frame. A return signal from body becomes the
// result of the call; every other signal is passed on after cleanup.
func (m *Manager) Call(args []string, site Site, body func() (flow.Result, error)) (flow.Result, error) {
	f, err := m.Setup(args, site)
	if err != nil {
		return flow.Result{}, err
	}
	defer m.Cleanup(f)

	res, err := body()
	if sig, ok := flow.As(err); ok && sig.Kind == flow.Return {
		return flow.Result{Stdout: sig.Stdout, Stderr: sig.Stderr, ExitCode: sig.Code}, nil
	}
	return res, err
}

// FuncNames implements vars.CallStack.
func (m *Manager) FuncNames() []string {
	if len(m.stack) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.stack)+1)
	for i := len(m.stack) - 1; i >= 0; i-- {
		out = append(out, m.stack[i].Name)
	}
	return append(out, "main")
}

// CallLines implements vars.CallStack.
func (m *Manager) CallLines() []string {
	if len(m.stack) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.stack)+1)
	for i := len(m.stack) - 1; i >= 0; i-- {
		out = append(out, strconv.Itoa(m.stack[i].Line))
	}
	return append(out, "0")
}

// CallSources implements vars.CallStack.
func (m *Manager) CallSources() []string {
	if len(m.stack) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.stack)+1)
	for i := len(m.stack) - 1; i >= 0; i-- {
		src := m.stack[i].Source
		if src == "" {
			src = m.MainSource
		}
		out = append(out, src)
	}
	return append(out, m.MainSource)
}

// Clone copies the call stack onto store, used for subshells.
func (m *Manager) Clone(store *vars.Store) *Manager {
	out := New(store, m.MaxDepth)
	out.MainSource = m.MainSource
	out.depth = m.depth
	out.stack = append([]Site(nil), m.stack...)
	return out
}
