// Package options holds the set -o and shopt option state of a shell.
package options

import (
	"fmt"
	"sort"
	"strings"
)

// Option names one of the set -o options.
type Option int

// The options that change shell behaviour.
const (
	Errexit Option = iota
	Nounset
	Pipefail
	Xtrace
	Verbose
	Noglob
	Noclobber
	Allexport
	Noexec
	Posix
	Vi
	Emacs

	// Options below are accepted and reported but only braceexpand has an
	// effect.
	Braceexpand
	Errtrace
	Functrace
	Hashall
	Histexpand
	History
	Ignoreeof
	InteractiveComments
	Keyword
	Monitor
	Nolog
	Notify
	Onecmd
	Physical
	Privileged

	numOptions
)

type descriptor struct {
	name string
	// flag is the single letter used by set -x style flags and $-, 0 if none.
	flag byte
	// on is the default value.
	on bool
}

var catalogue = [numOptions]descriptor{
	Errexit:             {"errexit", 'e', false},
	Nounset:             {"nounset", 'u', false},
	Pipefail:            {"pipefail", 0, false},
	Xtrace:              {"xtrace", 'x', false},
	Verbose:             {"verbose", 'v', false},
	Noglob:              {"noglob", 'f', false},
	Noclobber:           {"noclobber", 'C', false},
	Allexport:           {"allexport", 'a', false},
	Noexec:              {"noexec", 'n', false},
	Posix:               {"posix", 0, false},
	Vi:                  {"vi", 0, false},
	Emacs:               {"emacs", 0, false},
	Braceexpand:         {"braceexpand", 'B', true},
	Errtrace:            {"errtrace", 'E', false},
	Functrace:           {"functrace", 'T', false},
	Hashall:             {"hashall", 'h', true},
	Histexpand:          {"histexpand", 'H', false},
	History:             {"history", 0, false},
	Ignoreeof:           {"ignoreeof", 0, false},
	InteractiveComments: {"interactive-comments", 0, true},
	Keyword:             {"keyword", 'k', false},
	Monitor:             {"monitor", 'm', false},
	Nolog:               {"nolog", 0, false},
	Notify:              {"notify", 'b', false},
	Onecmd:              {"onecmd", 't', false},
	Physical:            {"physical", 'P', false},
	Privileged:          {"privileged", 'p', false},
}

// String returns the set -o name of the option.
func (o Option) String() string {
	if o < 0 || o >= numOptions {
		return fmt.Sprintf("Option(%d)", int(o))
	}
	return catalogue[o].name
}

// Lookup finds an option by its set -o name.
func Lookup(name string) (Option, bool) {
	for i, d := range catalogue {
		if d.name == name {
			return Option(i), true
		}
	}
	return 0, false
}

// LookupFlag finds an option by its single letter flag.
func LookupFlag(flag byte) (Option, bool) {
	for i, d := range catalogue {
		if d.flag != 0 && d.flag == flag {
			return Option(i), true
		}
	}
	return 0, false
}

// Names lists every set -o option name in alphabetical order.
func Names() []string {
	var out []string
	for _, d := range catalogue {
		out = append(out, d.name)
	}
	sort.Strings(out)
	return out
}

// Publisher receives the introspection strings every time options change.
type Publisher interface {
	PublishOptions(flags, shellopts, bashopts string)
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(flags, shellopts, bashopts string)

// PublishOptions implements Publisher.
func (f PublisherFunc) PublishOptions(flags, shellopts, bashopts string) {
	f(flags, shellopts, bashopts)
}

// ErrUnknown is returned for option names that aren't in the catalogue.
type ErrUnknown struct {
	Kind string
	Name string
}

func (e *ErrUnknown) Error() string {
	if e.Kind == "shopt" {
		return fmt.Sprintf("%s: invalid shell option name", e.Name)
	}
	return fmt.Sprintf("%s: invalid option name", e.Name)
}

// Options is the option record of a single shell.
type Options struct {
	set   [numOptions]bool
	shopt map[string]bool

	publisher Publisher
}

// New creates options with their defaults.
func New() *Options {
	o := &Options{shopt: make(map[string]bool)}
	for i, d := range catalogue {
		o.set[i] = d.on
	}
	for name, sd := range shoptCatalogue {
		o.shopt[name] = sd.on
	}
	return o
}

// SetPublisher installs p and publishes the current state to it.
func (o *Options) SetPublisher(p Publisher) {
	o.publisher = p
	o.publish()
}

// Enabled reports whether opt is on.
func (o *Options) Enabled(opt Option) bool {
	return o.set[opt]
}

// Enable turns opt on or off. vi and emacs exclude each other.
func (o *Options) Enable(opt Option, on bool) {
	o.set[opt] = on
	if on {
		switch opt {
		case Vi:
			o.set[Emacs] = false
		case Emacs:
			o.set[Vi] = false
		}
	}
	o.publish()
}

// Get returns the state of a named set -o option.
func (o *Options) Get(name string) (bool, error) {
	opt, ok := Lookup(name)
	if !ok {
		return false, &ErrUnknown{Kind: "set", Name: name}
	}
	return o.set[opt], nil
}

// Set changes a named set -o option.
func (o *Options) Set(name string, on bool) error {
	opt, ok := Lookup(name)
	if !ok {
		return &ErrUnknown{Kind: "set", Name: name}
	}
	o.Enable(opt, on)
	return nil
}

// Flags returns the value of $-.
func (o *Options) Flags() string {
	var sb strings.Builder
	for i, d := range catalogue {
		if d.flag != 0 && o.set[i] {
			sb.WriteByte(d.flag)
		}
	}
	return sb.String()
}

// ShellOpts returns the value of SHELLOPTS, the enabled set -o names joined
// with colons in alphabetical order.
func (o *Options) ShellOpts() string {
	var on []string
	for i, d := range catalogue {
		if o.set[i] {
			on = append(on, d.name)
		}
	}
	sort.Strings(on)
	return strings.Join(on, ":")
}

// Each calls fn with every set -o option in alphabetical order.
func (o *Options) Each(fn func(name string, on bool)) {
	for _, name := range Names() {
		opt, _ := Lookup(name)
		fn(name, o.set[opt])
	}
}

func (o *Options) publish() {
	if o.publisher == nil {
		return
	}
	o.publisher.PublishOptions(o.Flags(), o.ShellOpts(), o.BashOpts())
}

// Clone returns an independent copy without a publisher, used for
// subshells.
func (o *Options) Clone() *Options {
	out := &Options{set: o.set, shopt: make(map[string]bool, len(o.shopt))}
	for k, v := range o.shopt {
		out.shopt[k] = v
	}
	return out
}
