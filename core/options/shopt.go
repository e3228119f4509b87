package options

import (
	"sort"
	"strings"
)

// Names of the shopt options the core acts on.
const (
	Extglob     = "extglob"
	Nullglob    = "nullglob"
	Failglob    = "failglob"
	Dotglob     = "dotglob"
	Nocaseglob  = "nocaseglob"
	Nocasematch = "nocasematch"
	XpgEcho     = "xpg_echo"
)

type shoptDescriptor struct {
	on bool
}

// shoptCatalogue lists every recognized shopt name, most are inert.
var shoptCatalogue = map[string]shoptDescriptor{
	Extglob:                   {false},
	Nullglob:                  {false},
	Failglob:                  {false},
	Dotglob:                   {false},
	Nocaseglob:                {false},
	Nocasematch:               {false},
	XpgEcho:                   {false},
	"autocd":                  {false},
	"cdspell":                 {false},
	"checkhash":               {false},
	"checkwinsize":            {true},
	"cmdhist":                 {true},
	"expand_aliases":          {false},
	"extquote":                {true},
	"globasciiranges":         {true},
	"globstar":                {false},
	"histappend":              {false},
	"inherit_errexit":         {false},
	"interactive_comments":    {true},
	"lastpipe":                {false},
	"lithist":                 {false},
	"localvar_inherit":        {false},
	"progcomp":                {true},
	"promptvars":              {true},
	"shift_verbose":           {false},
	"sourcepath":              {true},
	"complete_fullquote":      {true},
	"assoc_expand_once":       {false},
	"force_fignore":           {true},
	"no_empty_cmd_completion": {false},
}

// ShoptNames lists every shopt name in alphabetical order.
func ShoptNames() []string {
	out := make([]string, 0, len(shoptCatalogue))
	for name := range shoptCatalogue {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Shopt returns the state of a shopt option.
func (o *Options) Shopt(name string) (bool, error) {
	if _, ok := shoptCatalogue[name]; !ok {
		return false, &ErrUnknown{Kind: "shopt", Name: name}
	}
	return o.shopt[name], nil
}

// ShoptEnabled is Shopt for names known to be valid.
func (o *Options) ShoptEnabled(name string) bool {
	return o.shopt[name]
}

// SetShopt changes a shopt option.
func (o *Options) SetShopt(name string, on bool) error {
	if _, ok := shoptCatalogue[name]; !ok {
		return &ErrUnknown{Kind: "shopt", Name: name}
	}
	o.shopt[name] = on
	o.publish()
	return nil
}

// BashOpts returns the value of BASHOPTS.
func (o *Options) BashOpts() string {
	var on []string
	for _, name := range ShoptNames() {
		if o.shopt[name] {
			on = append(on, name)
		}
	}
	return strings.Join(on, ":")
}
