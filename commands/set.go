package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/josephlewis42/honeybash/core/options"
)

const setUsage = "set [-abefhkmnptuvxBCHP] [-o option-name] [--] [arg ...]"

func printOptions(w io.Writer, names []string, get func(string) bool) {
	for _, name := range names {
		on := get(name)
		state := "off"
		if on {
			state = "on"
		}
		fmt.Fprintf(w, "%-15s\t%s\n", name, state)
	}
}

func setOptionGetter(opts *options.Options) func(string) bool {
	return func(name string) bool {
		on, _ := opts.Get(name)
		return on
	}
}

// Set implements the set builtin: it toggles options by flag or -o name,
// lists options and replaces the positional parameters.
func Set(s Shell, args []string) int {
	opts := s.Options()
	if len(args) == 1 {
		for _, decl := range s.Vars().Declarations() {
			// declare -x name=value
			if parts := strings.SplitN(decl, " ", 3); len(parts) == 3 {
				fmt.Fprintln(s.Stdout(), parts[2])
			}
		}
		for _, fn := range s.Functions() {
			if src, ok := s.FunctionSource(fn); ok {
				fmt.Fprintln(s.Stdout(), src)
			}
		}
		return 0
	}

	rest := args[1:]
	for len(rest) > 0 {
		arg := rest[0]
		if arg == "--" {
			s.Vars().SetPositional(rest[1:])
			return 0
		}
		if arg == "-" {
			opts.Enable(options.Xtrace, false)
			opts.Enable(options.Verbose, false)
			s.Vars().SetPositional(rest[1:])
			return 0
		}
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '+') {
			s.Vars().SetPositional(rest)
			return 0
		}

		on := arg[0] == '-'
		rest = rest[1:]
		for _, flag := range []byte(arg[1:]) {
			if flag == 'o' {
				if len(rest) == 0 {
					if on {
						printOptions(s.Stdout(), options.Names(), setOptionGetter(opts))
					} else {
						opts.Each(func(name string, enabled bool) {
							sign := "+"
							if enabled {
								sign = "-"
							}
							fmt.Fprintf(s.Stdout(), "set %so %s\n", sign, name)
						})
					}
					continue
				}
				name := rest[0]
				rest = rest[1:]
				if err := opts.Set(name, on); err != nil {
					fmt.Fprintf(s.Stderr(), "bash: set: %s\n", err)
					return 1
				}
				continue
			}

			opt, ok := options.LookupFlag(flag)
			if !ok {
				fmt.Fprintf(s.Stderr(), "bash: set: %c%c: invalid option\n", arg[0], flag)
				fmt.Fprintf(s.Stderr(), "set: usage: %s\n", setUsage)
				return StatusUsage
			}
			opts.Enable(opt, on)
		}
	}
	return 0
}

// Shopt implements the shopt builtin.
func Shopt(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "shopt [-pqsu] [-o] [optname ...]",
		Short: "Set and unset shell options.",
	}

	flags := cmd.Flags()
	enable := flags.Bool('s', "enable each optname")
	disable := flags.Bool('u', "disable each optname")
	reusable := flags.Bool('p', "print in a reusable format")
	quiet := flags.Bool('q', "suppress output")
	setNames := flags.Bool('o', "restrict optnames to those defined for set -o")

	return cmd.Run(s, args, func() int {
		opts := s.Options()
		get := opts.ShoptEnabled
		set := opts.SetShopt
		all := options.ShoptNames()
		if *setNames {
			get = setOptionGetter(opts)
			set = opts.Set
			all = options.Names()
		}

		if *enable && *disable {
			fmt.Fprintln(s.Stderr(), "bash: shopt: cannot set and unset shell options simultaneously")
			return 1
		}

		names := flags.Args()
		if len(names) > 0 && (*enable || *disable) {
			status := 0
			for _, name := range names {
				if err := set(name, *enable); err != nil {
					fmt.Fprintf(s.Stderr(), "bash: shopt: %s\n", err)
					status = 1
				}
			}
			return status
		}

		var filter func(bool) bool
		switch {
		case *enable:
			filter = func(on bool) bool { return on }
		case *disable:
			filter = func(on bool) bool { return !on }
		}

		if len(names) == 0 {
			names = all
		} else {
			for _, name := range names {
				var err error
				if *setNames {
					_, err = opts.Get(name)
				} else {
					_, err = opts.Shopt(name)
				}
				if err != nil {
					fmt.Fprintf(s.Stderr(), "bash: shopt: %s\n", err)
					return 1
				}
			}
		}

		status := 0
		for _, name := range names {
			on := get(name)
			if !on {
				status = 1
			}
			if *quiet || (filter != nil && !filter(on)) {
				continue
			}
			if *reusable {
				flag := "-u"
				if on {
					flag = "-s"
				}
				if *setNames {
					fmt.Fprintf(s.Stdout(), "shopt %s -o %s\n", flag, name)
				} else {
					fmt.Fprintf(s.Stdout(), "shopt %s %s\n", flag, name)
				}
				continue
			}
			printOptions(s.Stdout(), []string{name}, get)
		}
		if len(flags.Args()) == 0 {
			return 0
		}
		return status
	})
}

func init() {
	simpleBuiltin("set", Set)
	simpleBuiltin("shopt", Shopt)
}
