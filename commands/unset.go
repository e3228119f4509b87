package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/josephlewis42/honeybash/core/vars"
)

// Unset implements the unset builtin. Without flags a name is tried as a
// variable first and then as a function.
func Unset(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "unset [-f] [-v] [-n] [name ...]",
		Short: "Unset values and attributes of shell variables and functions.",
	}

	flags := cmd.Flags()
	funcs := flags.Bool('f', "treat each name as a shell function")
	variables := flags.Bool('v', "treat each name as a shell variable")
	nameref := flags.Bool('n', "unset the nameref itself rather than its target")

	return cmd.Run(s, args, func() int {
		if *funcs && *variables {
			fmt.Fprintln(s.Stderr(), "bash: unset: cannot simultaneously unset a function and a variable")
			return 1
		}

		status := 0
		store := s.Vars()
		for _, name := range flags.Args() {
			if *funcs {
				s.UnsetFunction(name)
				continue
			}

			base, _, _ := vars.SplitSubscript(name)
			if !vars.ValidName(base) {
				fmt.Fprintf(s.Stderr(), "bash: unset: `%s': not a valid identifier\n", name)
				status = 1
				continue
			}

			var err error
			switch {
			case *nameref:
				err = store.UnsetNameref(name)
			case !*variables && !store.IsSet(name) && base == name:
				if _, declared := store.Describe(name); !declared && s.UnsetFunction(name) {
					continue
				}
				err = store.Unset(name)
			default:
				err = store.Unset(name)
			}
			if err != nil {
				fmt.Fprintf(s.Stderr(), "bash: unset: %s\n", describeUnsetError(err))
				status = 1
			}
		}
		return status
	})
}

func describeUnsetError(err error) string {
	var ro *vars.ErrReadOnly
	if errors.As(err, &ro) {
		return fmt.Sprintf("%s: cannot unset: readonly variable", ro.Name)
	}
	return err.Error()
}

// Shift implements the shift builtin.
func Shift(s Shell, args []string) int {
	n := 1
	if len(args) > 1 {
		var err error
		if n, err = strconv.Atoi(args[1]); err != nil {
			fmt.Fprintf(s.Stderr(), "bash: shift: %s: numeric argument required\n", args[1])
			return 1
		}
	}
	if n < 0 {
		fmt.Fprintf(s.Stderr(), "bash: shift: %d: shift count out of range\n", n)
		return 1
	}
	if !s.Vars().Shift(n) {
		return 1
	}
	return 0
}

func init() {
	simpleBuiltin("unset", Unset)
	simpleBuiltin("shift", Shift)
}
