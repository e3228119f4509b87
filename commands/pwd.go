package commands

import (
	"fmt"
)

// Pwd implements the pwd builtin.
func Pwd(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "pwd [-LP]",
		Short: "Print the name of the current working directory.",
	}
	flags := cmd.Flags()
	flags.Bool('L', "print the value of $PWD")
	flags.Bool('P', "print the physical directory")

	return cmd.Run(s, args, func() int {
		fmt.Fprintln(s.Stdout(), s.Dir())
		return 0
	})
}

// Cd implements the cd builtin.
func Cd(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "cd [-L|-P] [dir]",
		Short: "Change the shell working directory.",
	}
	flags := cmd.Flags()
	flags.Bool('L', "follow symbolic links")
	flags.Bool('P', "use the physical directory structure")

	return cmd.Run(s, args, func() int {
		store := s.Vars()
		var dir string
		printDir := false
		switch rest := flags.Args(); {
		case len(rest) > 1:
			fmt.Fprintln(s.Stderr(), "bash: cd: too many arguments")
			return 1
		case len(rest) == 0:
			home, ok := store.Lookup(EnvHome)
			if !ok {
				fmt.Fprintln(s.Stderr(), "bash: cd: HOME not set")
				return 1
			}
			dir = home
		case rest[0] == "-":
			old, ok := store.Lookup(EnvOldPWD)
			if !ok {
				fmt.Fprintln(s.Stderr(), "bash: cd: OLDPWD not set")
				return 1
			}
			dir, printDir = old, true
		default:
			dir = rest[0]
		}

		if dir == "" {
			return 0
		}
		if err := s.Chdir(dir); err != nil {
			fmt.Fprintf(s.Stderr(), "bash: cd: %s\n", err)
			return 1
		}
		if printDir {
			fmt.Fprintln(s.Stdout(), s.Dir())
		}
		return 0
	})
}

func init() {
	simpleBuiltin("pwd", Pwd)
	simpleBuiltin("cd", Cd)
}
