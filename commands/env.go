package commands

import (
	"fmt"
)

// Env prints the exported variables, the environment a child process
// would receive.
func Env(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "env",
		Short: "Print the environment.",
	}

	return cmd.Run(s, args, func() int {
		for _, envDef := range s.Vars().Environ() {
			fmt.Fprintln(s.Stdout(), envDef)
		}

		return 0
	})
}

func init() {
	simpleBuiltin("env", Env)
}
