package cmd

import (
	"fmt"

	"github.com/josephlewis42/honeybash/commands"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the commands the shell runs itself.
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range commands.BuiltinNames() {
			label := name
			if commands.SpecialBuiltins[name] {
				label += " (special)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
