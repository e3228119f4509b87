package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/honeybash/core/interp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	runCommand string
	runArgs    string
)

// runCmd executes a script non-interactively.
var runCmd = &cobra.Command{
	Use:   "run [-c script | FILE] [ARG ...]",
	Short: "Run a script and exit with its status.",
	Long: `Run a script and exit with its status.

With -c the script text is taken from the flag and the first argument
becomes $0. Otherwise the first argument names the script file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		extra, err := shlex.Split(runArgs, true)
		if err != nil {
			return fmt.Errorf("parsing --args: %w", err)
		}
		args = append(args, extra...)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fs := hostFs()
		name := cfg.ScriptName
		src := runCommand
		if !cmd.Flags().Changed("command") {
			if len(args) == 0 {
				return fmt.Errorf("either -c or a script file is required")
			}
			contents, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return err
			}
			src = string(contents)
		}
		if len(args) > 0 {
			name, args = args[0], args[1:]
		}
		cfg.ScriptName = name

		traceLog, closeLog, err := openTraceLog()
		if err != nil {
			return err
		}
		defer closeLog()

		dir, err := os.Getwd()
		if err != nil {
			dir = "/"
		}

		runner, err := interp.New(cfg,
			interp.WithFs(fs),
			interp.WithDir(dir),
			interp.WithStdin(cmd.InOrStdin()),
			interp.WithLogger(traceLog.NewSession()),
		)
		if err != nil {
			return err
		}
		runner.Vars().SetPositional(args)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		res, _ := runner.Run(ctx, src, name)
		fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
		fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)

		if res.ExitCode != 0 {
			cmd.SilenceErrors = true
			return exitStatus(res.ExitCode)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runCommand, "command", "c", "", "script text to run")
	runCmd.Flags().StringVar(&runArgs, "args", "", "extra positional arguments, split with shell quoting rules")
}
