package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/josephlewis42/honeybash/commands"
	"github.com/josephlewis42/honeybash/core/flow"
	"github.com/josephlewis42/honeybash/core/interp"
	"github.com/josephlewis42/honeybash/core/ttylog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var recordPath string

// replCmd runs an interactive shell on the local terminal.
var replCmd = &cobra.Command{
	Use:     "repl",
	Aliases: []string{"playground"},
	Short:   "Run an interactive shell.",
	Args:    cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		replLogger := log.New(cmd.ErrOrStderr(), color.YellowString("[repl] "), 0)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		traceLog, closeLog, err := openTraceLog()
		if err != nil {
			return err
		}
		defer closeLog()

		var (
			stdin  io.Reader = os.Stdin
			stdout io.Writer = cmd.OutOrStdout()
			stderr io.Writer = cmd.ErrOrStderr()
		)
		if recordPath != "" {
			fd, err := afero.NewOsFs().Create(recordPath)
			if err != nil {
				return err
			}
			defer fd.Close()

			header := ttylog.DefaultAsciicastHeader()
			if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				header.Width, header.Height = w, h
			}
			recorder := ttylog.NewRecorder(ttylog.NewCRLFAdapter(ttylog.NewAsciicastLogSink(fd, header)))
			stdin, stdout, stderr = recorder.Stdin(stdin), recorder.Stdout(stdout), recorder.Stderr(stderr)
			replLogger.Printf("Recording to: %s\n", recordPath)
		}

		dir, err := os.Getwd()
		if err != nil {
			dir = "/"
		}
		runner, err := interp.New(cfg,
			interp.WithFs(hostFs()),
			interp.WithDir(dir),
			interp.WithLogger(traceLog.NewSession()),
		)
		if err != nil {
			return err
		}

		isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
		if _, ok := runner.Vars().Lookup(commands.EnvPrompt); !ok {
			prompt := commands.DefaultPrompt
			if isTerminal {
				prompt = commands.DefaultColorPrompt
			}
			_ = runner.Vars().Set(commands.EnvPrompt, prompt)
		}

		rlConfig := &readline.Config{
			Stdin:  readline.NewCancelableStdin(stdin),
			Stdout: stdout,
			Stderr: stderr,
			FuncIsTerminal: func() bool {
				return isTerminal
			},
		}
		if err := rlConfig.Init(); err != nil {
			return err
		}
		rl, err := readline.NewEx(rlConfig)
		if err != nil {
			return err
		}
		defer rl.Close()

		exitCode := runInteractive(cmd.Context(), runner, rl, stdout, stderr)
		replLogger.Printf("Exit code: %d\n", exitCode)
		return nil
	},
}

// runInteractive reads and runs lines until the input closes or the shell
// exits. Statements spanning several lines are collected until they parse.
func runInteractive(ctx context.Context, runner *interp.Runner, rl *readline.Instance, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	var pending []string
	for {
		prompt := runner.Prompt(runner.Vars().Get(commands.EnvPrompt))
		if len(pending) > 0 {
			prompt = runner.Prompt(runner.Vars().Get("PS2"))
			if prompt == "" {
				prompt = "> "
			}
		}
		rl.SetPrompt(prompt)
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return runner.Vars().Status
		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			pending = nil
			continue
		case err != nil:
			log.Printf("Error readline: %v", err)
			continue
		case len(pending) == 0 && strings.TrimSpace(line) == "":
			continue
		}

		pending = append(pending, line)
		src := strings.Join(pending, "\n")
		if interp.Incomplete(src) {
			continue
		}
		pending = nil

		runner.AddHistory(src)
		res, _ := runner.Run(ctx, src, "")
		fmt.Fprint(stdout, res.Stdout)
		fmt.Fprint(stderr, res.Stderr)

		if kind, exited := runner.ExitKind(); exited {
			if kind != flow.Exit && kind != flow.Errexit {
				// Errors like a failed ${x?} end a script but not a prompt.
				runner.Reset()
				continue
			}
			return res.ExitCode
		}
	}
}

func init() {
	rootCmd.AddCommand(replCmd)

	replCmd.Flags().StringVar(&recordPath, "record", "", "record the session to an asciicast file")
}
