package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/honeybash/core/config"
	"github.com/josephlewis42/honeybash/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	traceLogPath string
	sandbox      bool
)

// exitStatus is returned by commands that want the process to exit with a
// specific code.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// hostFs is the filesystem scripts see. In sandbox mode writes land in
// memory and the host is read-only.
func hostFs() afero.Fs {
	osFs := afero.NewOsFs()
	if !sandbox {
		return osFs
	}
	return afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(osFs), afero.NewMemMapFs())
}

func loadConfig() (*config.Configuration, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}

	configuration, err := config.Load(afero.NewOsFs(), cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// openTraceLog opens the JSON lines trace log if one was requested. The
// returned close function is always safe to call.
func openTraceLog() (*logger.Logger, func() error, error) {
	if traceLogPath == "" {
		return logger.NewNopLogger(), func() error { return nil }, nil
	}

	fd, err := afero.NewOsFs().OpenFile(traceLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return logger.NewJsonLinesLogRecorder(fd), fd.Close, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "honeybash",
	Short: "An embeddable bash interpreter",
	Long:  `Run bash scripts and interactive sessions against a pluggable filesystem with structured tracing.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	var status exitStatus
	if errors.As(err, &status) {
		os.Exit(int(status))
	}
	cobra.CheckErr(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config path, the built in configuration is used when empty")
	rootCmd.PersistentFlags().StringVar(&traceLogPath, "trace-log", "", "append trace events as JSON lines to this file")
	rootCmd.PersistentFlags().BoolVar(&sandbox, "sandbox", false, "keep file writes in memory")
}
