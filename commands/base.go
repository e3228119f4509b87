package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/term"
)

// StatusUsage is returned by builtins invoked with bad options.
const StatusUsage = 2

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips reporting flag errors and always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "%s: %s\n", s.Use, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	s.Flags().PrintOptions(w)
}

// Run parses args, whose first element is the builtin name, and calls the
// callback when parsing succeeded.
func (s *SimpleCommand) Run(sh Shell, args []string, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", rune(0), "show this help and exit")
	}

	err := opts.Getopt(args, nil)
	if err != nil && !s.NeverBail {
		fmt.Fprintf(sh.Stderr(), "bash: %s: %s\n", args[0], describeFlagError(err))
		fmt.Fprintf(sh.Stderr(), "%s: usage: %s\n", args[0], s.Use)
		return StatusUsage
	}

	if *s.ShowHelp {
		s.PrintHelp(sh.Stdout())
		return 0
	}

	return callback()
}

// describeFlagError words getopt failures the way bash builtins do.
func describeFlagError(err error) string {
	var gerr *getopt.Error
	if !errors.As(err, &gerr) {
		return err.Error()
	}
	switch gerr.ErrorCode {
	case getopt.UnknownOption:
		return gerr.Name + ": invalid option"
	case getopt.MissingParameter:
		return gerr.Name + ": option requires an argument"
	}
	return gerr.Error()
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
)

type ColorPrinter struct {
	value *string
	// IsTerminal decides the auto setting, it defaults to checking the
	// process stdout.
	IsTerminal func() bool
}

// Init registers the --color flag.
func (c *ColorPrinter) Init(flags *getopt.Set) {
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case c.value == nil || *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	case c.IsTerminal != nil:
		return c.IsTerminal()
	default:
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		// fatih/color consults its global NoColor switch, which is set for
		// non-terminals; honor an explicit request anyway.
		color.EnableColor()
		return color.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
