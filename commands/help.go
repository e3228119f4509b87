package commands

import (
	"fmt"
	"sort"
	"strings"
)

type builtinDoc struct {
	use   string
	short string
}

var builtinDocs = map[string]builtinDoc{
	":":        {": [arguments]", "Null command."},
	".":        {". filename [arguments]", "Execute commands from a file in the current shell."},
	"break":    {"break [n]", "Exit for, while, or until loops."},
	"builtin":  {"builtin [shell-builtin [arg ...]]", "Execute shell builtins."},
	"cat":      {"cat [FILE]...", "Concatenate FILE(s) to standard output."},
	"cd":       {"cd [-L|-P] [dir]", "Change the shell working directory."},
	"continue": {"continue [n]", "Resume for, while, or until loops."},
	"declare":  {declareUsage["declare"], "Set variable values and attributes."},
	"echo":     {"echo [-neE] [arg ...]", "Write arguments to the standard output."},
	"env":      {"env", "Print the environment."},
	"eval":     {"eval [arg ...]", "Execute arguments as a shell command."},
	"exit":     {"exit [n]", "Exit the shell."},
	"export":   {declareUsage["export"], "Set export attribute for shell variables."},
	"false":    {"false", "Return an unsuccessful result."},
	"help":     {"help [pattern ...]", "Display information about builtin commands."},
	"history":  {"history [-c] [n]", "Display the history list."},
	"let":      {"let arg [arg ...]", "Evaluate arithmetic expressions."},
	"local":    {declareUsage["local"], "Define local variables."},
	"pwd":      {"pwd [-LP]", "Print the name of the current working directory."},
	"read":     {"read [-ers] [-a array] [-d delim] [-n nchars] [-p prompt] [name ...]", "Read a line from the standard input and split it into fields."},
	"readonly": {declareUsage["readonly"], "Mark shell variables as unchangeable."},
	"return":   {"return [n]", "Return from a shell function."},
	"set":      {setUsage, "Set or unset values of shell options and positional parameters."},
	"shift":    {"shift [n]", "Shift positional parameters."},
	"shopt":    {"shopt [-pqsu] [-o] [optname ...]", "Set and unset shell options."},
	"source":   {"source filename [arguments]", "Execute commands from a file in the current shell."},
	"true":     {"true", "Return a successful result."},
	"type":     {"type [-t] name [name ...]", "Display information about command type."},
	"typeset":  {declareUsage["typeset"], "Set variable values and attributes."},
	"unset":    {"unset [-f] [-v] [-n] [name ...]", "Unset values and attributes of shell variables and functions."},
}

// keywords are the reserved words type reports.
var keywords = map[string]bool{
	"!": true, "[[": true, "]]": true, "{": true, "}": true,
	"case": true, "coproc": true, "do": true, "done": true, "elif": true,
	"else": true, "esac": true, "fi": true, "for": true, "function": true,
	"if": true, "in": true, "select": true, "then": true, "time": true,
	"until": true, "while": true,
}

// Help implements the help builtin.
func Help(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   builtinDocs["help"].use,
		Short: builtinDocs["help"].short,
	}
	var colors ColorPrinter
	colors.Init(cmd.Flags())
	shortOnly := cmd.Flags().Bool('s', "output only a short usage synopsis")

	return cmd.Run(s, args, func() int {
		topics := cmd.Flags().Args()
		if len(topics) == 0 {
			fmt.Fprintln(s.Stdout(), "These shell commands are defined internally.  Type `help' to see this list.")
			fmt.Fprintln(s.Stdout())
			for _, name := range BuiltinNames() {
				doc, ok := builtinDocs[name]
				if !ok {
					continue
				}
				fmt.Fprintf(s.Stdout(), "%s  %s\n", colors.Sprintf(ColorBoldGreen, "%-10s", name), doc.use)
			}
			return 0
		}

		status := 0
		for _, topic := range topics {
			var matched []string
			for name := range builtinDocs {
				if strings.HasPrefix(name, topic) {
					matched = append(matched, name)
				}
			}
			if len(matched) == 0 {
				fmt.Fprintf(s.Stderr(), "bash: help: no help topics match `%s'.  Try `help help'.\n", topic)
				status = 1
				continue
			}
			sort.Strings(matched)
			for _, name := range matched {
				doc := builtinDocs[name]
				if *shortOnly {
					fmt.Fprintf(s.Stdout(), "%s: %s\n", colors.Sprintf(ColorBoldGreen, "%s", name), doc.use)
					continue
				}
				fmt.Fprintf(s.Stdout(), "%s: %s\n    %s\n", colors.Sprintf(ColorBoldGreen, "%s", name), doc.use, doc.short)
			}
		}
		return status
	})
}

// Type implements the type builtin.
func Type(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   builtinDocs["type"].use,
		Short: builtinDocs["type"].short,
	}
	terse := cmd.Flags().Bool('t', "output a single word naming the type")

	return cmd.Run(s, args, func() int {
		status := 0
		for _, name := range cmd.Flags().Args() {
			kind, detail := "", ""
			switch {
			case keywords[name]:
				kind, detail = "keyword", name+" is a shell keyword"
			default:
				if src, ok := s.FunctionSource(name); ok {
					kind, detail = "function", name+" is a function\n"+src
				} else if _, ok := AllBuiltins[name]; ok {
					kind, detail = "builtin", name+" is a shell builtin"
				}
			}
			switch {
			case kind == "":
				if !*terse {
					fmt.Fprintf(s.Stderr(), "bash: type: %s: not found\n", name)
				}
				status = 1
			case *terse:
				fmt.Fprintln(s.Stdout(), kind)
			default:
				fmt.Fprintln(s.Stdout(), detail)
			}
		}
		return status
	})
}

// History implements the history builtin.
func History(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   builtinDocs["history"].use,
		Short: builtinDocs["history"].short,
	}
	clearList := cmd.Flags().Bool('c', "clear the history list")

	return cmd.Run(s, args, func() int {
		if *clearList {
			s.ClearHistory()
			return 0
		}
		lines := s.History()
		start := 0
		if rest := cmd.Flags().Args(); len(rest) > 0 {
			var n int
			if _, err := fmt.Sscanf(rest[0], "%d", &n); err != nil || n < 0 {
				fmt.Fprintf(s.Stderr(), "bash: history: %s: numeric argument required\n", rest[0])
				return 1
			}
			if n < len(lines) {
				start = len(lines) - n
			}
		}
		for i := start; i < len(lines); i++ {
			fmt.Fprintf(s.Stdout(), "%5d  %s\n", i+1, lines[i])
		}
		return 0
	})
}

func init() {
	simpleBuiltin("help", Help)
	simpleBuiltin("type", Type)
	simpleBuiltin("history", History)
}
