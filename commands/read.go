package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/josephlewis42/honeybash/core/ifs"
	"github.com/josephlewis42/honeybash/core/vars"
	"golang.org/x/term"
)

// readInput reads up to and excluding delim, one byte at a time so input
// meant for later commands stays unread. Outside raw mode a backslash
// before the delimiter continues the line. limit bounds the characters
// read when positive. eof reports that input ended before a delimiter.
func readInput(r io.Reader, delim byte, useDelim, raw bool, limit int) (line string, eof bool) {
	var sb strings.Builder
	buf := make([]byte, 1)
	escaped := false
	count := 0
	for limit <= 0 || count < limit {
		n, err := r.Read(buf)
		if n == 0 {
			if err != nil {
				return sb.String(), true
			}
			continue
		}
		c := buf[0]
		if useDelim && c == delim && !escaped {
			return sb.String(), false
		}
		if useDelim && c == delim && escaped {
			// line continuation drops the backslash and the delimiter
			s := sb.String()
			sb.Reset()
			sb.WriteString(s[:len(s)-1])
			escaped = false
			continue
		}
		escaped = !raw && c == '\\' && !escaped
		sb.WriteByte(c)
		count++
	}
	return sb.String(), false
}

// Read implements the read builtin.
func Read(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "read [-ers] [-a array] [-d delim] [-n nchars] [-N nchars] [-p prompt] [-t timeout] [-u fd] [name ...]",
		Short: "Read a line from the standard input and split it into fields.",
	}

	flags := cmd.Flags()
	raw := flags.Bool('r', "do not allow backslashes to escape any characters")
	flags.Bool('e', "use readline to obtain the line")
	flags.Bool('s', "do not echo input coming from a terminal")
	array := flags.String('a', "", "assign the words read to indices of the array variable")
	delim := flags.String('d', "\n", "continue until the first character of delim is read")
	nchars := flags.String('n', "", "return after reading nchars characters")
	exact := flags.String('N', "", "return after reading exactly nchars characters")
	prompt := flags.String('p', "", "output the string prompt before reading")
	timeout := flags.String('t', "", "time out and return failure after timeout seconds")
	flags.String('u', "0", "read from file descriptor fd")

	return cmd.Run(s, args, func() int {
		names := flags.Args()
		for _, name := range names {
			if !vars.ValidName(name) {
				fmt.Fprintf(s.Stderr(), "bash: read: `%s': not a valid identifier\n", name)
				return 1
			}
		}

		limit, useDelim := 0, true
		for _, spec := range []struct {
			value  *string
			ignore bool
		}{{nchars, false}, {exact, true}} {
			if *spec.value == "" {
				continue
			}
			n, err := strconv.Atoi(*spec.value)
			if err != nil || n < 0 {
				fmt.Fprintf(s.Stderr(), "bash: read: %s: invalid number\n", *spec.value)
				return 1
			}
			limit = n
			if spec.ignore {
				useDelim = false
			}
		}

		if *timeout != "" {
			secs, err := strconv.ParseFloat(*timeout, 64)
			if err != nil || secs < 0 {
				fmt.Fprintf(s.Stderr(), "bash: read: %s: invalid timeout specification\n", *timeout)
				return 1
			}
			if secs == 0 {
				return 0
			}
		}

		if *prompt != "" {
			if f, ok := s.Stdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				fmt.Fprint(s.Stderr(), *prompt)
			}
		}

		d := byte(0)
		if *delim != "" {
			d = (*delim)[0]
		}
		line, eof := readInput(s.Stdin(), d, useDelim, *raw, limit)
		status := 0
		if eof {
			status = 1
		}

		store := s.Vars()
		sep, ok := store.Lookup(EnvIFS)
		if !ok {
			sep = ifs.Default
		}

		var err error
		switch {
		case *array != "":
			err = store.SetArray(*array, ifs.ReadSplit(line, sep, ifs.ReadOptions{Raw: *raw}))
		case len(names) == 0:
			reply := strings.Join(ifs.ReadSplit(line, "", ifs.ReadOptions{Raw: *raw}), "")
			err = store.Set(EnvReply, reply)
		case !useDelim:
			err = store.Set(names[0], line)
			for _, name := range names[1:] {
				if err == nil {
					err = store.Set(name, "")
				}
			}
		default:
			fields := ifs.ReadSplit(line, sep, ifs.ReadOptions{MaxFields: len(names), Raw: *raw})
			for i, name := range names {
				value := ""
				if i < len(fields) {
					value = fields[i]
				}
				if err = store.Set(name, value); err != nil {
					break
				}
			}
		}
		if err != nil {
			fmt.Fprintf(s.Stderr(), "bash: read: %s\n", err)
			return 1
		}
		return status
	})
}

func init() {
	simpleBuiltin("read", Read)
}
