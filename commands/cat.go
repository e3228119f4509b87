package commands

import (
	"fmt"
	"io"
	"os"
	"path"
)

// Cat implements a cat builtin over the shell's filesystem. With no files,
// or a file named -, it copies standard input.
func Cat(s Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "cat [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}

	return cmd.Run(s, args, func() int {
		files := cmd.Flags().Args()
		if len(files) == 0 {
			files = []string{"-"}
		}

		status := 0
		for _, name := range files {
			if name == "-" {
				io.Copy(s.Stdout(), s.Stdin())
				continue
			}

			p := name
			if !path.IsAbs(p) {
				p = path.Join(s.Dir(), p)
			}
			fd, err := s.Fs().Open(p)
			if err != nil {
				fmt.Fprintf(s.Stderr(), "cat: %s: %s\n", name, describePathError(err))
				status = 1
				continue
			}
			io.Copy(s.Stdout(), fd)
			fd.Close()
		}
		return status
	})
}

func describePathError(err error) string {
	switch {
	case os.IsNotExist(err):
		return "No such file or directory"
	case os.IsPermission(err):
		return "Permission denied"
	}
	return err.Error()
}

func init() {
	simpleBuiltin("cat", Cat)
}
