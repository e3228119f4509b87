package interp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/josephlewis42/honeybash/core/options"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/syntax"
)

type sinkKind int

const (
	toStdout sinkKind = iota
	toStderr
	toNull
	toFile
)

type sink struct {
	kind sinkKind
	file *fileTarget
}

// fileTarget buffers what a statement writes to a file until it finishes.
type fileTarget struct {
	path string
	buf  bytes.Buffer
}

// redirection is the effect of the redirects of one statement.
type redirection struct {
	stdin  io.Reader
	stdout sink
	stderr sink
	files  []*fileTarget
}

func (rd *redirection) sinkFor(fd string) (*sink, error) {
	switch fd {
	case "", "1":
		return &rd.stdout, nil
	case "2":
		return &rd.stderr, nil
	}
	return nil, fmt.Errorf("%s: bad file descriptor", fd)
}

func (rd *redirection) openFile(path string) *fileTarget {
	for _, f := range rd.files {
		if f.path == path {
			return f
		}
	}
	f := &fileTarget{path: path}
	rd.files = append(rd.files, f)
	return f
}

// route sends statement output to its destinations and returns what is left
// for the enclosing statement.
func (rd *redirection) route(stdout, stderr string) (string, string) {
	var out, errOut strings.Builder
	write := func(s sink, text string) {
		switch s.kind {
		case toStdout:
			out.WriteString(text)
		case toStderr:
			errOut.WriteString(text)
		case toFile:
			s.file.buf.WriteString(text)
		}
	}
	write(rd.stdout, stdout)
	write(rd.stderr, stderr)
	return out.String(), errOut.String()
}

// redirects evaluates a statement's redirects from left to right. Output
// files are created or truncated immediately.
func (r *Runner) redirects(list []*syntax.Redirect) (*redirection, error) {
	rd := &redirection{stdout: sink{kind: toStdout}, stderr: sink{kind: toStderr}}
	for _, redir := range list {
		if err := r.redirect(rd, redir); err != nil {
			return nil, err
		}
	}
	return rd, nil
}

func (r *Runner) redirect(rd *redirection, redir *syntax.Redirect) error {
	fd := ""
	if redir.N != nil {
		fd = redir.N.Value
	}

	switch redir.Op {
	case syntax.Hdoc, syntax.DashHdoc:
		body, err := r.heredoc(redir)
		if err != nil {
			return err
		}
		rd.stdin = strings.NewReader(body)
		return nil
	case syntax.WordHdoc:
		word, err := r.literal(redir.Word)
		if err != nil {
			return err
		}
		rd.stdin = strings.NewReader(word + "\n")
		return nil
	}

	word, err := r.literal(redir.Word)
	if err != nil {
		return err
	}

	switch redir.Op {
	case syntax.RdrIn:
		if fd != "" && fd != "0" {
			return fmt.Errorf("%s: unsupported redirection", fd)
		}
		data, err := afero.ReadFile(r.fs, r.resolve(word))
		if err != nil {
			return fmt.Errorf("%s: %s", word, describeFsError(err))
		}
		rd.stdin = bytes.NewReader(data)
		return nil

	case syntax.DplOut:
		dst, err := rd.sinkFor(fd)
		if err != nil {
			return err
		}
		switch word {
		case "1":
			*dst = rd.stdout
		case "2":
			*dst = rd.stderr
		case "-":
			*dst = sink{kind: toNull}
		default:
			if fd == "" && !isDigits(word) {
				// >&file is &>file
				target, err := r.outputSink(rd, word, false, false)
				if err != nil {
					return err
				}
				rd.stdout, rd.stderr = target, target
				return nil
			}
			return fmt.Errorf("%s: bad file descriptor", word)
		}
		return nil

	case syntax.RdrOut, syntax.AppOut, syntax.ClbOut:
		dst, err := rd.sinkFor(fd)
		if err != nil {
			return err
		}
		target, err := r.outputSink(rd, word, redir.Op == syntax.AppOut, redir.Op == syntax.ClbOut)
		if err != nil {
			return err
		}
		*dst = target
		return nil

	case syntax.RdrAll, syntax.AppAll:
		target, err := r.outputSink(rd, word, redir.Op == syntax.AppAll, false)
		if err != nil {
			return err
		}
		rd.stdout, rd.stderr = target, target
		return nil
	}
	return fmt.Errorf("%s: unsupported redirection", r.text(redir))
}

// outputSink opens word for writing.
func (r *Runner) outputSink(rd *redirection, word string, appending, clobber bool) (sink, error) {
	if word == "/dev/null" {
		return sink{kind: toNull}, nil
	}
	if word == "/dev/stdout" {
		return sink{kind: toStdout}, nil
	}
	if word == "/dev/stderr" {
		return sink{kind: toStderr}, nil
	}

	path := r.resolve(word)
	if !appending {
		if r.opts.Enabled(options.Noclobber) && !clobber {
			if info, err := r.fs.Stat(path); err == nil && info.Mode().IsRegular() {
				return sink{}, fmt.Errorf("%s: cannot overwrite existing file", word)
			}
		}
	}

	flags := os.O_WRONLY | os.O_CREATE
	if !appending {
		flags |= os.O_TRUNC
	}
	f, err := r.fs.OpenFile(path, flags, 0644)
	if err != nil {
		return sink{}, fmt.Errorf("%s: %s", word, describeFsError(err))
	}
	if err := f.Close(); err != nil {
		return sink{}, err
	}
	return sink{kind: toFile, file: rd.openFile(path)}, nil
}

// flush appends buffered output to the redirected files.
func (r *Runner) flush(rd *redirection) error {
	var errs []error
	for _, f := range rd.files {
		if f.buf.Len() == 0 {
			continue
		}
		file, err := r.fs.OpenFile(f.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %s", f.path, describeFsError(err)))
			continue
		}
		_, err = file.Write(f.buf.Bytes())
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			errs = append(errs, err)
		}
		f.buf.Reset()
	}
	return errors.Join(errs...)
}

// heredoc returns the body of a here-document. The body is expanded unless
// any part of the delimiter was quoted.
func (r *Runner) heredoc(redir *syntax.Redirect) (string, error) {
	if redir.Hdoc == nil {
		return "", nil
	}
	var body string
	if quotedDelimiter(redir.Word) {
		body = r.text(redir.Hdoc)
		if lit := redir.Hdoc.Lit(); lit != "" {
			body = lit
		}
	} else {
		frags, err := r.wordFragments(redir.Hdoc, modeHeredoc)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, f := range frags {
			sb.WriteString(f.Text)
		}
		body = sb.String()
	}

	if redir.Op == syntax.DashHdoc {
		lines := strings.SplitAfter(body, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimLeft(line, "\t")
		}
		body = strings.Join(lines, "")
	}
	return body, nil
}

func quotedDelimiter(w *syntax.Word) bool {
	if w == nil {
		return false
	}
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.SglQuoted, *syntax.DblQuoted:
			return true
		case *syntax.Lit:
			if strings.Contains(p.Value, `\`) {
				return true
			}
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
