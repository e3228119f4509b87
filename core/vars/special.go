package vars

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Clock supplies the time for SECONDS.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Rand supplies values for RANDOM. Assigning to RANDOM reseeds it.
type Rand interface {
	Intn(n int) int
	Seed(seed int64)
}

func newRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

type secondsBase struct {
	start  time.Time
	offset int
}

// SetClock replaces the clock and restarts SECONDS from zero.
func (s *Store) SetClock(c Clock) {
	s.clock = c
	s.seconds = secondsBase{start: c.Now()}
}

// SetRand replaces the RANDOM source.
func (s *Store) SetRand(r Rand) {
	s.rand = r
}

// randomMax is the exclusive upper bound of RANDOM.
const randomMax = 32768

// IsSpecial reports whether name is computed on read.
func IsSpecial(name string) bool {
	switch name {
	case "?", "$", "#", "@", "*", "-", "0", "BASHPID", "PPID", "SECONDS",
		"RANDOM", "SHELLOPTS", "BASHOPTS", "FUNCNAME", "BASH_LINENO", "BASH_SOURCE":
		return true
	}
	return isPositionalName(name)
}

func isPositionalName(name string) bool {
	if name == "" || name == "0" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func scalar(value string) *Variable {
	return &Variable{Kind: Scalar, Value: value}
}

func indexed(values []string) *Variable {
	v := &Variable{Kind: Indexed, index: make(map[int]string, len(values))}
	for i, val := range values {
		v.index[i] = val
	}
	return v
}

// special computes the variable for a special name. It returns true for
// special names even when the result is unset (nil).
func (s *Store) special(name string) (*Variable, bool) {
	switch name {
	case "?":
		return scalar(strconv.Itoa(s.Status)), true
	case "$":
		return scalar(strconv.Itoa(s.Pid)), true
	case "BASHPID":
		return scalar(strconv.Itoa(s.BashPid)), true
	case "PPID":
		return scalar(strconv.Itoa(s.PPid)), true
	case "0":
		return scalar(s.ScriptName), true
	case "#":
		return scalar(strconv.Itoa(len(s.positional))), true
	case "@":
		if len(s.positional) == 0 {
			return nil, true
		}
		return indexed(s.positional), true
	case "*":
		if len(s.positional) == 0 {
			return nil, true
		}
		return scalar(strings.Join(s.positional, s.ifsJoiner())), true
	case "SECONDS":
		elapsed := int(s.clock.Now().Sub(s.seconds.start) / time.Second)
		return scalar(strconv.Itoa(s.seconds.offset + elapsed)), true
	case "RANDOM":
		return scalar(strconv.Itoa(s.rand.Intn(randomMax))), true
	case "-":
		if !s.publishing {
			return nil, false
		}
		return scalar(s.flags), true
	case "SHELLOPTS":
		if !s.publishing {
			return nil, false
		}
		v := scalar(s.shellOpts)
		v.Attrs = ReadOnly
		return v, true
	case "BASHOPTS":
		if !s.publishing {
			return nil, false
		}
		v := scalar(s.bashOpts)
		v.Attrs = ReadOnly
		return v, true
	case "FUNCNAME", "BASH_LINENO", "BASH_SOURCE":
		if s.callStack == nil {
			return nil, false
		}
		var stack []string
		switch name {
		case "FUNCNAME":
			stack = s.callStack.FuncNames()
		case "BASH_LINENO":
			stack = s.callStack.CallLines()
		default:
			stack = s.callStack.CallSources()
		}
		if len(stack) == 0 {
			return nil, true
		}
		return indexed(stack), true
	}

	if isPositionalName(name) {
		n, err := strconv.Atoi(name)
		if err != nil || n > len(s.positional) {
			return nil, true
		}
		return scalar(s.positional[n-1]), true
	}
	return nil, false
}

// ifsJoiner returns the separator for "$*": the first character of IFS, a
// space when IFS is unset.
func (s *Store) ifsJoiner() string {
	v := s.vars["IFS"]
	if v == nil || v.Kind != Scalar {
		return " "
	}
	for _, r := range v.Value {
		return string(r)
	}
	return ""
}

// assignSpecial handles assignments to special names. handled is false for
// names stored normally.
func (s *Store) assignSpecial(name, value string) (handled bool, err error) {
	switch name {
	case "RANDOM":
		n, _ := strconv.Atoi(strings.TrimSpace(value))
		s.rand.Seed(int64(n))
		return true, nil
	case "SECONDS":
		n, _ := strconv.Atoi(strings.TrimSpace(value))
		s.seconds = secondsBase{start: s.clock.Now(), offset: n}
		return true, nil
	case "SHELLOPTS", "BASHOPTS":
		if s.publishing {
			return true, &ErrReadOnly{Name: name}
		}
	case "?", "$", "#", "@", "*", "-", "0", "BASHPID", "PPID":
		return true, nil
	case "FUNCNAME", "BASH_LINENO", "BASH_SOURCE":
		if s.callStack != nil {
			return true, nil
		}
	}
	if isPositionalName(name) {
		return true, nil
	}
	return false, nil
}

// Positional returns a copy of the positional parameters.
func (s *Store) Positional() []string {
	return append([]string(nil), s.positional...)
}

// SetPositional replaces the positional parameters.
func (s *Store) SetPositional(args []string) {
	s.positional = append([]string(nil), args...)
}

// Shift drops the first n positional parameters. It reports false, changing
// nothing, when fewer than n exist.
func (s *Store) Shift(n int) bool {
	if n < 0 || n > len(s.positional) {
		return false
	}
	s.positional = s.positional[n:]
	return true
}
