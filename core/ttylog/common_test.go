package ttylog

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	var entries []*Entry
	rec := NewRecorder(func(e *Entry) error {
		entries = append(entries, e)
		return nil
	})
	rec.Now = func() time.Time { return time.Unix(5, 0) }

	var out, errOut bytes.Buffer
	in, err := io.ReadAll(rec.Stdin(strings.NewReader("ls\n")))
	assert.NoError(t, err)
	assert.Equal(t, "ls\n", string(in))

	_, err = io.WriteString(rec.Stdout(&out), "a b\n")
	assert.NoError(t, err)
	_, err = io.WriteString(rec.Stderr(&errOut), "oops\n")
	assert.NoError(t, err)
	rec.Record(FDStdout, nil)

	assert.Equal(t, "a b\n", out.String())
	assert.Equal(t, "oops\n", errOut.String())
	assert.Equal(t, []*Entry{
		{TimestampMicros: 5e6, Fd: FDStdin, Data: []byte("ls\n")},
		{TimestampMicros: 5e6, Fd: FDStdout, Data: []byte("a b\n")},
		{TimestampMicros: 5e6, Fd: FDStderr, Data: []byte("oops\n")},
	}, entries)
}

type sliceSource []*Entry

func (s *sliceSource) Next() (*Entry, error) {
	if len(*s) == 0 {
		return nil, io.EOF
	}
	e := (*s)[0]
	*s = (*s)[1:]
	return e, nil
}

func TestReplay(t *testing.T) {
	source := &sliceSource{
		{Fd: FDStdin, Data: []byte("echo hi\n")},
		{Fd: FDStdout, Data: []byte("hi\n")},
		{Fd: FDStderr, Data: []byte("warn\r\n")},
	}

	var out bytes.Buffer
	err := Replay(source, NewCRLFAdapter(NewClientOutput(&out)))
	assert.NoError(t, err)
	assert.Equal(t, "hi\r\nwarn\r\n", out.String())
}

func TestReplay_sinkError(t *testing.T) {
	source := &sliceSource{{Fd: FDStdout}, {Fd: FDStdout}}
	calls := 0
	err := Replay(source, func(*Entry) error {
		calls++
		return errors.New("full")
	})
	assert.EqualError(t, err, "full")
	assert.Equal(t, 1, calls)
}

func TestRealTimePlayback(t *testing.T) {
	source := &sliceSource{
		{TimestampMicros: 0, Fd: FDStdout},
		{TimestampMicros: time.Hour.Microseconds(), Fd: FDStdout},
	}

	count := 0
	start := time.Now()
	err := Replay(source, NewRealTimePlayback(time.Millisecond, func(*Entry) error {
		count++
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Less(t, int64(time.Since(start)), int64(time.Minute))
}
