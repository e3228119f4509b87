// Package ttylog records and replays interactive shell sessions.
package ttylog

import (
	"io"
	"log"
	"regexp"
	"sync"
	"time"
)

var (
	crlf = regexp.MustCompile(`\r?\n`)
)

// FD identifies the stream an entry was read from or written to.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

// Entry is a single chunk of terminal IO.
type Entry struct {
	TimestampMicros int64
	Fd              FD
	Data            []byte
}

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the source
	// has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(e *Entry) error {
		once.Do(func() {
			prevTimeMicros = e.TimestampMicros
		})

		delta := e.TimestampMicros - prevTimeMicros
		prevTimeMicros = e.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(e)
	}
}

// NewCRLFAdapter rewrites bare newlines in output as \r\n so playback on a
// raw terminal returns the cursor to the start of the line.
func NewCRLFAdapter(next LogSink) LogSink {
	return func(e *Entry) error {
		if e.Fd != FDStdin {
			e.Data = crlf.ReplaceAll(e.Data, []byte("\r\n"))
		}
		return next(e)
	}
}

// NewClientOutput writes stdout and stderr to the given writer.
func NewClientOutput(w io.Writer) LogSink {
	return func(e *Entry) error {
		if e.Fd == FDStdin {
			return nil
		}
		_, err := w.Write(e.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		e, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(e); err != nil {
			return err
		}
	}
}

// Recorder tees the IO of a session into a LogSink.
type Recorder struct {
	mutex  sync.Mutex
	output LogSink
	// Now supplies timestamps, time.Now when nil.
	Now func() time.Time
}

// NewRecorder creates a recorder that forwards all events to output.
func NewRecorder(output LogSink) *Recorder {
	return &Recorder{output: output}
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Record logs data as if it passed through fd.
func (r *Recorder) Record(fd FD, data []byte) {
	if len(data) == 0 {
		return
	}
	entry := &Entry{
		TimestampMicros: r.now().UnixMicro(),
		Fd:              fd,
		Data:            append([]byte(nil), data...),
	}
	r.mutex.Lock()
	err := r.output(entry)
	r.mutex.Unlock()
	if err != nil {
		log.Print(err)
	}
}

func (r *Recorder) recordIO(fd FD, data []byte, dest func([]byte) (int, error)) (int, error) {
	amount, err := dest(data)
	if amount > 0 {
		r.Record(fd, data[:amount])
	}
	return amount, err
}

// Stdin wraps a reader so everything read from it is recorded.
func (r *Recorder) Stdin(in io.Reader) io.Reader {
	return &recorderReader{r: r, fd: FDStdin, wrapped: in}
}

// Stdout wraps a writer so everything written to it is recorded.
func (r *Recorder) Stdout(out io.Writer) io.Writer {
	return &recorderWriter{r: r, fd: FDStdout, wrapped: out}
}

// Stderr wraps a writer so everything written to it is recorded.
func (r *Recorder) Stderr(out io.Writer) io.Writer {
	return &recorderWriter{r: r, fd: FDStderr, wrapped: out}
}

type recorderReader struct {
	r       *Recorder
	fd      FD
	wrapped io.Reader
}

var _ io.Reader = (*recorderReader)(nil)

func (rc *recorderReader) Read(p []byte) (int, error) {
	return rc.r.recordIO(rc.fd, p, rc.wrapped.Read)
}

type recorderWriter struct {
	r       *Recorder
	fd      FD
	wrapped io.Writer
}

var _ io.Writer = (*recorderWriter)(nil)

func (rc *recorderWriter) Write(p []byte) (int, error) {
	return rc.r.recordIO(rc.fd, p, rc.wrapped.Write)
}
