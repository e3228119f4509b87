package logger

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Well known fields of every entry.
const (
	FieldType      = "type"
	FieldSessionID = "session_id"
	FieldTimestamp = "timestamp_micros"
)

// Event types recorded by the shell.
const (
	EventRunCommand     = "run_command"
	EventUnknownCommand = "unknown_command"
	EventFunctionCall   = "function_call"
	EventXtrace         = "xtrace"
	EventSignal         = "signal"
	EventWarning        = "warning"
)

// LogEntry is a single recorded event.
type LogEntry = structpb.Struct

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures trace events from running scripts.
type Logger struct {
	Record LogRecorder
	// Now supplies timestamps, time.Now when nil.
	Now func() time.Time
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := protojson.Marshal(le)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewNopLogger creates a Logger that drops every event.
func NewNopLogger() *Logger {
	return &Logger{
		Record: func(*LogEntry) error { return nil },
	}
}

func (l *Logger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Logger) recordEvent(sessionID, eventType string, fields map[string]interface{}) error {
	values := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		values[k] = v
	}
	values[FieldType] = eventType
	values[FieldTimestamp] = l.now().UnixNano() / int64(time.Microsecond)
	if sessionID != "" {
		values[FieldSessionID] = sessionID
	}

	le, err := structpb.NewStruct(values)
	if err != nil {
		return err
	}
	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every entry.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Record logs an event of the given type. Field values must be
// representable by structpb: nil, bools, numbers, strings, []interface{}
// and map[string]interface{}.
func (l *SessionLogger) Record(eventType string, fields map[string]interface{}) error {
	return l.recordEvent(l.sessionID, eventType, fields)
}

// Strings converts a string slice to a list field value.
func Strings(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
