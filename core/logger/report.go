package logger

import (
	"encoding/json"
	"io"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var logEntry LogEntry
		if err := protojson.Unmarshal(rawEntry, &logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// stringField reads a string field, "" if missing.
func stringField(le *LogEntry, name string) string {
	return le.GetFields()[name].GetStringValue()
}

// listField reads a list of strings field.
func listField(le *LogEntry, name string) []string {
	var out []string
	for _, v := range le.GetFields()[name].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	EventTypes StrCounter `json:"event_types"`
	Sessions   StrCounter `json:"sessions"`

	Commands        StrCounter   `json:"commands"`
	UnknownCommands StrCounter   `json:"unknown_commands"`
	Functions       StrCounter   `json:"functions"`
	Signals         *PathCounter `json:"signals"`
	Warnings        StrCounter   `json:"warnings"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Signals: NewPathCounter("kind", "code"),
	}
}

// Update adds le to the report.
func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	eventType := stringField(le, FieldType)
	r.EventTypes.Increment(eventType)
	if session := stringField(le, FieldSessionID); session != "" {
		r.Sessions.Increment(session)
	}

	switch eventType {
	case EventRunCommand:
		if args := listField(le, "args"); len(args) > 0 {
			r.Commands.Increment(args[0])
		}
	case EventUnknownCommand:
		if args := listField(le, "args"); len(args) > 0 {
			r.UnknownCommands.Increment(args[0])
		}
	case EventFunctionCall:
		r.Functions.Increment(stringField(le, "name"))
	case EventSignal:
		code := le.GetFields()["code"].GetNumberValue()
		r.Signals.Increment(stringField(le, "kind"), jsonNumber(code))
	case EventWarning:
		r.Warnings.Increment(stringField(le, "message"))
	}
}

func jsonNumber(f float64) string {
	out, _ := json.Marshal(f)
	return string(out)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of string tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns the number of times the tuple was seen.
func (ctr *PathCounter) Count(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
