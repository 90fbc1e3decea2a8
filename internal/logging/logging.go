// Package logging writes structured application events as one JSON object per line.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Fields are extra key/value pairs attached to a log entry.
type Fields map[string]any

// Logger encodes entries with a "ts" formatted in a fixed location.
// It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
	loc *time.Location
	now func() time.Time
}

// New returns a Logger writing to w. A nil loc means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{enc: json.NewEncoder(w), loc: loc, now: time.Now}
}

// Stdout returns a Logger writing to standard output.
func Stdout(loc *time.Location) *Logger {
	return New(os.Stdout, loc)
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// Info logs an informational event.
func (l *Logger) Info(msg string, f Fields) {
	l.write("info", msg, nil, f)
}

// Warn logs an event that did not fail the operation.
func (l *Logger) Warn(msg string, err error, f Fields) {
	l.write("warn", msg, err, f)
}

// Error logs a failure. err may be nil.
func (l *Logger) Error(msg string, err error, f Fields) {
	l.write("error", msg, err, f)
}

func (l *Logger) write(level, msg string, err error, f Fields) {
	if l == nil {
		return
	}
	entry := make(map[string]any, len(f)+4)
	for k, v := range f {
		entry[k] = v
	}
	entry["ts"] = l.now().In(l.loc).Format(time.RFC3339Nano)
	entry["level"] = level
	entry["msg"] = msg
	if err != nil {
		entry["error"] = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(entry)
}
