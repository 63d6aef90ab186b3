// Package logging writes one JSON object per line, the format used for every
// log entry the service emits (startup, migrations, feed, tracing).
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// New returns a Logger writing to w with timestamps rendered in loc.
func New(w io.Writer, loc *time.Location) *Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{w: w, loc: loc}
}

// Discard returns a Logger that drops every entry.
func Discard() *Logger {
	return New(io.Discard, time.UTC)
}

// Location returns the time zone used for timestamps.
func (l *Logger) Location() *time.Location {
	return l.loc
}

// Log writes data as a single JSON line. "ts" is always set; "level" is derived
// from "status" when absent ("error" status logs at error level).
func (l *Logger) Log(data map[string]any) {
	if l == nil {
		return
	}
	entry := make(map[string]any, len(data)+2)
	for k, v := range data {
		entry[k] = v
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := entry["level"]; !ok {
		if entry["status"] == "error" {
			entry["level"] = "error"
		} else {
			entry["level"] = "info"
		}
	}

	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]any{
			"ts":    entry["ts"],
			"level": "error",
			"msg":   "failed to marshal log entry",
			"error": err.Error(),
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}

// Info logs an event for component at info level.
func (l *Logger) Info(component, event string, fields map[string]any) {
	l.Log(with(fields, map[string]any{
		"component": component,
		"event":     event,
		"level":     "info",
	}))
}

// Error logs an event for component at error level with err's message.
func (l *Logger) Error(component, event string, err error, fields map[string]any) {
	extra := map[string]any{
		"component": component,
		"event":     event,
		"level":     "error",
		"status":    "error",
	}
	if err != nil {
		extra["error_message"] = err.Error()
	}
	l.Log(with(fields, extra))
}

func with(fields, extra map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+len(extra))
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
