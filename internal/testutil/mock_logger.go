// Package testutil holds in-memory fakes and a recording logger shared by the
// LexCase-Intelligence tests.
package testutil

import (
	"strings"
	"sync"

	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
)

// LogMessage is one entry captured by MockLogger.  Fields holds the fields
// bound through With followed by the call's own fields.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the last value logged under key.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for i := len(m.Fields) - 1; i >= 0; i-- {
		if m.Fields[i].Key == key {
			return m.Fields[i].Value, true
		}
	}
	return nil, false
}

type logHistory struct {
	mu      sync.Mutex
	entries []LogMessage
}

// MockLogger records every entry.  Loggers derived through With and Named
// write into the same history, keeping their bound fields and dotted name.
type MockLogger struct {
	history *logHistory
	name    string
	bound   []logging.Field
}

// NewMockLogger returns an empty recorder.
func NewMockLogger() *MockLogger {
	return &MockLogger{history: &logHistory{}}
}

func (m *MockLogger) record(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.bound)+len(fields))
	all = append(all, m.bound...)
	all = append(all, fields...)

	m.history.mu.Lock()
	defer m.history.mu.Unlock()
	m.history.entries = append(m.history.entries, LogMessage{Level: level, Logger: m.name, Message: msg, Fields: all})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.record("error", msg, fields) }

// Fatal records at level "fatal" and does not exit.
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.record("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	bound := make([]logging.Field, 0, len(m.bound)+len(fields))
	bound = append(bound, m.bound...)
	bound = append(bound, fields...)
	return &MockLogger{history: m.history, name: m.name, bound: bound}
}

func (m *MockLogger) Named(name string) logging.Logger {
	full := name
	if m.name != "" {
		full = m.name + "." + name
	}
	return &MockLogger{history: m.history, name: full, bound: m.bound}
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a copy of the shared history.
func (m *MockLogger) GetMessages() []LogMessage {
	m.history.mu.Lock()
	defer m.history.mu.Unlock()
	out := make([]LogMessage, len(m.history.entries))
	copy(out, m.history.entries)
	return out
}

// Clear empties the shared history.
func (m *MockLogger) Clear() {
	m.history.mu.Lock()
	defer m.history.mu.Unlock()
	m.history.entries = nil
}

// Find returns the first entry at level whose message is msg.
func (m *MockLogger) Find(level, msg string) (LogMessage, bool) {
	for _, e := range m.GetMessages() {
		if e.Level == level && e.Message == msg {
			return e, true
		}
	}
	return LogMessage{}, false
}

// HasMessage reports whether msg was logged at level.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// HasMessageContaining reports whether any entry at level contains substr.
func (m *MockLogger) HasMessageContaining(level, substr string) bool {
	for _, e := range m.GetMessages() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// CountLevel returns how many entries were logged at level.
func (m *MockLogger) CountLevel(level string) int {
	n := 0
	for _, e := range m.GetMessages() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// NopLogger discards everything.
type NopLogger struct{}

func NewNopLogger() *NopLogger                                   { return &NopLogger{} }
func (n *NopLogger) Debug(msg string, fields ...logging.Field)   {}
func (n *NopLogger) Info(msg string, fields ...logging.Field)    {}
func (n *NopLogger) Warn(msg string, fields ...logging.Field)    {}
func (n *NopLogger) Error(msg string, fields ...logging.Field)   {}
func (n *NopLogger) Fatal(msg string, fields ...logging.Field)   {}
func (n *NopLogger) With(fields ...logging.Field) logging.Logger { return n }
func (n *NopLogger) Named(name string) logging.Logger            { return n }
func (n *NopLogger) Sync() error                                 { return nil }

//Personal.AI order the ending
