// logging.go: Pluggable logging for loader diagnostics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Logger is the diagnostic sink used by every loader component.
//
// Failure paths (unresolved module references, unloadable files, rejected
// exports, panicking lifecycle calls) are reported exclusively through this
// interface. Arguments are key-value pairs; the loader uses the keys
// "module", "path", "plugin", "event" and "error" consistently so sinks can
// index them.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a logger that prepends args to every subsequent call.
	With(args ...any) Logger
}

// NewLogger adapts the supported logger types to Logger.
//
// Supported types:
//   - Logger: used directly
//   - *zap.Logger, *zap.SugaredLogger: wrapped in a ZapAdapter
//   - nil: NoOpLogger
//
// Any other type panics, since it is always a programming error.
func NewLogger(logger any) Logger {
	switch l := logger.(type) {
	case Logger:
		return l
	case *zap.Logger:
		return NewZapAdapter(l)
	case *zap.SugaredLogger:
		return &ZapAdapter{sugar: l}
	case nil:
		return NewNoOpLogger()
	default:
		panic(fmt.Sprintf("unsupported logger type %T: expected Logger, *zap.Logger or nil", logger))
	}
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-operation logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Debug(msg string, args ...any) {}
func (n *NoOpLogger) Info(msg string, args ...any)  {}
func (n *NoOpLogger) Warn(msg string, args ...any)  {}
func (n *NoOpLogger) Error(msg string, args ...any) {}

// With implements Logger. The receiver is stateless so it is returned as is.
func (n *NoOpLogger) With(args ...any) Logger {
	return n
}

// TestLogger captures log messages so tests can assert on diagnostics.
type TestLogger struct {
	mu       sync.RWMutex
	fields   []any
	parent   *TestLogger
	Messages []TestLogMessage
}

// TestLogMessage represents a captured log message.
type TestLogMessage struct {
	Level   string
	Message string
	Args    []any
}

// NewTestLogger creates a new test logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{
		Messages: make([]TestLogMessage, 0),
	}
}

// root returns the logger that owns the capture buffer.
func (t *TestLogger) root() *TestLogger {
	root := t
	for root.parent != nil {
		root = root.parent
	}
	return root
}

func (t *TestLogger) record(level, msg string, args []any) {
	root := t.root()

	all := make([]any, 0, len(t.fields)+len(args))
	all = append(all, t.fields...)
	all = append(all, args...)

	root.mu.Lock()
	defer root.mu.Unlock()
	root.Messages = append(root.Messages, TestLogMessage{
		Level:   level,
		Message: msg,
		Args:    all,
	})
}

func (t *TestLogger) Debug(msg string, args ...any) { t.record("DEBUG", msg, args) }
func (t *TestLogger) Info(msg string, args ...any)  { t.record("INFO", msg, args) }
func (t *TestLogger) Warn(msg string, args ...any)  { t.record("WARN", msg, args) }
func (t *TestLogger) Error(msg string, args ...any) { t.record("ERROR", msg, args) }

// With returns a child logger whose messages land in the same capture buffer.
func (t *TestLogger) With(args ...any) Logger {
	fields := make([]any, 0, len(t.fields)+len(args))
	fields = append(fields, t.fields...)
	fields = append(fields, args...)
	return &TestLogger{fields: fields, parent: t}
}

// HasMessage reports whether a message with exactly this level and text was captured.
func (t *TestLogger) HasMessage(level, message string) bool {
	return t.Count(level, message) > 0
}

// Count returns how many captured messages match level and text.
func (t *TestLogger) Count(level, message string) int {
	root := t.root()
	root.mu.RLock()
	defer root.mu.RUnlock()

	n := 0
	for _, msg := range root.Messages {
		if msg.Level == level && msg.Message == message {
			n++
		}
	}
	return n
}

// Find returns the first captured message with the given text.
func (t *TestLogger) Find(message string) (TestLogMessage, bool) {
	root := t.root()
	root.mu.RLock()
	defer root.mu.RUnlock()

	for _, msg := range root.Messages {
		if msg.Message == message {
			return msg, true
		}
	}
	return TestLogMessage{}, false
}

// Arg returns the value logged under key, if any.
func (m TestLogMessage) Arg(key string) (any, bool) {
	for i := 0; i+1 < len(m.Args); i += 2 {
		if k, ok := m.Args[i].(string); ok && k == key {
			return m.Args[i+1], true
		}
	}
	return nil, false
}

// Clear removes all captured messages.
func (t *TestLogger) Clear() {
	root := t.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.Messages = root.Messages[:0]
}
