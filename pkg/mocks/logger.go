package mocks

import (
	"fmt"
	"sync"

	"github.com/user/labelkit/pkg/ports"
)

// Logger records formatted messages per level.
type Logger struct {
	mu        *sync.Mutex
	component string
	entries   *[]LogEntry
}

// LogEntry is one recorded message.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

// NewLogger creates a recording Logger.
func NewLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.record(ports.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.record(ports.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.record(ports.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...interface{})  { l.record(ports.LevelError, msg, args) }

func (l *Logger) WithComponent(component string) ports.Logger {
	return &Logger{mu: l.mu, component: component, entries: l.entries}
}

func (l *Logger) record(level ports.LogLevel, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{Level: level, Component: l.component, Message: fmt.Sprintf(msg, args...)})
}

// Entries returns recorded messages at or above level.
func (l *Logger) Entries(level ports.LogLevel) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range *l.entries {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

var _ ports.Logger = (*Logger)(nil)
