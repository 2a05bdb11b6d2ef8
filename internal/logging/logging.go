// Package logging provides a small, component-scoped wrapper over
// log/slog, in the calling convention of colorlog.New(name) seen
// throughout the reference stack (e.g. colorlog.New("mux")).
package logging

import (
	"log/slog"
	"os"
	"sync"
)

var (
	baseOnce    sync.Once
	baseHandler slog.Handler
)

// SetOutput sets the handler used by loggers created with New after the
// call; loggers created earlier keep their handler. Intended for tests that
// want to capture log lines instead of writing to stderr.
func SetOutput(h slog.Handler) {
	baseHandler = h
}

func base() slog.Handler {
	baseOnce.Do(func() {
		if baseHandler == nil {
			baseHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
		}
	})
	return baseHandler
}

// Logger is a slog.Logger scoped to a component name.
type Logger struct {
	*slog.Logger
	name string
}

// New returns a logger tagged with "component"=name.
func New(name string) *Logger {
	return &Logger{
		Logger: slog.New(base()).With("component", name),
		name:   name,
	}
}

func (l *Logger) Name() string { return l.name }
