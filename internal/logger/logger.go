// Package logger builds the named hclog loggers used outside the engine.
package logger

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New returns a logger writing to stderr. Unknown levels fall back to info.
func New(level, name string) hclog.Logger {
	return NewWithOutput(level, name, os.Stderr)
}

func NewWithOutput(level, name string, out io.Writer) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Output: out,
		Level:  lvl,
	})
}

// Discard is a logger for tests and library callers that pass none.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

// OrDiscard returns l, or a null logger when l is nil.
func OrDiscard(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
