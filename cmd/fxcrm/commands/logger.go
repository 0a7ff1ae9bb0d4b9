package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// StderrLogger implements fxcrm.Logger. Debug and Info lines are written
// only when verbose.
type StderrLogger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewStderrLogger creates a logger writing to out.
func NewStderrLogger(out io.Writer, verbose bool) *StderrLogger {
	return &StderrLogger{out: out, verbose: verbose}
}

func (l *StderrLogger) Debug(msg string, fields map[string]interface{}) {
	if l.verbose {
		l.write("DEBUG", msg, fields)
	}
}

func (l *StderrLogger) Info(msg string, fields map[string]interface{}) {
	if l.verbose {
		l.write("INFO", msg, fields)
	}
}

func (l *StderrLogger) Warn(msg string, fields map[string]interface{}) {
	l.write("WARN", msg, fields)
}

func (l *StderrLogger) Error(msg string, fields map[string]interface{}) {
	l.write("ERROR", msg, fields)
}

func (l *StderrLogger) write(level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var line strings.Builder

	line.WriteString("[" + level + "] " + msg)

	for _, key := range keys {
		fmt.Fprintf(&line, " %s=%v", key, fields[key])
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.out, line.String())
}
