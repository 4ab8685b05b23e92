// Package logger provides leveled logging for ragchat.
// Debug, info and warning output is only written in verbose mode
// (the --verbose flag, or implied by build and serve). Errors are always
// written. Output goes to stderr unless redirected with SetOutput.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Logger writes messages tagged with a component name.
type Logger struct {
	component string
}

// For returns a logger whose messages are prefixed with component.
func For(component string) *Logger {
	return &Logger{component: component}
}

// Debug prints a message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) { l.write("DEBUG", false, format, args...) }

// Info prints an informational message if verbose mode is enabled.
func (l *Logger) Info(format string, args ...any) { l.write("INFO", false, format, args...) }

// Warn prints a warning message if verbose mode is enabled.
func (l *Logger) Warn(format string, args ...any) { l.write("WARN", false, format, args...) }

// Error prints an error message regardless of verbose mode.
func (l *Logger) Error(format string, args ...any) { l.write("ERROR", true, format, args...) }

func (l *Logger) write(level string, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		msg = l.component + ": " + msg
	}
	fmt.Fprintf(output, "[%s] %s\n", level, msg)
}

var root = &Logger{}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { root.Debug(format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { root.Info(format, args...) }

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) { root.Warn(format, args...) }

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) { root.Error(format, args...) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Writer returns an io.Writer that logs each written line at info level.
// It adapts libraries that expect a writer, such as gin's request logger.
func Writer(component string) io.Writer {
	return lineWriter{l: For(component)}
}

type lineWriter struct {
	l *Logger
}

func (w lineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.l.Info("%s", line)
		}
	}
	return len(p), nil
}
