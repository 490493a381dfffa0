package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger writes timestamped, leveled lines to a log file (or stderr).
type Logger struct {
	base      *log.Logger
	writeFile *os.File
}

// NewLogger opens the given log file for appending. An empty path resolves to
// the default log next to the executable. If the file cannot be opened, logs
// go to stderr.
func NewLogger(logFile string) *Logger {
	if logFile == "" {
		logFile = ExecutablePaths().LogFile()
	}
	_ = os.MkdirAll(filepath.Dir(logFile), 0o755)

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := NewWriterLogger(os.Stderr)
		l.Errorf("Error opening log file (%s): %v", logFile, err)
		return l
	}
	l := NewWriterLogger(f)
	l.writeFile = f
	return l
}

// NewWriterLogger logs to an arbitrary writer.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{base: log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           log.InfoLevel,
	})}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriterLogger(io.Discard)
}

// SetLevel changes the minimum level; unknown names are ignored.
func (l *Logger) SetLevel(level string) {
	if l == nil || l.base == nil {
		return
	}
	parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return
	}
	l.base.SetLevel(parsed)
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	if l == nil || l.base == nil {
		return nil
	}
	return &Logger{base: l.base.With(keyvals...), writeFile: l.writeFile}
}

// Write appends a plain info line.
func (l *Logger) Write(message string) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Info(message)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Errorf(format, args...)
}

// Close closes the underlying file handle when one was opened.
func (l *Logger) Close() {
	if l == nil || l.writeFile == nil {
		return
	}
	if err := l.writeFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "log sync: %v\n", err)
	}
	l.writeFile.Close()
}
