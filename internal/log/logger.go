// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

var currentLevel atomic.Uint32

// output is swapped atomically so tests can capture log lines while the
// worker goroutine is writing.
var output atomic.Pointer[stdlog.Logger]

func init() {
	SetLevel(LevelInfo)
	SetOutput(os.Stderr)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// SetOutput redirects all log output, date and microsecond time included.
func SetOutput(w io.Writer) {
	output.Store(stdlog.New(w, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds))
}

func shouldLog(level LogLevel) bool {
	return level >= GetLevel()
}

func emit(level LogLevel, component, msg string) {
	if !shouldLog(level) {
		return
	}
	if component != "" {
		msg = component + ": " + msg
	}
	// Pad to keep messages aligned after the 4-letter levels.
	pad := " "
	if len(level.String()) == 4 {
		pad = "  "
	}
	if level == LevelFatal {
		output.Load().Fatalf("[%s]%s%s", level, pad, msg)
	}
	output.Load().Printf("[%s]%s%s", level, pad, msg)
}

// --- Component Loggers ---

// Logger prefixes every message with the name of the component emitting it.
// The zero value logs without a prefix. Loggers share the global level.
type Logger struct {
	component string
}

// New returns a Logger for the named component, e.g. New("worker").
func New(component string) *Logger {
	return &Logger{component: component}
}

// With returns a child Logger whose component is nested under l's.
func (l *Logger) With(sub string) *Logger {
	if l.component == "" {
		return New(sub)
	}
	return New(l.component + "/" + sub)
}

func (l *Logger) Debugf(format string, v ...any) { emit(LevelDebug, l.component, fmt.Sprintf(format, v...)) }
func (l *Logger) Infof(format string, v ...any)  { emit(LevelInfo, l.component, fmt.Sprintf(format, v...)) }
func (l *Logger) Warnf(format string, v ...any)  { emit(LevelWarn, l.component, fmt.Sprintf(format, v...)) }
func (l *Logger) Errorf(format string, v ...any) { emit(LevelError, l.component, fmt.Sprintf(format, v...)) }

// --- Package-level Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) { emit(LevelDebug, "", fmt.Sprintf(format, v...)) }

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) { emit(LevelInfo, "", fmt.Sprintf(format, v...)) }

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) { emit(LevelWarn, "", fmt.Sprintf(format, v...)) }

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) { emit(LevelError, "", fmt.Sprintf(format, v...)) }

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) { emit(LevelFatal, "", fmt.Sprintf(format, v...)) }
