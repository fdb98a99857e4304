// Package logger provides leveled file logging with line-count rotation
// and an append-only pipeline event log.
package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxLines is the line budget for the log file before rotation.
const DefaultMaxLines = 5000

// Level represents the logging level.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of a level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// FileLogger writes timestamped leveled lines to a file, trimming the file
// back to half the line budget whenever it grows past the budget.
type FileLogger struct {
	file      *os.File
	lineCount int
	level     Level
	maxLines  int
	mutex     sync.Mutex
}

// Global logger instance (atomic for safe concurrent access).
var globalPtr atomic.Pointer[FileLogger]

// defaultLogger is used before Init has run.
var defaultLogger = &FileLogger{
	file:     os.Stderr,
	level:    LevelInfo,
	maxLines: DefaultMaxLines,
}

// Init opens (or creates) the log file at path and installs it as the
// global logger.
func Init(path string, level Level) (*FileLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return InitWithFile(file, level), nil
}

// InitWithFile installs a logger over an already-open file.
func InitWithFile(file *os.File, level Level) *FileLogger {
	fl := &FileLogger{
		file:     file,
		level:    level,
		maxLines: DefaultMaxLines,
	}
	fl.countExistingLines()
	globalPtr.Store(fl)
	return fl
}

func (fl *FileLogger) shouldLog(level Level) bool {
	return level >= fl.level
}

func (fl *FileLogger) logWithLevel(level Level, format string, v ...any) {
	if !fl.shouldLog(level) {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), level.String(), fmt.Sprintf(format, v...))
	fl.Write([]byte(msg))
}

// Debug logs a debug message.
func (fl *FileLogger) Debug(format string, v ...any) { fl.logWithLevel(LevelDebug, format, v...) }

// Info logs an info message.
func (fl *FileLogger) Info(format string, v ...any) { fl.logWithLevel(LevelInfo, format, v...) }

// Warn logs a warning message.
func (fl *FileLogger) Warn(format string, v ...any) { fl.logWithLevel(LevelWarn, format, v...) }

// Error logs an error message.
func (fl *FileLogger) Error(format string, v ...any) { fl.logWithLevel(LevelError, format, v...) }

// Fatal logs an error message and exits with code 1.
func (fl *FileLogger) Fatal(format string, v ...any) {
	fl.logWithLevel(LevelError, format, v...)
	os.Exit(1)
}

func getLogger() *FileLogger {
	if fl := globalPtr.Load(); fl != nil {
		return fl
	}
	return defaultLogger
}

// Package-level logging functions that use the global logger.
func Debug(format string, v ...any) { getLogger().Debug(format, v...) }
func Info(format string, v ...any)  { getLogger().Info(format, v...) }
func Warn(format string, v ...any)  { getLogger().Warn(format, v...) }
func Error(format string, v ...any) { getLogger().Error(format, v...) }
func Fatal(format string, v ...any) { getLogger().Fatal(format, v...) }

// noopFunc is a reusable no-op to avoid allocations when tracing is off.
var noopFunc = func() {}

// Trace returns a function that logs operation duration when called.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	fl := getLogger()
	if !fl.shouldLog(LevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		fl.logWithLevel(LevelTrace, "%s: %v", name, time.Since(start))
	}
}

// countExistingLines counts the lines already present in the log file so
// rotation accounting survives restarts.
func (fl *FileLogger) countExistingLines() {
	fl.mutex.Lock()
	defer fl.mutex.Unlock()

	fl.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(fl.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	fl.lineCount = count
	fl.file.Seek(0, io.SeekEnd)
}

// Write implements io.Writer.
func (fl *FileLogger) Write(p []byte) (n int, err error) {
	fl.mutex.Lock()
	defer fl.mutex.Unlock()

	n, err = fl.file.Write(p)
	if err != nil {
		return n, err
	}

	fl.lineCount += strings.Count(string(p), "\n")
	if fl.lineCount > fl.maxLines {
		fl.rotate()
	}
	return n, err
}

// rotate trims the log file to the last maxLines/2 lines.
func (fl *FileLogger) rotate() {
	keep := fl.maxLines / 2

	fl.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(fl.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}

	fl.file.Truncate(0)
	fl.file.Seek(0, io.SeekStart)
	for _, line := range lines {
		fl.file.WriteString(line + "\n")
	}
	fl.lineCount = len(lines)
}

// Close closes the underlying file.
func (fl *FileLogger) Close() error {
	return fl.file.Close()
}
