// Package logging provides structured logging for baton piece runs: a
// thin wrapper over log/slog emitting JSON lines, with child loggers
// that pin run, movement, persona, and subtask context so one run's log
// can be sliced after the fact.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Accepted log level names
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the log file inside a run directory.
const LogFileName = "baton.log"

// syncCloser is satisfied by *os.File and *RotatingWriter.
type syncCloser interface {
	Sync() error
	Close() error
}

// Logger emits JSON log lines carrying its accumulated context
// attributes. Safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	sink   syncCloser
	mu     sync.Mutex  // Protects sink operations
	attrs  []slog.Attr // Persistent attributes (run, movement, persona, subtask)
}

// NewLogger creates a new Logger that writes JSON-formatted logs to
// {runDir}/baton.log. If runDir is empty, logs are written to stderr.
//
// The level parameter sets the minimum severity that is written;
// anything below it is dropped.
func NewLogger(runDir string, level string) (*Logger, error) {
	return NewRotatingLogger(runDir, level, RotationConfig{})
}

// NewRotatingLogger creates a Logger whose log file rotates according to
// rotation. A zero-value RotationConfig disables rotation, matching
// NewLogger's behavior.
func NewRotatingLogger(runDir string, level string, rotation RotationConfig) (*Logger, error) {
	var writer io.Writer
	var sink syncCloser

	if runDir != "" {
		if err := os.MkdirAll(runDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}

		logPath := filepath.Join(runDir, LogFileName)
		if rotation.MaxSizeMB > 0 {
			rw, err := NewRotatingWriter(logPath, rotation)
			if err != nil {
				return nil, err
			}
			writer = rw
			sink = rw
		} else {
			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return nil, fmt.Errorf("failed to open log file: %w", err)
			}
			writer = file
			sink = file
		}
	} else {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	return &Logger{
		logger: slog.New(slog.NewJSONHandler(writer, opts)),
		sink:   sink,
		attrs:  make([]slog.Attr, 0),
	}, nil
}

// parseLevel maps a level name to slog.Level, falling back to INFO.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun returns a child logger stamping every entry with the run id.
func (l *Logger) WithRun(runID string) *Logger {
	return l.withAttr(slog.String("run_id", runID))
}

// WithMovement returns a child logger stamping every entry with the
// movement name.
func (l *Logger) WithMovement(movement string) *Logger {
	return l.withAttr(slog.String("movement", movement))
}

// WithPersona returns a child logger stamping every entry with the
// persona reference.
func (l *Logger) WithPersona(persona string) *Logger {
	return l.withAttr(slog.String("persona", persona))
}

// WithSubtask returns a child logger stamping every entry with the
// subtask id, so interleaved fan-out logs can be separated afterward.
func (l *Logger) WithSubtask(subtaskID string) *Logger {
	return l.withAttr(slog.String("subtask", subtaskID))
}

// With returns a child logger carrying arbitrary alternating key-value
// attributes on top of the existing ones.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}

	newAttrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2)
	newAttrs = append(newAttrs, l.attrs...)

	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		newAttrs = append(newAttrs, slog.Any(key, args[i+1]))
	}

	return &Logger{
		logger: l.logger,
		sink:   l.sink,
		attrs:  newAttrs,
	}
}

// withAttr copies the logger with one more pinned attribute.
func (l *Logger) withAttr(attr slog.Attr) *Logger {
	newAttrs := make([]slog.Attr, len(l.attrs)+1)
	copy(newAttrs, l.attrs)
	newAttrs[len(l.attrs)] = attr

	return &Logger{
		logger: l.logger,
		sink:   l.sink,
		attrs:  newAttrs,
	}
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// log combines persistent attributes with per-call arguments.
func (l *Logger) log(level slog.Level, msg string, args ...any) {
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close flushes and closes the log file. A stderr-backed logger has no
// file, so Close is a no-op.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
		if err := l.sink.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.sink = nil
	}
	return nil
}

// NopLogger returns a Logger that discards everything, for tests and
// for callers that pass no logger.
func NopLogger() *Logger {
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		attrs:  make([]slog.Attr, 0),
	}
}

// ParseLevel normalizes a level name to its canonical constant,
// falling back to LevelInfo.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return LevelDebug
	case LevelInfo:
		return LevelInfo
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevels lists the accepted level names.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
