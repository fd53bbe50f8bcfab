// Package logging provides structured logging on top of slog.
//
// Key features:
//   - Human-readable text on stderr for interactive use
//   - Dated JSON log files for later inspection
//   - Child loggers with bound attributes via With
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config configures a Logger. The zero value logs Info and above to
// stderr only.
type Config struct {
	// Level is the minimum level to emit
	Level slog.Level

	// Dir enables JSON file logging into the given directory
	Dir string

	// Component is attached to every record as the component attribute
	Component string

	// Quiet suppresses the stderr handler
	Quiet bool
}

// Logger wraps slog with file output and cleanup.
type Logger struct {
	slog *slog.Logger
	file *os.File
}

// New creates a Logger. File logging failures degrade to stderr-only
// logging rather than failing the caller.
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handlers []slog.Handler
	if !cfg.Quiet {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
	}

	logger := &Logger{}
	if cfg.Dir != "" {
		if file, err := openLogFile(cfg.Dir); err == nil {
			logger.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		if cfg.Quiet {
			handler = discardHandler{}
		} else {
			handler = slog.NewTextHandler(os.Stderr, opts)
		}
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}
	if cfg.Component != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("component", cfg.Component)})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Discard returns a logger that drops everything. Intended for tests.
func Discard() *Logger {
	return &Logger{slog: slog.New(discardHandler{})}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying additional attributes. The file
// handle stays owned by the parent; only the parent's Close closes it.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// Close syncs and closes the log file, if one is open.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.file = nil
	return nil
}

// ParseLevel maps a config string to a slog level. Unknown values
// default to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLogFile opens the dated log file for appending, creating the
// directory as needed.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("dpm_%s.log", time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}
