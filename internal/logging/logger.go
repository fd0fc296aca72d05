// Package logging provides the file-backed debug logger shared by the
// decomposer, the board and the HTTP server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DebugLogger writes logrus text lines to a file.
// The zero value and a nil pointer are both no-op loggers.
type DebugLogger struct {
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger
}

// New creates a logger writing to logPath at the given level
// ("debug", "info", "warn", ...). An empty path returns a no-op logger.
// Creates parent directories if they don't exist.
func New(logPath, level string) (*DebugLogger, error) {
	if logPath == "" {
		return Nop(), nil
	}

	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := log.New()
	logger.SetOutput(f)
	logger.SetLevel(lvl)
	logger.SetFormatter(&log.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	l := &DebugLogger{file: f, logger: logger}
	l.Log("=== mentor log started at %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *DebugLogger {
	return &DebugLogger{}
}

// Logger returns the underlying logrus logger. Never nil.
func (l *DebugLogger) Logger() *log.Logger {
	if l == nil || l.logger == nil {
		discard := log.New()
		discard.SetOutput(io.Discard)
		return discard
	}
	return l.logger
}

// Log writes an info-level message.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Infof(format, args...)
}

// Debug writes a debug-level message. Used for workflow tracing.
func (l *DebugLogger) Debug(format string, args ...interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Debugf(format, args...)
}

// WithField returns an entry carrying a structured field.
func (l *DebugLogger) WithField(key string, value interface{}) *log.Entry {
	return l.Logger().WithField(key, value)
}

// Close closes the log file.
// Safe to call on nil logger or logger without file.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
