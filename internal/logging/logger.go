// Package logging provides the file-based debug logger shared by taskforge
// components.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// pkgLogger is the process-wide debug logger used by Debugf.
var pkgLogger *DebugLogger
var pkgLoggerMu sync.RWMutex

// SetDefault sets the logger used by Debugf. Pass nil to disable it.
func SetDefault(l *DebugLogger) {
	pkgLoggerMu.Lock()
	defer pkgLoggerMu.Unlock()
	pkgLogger = l
}

// Debugf writes a message using the default logger.
// Components without their own logger (classifier, decomposer, graph) use it.
func Debugf(format string, args ...interface{}) {
	pkgLoggerMu.RLock()
	l := pkgLogger
	pkgLoggerMu.RUnlock()

	if l != nil {
		l.Log(format, args...)
	}
}

// DebugLogger provides debug logging backed by zap.
// A zero or nil DebugLogger discards everything.
type DebugLogger struct {
	zl *zap.Logger
}

// NewDebugLogger creates a logger appending to the specified path.
// If the path is empty, returns a no-op logger.
// Creates parent directories if they don't exist.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{zl: zl}
	logger.Log("=== taskforge debug log started at %s ===", time.Now().Format(time.RFC3339))
	return logger, nil
}

// NopLogger returns a no-op logger for testing or when logging is disabled.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a formatted message at debug level.
// If the logger is nil or has no sink, this is a no-op.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.zl == nil {
		return
	}
	l.zl.Debug(fmt.Sprintf(format, args...))
}

// Close flushes the logger. Safe to call on a nil or no-op logger.
func (l *DebugLogger) Close() error {
	if l == nil || l.zl == nil {
		return nil
	}
	// Sync on a regular file succeeds; ignore errors from ttys and pipes.
	_ = l.zl.Sync()
	return nil
}
