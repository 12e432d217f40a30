// Package logger provides the logging facility for planchette.
//
// Components receive a Logger through their constructor rather than
// calling the package-level functions directly, so tests can substitute
// a no-op or recording logger. The package-level functions remain for
// wiring code (module init, server bootstrap) where injection would be
// ceremony without benefit.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal logging capability injected into components.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var (
	mu  sync.RWMutex
	std = newLogrusLogger(os.Stderr)
)

type logrusLogger struct {
	l *logrus.Logger
}

func newLogrusLogger(out io.Writer) *logrusLogger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return &logrusLogger{l: l}
}

func (r *logrusLogger) Debugf(format string, args ...interface{}) { r.l.Debugf(format, args...) }
func (r *logrusLogger) Infof(format string, args ...interface{})  { r.l.Infof(format, args...) }
func (r *logrusLogger) Warnf(format string, args ...interface{})  { r.l.Warnf(format, args...) }
func (r *logrusLogger) Errorf(format string, args ...interface{}) { r.l.Errorf(format, args...) }

// Init routes the default logger to the given file path in addition to
// stderr. Called once from the application run function.
func Init(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	mu.Lock()
	defer mu.Unlock()
	std.l.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// SetLevel adjusts the default logger's verbosity ("debug", "info", ...).
func SetLevel(level string) error {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	std.l.SetLevel(lv)
	return nil
}

// Default returns the process-wide logger for injection at wiring sites.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// Debug logs at debug level using the default logger.
func Debug(format string, args ...interface{}) { Default().Debugf(format, args...) }

// Info logs at info level using the default logger.
func Info(format string, args ...interface{}) { Default().Infof(format, args...) }

// Warn logs at warn level using the default logger.
func Warn(format string, args ...interface{}) { Default().Warnf(format, args...) }

// Error logs at error level using the default logger.
func Error(format string, args ...interface{}) { Default().Errorf(format, args...) }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NewNop returns a logger that discards everything. Intended for tests.
func NewNop() Logger { return nopLogger{} }
