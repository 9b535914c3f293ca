package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/messenger-mirror/internal/config"
)

// Logger is the structured logging interface.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)
	// Info logs an informational message.
	Info(msg string, args ...any)
	// Warn logs a warning message.
	Warn(msg string, args ...any)
	// Error logs an error message.
	Error(msg string, args ...any)
	// With returns a new logger with additional key-value pairs.
	With(args ...any) Logger
	// Shutdown flushes any buffered logs and releases resources.
	Shutdown() error
}

// loggerImpl is the charmbracelet/log based implementation.
// It writes every entry to the console sink and, when enabled, a JSON file sink.
type loggerImpl struct {
	mu       *sync.RWMutex
	sinks    []*clog.Logger
	file     *os.File
	redactor *redactor
	fields   []any
	path     string
}

// New builds a Logger from cfg. The log file, when enabled, is rotated
// before a new one is opened.
func New(cfg Config) (Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level := parseLevel(cfg.Level)

	console := clog.NewWithOptions(out, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	if strings.EqualFold(cfg.Format, "json") {
		console.SetFormatter(clog.JSONFormatter)
		console.SetTimeFormat(time.RFC3339Nano)
	}

	l := &loggerImpl{
		mu:       &sync.RWMutex{},
		sinks:    []*clog.Logger{console},
		redactor: newRedactor(),
	}
	if !cfg.FileEnabled {
		return l, nil
	}

	logDir, err := LogDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to determine log directory: %w", err)
	}
	if err := rotate(logDir, cfg.MaxFiles); err != nil {
		// Non-fatal; report on the console and continue
		console.Warn("log rotation failed", "err", err)
	}
	fname := fmt.Sprintf("%s%s_PID%d_%s.log",
		logFilePrefix,
		time.Now().Format("20060102_150405"),
		cfg.PID,
		strings.ReplaceAll(cfg.Command, " ", "_"))
	path := filepath.Join(logDir, fname)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, config.FileModeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileLogger := clog.NewWithOptions(f, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           level,
	})
	fileLogger.SetFormatter(clog.JSONFormatter)
	fileLogger = fileLogger.With("pid", cfg.PID, "command", cfg.Command)

	l.sinks = append(l.sinks, fileLogger)
	l.file = f
	l.path = path
	return l, nil
}

// NewWriter returns a console-only logger writing text lines to w.
// Used by tests and by commands that run before settings are resolved.
func NewWriter(w io.Writer, level string) Logger {
	l, _ := New(Config{Level: level, Format: "text", Output: w})
	return l
}

// parseLevel converts a string level to clog.Level.
func parseLevel(level string) clog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return clog.DebugLevel
	case "info":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

func (l *loggerImpl) Debug(msg string, args ...any) { l.log(clog.DebugLevel, msg, args) }
func (l *loggerImpl) Info(msg string, args ...any)  { l.log(clog.InfoLevel, msg, args) }
func (l *loggerImpl) Warn(msg string, args ...any)  { l.log(clog.WarnLevel, msg, args) }
func (l *loggerImpl) Error(msg string, args ...any) { l.log(clog.ErrorLevel, msg, args) }

// log writes a log entry with redaction applied to the key-value pairs.
func (l *loggerImpl) log(level clog.Level, msg string, args []any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	allArgs := make([]any, 0, len(l.fields)+len(args))
	allArgs = append(allArgs, l.fields...)
	allArgs = append(allArgs, args...)
	redacted := l.redactor.redact(allArgs)
	for _, sink := range l.sinks {
		sink.Log(level, msg, redacted...)
	}
}

func (l *loggerImpl) With(args ...any) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fields := make([]any, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	// Children share the sinks, the file and the lock.
	return &loggerImpl{
		mu:       l.mu,
		sinks:    l.sinks,
		file:     l.file,
		redactor: l.redactor,
		fields:   fields,
		path:     l.path,
	}
}

func (l *loggerImpl) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.sinks = l.sinks[:1]
	return err
}

// FilePath returns the path of the JSON log file, or "" when file logging is off.
func FilePath(l Logger) string {
	impl, ok := l.(*loggerImpl)
	if !ok {
		return ""
	}
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	return impl.path
}

// noopLogger is a logger that discards all output.
type noopLogger struct{}

// Nop returns a logger that discards everything.
func Nop() Logger { return noopLogger{} }

func (n noopLogger) Debug(msg string, args ...any) {}
func (n noopLogger) Info(msg string, args ...any)  {}
func (n noopLogger) Warn(msg string, args ...any)  {}
func (n noopLogger) Error(msg string, args ...any) {}
func (n noopLogger) With(args ...any) Logger       { return n }
func (n noopLogger) Shutdown() error               { return nil }
