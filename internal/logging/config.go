// Package logging provides structured logging for messenger-mirror.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level to record.
	Level string
	// Format is the console format, "text" or "json".
	Format string
	// Output receives console log lines. Defaults to os.Stderr.
	Output io.Writer
	// FileEnabled adds a JSON log file under Dir.
	FileEnabled bool
	// Dir is where log files are written.
	Dir string
	// MaxFiles is the maximum number of log files to retain.
	MaxFiles int
	// Command is the name of the command being executed.
	Command string
	// PID is the process ID.
	PID int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Format:   "text",
		Output:   os.Stderr,
		MaxFiles: 10,
		Command:  filepath.Base(os.Args[0]),
		PID:      os.Getpid(),
	}
}

// FromSettings creates a logging Config from resolved settings.
// Debug mode forces the debug level.
func FromSettings(s config.LoggingSettings, debug bool) Config {
	cfg := DefaultConfig()
	cfg.Level = s.Level
	cfg.Format = s.Format
	cfg.FileEnabled = s.FileEnabled
	cfg.Dir = s.Dir
	if s.MaxFiles > 0 {
		cfg.MaxFiles = s.MaxFiles
	}
	if debug {
		cfg.Level = "debug"
	}
	return cfg
}

// LogDir returns the directory where log files should be stored.
// It uses the following priority:
// 1. the configured directory (if it is writable)
// 2. {os.TempDir()}/messenger-mirror/logs (fallback)
func LogDir(dir string) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, config.FileModeDir); err == nil {
			if testFileWrite(dir) {
				return dir, nil
			}
		}
	}
	tempBase := filepath.Join(os.TempDir(), "messenger-mirror", "logs")
	if err := os.MkdirAll(tempBase, config.FileModeDir); err != nil {
		return "", err
	}
	return tempBase, nil
}

// testFileWrite attempts to create a temporary file in dir to verify write permissions.
func testFileWrite(dir string) bool {
	tmp := filepath.Join(dir, ".write_test")
	f, err := os.Create(tmp)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(tmp)
	return true
}
