// Package logger holds the process-wide structured logger used by heapkit
// packages. It discards everything until Init enables it.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger instance. It discards all output by default.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	logPrefix     = "heapctl-"
	logSuffix     = ".log"
	retentionDays = 30
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level; zero means LevelInfo
	JSON    bool       // JSON records instead of logfmt-style text

	// Writer receives records. When nil and LogDir is set, records go to a
	// dated file in LogDir; when both are empty, records go to stderr.
	Writer io.Writer
	LogDir string
}

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) error {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	w := opts.Writer
	if w == nil && opts.LogDir != "" {
		f, err := openLogFile(opts.LogDir)
		if err != nil {
			return err
		}
		w = f
	}
	if w == nil {
		w = os.Stderr
	}

	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}

	if opts.JSON {
		L = slog.New(slog.NewJSONHandler(w, hopts))
	} else {
		L = slog.New(slog.NewTextHandler(w, hopts))
	}
	return nil
}

func openLogFile(logDir string) (*os.File, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	// best-effort
	cleanOldLogs(logDir)

	filename := filepath.Join(logDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	return os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(logDir string) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
