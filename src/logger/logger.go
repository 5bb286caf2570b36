package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// L is the global logger. It writes to stderr until InitLogger points it at the log file.
var L = slog.Default()

var (
	mu          sync.Mutex
	logFile     *os.File
	logFilePath string
)

// ParseLevel maps a LOG_LEVEL string to a slog level, defaulting to INFO.
func ParseLevel(logLevelStr string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(logLevelStr)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// InitLogger initializes the global logger on the append-only log file at path.
// Call this once at startup, after the application data directory exists.
func InitLogger(logLevelStr, path string) error {
	level, ok := ParseLevel(logLevelStr)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL specified, defaulting to INFO", "configuredLevel", logLevelStr)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	mu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logFilePath = path
	L = slog.New(slog.NewTextHandler(f, opts))
	mu.Unlock()

	slog.SetDefault(L)
	L.Info("Logger initialized", "level", level.String(), "path", path)
	return nil
}

// LogFilePath returns the location of the log file, or "" before InitLogger.
func LogFilePath() string {
	mu.Lock()
	defer mu.Unlock()
	return logFilePath
}

// ReadLog returns the full content of the log file for the log viewer.
func ReadLog() (string, error) {
	path := LogFilePath()
	if path == "" {
		return "", fmt.Errorf("logger not initialized")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read log file %s: %w", path, err)
	}
	return string(data), nil
}

// Close flushes and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
