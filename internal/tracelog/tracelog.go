// Package tracelog provides an env-gated structured trace logger shared by
// stubrt, runner and explorer: silent by default, switched on by an
// environment variable naming a log file, and closed explicitly by its
// owner rather than relying on process-exit cleanup.
package tracelog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EnvVar names the environment variable that enables trace logging.
// A value of "1" or "true" logs to larmier-trace.log in the current
// directory; any other non-empty value is treated as a file path.
const EnvVar = "LARMIER_TRACE_LOG"

// Logger wraps slog.Logger with an optional backing file that must be
// closed by the owner.
type Logger struct {
	*slog.Logger
	file *os.File
}

// FromEnv builds a Logger from EnvVar. When unset, logs are discarded.
func FromEnv() (*Logger, error) {
	val := strings.TrimSpace(os.Getenv(EnvVar))
	if val == "" {
		return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, nil
	}

	path := val
	if val == "1" || strings.EqualFold(val, "true") {
		path = "larmier-trace.log"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("tracelog: mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("tracelog: open %s: %w", path, err)
	}
	l := &Logger{
		Logger: slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})),
		file:   f,
	}
	l.Info("trace logging enabled", "path", path)
	return l, nil
}

// Close flushes and closes the backing file, if any.
func (l *Logger) Close() {
	if l == nil || l.file == nil {
		return
	}
	l.Info("trace logging closed")
	_ = l.file.Close()
}
