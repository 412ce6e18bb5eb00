// Package logging builds the structured loggers used by the server and CLI.
//
// stdout is reserved for LSP wire framing; loggers write to stderr and,
// when a log directory is configured, to JSON files under it
// (server.log, boot.log, fatal.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ParseLevel maps a configuration string to a slog level.
// Unknown values fall back to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures logger construction.
type Config struct {
	// Level is the minimum level; messages below it are discarded.
	Level slog.Level
	// Dir enables file logging to Dir/server.log when non-empty.
	// The directory is created if missing.
	Dir string
	// Service is attached to every record as the "service" attribute.
	Service string
	// Quiet disables the stderr handler; file logging is unaffected.
	Quiet bool
}

// Logger wraps slog with the file sink lifecycle. The minimum level can
// be adjusted at runtime when configuration changes.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *os.File
}

// New constructs a logger per Config. File-sink failures degrade to
// stderr-only logging and are reported on the returned logger.
func New(cfg Config) *Logger {
	level := new(slog.LevelVar)
	level.Set(cfg.Level)
	var handlers []slog.Handler
	if !cfg.Quiet {
		handlers = append(handlers, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	var file *os.File
	var fileErr error
	if cfg.Dir != "" {
		file, fileErr = openLogFile(cfg.Dir, "server.log")
		if file != nil {
			handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
		}
	}
	if len(handlers) == 0 {
		handlers = append(handlers, slog.NewTextHandler(io.Discard, nil))
	}
	logger := slog.New(multiHandler(handlers))
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	l := &Logger{Logger: logger, level: level, file: file}
	if fileErr != nil {
		l.Warn("file logging disabled", "error", fileErr)
	}
	return l
}

// SetLevel adjusts the minimum level of every sink.
func (l *Logger) SetLevel(level slog.Level) {
	if l == nil || l.level == nil {
		return
	}
	l.level.Set(level)
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// AppendBoot writes a single start-up line to boot.log.
func AppendBoot(dir, line string) {
	appendLine(dir, "boot.log", line)
}

// AppendFatal writes a single unrecoverable-failure line to fatal.log.
func AppendFatal(dir, line string) {
	appendLine(dir, "fatal.log", line)
}

func appendLine(dir, name, line string) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s %s\n", time.Now().UTC().Format(time.RFC3339), line)
}

func openLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
