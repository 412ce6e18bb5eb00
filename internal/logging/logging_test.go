package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{Level: slog.LevelInfo, Dir: dir, Service: "test", Quiet: true})
	l.Info("hello", "k", "v")
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "server.log"))
	if err != nil {
		t.Fatalf("read server.log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("expected JSON record in server.log, got %q", data)
	}
	if !strings.Contains(string(data), `"service":"test"`) {
		t.Fatalf("expected service attribute, got %q", data)
	}
}

func TestAppendFatal(t *testing.T) {
	dir := t.TempDir()
	AppendFatal(dir, "boom")
	data, err := os.ReadFile(filepath.Join(dir, "fatal.log"))
	if err != nil {
		t.Fatalf("read fatal.log: %v", err)
	}
	if !strings.Contains(string(data), "boom") {
		t.Fatalf("expected fatal line, got %q", data)
	}
}
