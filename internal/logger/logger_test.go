package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_ValidInputs(t *testing.T) {
	cases := []struct {
		level  string
		format string
	}{
		{"info", "json"},
		{"debug", "text"},
		{"WARN", "json"},
		{"error", "TEXT"},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		l, err := New(c.level, c.format, &buf)
		if err != nil {
			t.Errorf("expected no error for level=%q format=%q, got %v", c.level, c.format, err)
		}
		if l == nil {
			t.Errorf("expected logger for level=%q format=%q, got nil", c.level, c.format)
		}
	}
}

func TestNewLogger_EmptyStrings(t *testing.T) {
	if _, err := New("", "json", nil); err == nil {
		t.Error("expected error for empty logLevel, got nil")
	}
	if _, err := New("info", "", nil); err == nil {
		t.Error("expected error for empty logFormat, got nil")
	}
}

func TestNewLogger_InvalidValues(t *testing.T) {
	if _, err := New("foo", "json", nil); err == nil {
		t.Error("expected error for invalid logLevel, got nil")
	}
	if _, err := New("info", "bar", nil); err == nil {
		t.Error("expected error for invalid logFormat, got nil")
	}
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", "json", &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Debug("hidden")
	l.Info("catalog built", "versions", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("expected timestamp key, got %v", entry)
	}
	if entry["msg"] != "catalog built" {
		t.Errorf("msg = %v, want %q", entry["msg"], "catalog built")
	}
	if entry["versions"] != float64(3) {
		t.Errorf("versions = %v, want 3", entry["versions"])
	}
}

func TestParseLevelOrDefault(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevelOrDefault(input); got != want {
			t.Errorf("ParseLevelOrDefault(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	if Discard() == nil {
		t.Fatal("Discard() returned nil")
	}
}
