package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	l.Info(context.Background(), "cleaned", Int("rows", 42), String("circle", "Kerala"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "cleaned" {
		t.Fatalf("msg = %v, want cleaned", entry["msg"])
	}
	if entry["rows"] != float64(42) {
		t.Fatalf("rows = %v, want 42", entry["rows"])
	}
	if entry["circle"] != "Kerala" {
		t.Fatalf("circle = %v, want Kerala", entry["circle"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Debug(context.Background(), "hidden")
	l.Info(context.Background(), "hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	l.Warn(context.Background(), "shown", Err(errors.New("boom")))
	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("warn output missing error field: %q", buf.String())
	}
}

func TestWithRunLoggerReusesRunID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx, l := WithRunLogger(context.Background(), base)
	id := RunIDFromContext(ctx)
	if id == "" {
		t.Fatal("expected run_id on context")
	}
	ctx2, _ := WithRunLogger(ctx, base)
	if got := RunIDFromContext(ctx2); got != id {
		t.Fatalf("run_id changed: %q -> %q", id, got)
	}

	l.Info(ctx, "hello")
	if !strings.Contains(buf.String(), id) {
		t.Fatalf("log line missing run_id %q: %q", id, buf.String())
	}
	if FromContext(ctx) == nil {
		t.Fatal("FromContext returned nil")
	}
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	l := FromContext(context.Background())
	if _, ok := l.(noopLogger); !ok {
		t.Fatalf("FromContext without logger = %T, want noopLogger", l)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	cfg := ConfigFromEnv()
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Fatalf("ConfigFromEnv = %+v", cfg)
	}
	if NewFromEnv() == nil {
		t.Fatal("NewFromEnv returned nil")
	}
}
