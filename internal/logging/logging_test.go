package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		" WARN": slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONCarriesServiceAndHostname(t *testing.T) {
	var buf bytes.Buffer
	log := New("toll-console", "info", "json", &buf)
	log.Debug("hidden")
	log.Info("started", "port", 3000)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["service"] != "toll-console" || rec["msg"] != "started" {
		t.Fatalf("record = %v", rec)
	}
	if _, ok := rec["hostname"]; !ok {
		t.Fatalf("record has no hostname: %v", rec)
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New("toll-console", "debug", "text", &buf).Debug("tick")
	if !strings.Contains(buf.String(), "msg=tick") || !strings.Contains(buf.String(), "service=toll-console") {
		t.Fatalf("output = %q", buf.String())
	}
}
