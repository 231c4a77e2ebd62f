package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Info("spec registered", "route", "/openapi.yaml")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "spec registered" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["route"] != "/openapi.yaml" {
		t.Errorf("route = %v", entry["route"])
	}
}

func TestNewTextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	log.Warn("request validation failed", "field", "id")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("missing level: %s", out)
	}
	if !strings.Contains(out, "field=id") {
		t.Errorf("missing attribute: %s", out)
	}
}

func TestNewLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelError, Format: FormatText, Output: &buf})

	log.Info("dropped")
	log.Warn("dropped too")
	if buf.Len() != 0 {
		t.Fatalf("records below the configured level were written: %s", buf.String())
	}

	log.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("error record missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"Warn", LevelWarn},
		{"", LevelInfo},        // unset means info
		{"verbose", LevelInfo}, // unknown means info
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"logfmt", FormatText}, // unknown means text
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
