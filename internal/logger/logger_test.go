package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level)
			if log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    string
		shouldLog   bool
	}{
		{"debug logs at debug level", "debug", "debug", true},
		{"info logs at debug level", "debug", "info", true},
		{"debug doesn't log at info level", "info", "debug", false},
		{"info logs at info level", "info", "info", true},
		{"error always logs", "debug", "error", true},
		{"unknown config level behaves as info", "verbose", "debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.configLevel).(*implLogger)
			result := log.shouldLog(tt.logLevel)
			if result != tt.shouldLog {
				t.Errorf("shouldLog() = %v, want %v", result, tt.shouldLog)
			}
		})
	}
}

func TestTextFormatCarriesJobID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithFormat("info", "text", &buf)

	ctx := WithJobID(context.Background(), "abc-123")
	log.Info(ctx, "stage %s", "transcribing")
	log.Debug(ctx, "hidden")

	out := buf.String()
	if !strings.Contains(out, "[INFO] [job=abc-123] stage transcribing") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line logged at info level: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithFormat("debug", "json", &buf)

	log.Warn(WithJobID(context.Background(), "j1"), "retrying %d", 2)

	var entry map[string]string
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["level"] != "warn" || entry["msg"] != "retrying 2" || entry["job_id"] != "j1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestJobIDWithoutValue(t *testing.T) {
	if got := JobID(context.Background()); got != "" {
		t.Errorf("JobID() = %q, want empty", got)
	}
}
