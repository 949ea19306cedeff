package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("INFO", "json", &buf)

	log.Debug("hidden")
	log.Info("analysis complete", "url", "https://example.com")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["url"] != "https://example.com" {
		t.Errorf("url = %v, want https://example.com", rec["url"])
	}
}

func TestNewUnknownLevelDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", "text", &buf)

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("INFO record logged at default level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("WARN record missing")
	}
}
