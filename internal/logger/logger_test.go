package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.Info().Str("statement", "abc").Int("transactions", 3).Msg("statement uploaded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["message"] != "statement uploaded" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["statement"] != "abc" {
		t.Errorf("statement = %v", entry["statement"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected a timestamp field")
	}
}
