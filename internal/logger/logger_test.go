package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteProducesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	Info("query_executed", map[string]any{"domain": "course", "rows": 3})

	line := strings.TrimSpace(buf.String())
	var got map[string]any
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("log line is not JSON: %q (%v)", line, err)
	}
	if got["message"] != "query_executed" || got["level"] != "info" {
		t.Fatalf("unexpected envelope: %#v", got)
	}
	if got["domain"] != "course" || got["rows"].(float64) != 3 {
		t.Fatalf("fields missing: %#v", got)
	}
	if _, ok := got["time"]; !ok {
		t.Fatalf("timestamp missing: %#v", got)
	}
}

func TestDebugIsGated(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	SetDebug(false)
	Debug("sql", map[string]any{"sql": "SELECT 1"})
	if buf.Len() != 0 {
		t.Fatalf("debug line written while disabled: %q", buf.String())
	}

	SetDebug(true)
	defer SetDebug(false)
	Debug("sql", nil)
	if !strings.Contains(buf.String(), `"level":"debug"`) {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
}
