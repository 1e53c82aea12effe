package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestEntryShape(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("worker", &buf, slog.LevelDebug)

	ctx := log.WithJobID(log.WithRequestID(context.Background(), "req-1"), "job-9")
	log.Info(ctx, "job_started", " processing ", map[string]any{"kind": "offer"})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines", len(lines))
	}
	e := lines[0]
	for key, want := range map[string]string{
		"level":      "INFO",
		"service":    "worker",
		"action":     "job_started",
		"message":    "processing",
		"request_id": "req-1",
		"job_id":     "job-9",
	} {
		if e[key] != want {
			t.Errorf("%s = %v, want %q", key, e[key], want)
		}
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
	details, _ := e["details"].(map[string]any)
	if details["kind"] != "offer" {
		t.Errorf("details = %v", e["details"])
	}
}

func TestErrorCarriesMessageAndStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("api", &buf, slog.LevelInfo)

	log.Debug(context.Background(), "noise", "filtered out", nil)
	log.Error(context.Background(), "", "boom", errors.New("disk full"), nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want debug filtered", len(lines))
	}
	e := lines[0]
	if e["action"] != "unspecified" {
		t.Errorf("action = %v", e["action"])
	}
	errObj, _ := e["error"].(map[string]any)
	if errObj["msg"] != "disk full" {
		t.Errorf("error.msg = %v", errObj["msg"])
	}
	if s, _ := errObj["stack"].(string); s == "" {
		t.Error("error.stack is empty")
	}
	if _, ok := e["request_id"]; ok {
		t.Error("request_id should be omitted when absent")
	}
}
