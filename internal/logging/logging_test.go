package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	got := LogFilePath("/var/log/fv", "fieldview", start)

	want := filepath.Join("/var/log/fv", "fieldview.20260314_150926.log")
	if got != want {
		t.Errorf("LogFilePath = %q, want %q", got, want)
	}
}

func TestFanoutDeliversToAllChildren(t *testing.T) {
	var a, b bytes.Buffer
	f := NewFanout(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
		nil, // nil children are skipped
	)
	logger := slog.New(f)

	logger.Info("hello", "k", "v")

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("%s child produced invalid JSON: %v", name, err)
		}
		if entry["msg"] != "hello" {
			t.Errorf("%s child msg = %v, want hello", name, entry["msg"])
		}
		if entry["k"] != "v" {
			t.Errorf("%s child missing attribute", name)
		}
	}
}

func TestFanoutRespectsChildLevels(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	f := NewFanout(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	if !f.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("fanout should be enabled when any child is")
	}

	slog.New(f).Debug("quiet")
	if debugBuf.Len() == 0 {
		t.Error("debug child should receive debug records")
	}
	if infoBuf.Len() != 0 {
		t.Error("info child should not receive debug records")
	}
}

func TestFanoutWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	f := NewFanout(slog.NewTextHandler(&buf, nil))
	logger := slog.New(f).With("component", "registry")

	logger.Info("attached")
	if !strings.Contains(buf.String(), "component=registry") {
		t.Errorf("expected inherited attribute in %q", buf.String())
	}
}

func TestManagerSetup(t *testing.T) {
	m := NewManager()

	// before setup, Logger falls back to the default
	if m.Logger() == nil {
		t.Fatal("expected non-nil fallback logger")
	}

	var file bytes.Buffer
	m.Setup(&file, "debug", nil)
	logger := m.Logger()
	logger.Debug("to file")

	if !strings.Contains(file.String(), "to file") {
		t.Errorf("expected file sink to receive record, got %q", file.String())
	}

	m.Close()
}

func TestDispatcherLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewDispatcherLogger(zerolog.New(&buf))

	l.Error("event failed", "kind", "pose_array", "channel", "robot/pose", "attempt", 2)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshaling log line: %v", err)
	}
	if record["message"] != "event failed" {
		t.Errorf("message = %v, want %q", record["message"], "event failed")
	}
	if record["kind"] != "pose_array" || record["channel"] != "robot/pose" {
		t.Errorf("fields not carried: %v", record)
	}
	if record["attempt"] != float64(2) {
		t.Errorf("attempt = %v, want 2", record["attempt"])
	}

	// a dangling key must not corrupt the record
	buf.Reset()
	l.Debug("partial", "orphan")
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshaling log line: %v", err)
	}
	if _, ok := record["orphan"]; ok {
		t.Errorf("dangling key leaked into record: %v", record)
	}
}
