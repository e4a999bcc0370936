package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meetingassist/internal/config"
	"meetingassist/internal/logging"
	"meetingassist/internal/services"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "error"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug only in file", logging.String("meeting_id", "m1"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", content, err)
	}
	if entry["msg"] != "debug only in file" || entry["level"] != "debug" || entry["meeting_id"] != "m1" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key: %#v", entry)
	}
}

func TestConsoleLoggerFormatsSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithClientID(context.Background(), "acme-corp")
	ctx = services.WithMeetingID(ctx, "20260102T200740Z-ab12cd34")
	ctx = services.WithStage(ctx, "tasks")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "workflow")).
		Info("tasks generated", logging.Int("task_count", 4), logging.Int64("upload_bytes", 2048))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	for _, want := range []string{"INFO [workflow] acme-corp/ab12cd34 (tasks) – tasks generated", "- Task Count: 4", "- Upload Bytes: 2.0 kB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
	if strings.Contains(out, "Meeting Id") {
		t.Fatalf("subject keys should not repeat as fields: %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller", logging.Error(errors.New("boom")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller in debug output, got %q", content)
	}
	if !strings.Contains(string(content), "error: boom") {
		t.Fatalf("expected raw error key in debug output, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestTeeLoggerDuplicatesRecords(t *testing.T) {
	var first, second bytes.Buffer
	base := slog.New(slog.NewTextHandler(&first, nil))
	logger := logging.TeeLogger(base, slog.NewTextHandler(&second, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("info line")
	logger.Warn("warn line")

	if !strings.Contains(first.String(), "info line") || !strings.Contains(first.String(), "warn line") {
		t.Fatalf("base handler missing records: %q", first.String())
	}
	if strings.Contains(second.String(), "info line") || !strings.Contains(second.String(), "warn line") {
		t.Fatalf("tee handler should only see warnings: %q", second.String())
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithMeetingID(ctx, "m1")
	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldMeetingID || fields[1].Key != logging.FieldCorrelationID {
		t.Fatalf("unexpected field order: %v", fields)
	}
}
