package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meetingassist/internal/meeting"
	"meetingassist/internal/stage"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Tasks", statusWarn, "GENERATED (2 tasks)", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Tasks:", "[WARN] GENERATED (2 tasks)")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Transcript", statusOK, "READY", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStageKind(t *testing.T) {
	tests := map[string]statusKind{
		"READY":    statusOK,
		"APPROVED": statusOK,
		"FAILED":   statusError,
		"NONE":     statusInfo,
	}
	for status, want := range tests {
		if got := stageKind(status); got != want {
			t.Errorf("stageKind(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestShouldColorizeRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if shouldColorize(f) {
		t.Fatalf("expected regular file to disable color")
	}
}

func TestOutcomeHint(t *testing.T) {
	snap := stage.Snapshot{
		Transcript:   meeting.TranscriptReady,
		Tasks:        meeting.TasksGenerated,
		Deliverables: meeting.DeliverablesNone,
	}
	if got := outcomeHint(stage.ApproveTasks, snap); got != " (tasks -> APPROVED)" {
		t.Fatalf("approve hint = %q", got)
	}
	snap.Tasks = meeting.TasksApproved
	if got := outcomeHint(stage.GenerateDeliverables, snap); got != " (deliverables -> QUEUED)" {
		t.Fatalf("generate hint = %q", got)
	}
	if got := outcomeHint(stage.ApproveTasks, snap); got != "" {
		t.Fatalf("no-op hint = %q", got)
	}
}
