package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsResolvedValues(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[api]")
	requireContains(t, out, env.backend.URL())
}

func TestClientsListSelectsOnlyClientAndNewestMeeting(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"clients", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("clients list: %v", err)
	}
	requireContains(t, out, "acme-corp")
	requireContains(t, out, "Acme Corp")

	out, _, err = runCLI(t, []string{"--json", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var view statusView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if view.ClientID != "acme-corp" {
		t.Fatalf("client = %q", view.ClientID)
	}
	if view.Meeting == nil || view.Meeting.MeetingID != newerMeetingID || view.MeetingNumber != 2 {
		t.Fatalf("expected newest meeting #2 selected, got %+v (number %d)", view.Meeting, view.MeetingNumber)
	}
	if len(view.Actions) == 0 {
		t.Fatal("expected actions for the selected meeting")
	}
}

func TestMeetingsListNewestFirst(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"clients", "list"}, env.configPath); err != nil {
		t.Fatalf("clients list: %v", err)
	}

	out, _, err := runCLI(t, []string{"meetings", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("meetings list: %v", err)
	}
	newer := strings.Index(out, "Jan 5, 2026 09:00 UTC")
	older := strings.Index(out, "Jan 2, 2026 20:07 UTC")
	if newer < 0 || older < 0 || newer > older {
		t.Fatalf("expected newest meeting first:\n%s", out)
	}
	requireContains(t, out, "Kickoff")

	out, _, err = runCLI(t, []string{"--json", "meetings", "list", "--cached"}, env.configPath)
	if err != nil {
		t.Fatalf("meetings list --cached: %v", err)
	}
	var rows []meetingRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v\n%s", err, out)
	}
	if len(rows) != 2 || rows[0].Number != 2 || !rows[0].Selected || rows[1].Number != 1 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestMeetingSelectionPersistsAcrossInvocations(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"clients", "list"}, env.configPath); err != nil {
		t.Fatalf("clients list: %v", err)
	}

	out, _, err := runCLI(t, []string{"meetings", "select", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("meetings select: %v", err)
	}
	requireContains(t, out, "meeting #1")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Jan 2, 2026 20:07 UTC")
	requireContains(t, out, "meeting #1")

	_, _, err = runCLI(t, []string{"meetings", "select", "7"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown number, got %v", err)
	}
}

func TestTasksGenerateThenShow(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"clients", "list"}, env.configPath); err != nil {
		t.Fatalf("clients list: %v", err)
	}

	out, _, err := runCLI(t, []string{"tasks", "generate"}, env.configPath)
	if err != nil {
		t.Fatalf("tasks generate: %v", err)
	}
	requireContains(t, out, "Generated 2 tasks")

	out, _, err = runCLI(t, []string{"tasks", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("tasks show: %v", err)
	}
	requireContains(t, out, "GENERATED")
	requireContains(t, out, "Load survey data")
	requireContains(t, out, "Regional summary")

	if got := env.backend.Meeting("acme-corp", newerMeetingID).TasksStatus; got != meeting.TasksGenerated {
		t.Fatalf("backend tasks status = %s", got)
	}
}

func TestTasksClearNeedsConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"clients", "list"}, env.configPath); err != nil {
		t.Fatalf("clients list: %v", err)
	}
	if _, _, err := runCLI(t, []string{"tasks", "generate"}, env.configPath); err != nil {
		t.Fatalf("tasks generate: %v", err)
	}

	_, stderr, err := runCLI(t, []string{"tasks", "clear"}, env.configPath)
	if !errors.Is(err, services.ErrDeclined) {
		t.Fatalf("expected declined error, got %v", err)
	}
	requireContains(t, stderr, "Clear all 2 tasks")
	requireContains(t, stderr, "--yes")
	if calls := env.backend.CallsTo("clear-tasks"); len(calls) != 0 {
		t.Fatalf("clear-tasks sent without confirmation: %d calls", len(calls))
	}

	out, _, err := runCLI(t, []string{"--yes", "tasks", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("tasks clear --yes: %v", err)
	}
	requireContains(t, out, "Tasks cleared.")
	if calls := env.backend.CallsTo("clear-tasks"); len(calls) != 1 {
		t.Fatalf("expected one clear-tasks call, got %d", len(calls))
	}
}

func TestActionFailureReportsJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"clients", "list"}, env.configPath); err != nil {
		t.Fatalf("clients list: %v", err)
	}

	out, _, err := runCLI(t, []string{"--json", "tasks", "approve"}, env.configPath)
	if err == nil {
		t.Fatal("approving with no tasks should fail")
	}
	var res actionResult
	if decodeErr := json.Unmarshal([]byte(out), &res); decodeErr != nil {
		t.Fatalf("decode result: %v\n%s", decodeErr, out)
	}
	if res.OK || res.Message == "" || res.ErrorKind == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.MeetingID != newerMeetingID {
		t.Fatalf("meeting id = %q", res.MeetingID)
	}
}

func TestUploadUsesSelectedClient(t *testing.T) {
	env := setupCLITestEnv(t)

	recording := filepath.Join(t.TempDir(), "standup.webm")
	if err := os.WriteFile(recording, []byte("webm-bytes"), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}

	_, _, err := runCLI(t, []string{"upload", recording}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without a client, got %v", err)
	}

	if _, _, err := runCLI(t, []string{"clients", "list"}, env.configPath); err != nil {
		t.Fatalf("clients list: %v", err)
	}
	out, _, err := runCLI(t, []string{"upload", recording}, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, "Uploaded standup.webm")
	requireContains(t, out, "recordings/acme-corp/1")
	data, ok := env.backend.Uploaded("recordings/acme-corp/1")
	if !ok || string(data) != "webm-bytes" {
		t.Fatalf("stored upload = %q, %v", data, ok)
	}
}

func TestWorkspaceResetClearsSelection(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"clients", "list"}, env.configPath); err != nil {
		t.Fatalf("clients list: %v", err)
	}

	out, _, err := runCLI(t, []string{"workspace", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("workspace show: %v", err)
	}
	requireContains(t, out, "acme-corp")
	requireContains(t, out, env.cfg.StatePath())

	if _, _, err := runCLI(t, []string{"workspace", "reset"}, env.configPath); !errors.Is(err, services.ErrDeclined) {
		t.Fatalf("expected reset to need confirmation, got %v", err)
	}

	out, _, err = runCLI(t, []string{"--yes", "workspace", "reset"}, env.configPath)
	if err != nil {
		t.Fatalf("workspace reset: %v", err)
	}
	requireContains(t, out, "Workspace reset.")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "none selected")
}

func TestResolveMeeting(t *testing.T) {
	meetings := []meeting.Meeting{
		{MeetingID: olderMeetingID},
		{MeetingID: newerMeetingID},
	}
	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{name: "number", arg: "1", want: olderMeetingID},
		{name: "hash number", arg: "#2", want: newerMeetingID},
		{name: "full id", arg: newerMeetingID, want: newerMeetingID},
		{name: "short id", arg: "ab12cd34", want: olderMeetingID},
		{name: "out of range", arg: "3", wantErr: true},
		{name: "unknown", arg: "nope", wantErr: true},
		{name: "empty", arg: " ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveMeeting(meetings, tt.arg)
			if tt.wantErr {
				if !errors.Is(err, services.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveMeeting: %v", err)
			}
			if got.MeetingID != tt.want {
				t.Fatalf("got %s, want %s", got.MeetingID, tt.want)
			}
		})
	}
}

func TestReadInputFromStdin(t *testing.T) {
	got, err := readInput(strings.NewReader("tasks: []\n"), "-")
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if got != "tasks: []\n" {
		t.Fatalf("got %q", got)
	}
}
