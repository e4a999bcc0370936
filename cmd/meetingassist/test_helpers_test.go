package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meetingassist/internal/config"
	"meetingassist/internal/meeting"
	"meetingassist/internal/testsupport"
)

const (
	olderMeetingID = "20260102T200740Z-ab12cd34"
	newerMeetingID = "20260105T090000Z-ffee0011"
)

type cliTestEnv struct {
	cfg        *config.Config
	backend    *testsupport.Backend
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	backend := testsupport.NewBackend(t)
	backend.AddClient("acme-corp", "Acme Corp")
	backend.AddMeeting(meeting.Meeting{
		MeetingID:        olderMeetingID,
		ClientID:         "acme-corp",
		TranscriptStatus: meeting.TranscriptReady,
		TasksStatus:      meeting.TasksNone,
	})
	backend.AddMeeting(meeting.Meeting{
		MeetingID:        newerMeetingID,
		ClientID:         "acme-corp",
		MeetingLabel:     "Kickoff",
		TranscriptStatus: meeting.TranscriptReady,
		TasksStatus:      meeting.TasksNone,
	})

	cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MEETINGASSIST_API_BASE_URL", "")

	configPath := filepath.Join(homeDir, ".config", "meetingassist", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, backend: backend, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[api]\nbase_url = %q\nclients_base_url = %q\nrequest_timeout_seconds = %d\n\n"+
			"[poll]\ntimeout_seconds = %d\ninterval_millis = %d\n\n"+
			"[paths]\nstate_dir = %q\nlog_dir = %q\n",
		cfg.API.BaseURL,
		cfg.API.ClientsBaseURL,
		cfg.API.RequestTimeoutSeconds,
		cfg.Poll.TimeoutSeconds,
		cfg.Poll.IntervalMillis,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
