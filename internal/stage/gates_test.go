package stage_test

import (
	"errors"
	"testing"

	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
	"meetingassist/internal/stage"
)

func TestCheckGateTable(t *testing.T) {
	ready := stage.Snapshot{Transcript: meeting.TranscriptReady, Tasks: meeting.TasksNone, Deliverables: meeting.DeliverablesNone}
	generated := stage.Snapshot{Transcript: meeting.TranscriptReady, Tasks: meeting.TasksGenerated, HasServerTasks: true}
	approved := stage.Snapshot{Transcript: meeting.TranscriptReady, Tasks: meeting.TasksApproved, HasServerTasks: true}
	withSheets := approved
	withSheets.HasSpecSheets = true
	withSheets.HasDeliverables = true
	withSheets.Deliverables = meeting.DeliverablesGenerated

	tests := []struct {
		name         string
		action       stage.Action
		snap         stage.Snapshot
		instructions string
		allowed      bool
	}{
		{"generate tasks when transcript ready", stage.GenerateTasks, ready, "", true},
		{"generate tasks while processing", stage.GenerateTasks, stage.Snapshot{Transcript: meeting.TranscriptProcessing}, "", false},
		{"generate tasks with unknown transcript", stage.GenerateTasks, stage.Snapshot{}, "", false},
		{"generate tasks blocked by existing tasks", stage.GenerateTasks, generated, "", false},
		{"clear tasks requires tasks", stage.ClearTasks, ready, "", false},
		{"clear tasks", stage.ClearTasks, generated, "", true},
		{"revise tasks", stage.ReviseTasks, generated, "shorter", true},
		{"revise approved tasks", stage.ReviseTasks, approved, "shorter", true},
		{"revise tasks without instructions", stage.ReviseTasks, generated, "   ", false},
		{"revise tasks with none", stage.ReviseTasks, ready, "shorter", false},
		{"approve generated", stage.ApproveTasks, generated, "", true},
		{"approve none", stage.ApproveTasks, ready, "", false},
		{"save approved tasks", stage.SaveTasks, approved, "", false},
		{"save generated tasks", stage.SaveTasks, generated, "", true},
		{"generate deliverables", stage.GenerateDeliverables, approved, "", true},
		{"generate deliverables unapproved", stage.GenerateDeliverables, generated, "", false},
		{"generate deliverables with sheets", stage.GenerateDeliverables, withSheets, "", false},
		{"clear deliverables", stage.ClearDeliverables, withSheets, "", true},
		{"clear deliverables empty", stage.ClearDeliverables, approved, "", false},
		{"revise deliverables", stage.ReviseDeliverables, withSheets, "more detail", true},
		{"revise deliverables without content", stage.ReviseDeliverables, approved, "more detail", false},
		{"revise deliverables without instructions", stage.ReviseDeliverables, withSheets, "", false},
		{"approve deliverables", stage.ApproveDeliverables, withSheets, "", true},
		{"approve deliverables without sheets", stage.ApproveDeliverables, approved, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := stage.Check(tc.action, tc.snap, tc.instructions)
			if tc.allowed && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tc.allowed {
				if err == nil {
					t.Fatal("expected gate to be closed")
				}
				if !errors.Is(err, services.ErrGateClosed) {
					t.Fatalf("expected ErrGateClosed, got %v", err)
				}
			}
		})
	}
}

func TestGenerateBlockedWheneverTasksExist(t *testing.T) {
	statuses := []meeting.TranscriptStatus{
		meeting.TranscriptUnknown,
		meeting.TranscriptProcessing,
		meeting.TranscriptReady,
		meeting.TranscriptFailed,
	}
	for _, ts := range statuses {
		snap := stage.Snapshot{Transcript: ts, Tasks: meeting.TasksGenerated, HasServerTasks: true}
		if stage.Allowed(stage.GenerateTasks, snap) {
			t.Fatalf("generate allowed with existing tasks and transcript %s", ts)
		}
	}
}

func TestApproveIsNoopWhenApproved(t *testing.T) {
	snap := stage.Snapshot{Transcript: meeting.TranscriptReady, Tasks: meeting.TasksApproved, HasServerTasks: true}
	err := stage.Check(stage.ApproveTasks, snap, "")
	if !errors.Is(err, stage.ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
	if errors.Is(err, services.ErrGateClosed) {
		t.Fatal("already-approved must not be reported as a closed gate")
	}
	if got := stage.Next(stage.ApproveTasks, snap); got != snap {
		t.Fatalf("approve changed an approved snapshot: %#v", got)
	}
}

func TestScenarioGenerateThenApprove(t *testing.T) {
	snap := stage.FromMeeting(meeting.Meeting{
		MeetingID:        "20260102T200740Z-ab12cd34",
		ClientID:         "acme-corp",
		TranscriptStatus: meeting.TranscriptReady,
		TasksStatus:      meeting.TasksNone,
	})
	if !stage.Allowed(stage.GenerateTasks, snap) || stage.Allowed(stage.ApproveTasks, snap) {
		t.Fatalf("unexpected gates before generate: %#v", stage.Available(snap))
	}
	snap = stage.Next(stage.GenerateTasks, snap)
	if snap.Tasks != meeting.TasksGenerated {
		t.Fatalf("tasks status = %s", snap.Tasks)
	}
	if stage.Allowed(stage.GenerateTasks, snap) || !stage.Allowed(stage.ApproveTasks, snap) {
		t.Fatalf("unexpected gates after generate: %#v", stage.Available(snap))
	}
	snap = stage.Next(stage.ApproveTasks, snap)
	if err := stage.Check(stage.GenerateDeliverables, snap, ""); err != nil {
		t.Fatalf("generate deliverables should be enabled: %v", err)
	}
}

func TestAvailableReportsReasons(t *testing.T) {
	states := stage.Available(stage.Snapshot{})
	if len(states) != len(stage.Actions) {
		t.Fatalf("got %d states", len(states))
	}
	for _, s := range states {
		if s.Enabled {
			t.Fatalf("action %s enabled on an empty snapshot", s.Action)
		}
		if s.Detail == "" {
			t.Fatalf("action %s missing detail", s.Action)
		}
	}
}

func TestActionStage(t *testing.T) {
	if stage.ApproveDeliverables.Stage() != stage.Deliverables || stage.ClearTasks.Stage() != stage.Tasks {
		t.Fatal("unexpected action stage mapping")
	}
}
