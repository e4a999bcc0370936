package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"meetingassist/internal/api"
	"meetingassist/internal/draft"
	"meetingassist/internal/logging"
	"meetingassist/internal/meeting"
	"meetingassist/internal/poller"
	"meetingassist/internal/selection"
	"meetingassist/internal/services"
	"meetingassist/internal/stage"
	"meetingassist/internal/testsupport"
	"meetingassist/internal/workflow"
	"meetingassist/internal/workspace"
)

const meetingID = "20260102T200740Z-ab12cd34"

type harness struct {
	backend *testsupport.Backend
	manager *workflow.Manager
	state   *workspace.State
}

func newHarness(t *testing.T, confirm selection.Confirmer, m meeting.Meeting, opts ...workflow.ManagerOption) *harness {
	t.Helper()
	backend := testsupport.NewBackend(t)
	backend.AddClient("acme-corp", "Acme Corp")
	m.MeetingID = meetingID
	m.ClientID = "acme-corp"
	backend.AddMeeting(m)

	cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
	client, err := api.NewFromConfig(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("api.NewFromConfig: %v", err)
	}
	state := workspace.New()
	opts = append([]workflow.ManagerOption{workflow.WithConfig(cfg)}, opts...)
	mgr := workflow.NewManager(state, client, confirm, logging.NewNop(), opts...)
	if err := mgr.RefreshClients(context.Background()); err != nil {
		t.Fatalf("RefreshClients: %v", err)
	}
	if got := state.Selection(); got.ClientID != "acme-corp" || got.MeetingID != meetingID {
		t.Fatalf("unexpected initial selection: %#v", got)
	}
	return &harness{backend: backend, manager: mgr, state: state}
}

func (h *harness) selected(t *testing.T) meeting.Meeting {
	t.Helper()
	m, ok := h.state.SelectedMeeting()
	if !ok {
		t.Fatal("no meeting selected")
	}
	return m
}

func readyMeeting() meeting.Meeting {
	return meeting.Meeting{TranscriptStatus: meeting.TranscriptReady, TasksStatus: meeting.TasksNone}
}

func approvedMeeting() meeting.Meeting {
	return meeting.Meeting{
		TranscriptStatus: meeting.TranscriptReady,
		TasksStatus:      meeting.TasksApproved,
		Tasks: []meeting.Task{
			{Title: "Load survey data", Description: "Import"},
			{Title: "Regional summary", Description: "Tabulate"},
		},
		DeliverablesStatus: meeting.DeliverablesNone,
	}
}

func withDeliverables(m meeting.Meeting) meeting.Meeting {
	m.DeliverablesStatus = meeting.DeliverablesGenerated
	m.DeliverablesLanguage = "BOTH"
	m.DeliverablesRevision = 1
	m.SpecSheets = []meeting.ArtifactRef{{TaskIndex: 1, S3Key: "specs/1.md"}, {TaskIndex: 2, S3Key: "specs/2.md"}}
	return m
}

func TestGenerateTasksScenario(t *testing.T) {
	h := newHarness(t, nil, readyMeeting())
	if err := h.manager.GenerateTasks(context.Background()); err != nil {
		t.Fatalf("GenerateTasks: %v", err)
	}
	m := h.selected(t)
	if m.TasksStatus != meeting.TasksGenerated || len(m.Tasks) != 2 {
		t.Fatalf("unexpected meeting after generate: %#v", m)
	}
	snap := stage.FromMeeting(m)
	if !stage.Allowed(stage.ApproveTasks, snap) || stage.Allowed(stage.GenerateTasks, snap) {
		t.Fatal("approve should be enabled and generate disabled after generation")
	}
	view := h.state.Tasks()
	if view.Dirty || len(view.Value.Tasks) != 2 {
		t.Fatalf("task draft not loaded from generated tasks: %#v", view)
	}
	if got := h.state.Status(); got.Kind != workspace.StatusInfo || !strings.Contains(got.Message, "Generated 2 tasks") {
		t.Fatalf("unexpected status: %#v", got)
	}
}

func TestGenerateTasksBlockedWhenTasksExist(t *testing.T) {
	m := readyMeeting()
	m.Tasks = []meeting.Task{{Title: "Existing"}}
	m.TasksStatus = meeting.TasksGenerated
	h := newHarness(t, nil, m)

	err := h.manager.GenerateTasks(context.Background())
	if !errors.Is(err, services.ErrGateClosed) {
		t.Fatalf("expected gate error, got %v", err)
	}
	if calls := h.backend.CallsTo("generate-tasks"); len(calls) != 0 {
		t.Fatalf("gate must block the request, saw %d calls", len(calls))
	}
	if h.state.Status().ErrorKind != "gate" {
		t.Fatalf("expected gate status, got %#v", h.state.Status())
	}
}

func TestGenerateTasksUnavailableHint(t *testing.T) {
	h := newHarness(t, nil, readyMeeting())
	h.backend.FailNext("generate-tasks", http.StatusServiceUnavailable, "Service Unavailable")

	err := h.manager.GenerateTasks(context.Background())
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if got := h.state.Status().Message; got != api.UnavailableHint {
		t.Fatalf("status = %q, want the retry hint", got)
	}
}

func TestApproveTasksIsNoOpWhenApproved(t *testing.T) {
	h := newHarness(t, nil, approvedMeeting())
	if err := h.manager.ApproveTasks(context.Background()); err != nil {
		t.Fatalf("ApproveTasks: %v", err)
	}
	if calls := h.backend.CallsTo("approve-tasks"); len(calls) != 0 {
		t.Fatalf("approve must not be re-sent, saw %d calls", len(calls))
	}
	if h.selected(t).TasksStatus != meeting.TasksApproved {
		t.Fatal("status changed")
	}
}

func TestSaveTasksCleansAndClearsDirty(t *testing.T) {
	h := newHarness(t, nil, readyMeeting())
	ctx := context.Background()
	if err := h.manager.GenerateTasks(ctx); err != nil {
		t.Fatalf("GenerateTasks: %v", err)
	}
	if err := h.manager.EditTasks(ctx, draft.AddTask(meeting.Task{Title: "  Plots  ", Description: " by region "})); err != nil {
		t.Fatalf("EditTasks: %v", err)
	}
	_ = h.manager.EditTasks(ctx, draft.AddTask(meeting.Task{Title: " ", Description: ""}))

	if err := h.manager.SaveTasks(ctx); err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}
	calls := h.backend.CallsTo("tasks")
	if len(calls) != 1 {
		t.Fatalf("expected one save, got %d", len(calls))
	}
	var body struct {
		Tasks []meeting.Task `json:"tasks"`
	}
	if err := json.Unmarshal(calls[0].Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Tasks) != 3 || body.Tasks[2] != (meeting.Task{Title: "Plots", Description: "by region"}) {
		t.Fatalf("unexpected saved tasks: %#v", body.Tasks)
	}
	if h.state.Tasks().Dirty {
		t.Fatal("draft should be clean after save")
	}
	if h.selected(t).TasksStatus != meeting.TasksEdited {
		t.Fatalf("expected EDITED after refresh, got %s", h.selected(t).TasksStatus)
	}
}

func TestFailedSaveKeepsDraft(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data"}}
	h := newHarness(t, nil, m)
	ctx := context.Background()
	_ = h.manager.EditTasks(ctx, draft.SetTask(1, meeting.Task{Title: "Load data v2"}))
	h.backend.FailNext("tasks", http.StatusInternalServerError, `{"error":"database unavailable"}`)

	err := h.manager.SaveTasks(ctx)
	if !errors.Is(err, services.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	view := h.state.Tasks()
	if !view.Dirty || view.Saving || view.Value.Tasks[0].Title != "Load data v2" {
		t.Fatalf("failed save corrupted the draft: %#v", view)
	}
	if got := h.state.Status(); got.Kind != workspace.StatusError || got.Message != "database unavailable" {
		t.Fatalf("unexpected status: %#v", got)
	}
}

func TestReviseTasksSavesFirstWhenConfirmed(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data", Description: "Import"}}
	h := newHarness(t, selection.AlwaysConfirm, m)
	ctx := context.Background()
	_ = h.manager.EditTasks(ctx, draft.AddTask(meeting.Task{Title: "Plots"}))

	if err := h.manager.ReviseTasks(ctx, "  merge the plots  "); err != nil {
		t.Fatalf("ReviseTasks: %v", err)
	}
	var order []string
	for _, c := range h.backend.Calls() {
		if c.Method != http.MethodGet {
			order = append(order, c.Action())
		}
	}
	if strings.Join(order, ",") != "tasks,revise-tasks" {
		t.Fatalf("expected save before revise, got %v", order)
	}
	var body map[string]string
	_ = json.Unmarshal(h.backend.CallsTo("revise-tasks")[0].Body, &body)
	if body["instructions"] != "merge the plots" {
		t.Fatalf("instructions not trimmed: %#v", body)
	}
	view := h.state.Tasks()
	if view.Dirty || len(view.Value.Tasks) != 2 || !strings.HasSuffix(view.Value.Tasks[1].Description, "(revised)") {
		t.Fatalf("draft should hold the revised list: %#v", view)
	}
}

func TestReviseTasksDeclinedSaveKeepsEdits(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data", Description: "Import"}}
	h := newHarness(t, selection.NeverConfirm, m)
	ctx := context.Background()
	_ = h.manager.EditTasks(ctx, draft.AddTask(meeting.Task{Title: "Plots"}))

	if err := h.manager.ReviseTasks(ctx, "shorter"); err != nil {
		t.Fatalf("ReviseTasks: %v", err)
	}
	if len(h.backend.CallsTo("tasks")) != 0 {
		t.Fatal("declined save must not send the draft")
	}
	if len(h.backend.CallsTo("revise-tasks")) != 1 {
		t.Fatal("expected the revision request")
	}
	view := h.state.Tasks()
	if !view.Dirty || len(view.Value.Tasks) != 2 || view.Value.Tasks[1].Title != "Plots" {
		t.Fatalf("unsaved edits should survive the revision: %#v", view)
	}
	if got := h.selected(t).Tasks[0].Description; got != "Import (revised)" {
		t.Fatalf("server copy should hold the revision, got %q", got)
	}
}

func TestReviseTasksAdoptsRevisionWhenDiscardConfirmed(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data", Description: "Import"}}
	var prompts []string
	confirm := selection.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		prompts = append(prompts, prompt)
		return !strings.Contains(prompt, "Save them before revising"), nil
	})
	h := newHarness(t, confirm, m)
	ctx := context.Background()
	_ = h.manager.EditTasks(ctx, draft.AddTask(meeting.Task{Title: "Plots"}))

	if err := h.manager.ReviseTasks(ctx, "shorter"); err != nil {
		t.Fatalf("ReviseTasks: %v", err)
	}
	var discardAsked bool
	for _, p := range prompts {
		if strings.Contains(p, "Loading the revised tasks will discard them") {
			discardAsked = true
		}
	}
	if !discardAsked {
		t.Fatalf("expected a discard confirmation, got %q", prompts)
	}
	view := h.state.Tasks()
	if view.Dirty || len(view.Value.Tasks) != 1 || view.Value.Tasks[0].Description != "Import (revised)" {
		t.Fatalf("draft should hold the revised server copy: %#v", view)
	}
}

func TestFailedSaveLeavesDraftUncleaned(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data"}}
	h := newHarness(t, nil, m)
	ctx := context.Background()
	_ = h.manager.EditTasks(ctx, draft.SetTask(1, meeting.Task{Title: "  Load data v2  "}))
	_ = h.manager.EditTasks(ctx, draft.AddTask(meeting.Task{}))
	h.backend.FailNext("tasks", http.StatusInternalServerError, `{"error":"database unavailable"}`)

	if err := h.manager.SaveTasks(ctx); !errors.Is(err, services.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	view := h.state.Tasks()
	if !view.Dirty || len(view.Value.Tasks) != 2 {
		t.Fatalf("failed save should keep the blank row: %#v", view)
	}
	if view.Value.Tasks[0].Title != "  Load data v2  " {
		t.Fatalf("failed save rewrote the title: %q", view.Value.Tasks[0].Title)
	}
	var body struct {
		Tasks []meeting.Task `json:"tasks"`
	}
	_ = json.Unmarshal(h.backend.CallsTo("tasks")[0].Body, &body)
	if len(body.Tasks) != 1 || body.Tasks[0].Title != "Load data v2" {
		t.Fatalf("request should carry the cleaned list: %#v", body.Tasks)
	}
}

func TestSaveTasksSendsClearedQuestions(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data"}}
	m.ResearchQuestions = []string{"Why?"}
	h := newHarness(t, nil, m)
	ctx := context.Background()
	_ = h.manager.EditTasks(ctx, draft.Replace(draft.TaskDoc{Tasks: []meeting.Task{{Title: "Load data"}}}))

	if err := h.manager.SaveTasks(ctx); err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}
	var body map[string]json.RawMessage
	_ = json.Unmarshal(h.backend.CallsTo("tasks")[0].Body, &body)
	if string(body["research_questions"]) != "[]" {
		t.Fatalf("expected an explicit empty list, got %s", h.backend.CallsTo("tasks")[0].Body)
	}
}

func TestReviseTasksRequiresInstructions(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data"}}
	h := newHarness(t, nil, m)
	before := len(h.backend.Calls())

	if err := h.manager.ReviseTasks(context.Background(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.backend.Calls()) != before {
		t.Fatal("validation must happen before any request")
	}
}

func TestClearTasksDeclined(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data"}}
	h := newHarness(t, nil, m)

	err := h.manager.ClearTasks(context.Background())
	if !errors.Is(err, services.ErrDeclined) {
		t.Fatalf("expected declined, got %v", err)
	}
	if len(h.backend.CallsTo("clear-tasks")) != 0 {
		t.Fatal("declined clear must not reach the backend")
	}
}

func TestClearTasksConfirmed(t *testing.T) {
	m := readyMeeting()
	m.TasksStatus = meeting.TasksGenerated
	m.Tasks = []meeting.Task{{Title: "Load data"}}
	h := newHarness(t, selection.AlwaysConfirm, m)
	ctx := context.Background()
	_ = h.manager.EditTasks(ctx, draft.AddTask(meeting.Task{Title: "Plots"}))

	if err := h.manager.ClearTasks(ctx); err != nil {
		t.Fatalf("ClearTasks: %v", err)
	}
	sel := h.selected(t)
	if sel.TasksStatus != meeting.TasksNone || len(sel.Tasks) != 0 {
		t.Fatalf("tasks not cleared: %#v", sel)
	}
	if view := h.state.Tasks(); view.Dirty || len(view.Value.Tasks) != 0 {
		t.Fatalf("draft should follow the cleared server list: %#v", view)
	}
}

func TestGenerateDeliverablesBothThenGateCloses(t *testing.T) {
	h := newHarness(t, nil, approvedMeeting())
	ctx := context.Background()
	if !stage.Allowed(stage.GenerateDeliverables, stage.FromMeeting(h.selected(t))) {
		t.Fatal("generate deliverables should be enabled once tasks are approved")
	}

	if err := h.manager.GenerateDeliverables(ctx, "both"); err != nil {
		t.Fatalf("GenerateDeliverables: %v", err)
	}
	m := h.selected(t)
	if m.DeliverablesStatus != meeting.DeliverablesGenerated || len(m.SpecSheets) != 2 || len(m.CodeTemplates) != 4 {
		t.Fatalf("deliverables not hydrated: %#v", m)
	}
	var body map[string]string
	_ = json.Unmarshal(h.backend.CallsTo("generate-deliverables")[0].Body, &body)
	if body["language"] != "BOTH" {
		t.Fatalf("language not normalized: %#v", body)
	}

	before := len(h.backend.Calls())
	err := h.manager.GenerateDeliverables(ctx, "BOTH")
	var gate *stage.GateError
	if !errors.As(err, &gate) {
		t.Fatalf("expected gate error, got %v", err)
	}
	if len(h.backend.Calls()) != before {
		t.Fatal("closed gate must not reach the network")
	}
}

func TestGenerateDeliverablesRejectedWithExistingSpecSheets(t *testing.T) {
	h := newHarness(t, nil, withDeliverables(approvedMeeting()))
	before := len(h.backend.Calls())

	if err := h.manager.GenerateDeliverables(context.Background(), "BOTH"); !errors.Is(err, services.ErrGateClosed) {
		t.Fatalf("expected gate error, got %v", err)
	}
	if len(h.backend.Calls()) != before {
		t.Fatal("closed gate must not reach the network")
	}
}

func TestGenerateDeliverablesTimeoutKeepsLastStatus(t *testing.T) {
	h := newHarness(t, nil, approvedMeeting(),
		workflow.WithPollOptions(poller.WithTimeout(150*time.Millisecond), poller.WithInterval(10*time.Millisecond)))
	h.backend.DeliverablesScript = []meeting.DeliverablesStatus{meeting.DeliverablesQueued, meeting.DeliverablesRunning}

	err := h.manager.GenerateDeliverables(context.Background(), "R")
	var timeout *poller.TimeoutError
	if !errors.As(err, &timeout) || !errors.Is(err, services.ErrPollTimeout) {
		t.Fatalf("expected poll timeout, got %v", err)
	}
	if timeout.LastStatus != string(meeting.DeliverablesRunning) {
		t.Fatalf("last status = %q", timeout.LastStatus)
	}
	if got := h.selected(t).DeliverablesStatus; got != meeting.DeliverablesRunning {
		t.Fatalf("workspace status = %s, want last observed RUNNING", got)
	}
	if h.state.Status().ErrorKind != "poll_timeout" {
		t.Fatalf("unexpected status: %#v", h.state.Status())
	}
}

func TestGenerateDeliverablesFailure(t *testing.T) {
	h := newHarness(t, nil, approvedMeeting())
	h.backend.DeliverablesScript = []meeting.DeliverablesStatus{meeting.DeliverablesQueued, meeting.DeliverablesFailed}

	err := h.manager.GenerateDeliverables(context.Background(), "SAS")
	var failed *poller.GenerationFailedError
	if !errors.As(err, &failed) || failed.Status != string(meeting.DeliverablesFailed) {
		t.Fatalf("expected generation failure, got %v", err)
	}
}

func TestSaveContentSendsExactPayload(t *testing.T) {
	h := newHarness(t, nil, withDeliverables(approvedMeeting()))
	h.backend.SetContent(meetingID, 2, "SAS", "# Regional summary", "proc freq data=survey; run;")
	h.backend.SetContent(meetingID, 1, "R", "# Load survey data", "survey <- read.csv('x')")
	ctx := context.Background()

	if _, err := h.manager.LoadContent(ctx, 2, "SAS"); err != nil {
		t.Fatalf("LoadContent 2::SAS: %v", err)
	}
	if _, err := h.manager.LoadContent(ctx, 1, "r"); err != nil {
		t.Fatalf("LoadContent 1::R: %v", err)
	}
	_ = h.manager.EditContent(ctx, 2, "SAS", func(c draft.Content) draft.Content {
		c.Template = "proc freq data=survey; tables region; run;"
		return c
	})
	_ = h.manager.EditContent(ctx, 1, "R", func(c draft.Content) draft.Content {
		c.Spec += "\nlocal note"
		return c
	})

	if err := h.manager.SaveContent(ctx, 2, "SAS"); err != nil {
		t.Fatalf("SaveContent: %v", err)
	}
	calls := h.backend.CallsTo("deliverables-content")
	last := calls[len(calls)-1]
	if last.Method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", last.Method)
	}
	var body map[string]any
	if err := json.Unmarshal(last.Body, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"task_index":       float64(2),
		"language":         "SAS",
		"spec_content":     "# Regional summary",
		"template_content": "proc freq data=survey; tables region; run;",
	}
	if len(body) != len(want) {
		t.Fatalf("unexpected payload keys: %#v", body)
	}
	for k, v := range want {
		if body[k] != v {
			t.Fatalf("payload[%s] = %#v, want %#v", k, body[k], v)
		}
	}

	sas, _ := draft.NewKey(2, "SAS")
	r, _ := draft.NewKey(1, "R")
	if view, _ := h.state.Content(sas); view.Dirty {
		t.Fatal("2::SAS should be clean after save")
	}
	if view, _ := h.state.Content(r); !view.Dirty || !strings.HasSuffix(view.Value.Spec, "local note") {
		t.Fatalf("1::R must be untouched: %#v", view)
	}
	if h.selected(t).DeliverablesStatus != meeting.DeliverablesEdited {
		t.Fatalf("expected EDITED after save, got %s", h.selected(t).DeliverablesStatus)
	}
}

func TestApproveDeliverablesRefusesWhileDirty(t *testing.T) {
	h := newHarness(t, nil, withDeliverables(approvedMeeting()))
	h.backend.SetContent(meetingID, 1, "R", "# Spec", "x <- 1")
	ctx := context.Background()
	_, _ = h.manager.LoadContent(ctx, 1, "R")
	_ = h.manager.EditContent(ctx, 1, "R", func(c draft.Content) draft.Content { c.Template = "x <- 2"; return c })

	if err := h.manager.ApproveDeliverables(ctx); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.backend.CallsTo("approve-deliverables")) != 0 {
		t.Fatal("approve must not be sent while edits are unsaved")
	}

	_ = h.manager.DiscardContent(ctx, 1, "R")
	if err := h.manager.ApproveDeliverables(ctx); err != nil {
		t.Fatalf("ApproveDeliverables: %v", err)
	}
	if err := h.manager.ApproveDeliverables(ctx); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if n := len(h.backend.CallsTo("approve-deliverables")); n != 1 {
		t.Fatalf("approve sent %d times, want 1", n)
	}
}

func TestReviseDeliverablesWaitsForNewRevision(t *testing.T) {
	h := newHarness(t, nil, withDeliverables(approvedMeeting()))
	if err := h.manager.ReviseDeliverables(context.Background(), "add confidence intervals"); err != nil {
		t.Fatalf("ReviseDeliverables: %v", err)
	}
	m := h.selected(t)
	if m.DeliverablesStatus != meeting.DeliverablesRevised || m.DeliverablesRevision != 2 {
		t.Fatalf("unexpected deliverables after revise: %s rev %d", m.DeliverablesStatus, m.DeliverablesRevision)
	}
	if h.state.DeliverablesInstructions() != "add confidence intervals" {
		t.Fatal("instructions not remembered")
	}
}

func TestClearDeliverablesConfirmed(t *testing.T) {
	h := newHarness(t, selection.AlwaysConfirm, withDeliverables(approvedMeeting()))
	if err := h.manager.ClearDeliverables(context.Background()); err != nil {
		t.Fatalf("ClearDeliverables: %v", err)
	}
	m := h.selected(t)
	if m.DeliverablesStatus != meeting.DeliverablesNone || len(m.SpecSheets) != 0 {
		t.Fatalf("deliverables not cleared: %#v", m)
	}
}

func TestCreateClientSelectsIt(t *testing.T) {
	h := newHarness(t, nil, readyMeeting())
	client, err := h.manager.CreateClient(context.Background(), "  Globex Corporation ")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if client.ClientID != "globex-corporation" {
		t.Fatalf("unexpected client: %#v", client)
	}
	sel := h.state.Selection()
	if sel.ClientID != "globex-corporation" || sel.MeetingID != "" {
		t.Fatalf("new client should be selected with no meetings: %#v", sel)
	}
	if _, err := h.manager.CreateClient(context.Background(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadContentValidatesKey(t *testing.T) {
	h := newHarness(t, nil, withDeliverables(approvedMeeting()))
	if _, err := h.manager.LoadContent(context.Background(), 0, "R"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("task index 0 must be rejected, got %v", err)
	}
	if _, err := h.manager.LoadContent(context.Background(), 1, "BOTH"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("BOTH is not a content language, got %v", err)
	}
}
