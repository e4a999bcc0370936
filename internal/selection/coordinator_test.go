package selection_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"meetingassist/internal/draft"
	"meetingassist/internal/logging"
	"meetingassist/internal/meeting"
	"meetingassist/internal/selection"
	"meetingassist/internal/services"
	"meetingassist/internal/workspace"
)

const (
	olderMeeting = "20260102T200740Z-ab12cd34"
	newerMeeting = "20260105T090000Z-ffee0011"
)

func meetings() []meeting.Meeting {
	return []meeting.Meeting{
		{MeetingID: olderMeeting, ClientID: "acme-corp", TasksStatus: meeting.TasksGenerated, Tasks: []meeting.Task{{Title: "Load data"}}},
		{MeetingID: newerMeeting, ClientID: "acme-corp", TasksStatus: meeting.TasksNone, Tasks: []meeting.Task{}},
	}
}

type recordingConfirmer struct {
	answer  bool
	prompts []string
}

func (r *recordingConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	r.prompts = append(r.prompts, prompt)
	return r.answer, nil
}

func setup(t *testing.T, confirm selection.Confirmer) (*workspace.State, *selection.Coordinator) {
	t.Helper()
	st := workspace.New()
	coord := selection.New(st, confirm, logging.NewNop())
	ctx := context.Background()
	if _, err := coord.ApplyClients(ctx, []meeting.Client{{ClientID: "acme-corp", DisplayName: "Acme Corp"}, {ClientID: "globex", DisplayName: "Globex"}}, ""); err != nil {
		t.Fatalf("ApplyClients: %v", err)
	}
	if _, err := coord.ApplyMeetings(ctx, "acme-corp", meetings(), true); err != nil {
		t.Fatalf("ApplyMeetings: %v", err)
	}
	return st, coord
}

func TestSortClientsIgnoresCaseAndAccents(t *testing.T) {
	got := selection.SortClients([]meeting.Client{
		{ClientID: "zeta", DisplayName: "zeta"},
		{ClientID: "eclair", DisplayName: "Éclair"},
		{ClientID: "acme", DisplayName: "acme"},
		{ClientID: "beta", DisplayName: "Beta"},
	})
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ClientID)
	}
	want := []string{"acme", "beta", "eclair", "zeta"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}

func TestApplyClientsSelection(t *testing.T) {
	st := workspace.New()
	coord := selection.New(st, nil, logging.NewNop())
	ctx := context.Background()
	list := []meeting.Client{{ClientID: "globex", DisplayName: "Globex"}, {ClientID: "acme-corp", DisplayName: "Acme Corp"}}

	got, err := coord.ApplyClients(ctx, list, "")
	if err != nil || got != "acme-corp" {
		t.Fatalf("expected first sorted client, got %q %v", got, err)
	}
	if err := coord.SelectClient(ctx, "globex"); err != nil {
		t.Fatalf("SelectClient: %v", err)
	}
	if got, _ := coord.ApplyClients(ctx, list, ""); got != "globex" {
		t.Fatalf("expected preserved selection, got %q", got)
	}
	if got, _ := coord.ApplyClients(ctx, list[1:], ""); got != "acme-corp" {
		t.Fatalf("expected fallback to first, got %q", got)
	}
	created := append(list, meeting.Client{ClientID: "initech", DisplayName: "Initech"})
	if got, _ := coord.ApplyClients(ctx, created, "initech"); got != "initech" {
		t.Fatalf("expected created client selected, got %q", got)
	}
}

func TestApplyMeetingsFallsBackToNewest(t *testing.T) {
	st, _ := setup(t, nil)
	sel := st.Selection()
	if sel.MeetingID != newerMeeting {
		t.Fatalf("expected newest meeting selected, got %q", sel.MeetingID)
	}
	got := st.Meetings()
	if got[0].MeetingID != newerMeeting || got[1].MeetingID != olderMeeting {
		t.Fatalf("expected newest-first order, got %v", []string{got[0].MeetingID, got[1].MeetingID})
	}
}

func TestApplyMeetingsDropsOtherClient(t *testing.T) {
	st, coord := setup(t, nil)
	res, err := coord.ApplyMeetings(context.Background(), "globex", nil, true)
	if err != nil || res.Applied {
		t.Fatalf("expected list for unselected client to be dropped: %#v %v", res, err)
	}
	if len(st.Meetings()) != 2 {
		t.Fatal("meetings for the selected client must be untouched")
	}
}

func TestDecliningMeetingSwitchLeavesStateIdentical(t *testing.T) {
	confirm := &recordingConfirmer{answer: false}
	st, coord := setup(t, confirm)
	ctx := context.Background()
	if err := coord.SelectMeeting(ctx, olderMeeting); err != nil {
		t.Fatalf("SelectMeeting: %v", err)
	}
	if err := st.EditTasks(draft.AddTask(meeting.Task{Title: "Plots"})); err != nil {
		t.Fatalf("EditTasks: %v", err)
	}
	before := st.Export()

	err := coord.SelectMeeting(ctx, newerMeeting)
	if !errors.Is(err, services.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if len(confirm.prompts) != 1 || !strings.Contains(confirm.prompts[0], "tasks") {
		t.Fatalf("expected one prompt naming the dirty draft, got %v", confirm.prompts)
	}
	if after := st.Export(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed after decline:\nbefore %#v\nafter  %#v", before, after)
	}
}

func TestConfirmingMeetingSwitchDiscardsDrafts(t *testing.T) {
	confirm := &recordingConfirmer{answer: true}
	st, coord := setup(t, confirm)
	ctx := context.Background()
	_ = coord.SelectMeeting(ctx, olderMeeting)
	_ = st.EditTasks(draft.AddTask(meeting.Task{Title: "Plots"}))

	if err := coord.SelectMeeting(ctx, newerMeeting); err != nil {
		t.Fatalf("SelectMeeting: %v", err)
	}
	if st.Selection().MeetingID != newerMeeting || st.HasDirty() {
		t.Fatalf("expected switch with drafts dropped: %#v", st.Selection())
	}
}

func TestRefreshKeepsDirtyDraft(t *testing.T) {
	st, coord := setup(t, nil)
	ctx := context.Background()
	_ = coord.SelectMeeting(ctx, olderMeeting)
	_ = st.EditTasks(draft.AddTask(meeting.Task{Title: "Plots"}))

	refreshed := meetings()
	refreshed[0].Tasks = []meeting.Task{{Title: "Server rewrite"}}
	res, err := coord.ApplyMeetings(ctx, "acme-corp", refreshed, true)
	if err != nil {
		t.Fatalf("ApplyMeetings: %v", err)
	}
	if !res.Conflict || res.Changed {
		t.Fatalf("expected conflict without selection change: %#v", res)
	}
	if got := st.Tasks().Value.Tasks; len(got) != 2 || got[1].Title != "Plots" {
		t.Fatalf("refresh clobbered dirty draft: %#v", got)
	}
}

func TestDecliningFallbackLeavesMeetingsUntouched(t *testing.T) {
	st, coord := setup(t, nil)
	ctx := context.Background()
	_ = coord.SelectMeeting(ctx, olderMeeting)
	_ = st.EditTasks(draft.AddTask(meeting.Task{Title: "Plots"}))
	before := st.Export()

	_, err := coord.ApplyMeetings(ctx, "acme-corp", meetings()[1:], true)
	if !errors.Is(err, services.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if after := st.Export(); !reflect.DeepEqual(before, after) {
		t.Fatal("declined refresh must not apply the new list")
	}
}

func TestSelectUnknownIsValidationError(t *testing.T) {
	_, coord := setup(t, nil)
	if err := coord.SelectMeeting(context.Background(), "nope"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := coord.SelectClient(context.Background(), "nope"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSlugPreview(t *testing.T) {
	cases := map[string]string{
		"  Acme Corp ":        "acme-corp",
		"Ünïcode & Friends!!": "n-code-friends",
		"--already-slug--":    "already-slug",
		"":                    "",
	}
	for in, want := range cases {
		if got := selection.SlugPreview(in); got != want {
			t.Fatalf("SlugPreview(%q) = %q, want %q", in, got, want)
		}
	}
}
