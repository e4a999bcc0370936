package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meetingassist/internal/meeting"
	"meetingassist/internal/stage"
)

type statusView struct {
	ClientID      string              `json:"client_id,omitempty"`
	Meeting       *meeting.Meeting    `json:"meeting,omitempty"`
	MeetingNumber int                 `json:"meeting_number,omitempty"`
	Actions       []stage.ActionState `json:"actions,omitempty"`
	UnsavedEdits  []string            `json:"unsaved_edits,omitempty"`
	LastMessage   string              `json:"last_message,omitempty"`
	LastKind      string              `json:"last_kind,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the selected meeting, its stages, and the available actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *session) error {
				state := s.state()
				view := statusView{
					ClientID:     state.Selection().ClientID,
					UnsavedEdits: state.DirtySummary(),
				}
				if st := state.Status(); st.Message != "" {
					view.LastMessage = st.Message
					view.LastKind = string(st.Kind)
				}
				if mt, ok := state.SelectedMeeting(); ok {
					view.Meeting = &mt
					view.MeetingNumber = meeting.Numbers(state.Meetings())[mt.MeetingID]
					view.Actions = stage.Available(stage.FromMeeting(mt))
				}
				if ctx.flags.json {
					return writeJSON(ctx.out, view)
				}
				printStatus(ctx, view)
				return nil
			})
		},
	}
}

func printStatus(ctx *commandContext, view statusView) {
	out := ctx.out
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Workspace", colorize) {
		fmt.Fprintln(out, line)
	}
	if view.ClientID == "" {
		fmt.Fprintln(out, renderStatusLine("Client", statusWarn, "none selected (run `meetingassist clients list`)", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Client", statusInfo, view.ClientID, colorize))
	if view.Meeting == nil {
		fmt.Fprintln(out, renderStatusLine("Meeting", statusWarn, "none selected", colorize))
		return
	}
	mt := *view.Meeting
	fmt.Fprintln(out, renderStatusLine("Meeting", statusInfo, meeting.Label(mt, view.MeetingNumber), colorize))
	fmt.Fprintln(out, renderStatusLine("Transcript", stageKind(string(mt.TranscriptStatus)), string(mt.TranscriptStatus), colorize))
	tasks := fmt.Sprintf("%s (%d tasks)", mt.TasksStatus, len(mt.Tasks))
	fmt.Fprintln(out, renderStatusLine("Tasks", stageKind(string(mt.TasksStatus)), tasks, colorize))
	deliverables := string(mt.DeliverablesStatus)
	if mt.HasSpecSheets() {
		deliverables = fmt.Sprintf("%s (%d spec sheets, %s, revision %d)", mt.DeliverablesStatus, len(mt.SpecSheets), strings.ToUpper(mt.DeliverablesLanguage), mt.DeliverablesRevision)
	}
	fmt.Fprintln(out, renderStatusLine("Deliverables", stageKind(string(mt.DeliverablesStatus)), deliverables, colorize))
	if len(view.UnsavedEdits) > 0 {
		fmt.Fprintln(out, renderStatusLine("Unsaved", statusWarn, strings.Join(view.UnsavedEdits, ", "), colorize))
	}
	if view.LastMessage != "" {
		kind := statusInfo
		if view.LastKind == "error" {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine("Last action", kind, view.LastMessage, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Actions", colorize) {
		fmt.Fprintln(out, line)
	}
	snap := stage.FromMeeting(mt)
	for _, a := range view.Actions {
		kind := statusOK
		detail := "available" + outcomeHint(a.Action, snap)
		if !a.Enabled {
			kind = statusInfo
			detail = a.Detail
		}
		fmt.Fprintln(out, renderStatusLine(string(a.Action), kind, detail, colorize))
	}
}

// outcomeHint names the status an action is expected to leave behind.
func outcomeHint(action stage.Action, snap stage.Snapshot) string {
	next := stage.Next(action, snap)
	switch {
	case next.Tasks != snap.Tasks:
		return fmt.Sprintf(" (tasks -> %s)", next.Tasks)
	case next.Deliverables != snap.Deliverables:
		return fmt.Sprintf(" (deliverables -> %s)", next.Deliverables)
	default:
		return ""
	}
}
