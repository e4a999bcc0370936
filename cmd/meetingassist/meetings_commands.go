package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"meetingassist/internal/meeting"
	"meetingassist/internal/workflow"
)

type meetingRow struct {
	Number int `json:"number"`
	meeting.Meeting
	Selected bool `json:"selected"`
}

func newMeetingsCommand(ctx *commandContext) *cobra.Command {
	meetingsCmd := &cobra.Command{
		Use:     "meetings",
		Aliases: []string{"meeting"},
		Short:   "List and select meetings of the selected client",
	}
	meetingsCmd.AddCommand(newMeetingsListCommand(ctx))
	meetingsCmd.AddCommand(newMeetingsSelectCommand(ctx))
	return meetingsCmd
}

func newMeetingsListCommand(ctx *commandContext) *cobra.Command {
	var cached bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Refresh and list meetings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *session) error {
				state := s.state()
				if !cached {
					state.Dismiss()
					if err := s.manager.RefreshMeetings(c, true); err != nil {
						return ctx.report(state, err)
					}
				}
				all := state.Meetings()
				numbers := meeting.Numbers(all)
				selected := state.Selection().MeetingID
				ordered := meeting.SortNewestFirst(all)

				if ctx.flags.json {
					rows := make([]meetingRow, 0, len(ordered))
					for _, m := range ordered {
						rows = append(rows, meetingRow{Number: numbers[m.MeetingID], Meeting: m, Selected: m.MeetingID == selected})
					}
					return writeJSON(ctx.out, rows)
				}
				if msg := state.Status().Message; msg != "" {
					fmt.Fprintln(ctx.errOut, msg)
				}
				if len(ordered) == 0 {
					fmt.Fprintln(ctx.out, "No meetings for this client yet.")
					return nil
				}
				colorize := shouldColorize(ctx.out)
				rows := make([][]string, 0, len(ordered))
				for _, m := range ordered {
					mark := ""
					if m.MeetingID == selected {
						mark = "*"
					}
					updated := ""
					if ts, ok := m.UpdatedTime(); ok {
						updated = humanize.Time(ts)
					}
					rows = append(rows, []string{
						mark,
						strconv.Itoa(numbers[m.MeetingID]),
						meeting.DateLabel(m.MeetingID),
						m.MeetingLabel,
						colorStatus(string(m.TranscriptStatus), colorize),
						colorStatus(string(m.TasksStatus), colorize),
						colorStatus(string(m.DeliverablesStatus), colorize),
						updated,
					})
				}
				headers := []string{"", "#", "Date", "Label", "Transcript", "Tasks", "Deliverables", "Updated"}
				fmt.Fprintln(ctx.out, renderTable(headers, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "List the meetings saved in the workspace without contacting the backend")
	return cmd
}

func newMeetingsSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <number|meeting id>",
		Short: "Switch to another meeting",
		Long:  "Switch to another meeting by its display number (oldest is 1), full id, or id suffix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				target, err := resolveMeeting(m.State().Meetings(), args[0])
				if err != nil {
					m.State().Fail(err)
					return err
				}
				return m.SelectMeeting(c, target.MeetingID)
			})
		},
	}
}
