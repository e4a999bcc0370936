package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"meetingassist/internal/services"
)

func newWorkspaceCommand(ctx *commandContext) *cobra.Command {
	workspaceCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Inspect or reset the local workspace",
	}
	workspaceCmd.AddCommand(newWorkspaceShowCommand(ctx))
	workspaceCmd.AddCommand(newWorkspaceResetCommand(ctx))
	return workspaceCmd
}

func newWorkspaceShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show where the workspace lives and what it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *session) error {
				snap := s.state().Export()
				if ctx.flags.json {
					return writeJSON(ctx.out, snap)
				}
				out := ctx.out
				fmt.Fprintf(out, "Database:        %s\n", s.cfg.StatePath())
				fmt.Fprintf(out, "Client:          %s\n", valueOrNone(snap.ClientID))
				fmt.Fprintf(out, "Meeting:         %s\n", valueOrNone(snap.MeetingID))
				fmt.Fprintf(out, "Cached clients:  %d\n", len(snap.Clients))
				fmt.Fprintf(out, "Cached meetings: %d\n", len(snap.Meetings))
				fmt.Fprintf(out, "Unsaved edits:   %s\n", yesNo(s.state().HasDirty()))
				for _, d := range s.state().DirtySummary() {
					fmt.Fprintf(out, "  - %s\n", d)
				}
				return nil
			})
		},
	}
}

func newWorkspaceResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the selection, cached lists, and every draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *session) error {
				prompt := "Reset the local workspace?"
				if s.state().HasDirty() {
					prompt = "Reset the local workspace? Unsaved edits will be lost."
				}
				ok, err := ctx.confirmer().Confirm(c, prompt)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: workspace reset cancelled", services.ErrDeclined)
				}
				if err := s.ws.Reset(c); err != nil {
					return err
				}
				fmt.Fprintln(ctx.out, "Workspace reset.")
				return nil
			})
		},
	}
}

func valueOrNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}
