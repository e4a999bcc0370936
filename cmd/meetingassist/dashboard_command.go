package main

import (
	"context"

	"github.com/spf13/cobra"

	"meetingassist/internal/tui"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive meeting dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompter := tui.NewPrompter()
			opts := sessionOptions{confirm: prompter, quiet: true}
			return ctx.withSessionOptions(cmd, opts, func(c context.Context, s *session) error {
				if s.state().Selection().ClientID == "" {
					_ = s.manager.RefreshClients(c)
				}
				return tui.Run(c, s.manager,
					tui.WithPrompter(prompter),
					tui.WithRefresh(s.cfg.DashboardRefresh()),
				)
			})
		},
	}
}
