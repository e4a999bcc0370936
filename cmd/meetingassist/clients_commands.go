package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"meetingassist/internal/meeting"
	"meetingassist/internal/selection"
	"meetingassist/internal/workflow"
)

func newClientsCommand(ctx *commandContext) *cobra.Command {
	clientsCmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"client"},
		Short:   "List, create, and select clients",
	}
	clientsCmd.AddCommand(newClientsListCommand(ctx))
	clientsCmd.AddCommand(newClientsCreateCommand(ctx))
	clientsCmd.AddCommand(newClientsSelectCommand(ctx))
	return clientsCmd
}

func newClientsListCommand(ctx *commandContext) *cobra.Command {
	var cached bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Refresh and list clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *session) error {
				if !cached {
					s.state().Dismiss()
					if err := s.manager.RefreshClients(c); err != nil {
						return ctx.report(s.state(), err)
					}
				}
				clients := selection.SortClients(s.state().Clients())
				selected := s.state().Selection().ClientID
				if ctx.flags.json {
					return writeJSON(ctx.out, struct {
						Selected string           `json:"selected,omitempty"`
						Clients  []meeting.Client `json:"clients"`
					}{selected, clients})
				}
				if len(clients) == 0 {
					fmt.Fprintln(ctx.out, "No clients yet. Create one with `meetingassist clients create <name>`.")
					return nil
				}
				rows := make([][]string, 0, len(clients))
				for _, c := range clients {
					mark := ""
					if c.ClientID == selected {
						mark = "*"
					}
					rows = append(rows, []string{mark, c.ClientID, c.DisplayName})
				}
				fmt.Fprintln(ctx.out, renderTable([]string{"", "Client", "Name"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "List the clients saved in the workspace without contacting the backend")
	return cmd
}

func newClientsCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <display name>",
		Short: "Create a client and select it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := joinArgs(args)
			if !ctx.flags.json {
				fmt.Fprintf(ctx.errOut, "Creating client %q (expected id %s)\n", name, selection.SlugPreview(name))
			}
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				_, err := m.CreateClient(c, name)
				return err
			})
		},
	}
}

func newClientsSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <client id>",
		Short: "Switch to another client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				if len(m.State().Clients()) == 0 {
					if err := m.RefreshClients(c); err != nil {
						return err
					}
				}
				return m.SelectClient(c, args[0])
			})
		},
	}
}
