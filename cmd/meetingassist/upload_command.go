package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meetingassist/internal/services"
	"meetingassist/internal/upload"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "upload <recording>",
		Short: "Upload a recorded meeting for transcription",
		Long: "Upload a recording to the storage URL issued by the backend. The " +
			"transcript appears on a new meeting once processing finishes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *session) error {
				state := s.state()
				state.Dismiss()
				target := strings.TrimSpace(clientID)
				if target == "" {
					target = state.Selection().ClientID
				}
				if target == "" {
					err := services.Invalid("client_id", "select a client or pass --client")
					state.Fail(err)
					return ctx.report(state, err)
				}

				opts := []upload.Option{upload.WithLogger(s.logger)}
				if ctx.flags.json {
					opts = append(opts, upload.WithProgress(nil))
				}
				res, err := upload.New(s.client, opts...).Upload(c, target, args[0])
				if err != nil {
					state.Fail(err)
					return ctx.report(state, err)
				}
				if ctx.flags.json {
					return writeJSON(ctx.out, res)
				}
				state.Notify(upload.Describe(res))
				fmt.Fprintln(ctx.out, upload.Describe(res))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "Client id to upload for (defaults to the selected client)")
	return cmd
}
