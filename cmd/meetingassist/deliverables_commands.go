package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"meetingassist/internal/draft"
	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
	"meetingassist/internal/tui"
	"meetingassist/internal/workflow"
	"meetingassist/internal/workspace"
)

func newDeliverablesCommand(ctx *commandContext) *cobra.Command {
	deliverablesCmd := &cobra.Command{
		Use:     "deliverables",
		Aliases: []string{"dl"},
		Short:   "Generate and review spec sheets and code templates",
	}
	deliverablesCmd.AddCommand(newDeliverablesShowCommand(ctx))
	deliverablesCmd.AddCommand(newDeliverablesGenerateCommand(ctx))
	deliverablesCmd.AddCommand(newDeliverablesReviseCommand(ctx))
	deliverablesCmd.AddCommand(newDeliverablesApproveCommand(ctx))
	deliverablesCmd.AddCommand(newDeliverablesClearCommand(ctx))
	deliverablesCmd.AddCommand(newContentCommand(ctx))
	return deliverablesCmd
}

type deliverablesView struct {
	MeetingID     string                  `json:"meeting_id"`
	Status        string                  `json:"deliverables_status"`
	Language      string                  `json:"deliverables_language,omitempty"`
	Revision      int                     `json:"deliverables_revision"`
	SpecSheets    []meeting.ArtifactRef   `json:"spec_sheets"`
	CodeTemplates []meeting.ArtifactRef   `json:"code_templates"`
	Instructions  string                  `json:"instructions,omitempty"`
	Drafts        []workspace.ContentView `json:"drafts,omitempty"`
}

func newDeliverablesShowCommand(ctx *commandContext) *cobra.Command {
	var cached bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Refresh and show the deliverables of the selected meeting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *session) error {
				state := s.state()
				if !cached {
					state.Dismiss()
					if err := s.manager.RefreshDeliverables(c); err != nil {
						return ctx.report(state, err)
					}
				}
				mt, ok := state.SelectedMeeting()
				if !ok {
					return services.Invalid("meeting_id", "select a meeting first")
				}
				view := deliverablesView{
					MeetingID:     mt.MeetingID,
					Status:        string(mt.DeliverablesStatus),
					Language:      mt.DeliverablesLanguage,
					Revision:      mt.DeliverablesRevision,
					SpecSheets:    mt.SpecSheets,
					CodeTemplates: mt.CodeTemplates,
					Instructions:  state.DeliverablesInstructions(),
					Drafts:        state.ContentViews(),
				}
				if ctx.flags.json {
					return writeJSON(ctx.out, view)
				}
				printDeliverables(ctx, view)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "Use the deliverables saved in the workspace")
	return cmd
}

func printDeliverables(ctx *commandContext, view deliverablesView) {
	colorize := shouldColorize(ctx.out)
	fmt.Fprintf(ctx.out, "Deliverables: %s", colorStatus(view.Status, colorize))
	if view.Revision > 0 {
		fmt.Fprintf(ctx.out, " (revision %d, %s)", view.Revision, strings.ToUpper(view.Language))
	}
	fmt.Fprintln(ctx.out)
	if len(view.SpecSheets) == 0 {
		fmt.Fprintln(ctx.out, "No spec sheets.")
		return
	}

	dirty := make(map[string]bool)
	for _, d := range view.Drafts {
		if d.Dirty {
			dirty[d.Key.String()] = true
		}
	}
	rows := make([][]string, 0, len(view.SpecSheets)+len(view.CodeTemplates))
	for _, ref := range view.SpecSheets {
		rows = append(rows, []string{strconv.Itoa(int(ref.TaskIndex)), "spec", "", ref.TaskTitle, ref.S3Key, ""})
	}
	for _, ref := range view.CodeTemplates {
		lang := strings.ToUpper(ref.Language)
		edited := ""
		if dirty[fmt.Sprintf("%d::%s", ref.TaskIndex, lang)] {
			edited = "unsaved"
		}
		rows = append(rows, []string{strconv.Itoa(int(ref.TaskIndex)), "template", lang, ref.TaskTitle, ref.S3Key, edited})
	}
	fmt.Fprintln(ctx.out, renderTable([]string{"Task", "Kind", "Lang", "Title", "Key", "Draft"}, rows, []columnAlignment{alignRight}))
	if view.Instructions != "" {
		fmt.Fprintf(ctx.out, "Last instructions: %s\n", view.Instructions)
	}
}

func newDeliverablesGenerateCommand(ctx *commandContext) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate spec sheets and code templates and wait for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.GenerateDeliverables(c, lang)
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", string(meeting.LanguageR), "Template language: R, SAS, or BOTH")
	return cmd
}

func newDeliverablesReviseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revise [instructions]",
		Short: "Regenerate every deliverable from instructions",
		Long:  "Regenerate every deliverable of the meeting. Without arguments the last instructions are reused.",
		RunE: func(cmd *cobra.Command, args []string) error {
			instructions := joinArgs(args)
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.ReviseDeliverables(c, instructions)
			})
		},
	}
}

func newDeliverablesApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve",
		Short: "Approve the deliverables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.ApproveDeliverables(c)
			})
		},
	}
}

func newDeliverablesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every spec sheet and template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.ClearDeliverables(c)
			})
		},
	}
}

func newContentCommand(ctx *commandContext) *cobra.Command {
	contentCmd := &cobra.Command{
		Use:   "content",
		Short: "Read and edit one task's spec sheet and template",
	}
	contentCmd.AddCommand(newContentShowCommand(ctx))
	contentCmd.AddCommand(newContentEditCommand(ctx))
	contentCmd.AddCommand(newContentSaveCommand(ctx))
	contentCmd.AddCommand(newContentDiscardCommand(ctx))
	return contentCmd
}

// contentTarget parses "<task> [lang]". The language defaults to the one the
// meeting's deliverables were generated in.
func contentTarget(state *workspace.State, args []string) (int, string, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, "", services.Invalid("task_index", fmt.Sprintf("%q is not a number", args[0]))
	}
	if len(args) > 1 {
		return idx, args[1], nil
	}
	mt, ok := state.SelectedMeeting()
	if !ok {
		return 0, "", services.Invalid("meeting_id", "select a meeting first")
	}
	return idx, string(meeting.DefaultContentLanguage(mt)), nil
}

func newContentShowCommand(ctx *commandContext) *cobra.Command {
	var template bool
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <task> [R|SAS]",
		Short: "Show a spec sheet, or its code template with --template",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *session) error {
				state := s.state()
				idx, lang, err := contentTarget(state, args)
				if err != nil {
					return err
				}
				state.Dismiss()
				view, err := s.manager.LoadContent(c, idx, lang)
				if err != nil {
					return ctx.report(state, err)
				}
				if ctx.flags.json {
					return writeJSON(ctx.out, view)
				}
				if view.Dirty {
					fmt.Fprintf(ctx.errOut, "Showing unsaved edits for %s.\n", view.Key)
				}
				if template {
					fmt.Fprint(ctx.out, view.Value.Template)
					if !strings.HasSuffix(view.Value.Template, "\n") {
						fmt.Fprintln(ctx.out)
					}
					return nil
				}
				if raw || !shouldColorize(ctx.out) {
					fmt.Fprintln(ctx.out, strings.TrimRight(view.Value.Spec, "\n"))
					return nil
				}
				fmt.Fprintln(ctx.out, tui.RenderMarkdown(view.Value.Spec, 100))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&template, "template", "t", false, "Print the code template instead of the spec sheet")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the spec sheet markdown without rendering")
	return cmd
}

func newContentEditCommand(ctx *commandContext) *cobra.Command {
	var specFile, templateFile string
	var editSpec bool
	cmd := &cobra.Command{
		Use:   "edit <task> [R|SAS]",
		Short: "Edit a code template (or spec sheet with --spec) in $EDITOR or from files",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *session) error {
				state := s.state()
				idx, lang, err := contentTarget(state, args)
				if err != nil {
					return err
				}
				state.Dismiss()
				key, err := draft.NewKey(idx, lang)
				if err != nil {
					return err
				}
				view, ok := state.Content(key)
				if !ok || !view.Loaded {
					if view, err = s.manager.LoadContent(c, idx, lang); err != nil {
						return ctx.report(state, err)
					}
				}

				next := view.Value
				switch {
				case specFile != "" || templateFile != "":
					if specFile != "" {
						if next.Spec, err = readInput(ctx.in, specFile); err != nil {
							return err
						}
					}
					if templateFile != "" {
						if next.Template, err = readInput(ctx.in, templateFile); err != nil {
							return err
						}
					}
				case editSpec:
					if next.Spec, err = editText(c, ctx.in, ctx.out, ctx.errOut, "meetingassist-spec-*.md", next.Spec); err != nil {
						return err
					}
				default:
					pattern := "meetingassist-template-*.R"
					if key.Language == meeting.LanguageSAS {
						pattern = "meetingassist-template-*.sas"
					}
					if next.Template, err = editText(c, ctx.in, ctx.out, ctx.errOut, pattern, next.Template); err != nil {
						return err
					}
				}

				err = s.manager.EditContent(c, idx, lang, func(draft.Content) draft.Content { return next })
				if err == nil {
					state.Notify(fmt.Sprintf("Draft %s updated. Run `meetingassist deliverables content save %d %s` to send it.", key, key.TaskIndex, key.Language))
				}
				return ctx.report(state, err)
			})
		},
	}
	cmd.Flags().StringVar(&specFile, "spec-file", "", "Replace the spec sheet with this file (- for stdin)")
	cmd.Flags().StringVar(&templateFile, "template-file", "", "Replace the template with this file (- for stdin)")
	cmd.Flags().BoolVar(&editSpec, "spec", false, "Open the spec sheet in $EDITOR instead of the template")
	return cmd
}

func newContentSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <task> [R|SAS]",
		Short: "Send one edited template and spec sheet",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				idx, lang, err := contentTarget(m.State(), args)
				if err != nil {
					m.State().Fail(err)
					return err
				}
				return m.SaveContent(c, idx, lang)
			})
		},
	}
}

func newContentDiscardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <task> [R|SAS]",
		Short: "Drop unsaved edits of one template",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				idx, lang, err := contentTarget(m.State(), args)
				if err != nil {
					m.State().Fail(err)
					return err
				}
				return m.DiscardContent(c, idx, lang)
			})
		},
	}
}
