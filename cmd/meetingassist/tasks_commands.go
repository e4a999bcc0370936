package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"meetingassist/internal/draft"
	"meetingassist/internal/services"
	"meetingassist/internal/workflow"
	"meetingassist/internal/workspace"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Generate, edit, and approve the task list of the selected meeting",
	}
	tasksCmd.AddCommand(newTasksShowCommand(ctx))
	tasksCmd.AddCommand(newTasksGenerateCommand(ctx))
	tasksCmd.AddCommand(newTasksReviseCommand(ctx))
	tasksCmd.AddCommand(newTasksEditCommand(ctx))
	tasksCmd.AddCommand(newTasksSaveCommand(ctx))
	tasksCmd.AddCommand(newTasksDiscardCommand(ctx))
	tasksCmd.AddCommand(newTasksApproveCommand(ctx))
	tasksCmd.AddCommand(newTasksClearCommand(ctx))
	return tasksCmd
}

type tasksView struct {
	MeetingID    string        `json:"meeting_id"`
	Status       string        `json:"tasks_status"`
	Dirty        bool          `json:"dirty"`
	Instructions string        `json:"instructions,omitempty"`
	Draft        draft.TaskDoc `json:"draft"`
}

func newTasksShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the task draft, including unsaved edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *session) error {
				mt, ok := s.state().SelectedMeeting()
				if !ok {
					return services.Invalid("meeting_id", "select a meeting first")
				}
				tv := s.state().Tasks()
				view := tasksView{
					MeetingID:    mt.MeetingID,
					Status:       string(mt.TasksStatus),
					Dirty:        tv.Dirty,
					Instructions: s.state().TaskInstructions(),
					Draft:        tv.Value,
				}
				if ctx.flags.json {
					return writeJSON(ctx.out, view)
				}
				printTasks(ctx, view)
				return nil
			})
		},
	}
}

func printTasks(ctx *commandContext, view tasksView) {
	colorize := shouldColorize(ctx.out)
	status := colorStatus(view.Status, colorize)
	if view.Dirty {
		status += " (unsaved edits)"
	}
	fmt.Fprintf(ctx.out, "Tasks: %s\n", status)
	if len(view.Draft.Tasks) == 0 {
		fmt.Fprintln(ctx.out, "No tasks.")
	} else {
		rows := make([][]string, 0, len(view.Draft.Tasks))
		for i, t := range view.Draft.Tasks {
			rows = append(rows, []string{strconv.Itoa(i + 1), t.Title, t.Description})
		}
		fmt.Fprintln(ctx.out, renderTable([]string{"#", "Title", "Description"}, rows, []columnAlignment{alignRight}))
	}
	if len(view.Draft.ResearchQuestions) > 0 {
		fmt.Fprintln(ctx.out, "Research questions:")
		for _, q := range view.Draft.ResearchQuestions {
			fmt.Fprintf(ctx.out, "  - %s\n", q)
		}
	}
	if view.Instructions != "" {
		fmt.Fprintf(ctx.out, "Last instructions: %s\n", view.Instructions)
	}
}

func newTasksGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate tasks from the transcript and wait for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.GenerateTasks(c)
			})
		},
	}
}

func newTasksReviseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revise [instructions]",
		Short: "Ask the assistant to revise the tasks",
		Long:  "Revise the task list from instructions. Without arguments the last instructions are reused.",
		RunE: func(cmd *cobra.Command, args []string) error {
			instructions := joinArgs(args)
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.ReviseTasks(c, instructions)
			})
		},
	}
}

func newTasksEditCommand(ctx *commandContext) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the task draft as YAML in $EDITOR or from a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				doc, err := readTaskDoc(c, ctx, m.State(), file)
				if err != nil {
					m.State().Fail(err)
					return err
				}
				if err := m.EditTasks(c, draft.Replace(doc)); err != nil {
					return err
				}
				if m.State().Tasks().Dirty {
					m.State().Notify("Task draft updated. Run `meetingassist tasks save` to send it.")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the task YAML from a file (- for stdin)")
	return cmd
}

func readTaskDoc(c context.Context, ctx *commandContext, state *workspace.State, file string) (draft.TaskDoc, error) {
	var raw string
	if file != "" {
		text, err := readInput(ctx.in, file)
		if err != nil {
			return draft.TaskDoc{}, err
		}
		raw = text
	} else {
		current, err := yaml.Marshal(state.Tasks().Value)
		if err != nil {
			return draft.TaskDoc{}, err
		}
		text, err := editText(c, ctx.in, ctx.out, ctx.errOut, "meetingassist-tasks-*.yaml", string(current))
		if err != nil {
			return draft.TaskDoc{}, err
		}
		raw = text
	}
	var doc draft.TaskDoc
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return draft.TaskDoc{}, services.Invalid("tasks", "invalid YAML: "+strings.TrimSpace(err.Error()))
	}
	return doc, nil
}

func newTasksSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Send the edited task draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.SaveTasks(c)
			})
		},
	}
}

func newTasksDiscardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Drop unsaved task edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.DiscardTasks(c)
			})
		},
	}
}

func newTasksApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve",
		Short: "Approve the task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.ApproveTasks(c)
			})
		},
	}
}

func newTasksClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every task of the selected meeting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runAction(cmd, func(c context.Context, m *workflow.Manager) error {
				return m.ClearTasks(c)
			})
		},
	}
}
