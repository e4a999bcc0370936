package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetingassist/internal/draft"
	"meetingassist/internal/meeting"
	"meetingassist/internal/poller"
	"meetingassist/internal/services"
	"meetingassist/internal/stage"
)

// GenerateTasks asks the backend for a task list, waits until tasks_status
// reports content, and refreshes the meeting list.
func (m *Manager) GenerateTasks(ctx context.Context) error {
	return m.run(ctx, string(stage.GenerateTasks), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		if err := stage.Check(stage.GenerateTasks, stage.FromMeeting(mt), ""); err != nil {
			return "", err
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Tasks)
		if err := m.backend.GenerateTasks(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		done, err := m.poll(ctx, clientID, m.meetingsFetcher(clientID), poller.TasksWatch(mt.MeetingID))
		if err != nil {
			return "", err
		}
		if err := m.settle(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Generated %d tasks (%s).", len(done.Tasks), done.TasksStatus), nil
	})
}

// ReviseTasks asks the backend to rewrite the task list from instructions.
// Empty instructions fall back to the stored ones. Unsaved edits prompt a
// save first. Declining revises the server copy, and the draft is replaced
// only after a second confirmation; otherwise the edits stay dirty.
func (m *Manager) ReviseTasks(ctx context.Context, instructions string) error {
	return m.run(ctx, string(stage.ReviseTasks), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		instructions = strings.TrimSpace(instructions)
		if instructions == "" {
			instructions = strings.TrimSpace(m.state.TaskInstructions())
		}
		if instructions == "" {
			return "", services.Invalid("instructions", "are required to revise tasks")
		}
		if err := stage.Check(stage.ReviseTasks, stage.FromMeeting(mt), instructions); err != nil {
			return "", err
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Tasks)
		m.state.SetTaskInstructions(instructions)

		adoptRevision := false
		if m.state.Tasks().Dirty {
			save, err := m.confirm.Confirm(ctx, "You have unsaved task edits. Save them before revising?")
			if err != nil {
				return "", err
			}
			if save {
				if err := m.saveTasks(ctx, clientID, mt); err != nil {
					return "", err
				}
			} else {
				adoptRevision = true
			}
		}

		if err := m.backend.ReviseTasks(ctx, clientID, mt.MeetingID, instructions); err != nil {
			return "", err
		}
		if err := m.settle(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		if adoptRevision && m.state.Tasks().Dirty {
			err := m.coord.ConfirmDiscard(ctx, "Loading the revised tasks")
			switch {
			case errors.Is(err, services.ErrDeclined):
				return "Tasks revised. Your unsaved edits were kept; discard them to see the revision.", nil
			case err != nil:
				return "", err
			}
			if revised, ok := m.state.SelectedMeeting(); ok && revised.MeetingID == mt.MeetingID {
				m.state.ForceTasks(revised)
			}
		}
		return "Tasks revised.", nil
	})
}

// EditTasks applies patch to the local task draft. Approved tasks are locked.
func (m *Manager) EditTasks(ctx context.Context, patch func(draft.TaskDoc) draft.TaskDoc) error {
	return m.run(ctx, "edit-tasks", func(ctx context.Context) (string, error) {
		_, mt, err := m.current()
		if err != nil {
			return "", err
		}
		if err := stage.Check(stage.SaveTasks, stage.FromMeeting(mt), ""); err != nil {
			return "", err
		}
		return "", m.state.EditTasks(patch)
	})
}

// SaveTasks sends the cleaned task draft. A failed save leaves the draft dirty.
func (m *Manager) SaveTasks(ctx context.Context) error {
	return m.run(ctx, string(stage.SaveTasks), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		if !m.state.Tasks().Dirty {
			return "No task edits to save.", nil
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Tasks)
		if err := m.saveTasks(ctx, clientID, mt); err != nil {
			return "", err
		}
		return "Tasks saved.", nil
	})
}

func (m *Manager) saveTasks(ctx context.Context, clientID string, mt meeting.Meeting) error {
	if err := stage.Check(stage.SaveTasks, stage.FromMeeting(mt), ""); err != nil {
		return err
	}
	doc, sel, err := m.state.BeginTaskSave()
	if err != nil {
		return err
	}
	cleaned := draft.Clean(doc)
	err = m.backend.SaveTasks(ctx, clientID, mt.MeetingID, cleaned.Tasks, cleaned.ResearchQuestions)
	m.state.FinishTaskSave(sel, doc, err)
	if err != nil {
		return err
	}
	return m.settle(ctx, clientID, mt.MeetingID)
}

// DiscardTasks drops unsaved task edits.
func (m *Manager) DiscardTasks(ctx context.Context) error {
	return m.run(ctx, "discard-tasks", func(context.Context) (string, error) {
		if !m.state.Tasks().Dirty {
			return "No task edits to discard.", nil
		}
		m.state.DiscardTasks()
		return "Task edits discarded.", nil
	})
}

// ApproveTasks approves the task list. Approving approved tasks sends nothing.
func (m *Manager) ApproveTasks(ctx context.Context) error {
	return m.run(ctx, string(stage.ApproveTasks), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		err = stage.Check(stage.ApproveTasks, stage.FromMeeting(mt), "")
		if errors.Is(err, stage.ErrAlreadyApproved) {
			return "Tasks are already approved.", nil
		}
		if err != nil {
			return "", err
		}
		if m.state.Tasks().Dirty {
			return "", services.Invalid("tasks", "save or discard task edits before approving")
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Tasks)
		if err := m.backend.ApproveTasks(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		if err := m.settle(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return "Tasks approved.", nil
	})
}

// ClearTasks resets the task list to NONE after confirmation.
func (m *Manager) ClearTasks(ctx context.Context) error {
	return m.run(ctx, string(stage.ClearTasks), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		if err := stage.Check(stage.ClearTasks, stage.FromMeeting(mt), ""); err != nil {
			return "", err
		}
		if err := m.coord.ConfirmDiscard(ctx, "Clearing tasks"); err != nil {
			return "", err
		}
		ok, err := m.confirm.Confirm(ctx, fmt.Sprintf("Clear all %d tasks for this meeting?", len(mt.Tasks)))
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: clear tasks cancelled", services.ErrDeclined)
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Tasks)
		if err := m.backend.ClearTasks(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		m.state.DiscardTasks()
		if err := m.settle(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return "Tasks cleared.", nil
	})
}

// settle re-fetches meetings after a mutation, keeping the current selection.
func (m *Manager) settle(ctx context.Context, clientID, meetingID string) error {
	if !m.state.IsCurrent(clientID, meetingID) {
		return poller.ErrAbandoned
	}
	_, err := m.reloadMeetings(ctx, clientID, true)
	return err
}
