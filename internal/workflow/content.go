package workflow

import (
	"context"
	"errors"
	"fmt"

	"meetingassist/internal/draft"
	"meetingassist/internal/services"
	"meetingassist/internal/stage"
	"meetingassist/internal/workspace"
)

// LoadContent fetches the spec sheet and template for one task and language
// into its draft. When the draft holds unsaved edits that differ from the
// server, the user is asked before they are replaced.
func (m *Manager) LoadContent(ctx context.Context, taskIndex int, lang string) (workspace.ContentView, error) {
	var view workspace.ContentView
	err := m.run(ctx, "load-deliverables-content", func(ctx context.Context) (string, error) {
		key, err := draft.NewKey(taskIndex, lang)
		if err != nil {
			return "", err
		}
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Deliverables)
		sel := m.state.BeginContentLoad(key)
		fetched, fetchErr := m.backend.GetContent(ctx, clientID, mt.MeetingID, key.TaskIndex, key.Language)
		content := draft.Content{
			Spec:        fetched.Spec.Content,
			Template:    fetched.Template.Content,
			SpecKey:     fetched.Spec.S3Key,
			TemplateKey: fetched.Template.S3Key,
		}
		err = m.state.FinishContentLoad(sel, key, content, fetchErr)
		if errors.Is(err, services.ErrConflict) {
			ok, cerr := m.confirm.Confirm(ctx, fmt.Sprintf("Deliverables %s changed on the server. Discard your unsaved edits and reload?", key))
			if cerr != nil {
				return "", cerr
			}
			if !ok {
				return "", fmt.Errorf("kept unsaved edits for %s: %w", key, err)
			}
			if m.state.IsCurrent(clientID, mt.MeetingID) {
				m.state.ForceContent(key, content)
			}
			err = nil
		}
		if err != nil {
			return "", err
		}
		view, _ = m.state.Content(key)
		return "", nil
	})
	return view, err
}

// EditContent applies patch to a loaded content draft.
func (m *Manager) EditContent(ctx context.Context, taskIndex int, lang string, patch func(draft.Content) draft.Content) error {
	return m.run(ctx, "edit-deliverables-content", func(ctx context.Context) (string, error) {
		key, err := draft.NewKey(taskIndex, lang)
		if err != nil {
			return "", err
		}
		_, mt, err := m.current()
		if err != nil {
			return "", err
		}
		if err := stage.Check(stage.SaveContent, stage.FromMeeting(mt), ""); err != nil {
			return "", err
		}
		return "", m.state.EditContent(key, patch)
	})
}

// SaveContent sends the content draft for one key. Other drafts are untouched.
func (m *Manager) SaveContent(ctx context.Context, taskIndex int, lang string) error {
	return m.run(ctx, string(stage.SaveContent), func(ctx context.Context) (string, error) {
		key, err := draft.NewKey(taskIndex, lang)
		if err != nil {
			return "", err
		}
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		if err := stage.Check(stage.SaveContent, stage.FromMeeting(mt), ""); err != nil {
			return "", err
		}
		view, ok := m.state.Content(key)
		if !ok || !view.Loaded {
			return "", services.Invalid("draft", "content for "+key.String()+" is not loaded")
		}
		if !view.Dirty {
			return fmt.Sprintf("No edits to save for %s.", key), nil
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Deliverables)
		sent, sel, err := m.state.BeginContentSave(key)
		if err != nil {
			return "", err
		}
		err = m.backend.SaveContent(ctx, clientID, mt.MeetingID, key.TaskIndex, key.Language, sent.Spec, sent.Template)
		m.state.FinishContentSave(sel, key, sent, err)
		if err != nil {
			return "", err
		}
		if err := m.settleDeliverables(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Saved deliverables %s.", key), nil
	})
}

// DiscardContent restores one content draft to its last loaded value.
func (m *Manager) DiscardContent(ctx context.Context, taskIndex int, lang string) error {
	return m.run(ctx, "discard-deliverables-content", func(context.Context) (string, error) {
		key, err := draft.NewKey(taskIndex, lang)
		if err != nil {
			return "", err
		}
		m.state.DiscardContent(key)
		return fmt.Sprintf("Discarded edits for %s.", key), nil
	})
}
