package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetingassist/internal/meeting"
	"meetingassist/internal/poller"
	"meetingassist/internal/services"
	"meetingassist/internal/stage"
)

// GenerateDeliverables starts spec-sheet and template generation in lang (R
// when empty) and waits for deliverables_status to settle. A closed gate
// rejects the request before any network call.
func (m *Manager) GenerateDeliverables(ctx context.Context, lang string) error {
	return m.run(ctx, string(stage.GenerateDeliverables), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		language, err := meeting.ParseLanguage(lang)
		if err != nil {
			return "", services.Invalid("language", err.Error())
		}
		if err := stage.Check(stage.GenerateDeliverables, stage.FromMeeting(mt), ""); err != nil {
			return "", err
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Deliverables)
		if err := m.backend.GenerateDeliverables(ctx, clientID, mt.MeetingID, language); err != nil {
			return "", err
		}
		done, err := m.poll(ctx, clientID, m.deliverablesFetcher(clientID, mt.MeetingID), poller.DeliverablesWatch(mt.MeetingID))
		if err != nil {
			return "", err
		}
		if err := m.settleDeliverables(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deliverables %s in %s: %d spec sheets.", strings.ToLower(string(done.DeliverablesStatus)), language, len(done.SpecSheets)), nil
	})
}

// ReviseDeliverables regenerates every deliverable of the meeting from
// meeting-wide instructions. Unsaved template edits are confirmed away first.
func (m *Manager) ReviseDeliverables(ctx context.Context, instructions string) error {
	return m.run(ctx, string(stage.ReviseDeliverables), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		instructions = strings.TrimSpace(instructions)
		if instructions == "" {
			instructions = strings.TrimSpace(m.state.DeliverablesInstructions())
		}
		if instructions == "" {
			return "", services.Invalid("instructions", "are required to revise deliverables")
		}
		if err := stage.Check(stage.ReviseDeliverables, stage.FromMeeting(mt), instructions); err != nil {
			return "", err
		}
		if m.state.DirtyContent() {
			if err := m.coord.ConfirmDiscard(ctx, "Revising deliverables"); err != nil {
				return "", err
			}
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Deliverables)
		m.state.SetDeliverablesInstructions(instructions)
		if err := m.backend.ReviseDeliverables(ctx, clientID, mt.MeetingID, instructions); err != nil {
			return "", err
		}
		m.state.ClearContent()
		watch := poller.DeliverablesRevisionWatch(mt.MeetingID, mt.DeliverablesRevision)
		done, err := m.poll(ctx, clientID, m.deliverablesFetcher(clientID, mt.MeetingID), watch)
		if err != nil {
			return "", err
		}
		if err := m.settleDeliverables(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deliverables revised (revision %d).", done.DeliverablesRevision), nil
	})
}

// ApproveDeliverables approves the deliverables. It refuses while template
// edits are unsaved and sends nothing when already approved.
func (m *Manager) ApproveDeliverables(ctx context.Context) error {
	return m.run(ctx, string(stage.ApproveDeliverables), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		err = stage.Check(stage.ApproveDeliverables, stage.FromMeeting(mt), "")
		if errors.Is(err, stage.ErrAlreadyApproved) {
			return "Deliverables are already approved.", nil
		}
		if err != nil {
			return "", err
		}
		if m.state.DirtyContent() {
			return "", services.Invalid("deliverables", "save or discard template edits before approving")
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Deliverables)
		if err := m.backend.ApproveDeliverables(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		if err := m.settleDeliverables(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return "Deliverables approved.", nil
	})
}

// ClearDeliverables deletes every spec sheet and template after confirmation.
// It refuses while template edits are unsaved.
func (m *Manager) ClearDeliverables(ctx context.Context) error {
	return m.run(ctx, string(stage.ClearDeliverables), func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		if err := stage.Check(stage.ClearDeliverables, stage.FromMeeting(mt), ""); err != nil {
			return "", err
		}
		if m.state.DirtyContent() {
			return "", services.Invalid("deliverables", "save or discard template edits before clearing")
		}
		ok, err := m.confirm.Confirm(ctx, fmt.Sprintf("Clear %d spec sheets and their templates for this meeting?", len(mt.SpecSheets)))
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: clear deliverables cancelled", services.ErrDeclined)
		}
		ctx = scoped(ctx, clientID, mt.MeetingID, stage.Deliverables)
		if err := m.backend.ClearDeliverables(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		m.state.ClearContent()
		if err := m.settleDeliverables(ctx, clientID, mt.MeetingID); err != nil {
			return "", err
		}
		return "Deliverables cleared.", nil
	})
}

// RefreshDeliverables re-fetches the deliverables snapshot of the selected
// meeting.
func (m *Manager) RefreshDeliverables(ctx context.Context) error {
	return m.run(ctx, "refresh-deliverables", func(ctx context.Context) (string, error) {
		clientID, mt, err := m.current()
		if err != nil {
			return "", err
		}
		return "", m.hydrateDeliverables(scoped(ctx, clientID, mt.MeetingID, stage.Deliverables), clientID, mt.MeetingID)
	})
}

func (m *Manager) settleDeliverables(ctx context.Context, clientID, meetingID string) error {
	if err := m.settle(ctx, clientID, meetingID); err != nil {
		return err
	}
	return m.hydrateDeliverables(ctx, clientID, meetingID)
}
