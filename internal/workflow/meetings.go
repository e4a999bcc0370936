package workflow

import (
	"context"
	"fmt"
	"strings"

	"meetingassist/internal/logging"
	"meetingassist/internal/meeting"
	"meetingassist/internal/selection"
	"meetingassist/internal/services"
)

// RefreshClients reloads the client list, settles the client selection, and
// loads the meetings of the selected client.
func (m *Manager) RefreshClients(ctx context.Context) error {
	return m.run(ctx, "refresh-clients", func(ctx context.Context) (string, error) {
		clients, err := m.backend.ListClients(ctx)
		if err != nil {
			return "", err
		}
		selected, err := m.coord.ApplyClients(ctx, clients, "")
		if err != nil {
			return "", err
		}
		if selected == "" {
			return "No clients yet. Create one to get started.", nil
		}
		if _, err := m.reloadMeetings(ctx, selected, true); err != nil {
			return "", err
		}
		return fmt.Sprintf("Loaded %d clients.", len(clients)), nil
	})
}

// CreateClient creates a client from displayName and selects it once the
// refreshed list contains it. The backend derives the client id.
func (m *Manager) CreateClient(ctx context.Context, displayName string) (meeting.Client, error) {
	var created meeting.Client
	err := m.run(ctx, "create-client", func(ctx context.Context) (string, error) {
		name := strings.TrimSpace(displayName)
		if name == "" {
			return "", services.Invalid("display_name", "is required")
		}
		if err := m.coord.ConfirmDiscard(ctx, "Creating a client"); err != nil {
			return "", err
		}
		client, err := m.backend.CreateClient(ctx, name)
		if err != nil {
			return "", err
		}
		created = client
		if preview := selection.SlugPreview(name); preview != client.ClientID {
			m.logger.Debug("backend adjusted client id",
				logging.String("slug_preview", preview),
				logging.String(logging.FieldClientID, client.ClientID))
		}
		clients, err := m.backend.ListClients(ctx)
		if err != nil {
			return "", err
		}
		if _, ok := meeting.FindClient(clients, client.ClientID); !ok {
			clients = append(clients, client)
		}
		// Drafts were already confirmed away above.
		selected, err := selection.New(m.state, selection.AlwaysConfirm, m.logger).ApplyClients(ctx, clients, client.ClientID)
		if err != nil {
			return "", err
		}
		if _, err := m.reloadMeetings(ctx, selected, false); err != nil {
			return "", err
		}
		return fmt.Sprintf("Created client %s (%s).", client.DisplayName, client.ClientID), nil
	})
	return created, err
}

// SelectClient switches to clientID and loads its meetings.
func (m *Manager) SelectClient(ctx context.Context, clientID string) error {
	return m.run(ctx, "select-client", func(ctx context.Context) (string, error) {
		if err := m.coord.SelectClient(ctx, clientID); err != nil {
			return "", err
		}
		if _, err := m.reloadMeetings(ctx, clientID, true); err != nil {
			return "", err
		}
		return fmt.Sprintf("Selected client %s (%d meetings).", clientID, len(m.state.Meetings())), nil
	})
}

// RefreshMeetings reloads the meetings of the selected client. With preserve
// the current meeting stays selected while present.
func (m *Manager) RefreshMeetings(ctx context.Context, preserve bool) error {
	return m.run(ctx, "refresh-meetings", func(ctx context.Context) (string, error) {
		clientID := m.state.Selection().ClientID
		if clientID == "" {
			return "", services.Invalid("client_id", "select a client first")
		}
		res, err := m.reloadMeetings(ctx, clientID, preserve)
		if err != nil {
			return "", err
		}
		if res.Conflict {
			return "The server task list changed; your unsaved task edits were kept.", nil
		}
		return "", nil
	})
}

// SelectMeeting switches to meetingID within the selected client.
func (m *Manager) SelectMeeting(ctx context.Context, meetingID string) error {
	return m.run(ctx, "select-meeting", func(ctx context.Context) (string, error) {
		if err := m.coord.SelectMeeting(ctx, meetingID); err != nil {
			return "", err
		}
		mt, _ := m.state.SelectedMeeting()
		return "Selected " + meeting.Label(mt, meeting.Numbers(m.state.Meetings())[mt.MeetingID]) + ".", nil
	})
}

func (m *Manager) reloadMeetings(ctx context.Context, clientID string, preserve bool) (selection.MeetingsResult, error) {
	list, err := m.backend.ListMeetings(services.WithClientID(ctx, clientID), clientID)
	if err != nil {
		return selection.MeetingsResult{}, err
	}
	return m.coord.ApplyMeetings(ctx, clientID, list, preserve)
}

// hydrateDeliverables merges the deliverables snapshot into the cached meeting
// while it is still selected.
func (m *Manager) hydrateDeliverables(ctx context.Context, clientID, meetingID string) error {
	d, err := m.backend.GetDeliverables(ctx, clientID, meetingID)
	if err != nil {
		return err
	}
	if m.state.IsCurrent(clientID, meetingID) {
		m.state.ApplyDeliverables(meetingID, d)
	}
	return nil
}
