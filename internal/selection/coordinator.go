package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"meetingassist/internal/logging"
	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
	"meetingassist/internal/workspace"
)

// Confirmer asks the user to approve discarding unsaved edits.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// NeverConfirm declines every prompt.
var NeverConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })

// MeetingsResult describes how a meeting list was applied.
type MeetingsResult struct {
	Applied   bool
	MeetingID string
	Changed   bool
	// Conflict is set when the server task list changed under a dirty draft.
	// The local draft was kept.
	Conflict bool
}

// Coordinator keeps exactly one client and one meeting selected as lists load.
type Coordinator struct {
	state   *workspace.State
	confirm Confirmer
	logger  *slog.Logger
}

// New builds a Coordinator. A nil confirm declines every prompt.
func New(state *workspace.State, confirm Confirmer, logger *slog.Logger) *Coordinator {
	if confirm == nil {
		confirm = NeverConfirm
	}
	return &Coordinator{state: state, confirm: confirm, logger: logging.NewComponentLogger(logger, "selection")}
}

// SortClients orders clients by display name, ignoring case and accents.
func SortClients(clients []meeting.Client) []meeting.Client {
	out := append([]meeting.Client(nil), clients...)
	col := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
	})
	return out
}

// ApplyClients stores a refreshed client list and settles the selection:
// preferID when present in the list, else the current selection when still
// present, else the first client.
func (c *Coordinator) ApplyClients(ctx context.Context, clients []meeting.Client, preferID string) (string, error) {
	sorted := SortClients(clients)
	current := c.state.Selection().ClientID

	target := ""
	switch {
	case preferID != "" && containsClient(sorted, preferID):
		target = preferID
	case current != "" && containsClient(sorted, current):
		target = current
	case len(sorted) > 0:
		target = sorted[0].ClientID
	}

	if target != current {
		if err := c.confirmDiscard(ctx, "Switching clients"); err != nil {
			return current, err
		}
	}
	c.state.SetClients(sorted)
	if target != current {
		c.state.SelectClient(target)
		c.logger.Info("client selected", logging.String(logging.FieldClientID, target))
	}
	return target, nil
}

// SelectClient switches to clientID, which must be in the cached list.
func (c *Coordinator) SelectClient(ctx context.Context, clientID string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return services.Invalid("client_id", "is required")
	}
	if _, ok := meeting.FindClient(c.state.Clients(), clientID); !ok {
		return services.Invalid("client_id", fmt.Sprintf("unknown client %q", clientID))
	}
	if c.state.Selection().ClientID == clientID {
		return nil
	}
	if err := c.confirmDiscard(ctx, "Switching clients"); err != nil {
		return err
	}
	c.state.SelectClient(clientID)
	c.logger.Info("client selected", logging.String(logging.FieldClientID, clientID))
	return nil
}

// ApplyMeetings stores a refreshed meeting list for clientID and settles the
// meeting selection. A list for a client that is no longer selected is
// dropped. With preserve false the selection always falls back to the newest
// meeting.
func (c *Coordinator) ApplyMeetings(ctx context.Context, clientID string, meetings []meeting.Meeting, preserve bool) (MeetingsResult, error) {
	sel := c.state.Selection()
	if sel.ClientID != clientID {
		c.logger.Debug("dropping meetings for unselected client", logging.String(logging.FieldClientID, clientID))
		return MeetingsResult{MeetingID: sel.MeetingID}, nil
	}
	ordered := meeting.SortNewestFirst(meetings)

	target := ""
	_, stillPresent := meeting.Find(ordered, sel.MeetingID)
	switch {
	case preserve && sel.MeetingID != "" && stillPresent:
		target = sel.MeetingID
	case len(ordered) > 0:
		target = ordered[0].MeetingID
	}

	changed := target != sel.MeetingID
	if changed {
		if err := c.confirmDiscard(ctx, "Switching meetings"); err != nil {
			return MeetingsResult{MeetingID: sel.MeetingID}, err
		}
	}
	if !c.state.UpdateMeetings(clientID, ordered) {
		return MeetingsResult{MeetingID: sel.MeetingID}, nil
	}

	result := MeetingsResult{Applied: true, MeetingID: target, Changed: changed}
	if changed {
		c.state.SelectMeeting(target)
		return result, nil
	}
	if m, ok := meeting.Find(ordered, target); ok {
		if err := c.state.ReconcileTasks(m); err != nil {
			result.Conflict = true
			c.logger.Info("kept unsaved task edits over refreshed server copy",
				logging.String(logging.FieldMeetingID, target))
		}
	}
	return result, nil
}

// SelectMeeting switches to meetingID within the selected client.
func (c *Coordinator) SelectMeeting(ctx context.Context, meetingID string) error {
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return services.Invalid("meeting_id", "is required")
	}
	if _, ok := meeting.Find(c.state.Meetings(), meetingID); !ok {
		return services.Invalid("meeting_id", fmt.Sprintf("unknown meeting %q for client %q", meetingID, c.state.Selection().ClientID))
	}
	if c.state.Selection().MeetingID == meetingID {
		return nil
	}
	if err := c.confirmDiscard(ctx, "Switching meetings"); err != nil {
		return err
	}
	c.state.SelectMeeting(meetingID)
	c.logger.Info("meeting selected", logging.String(logging.FieldMeetingID, meetingID))
	return nil
}

// ConfirmDiscard asks before an operation that would drop dirty drafts. It
// returns services.ErrDeclined when the user says no.
func (c *Coordinator) ConfirmDiscard(ctx context.Context, action string) error {
	return c.confirmDiscard(ctx, action)
}

func (c *Coordinator) confirmDiscard(ctx context.Context, action string) error {
	dirty := c.state.DirtySummary()
	if len(dirty) == 0 {
		return nil
	}
	prompt := fmt.Sprintf("You have unsaved edits (%s). %s will discard them. Continue?", strings.Join(dirty, ", "), action)
	ok, err := c.confirm.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s cancelled", services.ErrDeclined, strings.ToLower(action))
	}
	return nil
}

func containsClient(clients []meeting.Client, id string) bool {
	_, ok := meeting.FindClient(clients, id)
	return ok
}
