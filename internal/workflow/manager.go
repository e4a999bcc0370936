package workflow

import (
	"context"
	"errors"
	"log/slog"

	"meetingassist/internal/api"
	"meetingassist/internal/config"
	"meetingassist/internal/logging"
	"meetingassist/internal/meeting"
	"meetingassist/internal/poller"
	"meetingassist/internal/selection"
	"meetingassist/internal/services"
	"meetingassist/internal/stage"
	"meetingassist/internal/workspace"
)

// Backend is the subset of the REST gateway the workflows call.
type Backend interface {
	ListClients(ctx context.Context) ([]meeting.Client, error)
	CreateClient(ctx context.Context, displayName string) (meeting.Client, error)
	ListMeetings(ctx context.Context, clientID string) ([]meeting.Meeting, error)

	GenerateTasks(ctx context.Context, clientID, meetingID string) error
	ReviseTasks(ctx context.Context, clientID, meetingID, instructions string) error
	SaveTasks(ctx context.Context, clientID, meetingID string, tasks []meeting.Task, questions []string) error
	ApproveTasks(ctx context.Context, clientID, meetingID string) error
	ClearTasks(ctx context.Context, clientID, meetingID string) error

	GetDeliverables(ctx context.Context, clientID, meetingID string) (meeting.Deliverables, error)
	GenerateDeliverables(ctx context.Context, clientID, meetingID string, lang meeting.Language) error
	ReviseDeliverables(ctx context.Context, clientID, meetingID, instructions string) error
	ApproveDeliverables(ctx context.Context, clientID, meetingID string) error
	ClearDeliverables(ctx context.Context, clientID, meetingID string) error
	GetContent(ctx context.Context, clientID, meetingID string, taskIndex int, lang meeting.Language) (api.Content, error)
	SaveContent(ctx context.Context, clientID, meetingID string, taskIndex int, lang meeting.Language, spec, template string) error
}

var _ Backend = (*api.Client)(nil)

// Manager runs user-triggered workflows against the backend and the shared
// workspace state.
type Manager struct {
	state    *workspace.State
	backend  Backend
	coord    *selection.Coordinator
	confirm  selection.Confirmer
	logger   *slog.Logger
	pollOpts []poller.Option
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithPollOptions appends poller options, e.g. shorter intervals in tests.
func WithPollOptions(opts ...poller.Option) ManagerOption {
	return func(m *Manager) {
		m.pollOpts = append(m.pollOpts, opts...)
	}
}

// WithConfig applies the configured poll timeout and interval.
func WithConfig(cfg *config.Config) ManagerOption {
	return WithPollOptions(poller.WithConfig(cfg))
}

// NewManager constructs a workflow manager. A nil confirm declines every
// prompt, which is what non-interactive callers want.
func NewManager(state *workspace.State, backend Backend, confirm selection.Confirmer, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if confirm == nil {
		confirm = selection.NeverConfirm
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		state:   state,
		backend: backend,
		confirm: confirm,
		logger:  logging.NewComponentLogger(logger, "workflow"),
	}
	m.coord = selection.New(state, confirm, logger)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the workspace the manager mutates.
func (m *Manager) State() *workspace.State { return m.state }

// run is the action boundary. fn returns the status message to show on
// success. Errors are recorded on the workspace and returned.
func (m *Manager) run(ctx context.Context, action string, fn func(context.Context) (string, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldAction, action))
	logger.Debug("action started")

	message, err := fn(ctx)
	switch {
	case err == nil:
		if message != "" {
			m.state.Notify(message)
		}
		logger.Info("action completed", logging.String("status_message", message))
		return nil
	case errors.Is(err, poller.ErrAbandoned):
		logger.Info("action result dropped; selection changed")
		return nil
	case errors.Is(err, services.ErrDeclined):
		m.state.Notify("Cancelled.")
		logger.Info("action cancelled by user")
		return err
	}

	m.state.Fail(err)
	attrs := []logging.Attr{
		logging.Error(err),
		logging.ErrorKind(err),
		logging.String(logging.FieldEventType, "action_failed"),
	}
	if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrGateClosed) || errors.Is(err, services.ErrConflict) {
		logger.Info("action rejected", logging.Args(attrs...)...)
	} else {
		logger.Error("action failed", logging.Args(attrs...)...)
	}
	return err
}

// current returns the selected client id and meeting record.
func (m *Manager) current() (string, meeting.Meeting, error) {
	sel := m.state.Selection()
	if sel.ClientID == "" {
		return "", meeting.Meeting{}, services.Invalid("client_id", "select a client first")
	}
	if sel.MeetingID == "" {
		return "", meeting.Meeting{}, services.Invalid("meeting_id", "select a meeting first")
	}
	mt, ok := m.state.SelectedMeeting()
	if !ok {
		return "", meeting.Meeting{}, services.Invalid("meeting_id", "selected meeting is not loaded; refresh meetings")
	}
	return sel.ClientID, mt, nil
}

func scoped(ctx context.Context, clientID, meetingID string, stg stage.Name) context.Context {
	ctx = services.WithClientID(ctx, clientID)
	if meetingID != "" {
		ctx = services.WithMeetingID(ctx, meetingID)
	}
	if stg != "" {
		ctx = services.WithStage(ctx, string(stg))
	}
	return ctx
}

// poll waits for watch to settle on the meetings of clientID. Every tick
// updates the shared meeting list, and the poll stops once the meeting is no
// longer selected.
func (m *Manager) poll(ctx context.Context, clientID string, fetch poller.Fetcher, watch poller.Watch) (meeting.Meeting, error) {
	opts := append([]poller.Option{poller.WithLogger(m.logger)}, m.pollOpts...)
	p := poller.New(fetch, opts...)
	return p.Run(ctx, watch, poller.Hooks{
		OnTick: func(list []meeting.Meeting) {
			m.state.UpdateMeetings(clientID, meeting.SortNewestFirst(list))
		},
		Guard: func() bool {
			return m.state.IsCurrent(clientID, watch.MeetingID)
		},
	})
}

func (m *Manager) meetingsFetcher(clientID string) poller.Fetcher {
	return func(ctx context.Context) ([]meeting.Meeting, error) {
		return m.backend.ListMeetings(ctx, clientID)
	}
}

// deliverablesFetcher merges the deliverables snapshot of meetingID into each
// fetched list, since the meeting list may lag the deliverables endpoint.
func (m *Manager) deliverablesFetcher(clientID, meetingID string) poller.Fetcher {
	return func(ctx context.Context) ([]meeting.Meeting, error) {
		list, err := m.backend.ListMeetings(ctx, clientID)
		if err != nil {
			return nil, err
		}
		d, err := m.backend.GetDeliverables(ctx, clientID, meetingID)
		if err != nil {
			return nil, err
		}
		for i := range list {
			if list[i].MeetingID == meetingID {
				list[i].ApplyDeliverables(d)
			}
		}
		return list, nil
	}
}
