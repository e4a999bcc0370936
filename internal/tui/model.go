package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"meetingassist/internal/meeting"
	"meetingassist/internal/workflow"
	"meetingassist/internal/workspace"
)

const defaultRefresh = 10 * time.Second

// Actions is the workflow surface driven by the dashboard.
type Actions interface {
	State() *workspace.State
	RefreshMeetings(ctx context.Context, preserve bool) error
	SelectMeeting(ctx context.Context, meetingID string) error
	GenerateTasks(ctx context.Context) error
	ApproveTasks(ctx context.Context) error
	GenerateDeliverables(ctx context.Context, lang string) error
	ApproveDeliverables(ctx context.Context) error
	LoadContent(ctx context.Context, taskIndex int, lang string) (workspace.ContentView, error)
}

var _ Actions = (*workflow.Manager)(nil)

type tickMsg struct{}

type refreshDoneMsg struct{ err error }

type actionDoneMsg struct {
	label string
	err   error
}

type contentMsg struct {
	meetingID string
	view      workspace.ContentView
	err       error
}

type preview struct {
	meetingID string
	title     string
	spec      string
}

// Model is the dashboard's bubbletea model.
type Model struct {
	ctx        context.Context
	actions    Actions
	state      *workspace.State
	prompter   *Prompter
	keys       keyMap
	help       help.Model
	spinner    spinner.Model
	refresh    time.Duration
	now        func() time.Time
	cursor     int
	busy       string
	refreshing bool
	lastSync   time.Time
	modal      *promptRequest
	preview    preview
	nextTask   int
	width      int
	height     int
}

// Option customizes a Model.
type Option func(*Model)

// WithRefresh sets the background refresh interval. Non-positive values keep
// the default.
func WithRefresh(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.refresh = d
		}
	}
}

// WithPrompter routes workflow confirmations to the dashboard modal. The same
// Prompter must be the Manager's confirmer.
func WithPrompter(p *Prompter) Option {
	return func(m *Model) { m.prompter = p }
}

// New builds the dashboard. ctx bounds every action started from it.
func New(ctx context.Context, actions Actions, opts ...Option) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)
	m := Model{
		ctx:     ctx,
		actions: actions,
		state:   actions.State(),
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
		refresh: defaultRefresh,
		now:     time.Now,
		width:   100,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.cursor = m.selectedIndex()
	return m
}

// Init starts the refresh loop and the prompt listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.refreshCmd(), m.tick()}
	if m.prompter != nil {
		cmds = append(cmds, m.prompter.wait())
	}
	return tea.Batch(cmds...)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.refreshing || m.modal != nil {
			return m, m.tick()
		}
		m.refreshing = true
		return m, tea.Batch(m.refreshCmd(), m.tick())

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err == nil {
			m.lastSync = m.now()
		}
		m.clampCursor()
		return m, nil

	case actionDoneMsg:
		m.busy = ""
		m.clampCursor()
		if m.preview.meetingID != "" && m.preview.meetingID != m.state.Selection().MeetingID {
			m.preview = preview{}
			m.nextTask = 0
		}
		return m, nil

	case contentMsg:
		m.busy = ""
		if msg.err == nil && msg.meetingID == m.state.Selection().MeetingID {
			m.preview = preview{
				meetingID: msg.meetingID,
				title:     "Spec sheet " + msg.view.Key.String(),
				spec:      msg.view.Value.Spec,
			}
		}
		return m, nil

	case promptMsg:
		req := promptRequest(msg)
		m.modal = &req
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.answer(true)
		case key.Matches(msg, m.keys.No):
			return m.answer(false)
		case msg.String() == "ctrl+c":
			m.modal.reply <- false
			m.modal = nil
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		m.state.Dismiss()
		return m, nil
	}

	if m.busy != "" {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Select):
		rows := m.rows()
		if len(rows) == 0 {
			return m, nil
		}
		id := rows[m.cursor].MeetingID
		if id == m.state.Selection().MeetingID {
			return m, nil
		}
		return m.start("Switching meeting", func(ctx context.Context) error {
			return m.actions.SelectMeeting(ctx, id)
		})
	case key.Matches(msg, m.keys.Refresh):
		return m.start("Refreshing meetings", func(ctx context.Context) error {
			return m.actions.RefreshMeetings(ctx, true)
		})
	case key.Matches(msg, m.keys.GenerateTasks):
		return m.start("Generating tasks", m.actions.GenerateTasks)
	case key.Matches(msg, m.keys.ApproveTasks):
		return m.start("Approving tasks", m.actions.ApproveTasks)
	case key.Matches(msg, m.keys.GenerateDeliverable):
		return m.start("Generating deliverables", func(ctx context.Context) error {
			return m.actions.GenerateDeliverables(ctx, "")
		})
	case key.Matches(msg, m.keys.ApproveDeliverable):
		return m.start("Approving deliverables", m.actions.ApproveDeliverables)
	case key.Matches(msg, m.keys.Preview):
		return m.loadPreview()
	}
	return m, nil
}

func (m Model) answer(ok bool) (tea.Model, tea.Cmd) {
	m.modal.reply <- ok
	m.modal = nil
	if m.prompter == nil {
		return m, nil
	}
	return m, m.prompter.wait()
}

func (m Model) start(label string, fn func(context.Context) error) (tea.Model, tea.Cmd) {
	m.busy = label
	ctx := m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return actionDoneMsg{label: label, err: fn(ctx)}
	})
}

func (m Model) loadPreview() (tea.Model, tea.Cmd) {
	mt, ok := m.state.SelectedMeeting()
	if !ok || !mt.HasSpecSheets() {
		m.state.Notify("No spec sheets for this meeting yet.")
		return m, nil
	}
	count := len(mt.Tasks)
	if count == 0 {
		count = len(mt.SpecSheets)
	}
	m.nextTask = m.nextTask%count + 1
	taskIndex := m.nextTask
	lang := string(meeting.DefaultContentLanguage(mt))
	m.busy = fmt.Sprintf("Loading spec sheet %d", taskIndex)
	ctx := m.ctx
	meetingID := mt.MeetingID
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		view, err := m.actions.LoadContent(ctx, taskIndex, lang)
		return contentMsg{meetingID: meetingID, view: view, err: err}
	})
}

func (m Model) refreshCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return refreshDoneMsg{err: m.actions.RefreshMeetings(ctx, true)}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return tickMsg{} })
}

// rows returns the meetings in display order, newest first.
func (m Model) rows() []meeting.Meeting {
	return meeting.SortNewestFirst(m.state.Meetings())
}

func (m Model) selectedIndex() int {
	id := m.state.Selection().MeetingID
	for i, mt := range m.rows() {
		if mt.MeetingID == id {
			return i
		}
	}
	return 0
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the dashboard, or the confirmation modal while one is open.
func (m Model) View() string {
	if m.modal != nil {
		box := modalStyle.Render(m.modal.prompt + "\n\n" + mutedStyle.Render("[y] yes   [n] no"))
		if m.height > 0 {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
		}
		return box
	}

	var b strings.Builder
	sel := m.state.Selection()
	header := "Meetings"
	if sel.ClientID != "" {
		header += " · " + sel.ClientID
	}
	b.WriteString(titleStyle.Render(header))
	if !m.lastSync.IsZero() {
		b.WriteString(mutedStyle.Render("  synced " + humanize.RelTime(m.lastSync, m.now(), "ago", "from now")))
	}
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("No meetings yet."))
		b.WriteString("\n")
	}
	numbers := meeting.Numbers(rows)
	for i, mt := range rows {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("› ")
		}
		marker := "  "
		label := meeting.Label(mt, numbers[mt.MeetingID])
		if mt.MeetingID == sel.MeetingID {
			marker = cursorStyle.Render("● ")
			label = selectedStyle.Render(label)
		}
		fmt.Fprintf(&b, "%s%s%s\n    %s\n", cursor, marker, label, stagePills(mt))
	}

	if dirty := m.state.DirtySummary(); len(dirty) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Unsaved edits: " + strings.Join(dirty, ", ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.busy != "" {
		b.WriteString(m.spinner.View() + " " + m.busy + "…\n")
	}
	if status := m.state.Status(); status.Message != "" {
		if status.Kind == workspace.StatusError {
			b.WriteString(errorStyle.Render(status.Message))
		} else {
			b.WriteString(infoStyle.Render(status.Message))
		}
		b.WriteString("\n")
	}

	if m.preview.spec != "" {
		width := m.width - 4
		b.WriteString("\n")
		b.WriteString(previewStyle.Render(titleStyle.Render(m.preview.title) + "\n" + RenderMarkdown(m.preview.spec, width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts the dashboard program on the terminal and blocks until it exits.
func Run(ctx context.Context, actions Actions, opts ...Option) error {
	program := tea.NewProgram(New(ctx, actions, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
