package workspace

import (
	"sync"
	"time"

	"meetingassist/internal/draft"
	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

// StatusKind classifies the dismissible status message.
type StatusKind string

const (
	StatusInfo  StatusKind = "info"
	StatusError StatusKind = "error"
)

// Status is the message shown after the last action.
type Status struct {
	Kind      StatusKind `json:"kind"`
	Message   string     `json:"message"`
	ErrorKind string     `json:"error_kind,omitempty"`
	At        time.Time  `json:"at"`
}

// Selection is the active client and meeting. Version increases on every
// change so delayed results can detect that they were superseded.
type Selection struct {
	ClientID  string
	MeetingID string
	Version   uint64
}

// TaskView is a read-only copy of the task draft.
type TaskView struct {
	Value    draft.TaskDoc
	Baseline draft.TaskDoc
	Loaded   bool
	Dirty    bool
	Saving   bool
	LoadedAt time.Time
}

// ContentView is a read-only copy of one content draft.
type ContentView struct {
	Key      draft.Key
	Value    draft.Content
	Baseline draft.Content
	Loaded   bool
	Loading  bool
	Dirty    bool
	Saving   bool
	LoadedAt time.Time
}

// State holds the shared client-side session. All access goes through its
// methods, which are safe for concurrent use. No method performs I/O.
type State struct {
	mu                       sync.Mutex
	clients                  []meeting.Client
	meetings                 []meeting.Meeting
	selection                Selection
	tasks                    *draft.Draft[draft.TaskDoc]
	content                  *draft.Set
	taskInstructions         string
	deliverablesInstructions string
	status                   Status
	now                      func() time.Time
}

// New returns an empty state.
func New() *State {
	return &State{
		tasks:   draft.New(draft.CloneTaskDoc),
		content: draft.NewSet(),
		now:     time.Now,
	}
}

// Clients returns a copy of the client list.
func (s *State) Clients() []meeting.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]meeting.Client(nil), s.clients...)
}

// SetClients replaces the client list. Selection is not changed.
func (s *State) SetClients(clients []meeting.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append([]meeting.Client(nil), clients...)
}

// Meetings returns a copy of the meeting list.
func (s *State) Meetings() []meeting.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMeetings(s.meetings)
}

// SetMeetings replaces the meeting list. Selection and drafts are not changed.
func (s *State) SetMeetings(meetings []meeting.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings = cloneMeetings(meetings)
}

// UpdateMeetings replaces the meeting list only while clientID is still the
// selected client. It reports whether the list was applied.
func (s *State) UpdateMeetings(clientID string, meetings []meeting.Meeting) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.ClientID != clientID {
		return false
	}
	s.meetings = cloneMeetings(meetings)
	return true
}

// ApplyDeliverables merges a deliverables snapshot into the named meeting.
func (s *State) ApplyDeliverables(meetingID string, d meeting.Deliverables) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.meetings {
		if s.meetings[i].MeetingID == meetingID {
			s.meetings[i].ApplyDeliverables(d)
			return true
		}
	}
	return false
}

// Selection returns the active selection.
func (s *State) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// IsCurrent reports whether clientID and meetingID are still selected.
func (s *State) IsCurrent(clientID, meetingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.ClientID == clientID && s.selection.MeetingID == meetingID
}

// SelectedMeeting returns the selected meeting from the cached list.
func (s *State) SelectedMeeting() (meeting.Meeting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := meeting.Find(s.meetings, s.selection.MeetingID)
	if !ok {
		return meeting.Meeting{}, false
	}
	return m.Clone(), true
}

// SelectClient switches the active client. A different client clears the
// meeting list, the meeting selection, and every draft.
func (s *State) SelectClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.ClientID == clientID {
		return
	}
	s.selection = Selection{ClientID: clientID, Version: s.selection.Version + 1}
	s.meetings = nil
	s.resetDraftsLocked()
}

// SelectMeeting switches the active meeting within the selected client. A
// different meeting drops every draft and loads the task draft from the cached
// meeting record.
func (s *State) SelectMeeting(meetingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.MeetingID == meetingID {
		return
	}
	s.selection.MeetingID = meetingID
	s.selection.Version++
	s.resetDraftsLocked()
	if m, ok := meeting.Find(s.meetings, meetingID); ok {
		s.tasks.Load(draft.TaskDocFromMeeting(m))
		s.taskInstructions = m.LastInstructions
		s.deliverablesInstructions = m.LastDeliverablesInstructions
	}
}

func (s *State) resetDraftsLocked() {
	s.tasks = draft.New(draft.CloneTaskDoc)
	s.content = draft.NewSet()
	s.taskInstructions = ""
	s.deliverablesInstructions = ""
}

// HasDirty reports whether any draft holds unsaved edits.
func (s *State) HasDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Dirty() || s.content.AnyDirty()
}

// DirtySummary lists the drafts with unsaved edits, for confirmation prompts.
func (s *State) DirtySummary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	if s.tasks.Dirty() {
		out = append(out, "tasks")
	}
	for _, key := range s.content.DirtyKeys() {
		out = append(out, "deliverables "+key.String())
	}
	return out
}

// Tasks returns a copy of the task draft.
func (s *State) Tasks() TaskView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TaskView{
		Value:    s.tasks.Value(),
		Baseline: s.tasks.Baseline(),
		Loaded:   s.tasks.Loaded(),
		Dirty:    s.tasks.Dirty(),
		Saving:   s.tasks.Saving(),
		LoadedAt: s.tasks.LastLoadedAt(),
	}
}

// ReconcileTasks merges the server task list of m into the task draft when m
// is the selected meeting. A dirty draft is kept and ErrConflict returned.
func (s *State) ReconcileTasks(m meeting.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.MeetingID != s.selection.MeetingID {
		return nil
	}
	return s.tasks.Reconcile(draft.TaskDocFromMeeting(m))
}

// ForceTasks replaces the task draft with the server copy even when dirty.
func (s *State) ForceTasks(m meeting.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.MeetingID != s.selection.MeetingID {
		return
	}
	s.tasks.Force(draft.TaskDocFromMeeting(m))
}

// EditTasks applies patch to the task draft.
func (s *State) EditTasks(patch func(draft.TaskDoc) draft.TaskDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tasks.Loaded() {
		return services.Invalid("tasks", "no meeting is loaded")
	}
	s.tasks.Edit(patch)
	return nil
}

// BeginTaskSave marks the task draft as saving and returns the value to send.
func (s *State) BeginTaskSave() (draft.TaskDoc, Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tasks.Loaded() {
		return draft.TaskDoc{}, s.selection, services.Invalid("tasks", "no meeting is loaded")
	}
	doc, err := s.tasks.BeginSave()
	return doc, s.selection, err
}

// FinishTaskSave completes a save started with BeginTaskSave. The result is
// dropped when the selection changed in the meantime.
func (s *State) FinishTaskSave(sel Selection, sent draft.TaskDoc, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Version != sel.Version {
		return
	}
	s.tasks.FinishSave(sent, err)
}

// DiscardTasks restores the task draft to its baseline.
func (s *State) DiscardTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks.Discard()
}

// Content returns a copy of the content draft for key.
func (s *State) Content(key draft.Key) (ContentView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.content.Get(key)
	if d == nil {
		return ContentView{Key: key}, false
	}
	return contentView(key, d), true
}

// ContentViews returns every tracked content draft in key order.
func (s *State) ContentViews() []ContentView {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.content.Keys()
	out := make([]ContentView, 0, len(keys))
	for _, key := range keys {
		out = append(out, contentView(key, s.content.Get(key)))
	}
	return out
}

func contentView(key draft.Key, d *draft.Draft[draft.Content]) ContentView {
	return ContentView{
		Key:      key,
		Value:    d.Value(),
		Baseline: d.Baseline(),
		Loaded:   d.Loaded(),
		Loading:  d.Loading(),
		Dirty:    d.Dirty(),
		Saving:   d.Saving(),
		LoadedAt: d.LastLoadedAt(),
	}
}

// BeginContentLoad marks key as loading and returns the current selection.
func (s *State) BeginContentLoad(key draft.Key) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content.Ensure(key).BeginLoad()
	return s.selection
}

// FinishContentLoad applies fetched content for key. The result is dropped
// when the selection changed. A dirty draft is kept and ErrConflict returned.
func (s *State) FinishContentLoad(sel Selection, key draft.Key, content draft.Content, fetchErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Version != sel.Version {
		return nil
	}
	d := s.content.Ensure(key)
	if fetchErr != nil {
		d.FailLoad()
		return fetchErr
	}
	if err := d.Reconcile(content); err != nil {
		d.FailLoad()
		return err
	}
	return nil
}

// ForceContent replaces the draft for key even when dirty.
func (s *State) ForceContent(key draft.Key, content draft.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content.Ensure(key).Force(content)
}

// EditContent applies patch to the draft for key.
func (s *State) EditContent(key draft.Key, patch func(draft.Content) draft.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.Edit(key, patch)
}

// BeginContentSave marks the draft for key as saving.
func (s *State) BeginContentSave(key draft.Key) (draft.Content, Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.content.Get(key)
	if d == nil || !d.Loaded() {
		return draft.Content{}, s.selection, services.Invalid("draft", "content for "+key.String()+" is not loaded")
	}
	c, err := d.BeginSave()
	return c, s.selection, err
}

// FinishContentSave completes a save started with BeginContentSave.
func (s *State) FinishContentSave(sel Selection, key draft.Key, sent draft.Content, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection.Version != sel.Version {
		return
	}
	if d := s.content.Get(key); d != nil {
		d.FinishSave(sent, err)
	}
}

// DiscardContent restores the draft for key to its baseline.
func (s *State) DiscardContent(key draft.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content.Discard(key)
}

// ClearContent drops every content draft.
func (s *State) ClearContent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content.Clear()
}

// DirtyContent reports whether any content draft holds unsaved edits.
func (s *State) DirtyContent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.AnyDirty()
}

// TaskInstructions returns the AI revision instructions for tasks.
func (s *State) TaskInstructions() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskInstructions
}

// SetTaskInstructions stores the AI revision instructions for tasks.
func (s *State) SetTaskInstructions(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskInstructions = v
}

// DeliverablesInstructions returns the revision instructions for deliverables.
func (s *State) DeliverablesInstructions() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliverablesInstructions
}

// SetDeliverablesInstructions stores the revision instructions for deliverables.
func (s *State) SetDeliverablesInstructions(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliverablesInstructions = v
}

// Status returns the last status message.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Notify records an informational status message.
func (s *State) Notify(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{Kind: StatusInfo, Message: message, At: s.now()}
}

// Fail records err as the status message.
func (s *State) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{Kind: StatusError, Message: err.Error(), ErrorKind: services.Kind(err), At: s.now()}
}

// Dismiss clears the status message.
func (s *State) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = Status{}
}

func cloneMeetings(in []meeting.Meeting) []meeting.Meeting {
	if in == nil {
		return nil
	}
	out := make([]meeting.Meeting, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
