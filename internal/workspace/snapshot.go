package workspace

import (
	"time"

	"meetingassist/internal/draft"
	"meetingassist/internal/meeting"
)

// TaskRecord is the persisted form of the task draft.
type TaskRecord struct {
	Baseline draft.TaskDoc
	Value    draft.TaskDoc
	Dirty    bool
	LoadedAt time.Time
}

// ContentRecord is the persisted form of one content draft.
type ContentRecord struct {
	Key      draft.Key
	Baseline draft.Content
	Value    draft.Content
	Dirty    bool
	LoadedAt time.Time
}

// Snapshot is everything that survives between CLI invocations.
type Snapshot struct {
	ClientID                 string
	MeetingID                string
	TaskInstructions         string
	DeliverablesInstructions string
	Clients                  []meeting.Client
	Meetings                 []meeting.Meeting
	Tasks                    *TaskRecord
	Content                  []ContentRecord
	Status                   Status
}

// Export captures the state for persistence. Drafts that were never loaded are
// skipped.
func (s *State) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ClientID:                 s.selection.ClientID,
		MeetingID:                s.selection.MeetingID,
		TaskInstructions:         s.taskInstructions,
		DeliverablesInstructions: s.deliverablesInstructions,
		Clients:                  append([]meeting.Client(nil), s.clients...),
		Meetings:                 cloneMeetings(s.meetings),
		Status:                   s.status,
	}
	if s.tasks.Loaded() {
		snap.Tasks = &TaskRecord{
			Baseline: s.tasks.Baseline(),
			Value:    s.tasks.Value(),
			Dirty:    s.tasks.Dirty(),
			LoadedAt: s.tasks.LastLoadedAt(),
		}
	}
	for _, key := range s.content.Keys() {
		d := s.content.Get(key)
		if !d.Loaded() {
			continue
		}
		snap.Content = append(snap.Content, ContentRecord{
			Key:      key,
			Baseline: d.Baseline(),
			Value:    d.Value(),
			Dirty:    d.Dirty(),
			LoadedAt: d.LastLoadedAt(),
		})
	}
	return snap
}

// Import replaces the state with snap. The selection version is bumped so any
// in-flight result from before the import is dropped.
func (s *State) Import(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append([]meeting.Client(nil), snap.Clients...)
	s.meetings = cloneMeetings(snap.Meetings)
	s.selection = Selection{ClientID: snap.ClientID, MeetingID: snap.MeetingID, Version: s.selection.Version + 1}
	s.taskInstructions = snap.TaskInstructions
	s.deliverablesInstructions = snap.DeliverablesInstructions
	s.status = snap.Status

	s.tasks = draft.New(draft.CloneTaskDoc)
	if snap.Tasks != nil {
		s.tasks.Restore(snap.Tasks.Baseline, snap.Tasks.Value, snap.Tasks.Dirty, snap.Tasks.LoadedAt)
	} else if m, ok := meeting.Find(s.meetings, snap.MeetingID); ok {
		s.tasks.Load(draft.TaskDocFromMeeting(m))
	}
	s.content = draft.NewSet()
	for _, rec := range snap.Content {
		s.content.Ensure(rec.Key).Restore(rec.Baseline, rec.Value, rec.Dirty, rec.LoadedAt)
	}
}
