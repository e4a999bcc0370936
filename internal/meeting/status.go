package meeting

import (
	"encoding/json"
	"strings"
)

// TranscriptStatus reports whether the recording has been transcribed.
type TranscriptStatus string

const (
	TranscriptUnknown    TranscriptStatus = "UNKNOWN"
	TranscriptProcessing TranscriptStatus = "PROCESSING"
	TranscriptReady      TranscriptStatus = "READY"
	TranscriptFailed     TranscriptStatus = "FAILED"
)

// TasksStatus is the lifecycle of the AI-generated task list.
type TasksStatus string

const (
	TasksNone      TasksStatus = "NONE"
	TasksGenerated TasksStatus = "GENERATED"
	TasksRevised   TasksStatus = "REVISED"
	TasksEdited    TasksStatus = "EDITED"
	TasksApproved  TasksStatus = "APPROVED"
)

// DeliverablesStatus is the lifecycle of spec sheets and code templates. Unlike
// tasks, deliverables are produced by a background worker, hence the queued and
// running states.
type DeliverablesStatus string

const (
	DeliverablesNone      DeliverablesStatus = "NONE"
	DeliverablesQueued    DeliverablesStatus = "QUEUED"
	DeliverablesRunning   DeliverablesStatus = "RUNNING"
	DeliverablesGenerated DeliverablesStatus = "GENERATED"
	DeliverablesRevised   DeliverablesStatus = "REVISED"
	DeliverablesEdited    DeliverablesStatus = "EDITED"
	DeliverablesApproved  DeliverablesStatus = "APPROVED"
	DeliverablesFailed    DeliverablesStatus = "FAILED"
	DeliverablesError     DeliverablesStatus = "ERROR"
)

var transcriptStatuses = []TranscriptStatus{
	TranscriptUnknown,
	TranscriptProcessing,
	TranscriptReady,
	TranscriptFailed,
}

var tasksStatuses = []TasksStatus{
	TasksNone,
	TasksGenerated,
	TasksRevised,
	TasksEdited,
	TasksApproved,
}

var deliverablesStatuses = []DeliverablesStatus{
	DeliverablesNone,
	DeliverablesQueued,
	DeliverablesRunning,
	DeliverablesGenerated,
	DeliverablesRevised,
	DeliverablesEdited,
	DeliverablesApproved,
	DeliverablesFailed,
	DeliverablesError,
}

func normalizeStatus(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ParseTranscriptStatus converts a string into a known TranscriptStatus.
func ParseTranscriptStatus(value string) (TranscriptStatus, bool) {
	normalized := TranscriptStatus(normalizeStatus(value))
	for _, s := range transcriptStatuses {
		if s == normalized {
			return s, true
		}
	}
	return TranscriptUnknown, false
}

// ParseTasksStatus converts a string into a known TasksStatus.
func ParseTasksStatus(value string) (TasksStatus, bool) {
	normalized := TasksStatus(normalizeStatus(value))
	for _, s := range tasksStatuses {
		if s == normalized {
			return s, true
		}
	}
	return TasksNone, false
}

// ParseDeliverablesStatus converts a string into a known DeliverablesStatus.
func ParseDeliverablesStatus(value string) (DeliverablesStatus, bool) {
	normalized := DeliverablesStatus(normalizeStatus(value))
	for _, s := range deliverablesStatuses {
		if s == normalized {
			return s, true
		}
	}
	return DeliverablesNone, false
}

// HasContent reports whether the task list holds generated or edited content.
func (s TasksStatus) HasContent() bool {
	switch s {
	case TasksGenerated, TasksRevised, TasksEdited:
		return true
	}
	return false
}

// Exists reports whether any task content exists server-side, approved or not.
func (s TasksStatus) Exists() bool {
	return s.HasContent() || s == TasksApproved
}

// InProgress reports whether the background worker still owns the deliverables.
func (s DeliverablesStatus) InProgress() bool {
	return s == DeliverablesQueued || s == DeliverablesRunning
}

// HasContent reports whether generated deliverables are available for review.
func (s DeliverablesStatus) HasContent() bool {
	switch s {
	case DeliverablesGenerated, DeliverablesRevised, DeliverablesEdited, DeliverablesApproved:
		return true
	}
	return false
}

// Failed reports whether the last generation attempt ended in failure.
func (s DeliverablesStatus) Failed() bool {
	return s == DeliverablesFailed || s == DeliverablesError
}

func (s *TranscriptStatus) UnmarshalJSON(data []byte) error {
	raw := decodeStatusString(data)
	*s, _ = ParseTranscriptStatus(raw)
	return nil
}

func (s *TasksStatus) UnmarshalJSON(data []byte) error {
	raw := decodeStatusString(data)
	*s, _ = ParseTasksStatus(raw)
	return nil
}

func (s *DeliverablesStatus) UnmarshalJSON(data []byte) error {
	raw := decodeStatusString(data)
	*s, _ = ParseDeliverablesStatus(raw)
	return nil
}

// decodeStatusString accepts a JSON string or null. Anything else is treated as
// an unknown status rather than a decode failure so one odd field cannot hide a
// whole meeting list.
func decodeStatusString(data []byte) string {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return ""
	}
	return raw
}
