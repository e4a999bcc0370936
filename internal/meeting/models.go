package meeting

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Client is a customer whose meetings are recorded. The backend derives the
// slug ClientID from the display name at creation time.
type Client struct {
	ClientID    string `json:"client_id"`
	DisplayName string `json:"display_name"`
}

// Task is one unit of work extracted from a meeting transcript. Position in
// the list is significant: task N here is task_index N for deliverables.
type Task struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ArtifactRef points at externally stored deliverable content for one task.
type ArtifactRef struct {
	TaskIndex TaskIndex `json:"task_index"`
	Language  string    `json:"language,omitempty"`
	S3Key     string    `json:"s3_key"`
	TaskTitle string    `json:"task_title,omitempty"`
}

// Meeting mirrors the backend meeting record, including the status of every
// pipeline stage.
type Meeting struct {
	MeetingID                    string             `json:"meeting_id"`
	ClientID                     string             `json:"client_id"`
	MeetingLabel                 string             `json:"meeting_label,omitempty"`
	TranscriptStatus             TranscriptStatus   `json:"transcript_status"`
	TranscriptPreview            string             `json:"transcript_preview,omitempty"`
	TasksStatus                  TasksStatus        `json:"tasks_status"`
	Tasks                        []Task             `json:"tasks"`
	ResearchQuestions            []string           `json:"research_questions,omitempty"`
	LastInstructions             string             `json:"last_instructions,omitempty"`
	DeliverablesStatus           DeliverablesStatus `json:"deliverables_status"`
	DeliverablesLanguage         string             `json:"deliverables_language,omitempty"`
	DeliverablesRevision         int                `json:"deliverables_revision,omitempty"`
	SpecSheets                   []ArtifactRef      `json:"spec_sheets,omitempty"`
	CodeTemplates                []ArtifactRef      `json:"code_templates,omitempty"`
	LastDeliverablesInstructions string             `json:"last_deliverables_instructions,omitempty"`
	CreatedAt                    string             `json:"created_at,omitempty"`
	UpdatedAt                    string             `json:"updated_at,omitempty"`
}

// Deliverables is the snapshot returned by the deliverables endpoint. It is
// merged into the owning meeting with ApplyDeliverables.
type Deliverables struct {
	DeliverablesStatus           DeliverablesStatus `json:"deliverables_status"`
	DeliverablesRevision         int                `json:"deliverables_revision"`
	DeliverablesLanguage         string             `json:"deliverables_language"`
	SpecSheets                   []ArtifactRef      `json:"spec_sheets"`
	CodeTemplates                []ArtifactRef      `json:"code_templates"`
	LastDeliverablesInstructions string             `json:"last_deliverables_instructions"`
}

// Normalize fills zero-valued statuses with their closed defaults. A meeting
// decoded with a missing status field keeps the zero string until this runs.
func (m *Meeting) Normalize() {
	if m.TranscriptStatus == "" {
		m.TranscriptStatus = TranscriptUnknown
	}
	if m.TasksStatus == "" {
		m.TasksStatus = TasksNone
	}
	if m.DeliverablesStatus == "" {
		m.DeliverablesStatus = DeliverablesNone
	}
	if m.Tasks == nil {
		m.Tasks = []Task{}
	}
	m.DeliverablesLanguage = strings.ToUpper(strings.TrimSpace(m.DeliverablesLanguage))
}

// HasServerTasks reports whether the backend holds a non-empty task list.
func (m Meeting) HasServerTasks() bool {
	return len(m.Tasks) > 0
}

// HasSpecSheets reports whether generated spec sheets exist.
func (m Meeting) HasSpecSheets() bool {
	return len(m.SpecSheets) > 0
}

// ApplyDeliverables merges a deliverables snapshot into the meeting.
func (m *Meeting) ApplyDeliverables(d Deliverables) {
	status := d.DeliverablesStatus
	if status == "" {
		status = DeliverablesNone
	}
	m.DeliverablesStatus = status
	m.DeliverablesRevision = d.DeliverablesRevision
	m.DeliverablesLanguage = strings.ToUpper(strings.TrimSpace(d.DeliverablesLanguage))
	m.SpecSheets = append([]ArtifactRef(nil), d.SpecSheets...)
	m.CodeTemplates = append([]ArtifactRef(nil), d.CodeTemplates...)
	m.LastDeliverablesInstructions = d.LastDeliverablesInstructions
}

// Clone returns a deep copy so callers can mutate without aliasing shared state.
func (m Meeting) Clone() Meeting {
	out := m
	out.Tasks = append([]Task(nil), m.Tasks...)
	out.ResearchQuestions = append([]string(nil), m.ResearchQuestions...)
	out.SpecSheets = append([]ArtifactRef(nil), m.SpecSheets...)
	out.CodeTemplates = append([]ArtifactRef(nil), m.CodeTemplates...)
	return out
}

// CreatedTime parses CreatedAt.
func (m Meeting) CreatedTime() (time.Time, bool) {
	return parseTimestamp(m.CreatedAt)
}

// UpdatedTime parses UpdatedAt.
func (m Meeting) UpdatedTime() (time.Time, bool) {
	return parseTimestamp(m.UpdatedAt)
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// TaskIndex is the 1-based position of a task. The backend has been observed to
// send it both as a number and as a numeric string.
type TaskIndex int

func (t *TaskIndex) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = TaskIndex(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*t = TaskIndex(n)
	return nil
}

// Find returns the meeting with the given id.
func Find(meetings []Meeting, id string) (Meeting, bool) {
	for _, m := range meetings {
		if m.MeetingID == id {
			return m, true
		}
	}
	return Meeting{}, false
}

// FindClient returns the client with the given id.
func FindClient(clients []Client, id string) (Client, bool) {
	for _, c := range clients {
		if c.ClientID == id {
			return c, true
		}
	}
	return Client{}, false
}
