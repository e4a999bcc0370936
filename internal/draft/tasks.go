package draft

import (
	"strings"

	"meetingassist/internal/meeting"
)

// TaskDoc is the editable form of a meeting's task list.
type TaskDoc struct {
	Tasks             []meeting.Task `json:"tasks" yaml:"tasks"`
	ResearchQuestions []string       `json:"research_questions" yaml:"research_questions"`
}

// CloneTaskDoc deep-copies a TaskDoc.
func CloneTaskDoc(doc TaskDoc) TaskDoc {
	return TaskDoc{
		Tasks:             append([]meeting.Task{}, doc.Tasks...),
		ResearchQuestions: append([]string{}, doc.ResearchQuestions...),
	}
}

// TaskDocFromMeeting extracts the task list of m.
func TaskDocFromMeeting(m meeting.Meeting) TaskDoc {
	return CloneTaskDoc(TaskDoc{Tasks: m.Tasks, ResearchQuestions: m.ResearchQuestions})
}

// NewTaskDraft returns a task-list draft loaded from m.
func NewTaskDraft(m meeting.Meeting) *Draft[TaskDoc] {
	d := New(CloneTaskDoc)
	d.Load(TaskDocFromMeeting(m))
	return d
}

// Clean trims every field and drops tasks whose title and description are both
// empty. It is applied before sending a manual save.
func Clean(doc TaskDoc) TaskDoc {
	out := TaskDoc{Tasks: []meeting.Task{}, ResearchQuestions: []string{}}
	for _, t := range doc.Tasks {
		t.Title = strings.TrimSpace(t.Title)
		t.Description = strings.TrimSpace(t.Description)
		if t.Title == "" && t.Description == "" {
			continue
		}
		out.Tasks = append(out.Tasks, t)
	}
	for _, q := range doc.ResearchQuestions {
		if q = strings.TrimSpace(q); q != "" {
			out.ResearchQuestions = append(out.ResearchQuestions, q)
		}
	}
	return out
}

// SetTask returns a patch replacing the task at 1-based index. Out-of-range
// indexes leave the document unchanged.
func SetTask(index int, task meeting.Task) func(TaskDoc) TaskDoc {
	return func(doc TaskDoc) TaskDoc {
		if index >= 1 && index <= len(doc.Tasks) {
			doc.Tasks[index-1] = task
		}
		return doc
	}
}

// AddTask returns a patch appending task.
func AddTask(task meeting.Task) func(TaskDoc) TaskDoc {
	return func(doc TaskDoc) TaskDoc {
		doc.Tasks = append(doc.Tasks, task)
		return doc
	}
}

// RemoveTask returns a patch deleting the task at 1-based index.
func RemoveTask(index int) func(TaskDoc) TaskDoc {
	return func(doc TaskDoc) TaskDoc {
		if index >= 1 && index <= len(doc.Tasks) {
			doc.Tasks = append(doc.Tasks[:index-1], doc.Tasks[index:]...)
		}
		return doc
	}
}

// MoveTask returns a patch moving the task at from to position to, both 1-based.
func MoveTask(from, to int) func(TaskDoc) TaskDoc {
	return func(doc TaskDoc) TaskDoc {
		n := len(doc.Tasks)
		if from < 1 || from > n || to < 1 || to > n || from == to {
			return doc
		}
		task := doc.Tasks[from-1]
		doc.Tasks = append(doc.Tasks[:from-1], doc.Tasks[from:]...)
		doc.Tasks = append(doc.Tasks[:to-1], append([]meeting.Task{task}, doc.Tasks[to-1:]...)...)
		return doc
	}
}

// Replace returns a patch substituting the whole document.
func Replace(next TaskDoc) func(TaskDoc) TaskDoc {
	return func(TaskDoc) TaskDoc {
		return CloneTaskDoc(next)
	}
}
