package stage

import (
	"errors"

	"meetingassist/internal/meeting"
)

// ActionState summarizes whether an action is currently enabled.
type ActionState struct {
	Action  Action `json:"action"`
	Enabled bool   `json:"enabled"`
	Detail  string `json:"detail,omitempty"`
}

// Enabled constructs an enabled ActionState.
func Enabled(action Action) ActionState {
	return ActionState{Action: action, Enabled: true}
}

// Disabled constructs a disabled ActionState with the unmet precondition.
func Disabled(action Action, detail string) ActionState {
	return ActionState{Action: action, Enabled: false, Detail: detail}
}

// Available reports the state of every action for snap.
func Available(snap Snapshot) []ActionState {
	states := make([]ActionState, 0, len(Actions))
	for _, action := range Actions {
		instructions := ""
		if action.NeedsInstructions() {
			instructions = "-"
		}
		err := Check(action, snap, instructions)
		var gate *GateError
		switch {
		case err == nil:
			states = append(states, Enabled(action))
		case errors.Is(err, ErrAlreadyApproved):
			states = append(states, Disabled(action, "already approved"))
		case errors.As(err, &gate):
			states = append(states, Disabled(action, gate.Reason))
		default:
			states = append(states, Disabled(action, err.Error()))
		}
	}
	return states
}

// Next returns the snapshot the backend is expected to report after action
// succeeds. Deliverables generation is asynchronous, so its immediate successor
// is QUEUED rather than GENERATED.
func Next(action Action, snap Snapshot) Snapshot {
	out := snap
	switch action {
	case GenerateTasks:
		out.Tasks = meeting.TasksGenerated
		out.HasServerTasks = true
	case ReviseTasks:
		out.Tasks = meeting.TasksRevised
	case SaveTasks:
		out.Tasks = meeting.TasksEdited
	case ApproveTasks:
		out.Tasks = meeting.TasksApproved
	case ClearTasks:
		out.Tasks = meeting.TasksNone
		out.HasServerTasks = false
	case GenerateDeliverables:
		out.Deliverables = meeting.DeliverablesQueued
	case ReviseDeliverables:
		out.Deliverables = meeting.DeliverablesRevised
	case SaveContent:
		out.Deliverables = meeting.DeliverablesEdited
	case ApproveDeliverables:
		out.Deliverables = meeting.DeliverablesApproved
	case ClearDeliverables:
		out.Deliverables = meeting.DeliverablesNone
		out.HasSpecSheets = false
		out.HasDeliverables = false
	}
	return out
}

// TasksTerminal lists the tasks statuses that end a generation poll
// successfully.
var TasksTerminal = []string{
	string(meeting.TasksGenerated),
	string(meeting.TasksRevised),
	string(meeting.TasksEdited),
	string(meeting.TasksApproved),
}

// DeliverablesTerminal lists the deliverables statuses that end a generation
// poll successfully.
var DeliverablesTerminal = []string{
	string(meeting.DeliverablesGenerated),
	string(meeting.DeliverablesRevised),
	string(meeting.DeliverablesEdited),
	string(meeting.DeliverablesApproved),
}

// DeliverablesFailure lists the deliverables statuses that end a generation
// poll with a failure.
var DeliverablesFailure = []string{
	string(meeting.DeliverablesFailed),
	string(meeting.DeliverablesError),
}
