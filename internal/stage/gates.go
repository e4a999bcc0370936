package stage

import (
	"errors"
	"fmt"
	"strings"

	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

// Name identifies a pipeline stage.
type Name string

const (
	Transcript   Name = "transcript"
	Tasks        Name = "tasks"
	Deliverables Name = "deliverables"
)

// Action is a user-triggered operation on a stage.
type Action string

const (
	GenerateTasks        Action = "generate-tasks"
	ReviseTasks          Action = "revise-tasks"
	SaveTasks            Action = "save-tasks"
	ApproveTasks         Action = "approve-tasks"
	ClearTasks           Action = "clear-tasks"
	GenerateDeliverables Action = "generate-deliverables"
	ReviseDeliverables   Action = "revise-deliverables"
	SaveContent          Action = "save-deliverables-content"
	ApproveDeliverables  Action = "approve-deliverables"
	ClearDeliverables    Action = "clear-deliverables"
)

// Actions lists every action in display order.
var Actions = []Action{
	GenerateTasks,
	ReviseTasks,
	SaveTasks,
	ApproveTasks,
	ClearTasks,
	GenerateDeliverables,
	ReviseDeliverables,
	SaveContent,
	ApproveDeliverables,
	ClearDeliverables,
}

// Stage returns the stage an action operates on.
func (a Action) Stage() Name {
	switch a {
	case GenerateDeliverables, ReviseDeliverables, SaveContent, ApproveDeliverables, ClearDeliverables:
		return Deliverables
	default:
		return Tasks
	}
}

// NeedsInstructions reports whether the action requires free-text instructions.
func (a Action) NeedsInstructions() bool {
	return a == ReviseTasks || a == ReviseDeliverables
}

// ErrAlreadyApproved is returned by Check for approve actions on a resource that
// is already approved. Callers treat it as a successful no-op and must not send
// the request again.
var ErrAlreadyApproved = errors.New("already approved")

// GateError reports an action whose precondition is not met.
type GateError struct {
	Action Action
	Reason string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s not allowed: %s", e.Action, e.Reason)
}

func (e *GateError) Unwrap() error { return services.ErrGateClosed }

// Snapshot is the subset of meeting state the gates depend on.
type Snapshot struct {
	Transcript      meeting.TranscriptStatus
	Tasks           meeting.TasksStatus
	Deliverables    meeting.DeliverablesStatus
	HasServerTasks  bool
	HasSpecSheets   bool
	HasDeliverables bool
}

// FromMeeting builds a Snapshot from a meeting record.
func FromMeeting(m meeting.Meeting) Snapshot {
	return Snapshot{
		Transcript:      m.TranscriptStatus,
		Tasks:           m.TasksStatus,
		Deliverables:    m.DeliverablesStatus,
		HasServerTasks:  m.HasServerTasks(),
		HasSpecSheets:   m.HasSpecSheets(),
		HasDeliverables: m.HasSpecSheets() || len(m.CodeTemplates) > 0 || m.DeliverablesStatus.HasContent(),
	}
}

// Check returns nil when action is legal for snap. instructions is only
// consulted for revise actions.
func Check(action Action, snap Snapshot, instructions string) error {
	deny := func(reason string) error {
		return &GateError{Action: action, Reason: reason}
	}
	switch action {
	case GenerateTasks:
		if snap.HasServerTasks {
			return deny("tasks already exist; clear them before generating again")
		}
		if snap.Transcript != meeting.TranscriptReady {
			return deny(fmt.Sprintf("transcript is %s, not READY", display(string(snap.Transcript))))
		}
	case ClearTasks:
		if !snap.HasServerTasks {
			return deny("there are no tasks to clear")
		}
	case ReviseTasks:
		if !snap.Tasks.Exists() {
			return deny("generate tasks before revising them")
		}
		if strings.TrimSpace(instructions) == "" {
			return deny("instructions are required")
		}
	case SaveTasks:
		if snap.Tasks == meeting.TasksApproved {
			return deny("approved tasks are locked; clear them to edit")
		}
		if !snap.Tasks.HasContent() {
			return deny("generate tasks before editing them")
		}
	case ApproveTasks:
		if snap.Tasks == meeting.TasksApproved {
			return ErrAlreadyApproved
		}
		if !snap.Tasks.HasContent() {
			return deny("generate, revise, or edit tasks first")
		}
	case GenerateDeliverables:
		if snap.Tasks != meeting.TasksApproved {
			return deny("tasks must be APPROVED")
		}
		if snap.HasSpecSheets {
			return deny("spec sheets already exist; clear them before generating again")
		}
	case ClearDeliverables:
		if !snap.HasSpecSheets {
			return deny("there are no spec sheets to clear")
		}
	case ReviseDeliverables:
		if snap.Tasks != meeting.TasksApproved {
			return deny("tasks must be APPROVED")
		}
		if !snap.HasDeliverables {
			return deny("generate deliverables before revising them")
		}
		if strings.TrimSpace(instructions) == "" {
			return deny("instructions are required")
		}
	case SaveContent:
		if !snap.HasSpecSheets {
			return deny("there are no spec sheets to edit")
		}
	case ApproveDeliverables:
		if snap.Deliverables == meeting.DeliverablesApproved {
			return ErrAlreadyApproved
		}
		if !snap.HasSpecSheets {
			return deny("generate spec sheets first")
		}
	default:
		return deny("unknown action")
	}
	return nil
}

// Allowed is the boolean form of Check. Revise actions are checked as if
// instructions were supplied, so the result describes whether the action would
// be enabled once the user types them. Already-approved resources report false.
func Allowed(action Action, snap Snapshot) bool {
	instructions := ""
	if action.NeedsInstructions() {
		instructions = "-"
	}
	return Check(action, snap, instructions) == nil
}

func display(status string) string {
	if status == "" {
		return "UNKNOWN"
	}
	return status
}
