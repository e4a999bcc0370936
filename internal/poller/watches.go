package poller

import (
	"fmt"
	"slices"

	"meetingassist/internal/meeting"
	"meetingassist/internal/stage"
)

// TasksWatch observes tasks_status until any content state is reached.
func TasksWatch(meetingID string) Watch {
	return Watch{
		MeetingID: meetingID,
		Field:     "tasks_status",
		Value:     func(m meeting.Meeting) string { return string(m.TasksStatus) },
		Success:   stage.TasksTerminal,
	}
}

// DeliverablesWatch observes deliverables_status until generation settles.
func DeliverablesWatch(meetingID string) Watch {
	return Watch{
		MeetingID: meetingID,
		Field:     "deliverables_status",
		Value:     func(m meeting.Meeting) string { return string(m.DeliverablesStatus) },
		Success:   stage.DeliverablesTerminal,
		Failure:   stage.DeliverablesFailure,
	}
}

// DeliverablesRevisionWatch observes deliverables_status after a revise
// request. A success status only counts once deliverables_revision has moved
// past afterRevision, so the pre-revise status does not end the poll early.
func DeliverablesRevisionWatch(meetingID string, afterRevision int) Watch {
	w := DeliverablesWatch(meetingID)
	w.Value = func(m meeting.Meeting) string {
		status := string(m.DeliverablesStatus)
		if m.DeliverablesRevision <= afterRevision && slices.Contains(w.Success, status) {
			return fmt.Sprintf("%s (revision %d)", status, m.DeliverablesRevision)
		}
		return status
	}
	return w
}
