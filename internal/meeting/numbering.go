package meeting

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// meetingIDPattern matches backend ids of the form YYYYMMDDTHHMMSSZ-xxxxxxxx.
var meetingIDPattern = regexp.MustCompile(`^(\d{8}T\d{6}Z)(?:-(.*))?$`)

const meetingStampLayout = "20060102T150405Z"

// ParseMeetingID extracts the UTC timestamp and suffix embedded in a meeting id.
// ok is false when the id does not carry a parsable timestamp.
func ParseMeetingID(id string) (ts time.Time, suffix string, ok bool) {
	match := meetingIDPattern.FindStringSubmatch(strings.TrimSpace(id))
	if match == nil {
		return time.Time{}, "", false
	}
	parsed, err := time.Parse(meetingStampLayout, match[1])
	if err != nil {
		return time.Time{}, match[2], false
	}
	return parsed.UTC(), match[2], true
}

// SortTime is the instant used for ordering a meeting: created_at, then the
// timestamp embedded in the id, then updated_at. Zero when none is usable.
func SortTime(m Meeting) time.Time {
	if ts, ok := m.CreatedTime(); ok && !ts.IsZero() {
		return ts
	}
	if ts, _, ok := ParseMeetingID(m.MeetingID); ok {
		return ts
	}
	if ts, ok := m.UpdatedTime(); ok && !ts.IsZero() {
		return ts
	}
	return time.Time{}
}

// Numbers assigns 1-based display numbers, oldest first. Numbers are derived on
// every call and never stored. Ties keep the input order.
func Numbers(meetings []Meeting) map[string]int {
	ordered := SortOldestFirst(meetings)
	numbers := make(map[string]int, len(ordered))
	for idx, m := range ordered {
		if m.MeetingID == "" {
			continue
		}
		numbers[m.MeetingID] = idx + 1
	}
	return numbers
}

// SortOldestFirst returns a copy of meetings ordered by SortTime ascending.
func SortOldestFirst(meetings []Meeting) []Meeting {
	out := append([]Meeting(nil), meetings...)
	sort.SliceStable(out, func(i, j int) bool {
		return SortTime(out[i]).Before(SortTime(out[j]))
	})
	return out
}

// SortNewestFirst returns a copy of meetings ordered by SortTime descending.
func SortNewestFirst(meetings []Meeting) []Meeting {
	out := append([]Meeting(nil), meetings...)
	sort.SliceStable(out, func(i, j int) bool {
		return SortTime(out[j]).Before(SortTime(out[i]))
	})
	return out
}

// DateLabel renders the id timestamp as "Jan 2, 2026 20:07 UTC", or the raw id
// when it carries no timestamp.
func DateLabel(id string) string {
	ts, _, ok := ParseMeetingID(id)
	if !ok {
		return id
	}
	return ts.Format("Jan 2, 2006 15:04 UTC")
}

// ShortID returns the random suffix of a meeting id, or the id itself when
// there is no suffix.
func ShortID(id string) string {
	if _, suffix, ok := ParseMeetingID(id); ok && suffix != "" {
		return suffix
	}
	return id
}

// Label formats a meeting for lists: date, optional meeting label, and number.
func Label(m Meeting, number int) string {
	parts := []string{DateLabel(m.MeetingID)}
	if label := strings.TrimSpace(m.MeetingLabel); label != "" {
		parts = append(parts, label)
	}
	if number > 0 {
		parts = append(parts, fmt.Sprintf("meeting #%d", number))
	}
	return strings.Join(parts, " • ")
}
