package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
	"meetingassist/internal/workflow"
	"meetingassist/internal/workspace"
)

// actionResult is the --json shape of a workflow gesture.
type actionResult struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	MeetingID string `json:"meeting_id,omitempty"`
}

// runAction clears the previous status message, runs one gesture, and prints
// the status it leaves behind.
func (c *commandContext) runAction(cmd *cobra.Command, fn func(context.Context, *workflow.Manager) error) error {
	return c.withSession(cmd, func(ctx context.Context, s *session) error {
		s.state().Dismiss()
		err := fn(ctx, s.manager)
		return c.report(s.state(), err)
	})
}

func (c *commandContext) report(state *workspace.State, err error) error {
	status := state.Status()
	if c.flags.json {
		sel := state.Selection()
		res := actionResult{OK: err == nil, Message: status.Message, ClientID: sel.ClientID, MeetingID: sel.MeetingID}
		if err != nil {
			res.ErrorKind = services.Kind(err)
			if res.Message == "" {
				res.Message = err.Error()
			}
		}
		if encErr := writeJSON(c.out, res); encErr != nil {
			return encErr
		}
		return err
	}
	if err == nil && status.Message != "" {
		fmt.Fprintln(c.out, status.Message)
	}
	return err
}

// resolveMeeting accepts a display number, a full meeting id, or its short
// suffix.
func resolveMeeting(meetings []meeting.Meeting, arg string) (meeting.Meeting, error) {
	arg = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if arg == "" {
		return meeting.Meeting{}, services.Invalid("meeting", "is required")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		for id, num := range meeting.Numbers(meetings) {
			if num == n {
				m, _ := meeting.Find(meetings, id)
				return m, nil
			}
		}
		return meeting.Meeting{}, services.Invalid("meeting", fmt.Sprintf("no meeting #%d (have %d)", n, len(meetings)))
	}
	if m, ok := meeting.Find(meetings, arg); ok {
		return m, nil
	}
	var matches []meeting.Meeting
	for _, m := range meetings {
		if meeting.ShortID(m.MeetingID) == arg {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return meeting.Meeting{}, services.Invalid("meeting", fmt.Sprintf("unknown meeting %q", arg))
	default:
		return meeting.Meeting{}, services.Invalid("meeting", fmt.Sprintf("%q matches %d meetings; use the full id", arg, len(matches)))
	}
}

func editorCommand() []string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(key)); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vi"}
}

// editText opens the user's editor on initial and returns the saved text.
func editText(ctx context.Context, in io.Reader, out, errOut io.Writer, pattern, initial string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(initial); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	args := editorCommand()
	editor := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	editor.Stdin = in
	editor.Stdout = out
	editor.Stderr = errOut
	if err := editor.Run(); err != nil {
		return "", fmt.Errorf("run editor %s: %w", args[0], err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readInput reads a file, or stdin for "-".
func readInput(in io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", services.Invalid("file", fmt.Sprintf("%s does not exist", path))
	}
	return string(data), err
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
