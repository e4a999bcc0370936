package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

type clientsResponse struct {
	Clients []meeting.Client `json:"clients"`
}

type clientResponse struct {
	Client meeting.Client `json:"client"`
}

type meetingsResponse struct {
	Meetings []meeting.Meeting `json:"meetings"`
}

type instructionsRequest struct {
	Instructions string `json:"instructions"`
}

type saveTasksRequest struct {
	Tasks             []meeting.Task `json:"tasks"`
	ResearchQuestions []string       `json:"research_questions"`
}

type generateDeliverablesRequest struct {
	Language meeting.Language `json:"language"`
}

// ListClients fetches every client.
func (c *Client) ListClients(ctx context.Context) ([]meeting.Client, error) {
	var resp clientsResponse
	if err := c.Do(ctx, ClientsAPI, http.MethodGet, clientsPath(), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Clients == nil {
		return []meeting.Client{}, nil
	}
	return resp.Clients, nil
}

// CreateClient registers a client. The backend derives the slug id.
func (c *Client) CreateClient(ctx context.Context, displayName string) (meeting.Client, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return meeting.Client{}, services.Invalid("display_name", "is required")
	}
	var resp clientResponse
	body := map[string]string{"display_name": name}
	if err := c.Do(ctx, ClientsAPI, http.MethodPost, clientsPath(), nil, body, &resp); err != nil {
		return meeting.Client{}, err
	}
	return resp.Client, nil
}

// ListMeetings fetches a client's meetings with statuses normalized.
func (c *Client) ListMeetings(ctx context.Context, clientID string) ([]meeting.Meeting, error) {
	cid, err := requireID("client_id", clientID)
	if err != nil {
		return nil, err
	}
	var resp meetingsResponse
	if err := c.Do(ctx, MeetingsAPI, http.MethodGet, meetingsPath(cid), nil, nil, &resp); err != nil {
		return nil, err
	}
	meetings := make([]meeting.Meeting, 0, len(resp.Meetings))
	for _, m := range resp.Meetings {
		m.Normalize()
		if m.ClientID == "" {
			m.ClientID = cid
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

// GenerateTasks starts task extraction for a meeting.
func (c *Client) GenerateTasks(ctx context.Context, clientID, meetingID string) error {
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "generate-tasks", struct{}{})
}

// ReviseTasks asks the backend to rewrite the task list following instructions.
func (c *Client) ReviseTasks(ctx context.Context, clientID, meetingID, instructions string) error {
	ins, err := requireInstructions(instructions)
	if err != nil {
		return err
	}
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "revise-tasks", instructionsRequest{Instructions: ins})
}

// SaveTasks replaces the task list with manual edits.
func (c *Client) SaveTasks(ctx context.Context, clientID, meetingID string, tasks []meeting.Task, questions []string) error {
	if tasks == nil {
		tasks = []meeting.Task{}
	}
	if questions == nil {
		questions = []string{}
	}
	body := saveTasksRequest{Tasks: tasks, ResearchQuestions: questions}
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPut, "tasks", body)
}

// ApproveTasks approves the current task list.
func (c *Client) ApproveTasks(ctx context.Context, clientID, meetingID string) error {
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "approve-tasks", struct{}{})
}

// ClearTasks resets the task stage to NONE.
func (c *Client) ClearTasks(ctx context.Context, clientID, meetingID string) error {
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "clear-tasks", struct{}{})
}

func (c *Client) meetingAction(ctx context.Context, clientID, meetingID, method, action string, body any) error {
	cid, mid, err := requireMeeting(clientID, meetingID)
	if err != nil {
		return err
	}
	return c.Do(ctx, MeetingsAPI, method, meetingPath(cid, mid, action), nil, body, nil)
}

func requireID(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", services.Invalid(field, "is required")
	}
	return trimmed, nil
}

func requireMeeting(clientID, meetingID string) (string, string, error) {
	cid, err := requireID("client_id", clientID)
	if err != nil {
		return "", "", err
	}
	mid, err := requireID("meeting_id", meetingID)
	if err != nil {
		return "", "", err
	}
	return cid, mid, nil
}

func requireInstructions(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", services.Invalid("instructions", "is required")
	}
	return trimmed, nil
}

func requireTaskIndex(taskIndex int) error {
	if taskIndex < 1 {
		return services.Invalid("task_index", "must be >= 1")
	}
	return nil
}

func contentQuery(taskIndex int, lang meeting.Language) url.Values {
	q := url.Values{}
	q.Set("task_index", strconv.Itoa(taskIndex))
	q.Set("language", string(lang))
	return q
}
