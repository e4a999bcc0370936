package api

import (
	"context"
	"net/http"

	"meetingassist/internal/meeting"
	"meetingassist/internal/services"
)

// ContentPart is one side of a deliverables-content response.
type ContentPart struct {
	Content string `json:"content"`
	S3Key   string `json:"s3_key"`
}

// Content is the spec sheet and code template for one task and language.
type Content struct {
	Spec     ContentPart `json:"spec"`
	Template ContentPart `json:"template"`
}

type saveContentRequest struct {
	TaskIndex       int              `json:"task_index"`
	Language        meeting.Language `json:"language"`
	SpecContent     string           `json:"spec_content"`
	TemplateContent string           `json:"template_content"`
}

// GetDeliverables fetches the deliverables snapshot for a meeting.
func (c *Client) GetDeliverables(ctx context.Context, clientID, meetingID string) (meeting.Deliverables, error) {
	cid, mid, err := requireMeeting(clientID, meetingID)
	if err != nil {
		return meeting.Deliverables{}, err
	}
	var out meeting.Deliverables
	if err := c.Do(ctx, MeetingsAPI, http.MethodGet, meetingPath(cid, mid, "deliverables"), nil, nil, &out); err != nil {
		return meeting.Deliverables{}, err
	}
	if out.DeliverablesStatus == "" {
		out.DeliverablesStatus = meeting.DeliverablesNone
	}
	return out, nil
}

// GenerateDeliverables queues spec sheet and template generation.
func (c *Client) GenerateDeliverables(ctx context.Context, clientID, meetingID string, lang meeting.Language) error {
	parsed, err := meeting.ParseLanguage(string(lang))
	if err != nil {
		return services.Invalid("language", err.Error())
	}
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "generate-deliverables", generateDeliverablesRequest{Language: parsed})
}

// ReviseDeliverables regenerates every deliverable following instructions.
func (c *Client) ReviseDeliverables(ctx context.Context, clientID, meetingID, instructions string) error {
	ins, err := requireInstructions(instructions)
	if err != nil {
		return err
	}
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "revise-deliverables", instructionsRequest{Instructions: ins})
}

// ApproveDeliverables approves the current deliverables.
func (c *Client) ApproveDeliverables(ctx context.Context, clientID, meetingID string) error {
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "approve-deliverables", struct{}{})
}

// ClearDeliverables resets the deliverables stage to NONE.
func (c *Client) ClearDeliverables(ctx context.Context, clientID, meetingID string) error {
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPost, "clear-deliverables", struct{}{})
}

// GetContent fetches the spec sheet and template text for one task.
func (c *Client) GetContent(ctx context.Context, clientID, meetingID string, taskIndex int, lang meeting.Language) (Content, error) {
	cid, mid, err := requireMeeting(clientID, meetingID)
	if err != nil {
		return Content{}, err
	}
	if err := requireTaskIndex(taskIndex); err != nil {
		return Content{}, err
	}
	parsed, err := meeting.ParseContentLanguage(string(lang))
	if err != nil {
		return Content{}, services.Invalid("language", err.Error())
	}
	var out Content
	path := meetingPath(cid, mid, "deliverables-content")
	if err := c.Do(ctx, MeetingsAPI, http.MethodGet, path, contentQuery(taskIndex, parsed), nil, &out); err != nil {
		return Content{}, err
	}
	return out, nil
}

// SaveContent writes edited spec sheet and template text for one task.
func (c *Client) SaveContent(ctx context.Context, clientID, meetingID string, taskIndex int, lang meeting.Language, spec, template string) error {
	if err := requireTaskIndex(taskIndex); err != nil {
		return err
	}
	parsed, err := meeting.ParseContentLanguage(string(lang))
	if err != nil {
		return services.Invalid("language", err.Error())
	}
	body := saveContentRequest{
		TaskIndex:       taskIndex,
		Language:        parsed,
		SpecContent:     spec,
		TemplateContent: template,
	}
	return c.meetingAction(ctx, clientID, meetingID, http.MethodPut, "deliverables-content", body)
}
