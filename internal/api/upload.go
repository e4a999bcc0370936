package api

import (
	"context"
	"net/http"
	"strings"

	"meetingassist/internal/services"
)

// UploadTarget is a presigned destination for recorded media.
type UploadTarget struct {
	UploadURL string            `json:"upload_url"`
	Key       string            `json:"key"`
	Method    string            `json:"method,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// RequestUpload asks the backend for a presigned upload URL.
func (c *Client) RequestUpload(ctx context.Context, clientID, contentType string) (UploadTarget, error) {
	cid, err := requireID("client_id", clientID)
	if err != nil {
		return UploadTarget{}, err
	}
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return UploadTarget{}, services.Invalid("content_type", "is required")
	}
	var out UploadTarget
	body := map[string]string{"client_id": cid, "content_type": ct}
	if err := c.Do(ctx, MeetingsAPI, http.MethodPost, "/upload-url", nil, body, &out); err != nil {
		return UploadTarget{}, err
	}
	if strings.TrimSpace(out.UploadURL) == "" {
		return UploadTarget{}, services.Wrap(services.ErrServer, "api", "POST /upload-url", "response missing upload_url", nil)
	}
	if out.Method == "" {
		out.Method = http.MethodPut
	}
	return out, nil
}
