package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"meetingassist/internal/services"
)

// UnavailableHint replaces the raw infrastructure message for transient 503s.
const UnavailableHint = "The backend is busy or still processing (Service Unavailable). Wait a few seconds and try again."

const maxRawMessage = 500

// RequestError reports a non-2xx response from the backend.
type RequestError struct {
	Method      string
	Path        string
	HTTPStatus  int
	Message     string
	Unavailable bool
}

func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap classifies the error for errors.Is.
func (e *RequestError) Unwrap() error {
	if e.Unavailable {
		return services.ErrUnavailable
	}
	return services.ErrServer
}

type errorBody struct {
	Error            any    `json:"error"`
	Message          any    `json:"message"`
	TranscriptStatus string `json:"transcript_status"`
}

// NewRequestError resolves the user-facing message for a failed response.
// Callers outside the gateway use it for presigned transfers.
func NewRequestError(method, path string, status int, body []byte) *RequestError {
	reqErr := &RequestError{Method: method, Path: path, HTTPStatus: status}

	raw := strings.TrimSpace(string(body))
	var parsed errorBody
	isJSON := raw != "" && json.Unmarshal(body, &parsed) == nil && strings.HasPrefix(raw, "{")

	var message string
	if isJSON {
		message = firstText(parsed.Error, parsed.Message)
	}
	if message == "" && raw != "" && raw != "{}" {
		message = truncateRunes(raw, maxRawMessage)
	}

	if status == http.StatusServiceUnavailable || strings.EqualFold(message, "Service Unavailable") {
		reqErr.Unavailable = true
		reqErr.Message = UnavailableHint
		return reqErr
	}

	if message == "" {
		message = fmt.Sprintf("Request failed (%d)", status)
	}
	if isJSON && strings.TrimSpace(parsed.TranscriptStatus) != "" {
		message += fmt.Sprintf(" (transcript_status=%s)", strings.TrimSpace(parsed.TranscriptStatus))
	}
	reqErr.Message = message
	return reqErr
}

// firstText returns the first non-empty string among values. Non-string JSON
// values are rendered compactly.
func firstText(values ...any) string {
	for _, v := range values {
		switch typed := v.(type) {
		case nil:
			continue
		case string:
			if s := strings.TrimSpace(typed); s != "" {
				return s
			}
		default:
			if data, err := json.Marshal(typed); err == nil {
				return string(data)
			}
		}
	}
	return ""
}

// truncateRunes cuts s to at most limit runes, marking the cut with an ellipsis.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
