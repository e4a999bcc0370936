package services

import "context"

type contextKey string

const (
	clientIDKey  contextKey = "client_id"
	meetingIDKey contextKey = "meeting_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithClientID annotates context with the selected client identifier.
func WithClientID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientIDFromContext extracts the client identifier if present.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(clientIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithMeetingID annotates context with the selected meeting identifier.
func WithMeetingID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, meetingIDKey, id)
}

// MeetingIDFromContext extracts the meeting identifier if present.
func MeetingIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(meetingIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name (tasks, deliverables).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
