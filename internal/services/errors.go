package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport        = errors.New("transport error")
	ErrValidation       = errors.New("validation error")
	ErrServer           = errors.New("server error")
	ErrUnavailable      = errors.New("service unavailable")
	ErrGenerationFailed = errors.New("generation failed")
	ErrPollTimeout      = errors.New("poll timeout")
	ErrConflict         = errors.New("unsaved edits conflict")
	ErrGateClosed       = errors.New("action not allowed")
	ErrConfiguration    = errors.New("configuration error")
	ErrDeclined         = errors.New("declined by user")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ValidationError reports a client-side precondition violation. It is raised
// before any network call and never sent to the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is a shorthand for constructing a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Kind returns a short classification label for err, used in logs and JSON output.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrGateClosed):
		return "gate"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrDeclined):
		return "declined"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrPollTimeout):
		return "poll_timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
