package services_test

import (
	"errors"
	"strings"
	"testing"

	"meetingassist/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrServer, "tasks", "approve", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrServer) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"tasks", "approve", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransportMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestValidationErrorClassification(t *testing.T) {
	err := services.Invalid("instructions", "is required")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if err.Error() != "instructions: is required" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var ve *services.ValidationError
	if !errors.As(err, &ve) || ve.Field != "instructions" {
		t.Fatalf("expected ValidationError with field, got %#v", err)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Invalid("x", "y"), "validation"},
		{services.Wrap(services.ErrPollTimeout, "deliverables", "poll", "", nil), "poll_timeout"},
		{services.Wrap(services.ErrUnavailable, "", "", "", nil), "unavailable"},
		{services.ErrConflict, "conflict"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
