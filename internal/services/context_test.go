package services_test

import (
	"context"
	"testing"

	"meetingassist/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithClientID(ctx, "acme-corp")
	ctx = services.WithMeetingID(ctx, "20260102T200740Z-ab12cd34")
	ctx = services.WithStage(ctx, "tasks")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ClientIDFromContext(ctx); !ok || id != "acme-corp" {
		t.Fatalf("unexpected client id: %v %v", id, ok)
	}
	if id, ok := services.MeetingIDFromContext(ctx); !ok || id != "20260102T200740Z-ab12cd34" {
		t.Fatalf("unexpected meeting id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "tasks" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithClientID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ClientIDFromContext(ctx); ok {
		t.Fatal("expected no client value")
	}
}
