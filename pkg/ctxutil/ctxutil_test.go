package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := WithUserID(context.Background(), id)

	got, ok := UserIDFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for stored UUID")
	}
	if got != id {
		t.Errorf("got %s, want %s", got, id)
	}
}

func TestUserID_Missing(t *testing.T) {
	t.Parallel()

	got, ok := UserIDFromCtx(context.Background())
	if ok {
		t.Error("expected ok=false for empty context")
	}
	if got != uuid.Nil {
		t.Errorf("expected uuid.Nil, got %s", got)
	}
}

func TestUserID_NilUUIDTreatedAsMissing(t *testing.T) {
	t.Parallel()

	ctx := WithUserID(context.Background(), uuid.Nil)
	if _, ok := UserIDFromCtx(ctx); ok {
		t.Error("expected ok=false for nil UUID")
	}
}

func TestUserRole_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithUserRole(context.Background(), "admin")
	if got := UserRoleFromCtx(ctx); got != "admin" {
		t.Errorf("got %q, want %q", got, "admin")
	}

	if got := UserRoleFromCtx(context.Background()); got != "" {
		t.Errorf("expected empty role for empty context, got %q", got)
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromCtx(ctx); got != "req-123" {
		t.Errorf("got %q, want %q", got, "req-123")
	}

	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Errorf("expected empty request ID for empty context, got %q", got)
	}
}
