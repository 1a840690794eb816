package application

import (
	"context"
	"errors"
	"testing"
)

func TestUserService_EnsureUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	svc := NewUserService(store)

	if err := svc.EnsureUser(ctx, Viewer{UserID: 0, Username: "testuser"}); err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if err := svc.EnsureUser(ctx, Viewer{UserID: 0, Username: "renamed"}); err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if got := store.users[0].Username; got != "renamed" {
		t.Fatalf("expected username refreshed, got %q", got)
	}

	var vErr *ValidationError
	if err := svc.EnsureUser(ctx, Viewer{UserID: 3, Username: "  "}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for blank username, got %v", err)
	}
	if err := svc.EnsureUser(ctx, Viewer{UserID: -1, Username: "x"}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for negative id, got %v", err)
	}
}
