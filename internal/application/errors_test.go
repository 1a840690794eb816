package application

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_Add(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	vErr.add("availability", "availability must be 0, 1 or 2")
	vErr.add("availability", "replaced")
	if got := vErr.FieldErrors["availability"]; got != "replaced" {
		t.Fatalf("expected later add to replace message, got %q", got)
	}
	if len(vErr.FieldErrors) != 1 {
		t.Fatalf("expected a single field, got %v", vErr.FieldErrors)
	}
}

func TestAggregateError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	partial := &AggregateError{Op: "delete", ScheduleID: "s1", Stage: StageCandidates, Err: cause}
	wrapped := fmt.Errorf("handler: %w", partial)

	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected the store failure to be reachable through Unwrap")
	}
	if !IsPartialAggregateFailure(wrapped) {
		t.Fatalf("expected a partial failure")
	}
	if !strings.Contains(partial.Error(), "partially applied") || !strings.Contains(partial.Error(), "candidates") {
		t.Fatalf("unexpected message %q", partial.Error())
	}

	rolledBack := &AggregateError{Op: "create", ScheduleID: "s1", Stage: StageSchedule, RolledBack: true, Err: cause}
	if IsPartialAggregateFailure(rolledBack) {
		t.Fatalf("expected a rolled back failure not to be partial")
	}
	if !strings.Contains(rolledBack.Error(), "rolled back") {
		t.Fatalf("unexpected message %q", rolledBack.Error())
	}
	if IsPartialAggregateFailure(cause) {
		t.Fatalf("expected plain errors not to be partial failures")
	}
}
