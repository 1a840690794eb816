package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/attendance-scheduler/internal/persistence"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code string
		want error
	}{
		{"23503", persistence.ErrForeignKeyViolation},
		{"23505", persistence.ErrDuplicate},
		{"23514", persistence.ErrConstraintViolation},
	}
	for _, tc := range cases {
		err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: tc.code, Message: "violation"})
		if got := mapError(err); !errors.Is(got, tc.want) {
			t.Fatalf("mapError(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
	if mapError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

// openTestStorage connects to the database named by SCHEDULER_TEST_POSTGRES_DSN.
// The database must be disposable: the schema is migrated and rows are written.
func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	dsn := os.Getenv("SCHEDULER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCHEDULER_TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	storage, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(ctx, nil); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return storage
}

func TestStorageRoundTrip(t *testing.T) {
	storage := openTestStorage(t)
	ctx := context.Background()

	userID := time.Now().UnixNano()
	scheduleID := fmt.Sprintf("pg-test-%d", userID)

	if err := storage.UpsertUser(ctx, persistence.User{ID: userID, Username: "pg-user"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	err := storage.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Store) error {
		if err := tx.CreateSchedule(ctx, persistence.Schedule{ID: scheduleID, Name: "Trip", CreatedBy: userID, UpdatedAt: time.Now()}); err != nil {
			return err
		}
		_, err := tx.CreateCandidates(ctx, scheduleID, []string{"Day1", "Day2"})
		return err
	})
	if err != nil {
		t.Fatalf("WithinTransaction failed: %v", err)
	}

	candidates, err := storage.ListCandidates(ctx, scheduleID)
	if err != nil || len(candidates) != 2 || candidates[0].Name != "Day1" {
		t.Fatalf("unexpected candidates %#v (err %v)", candidates, err)
	}

	availability := persistence.Availability{ScheduleID: scheduleID, UserID: userID, CandidateID: candidates[0].ID, Value: 2}
	for i := 0; i < 2; i++ {
		if err := storage.UpsertAvailability(ctx, availability); err != nil {
			t.Fatalf("UpsertAvailability failed: %v", err)
		}
	}
	rows, err := storage.ListAvailabilities(ctx, scheduleID)
	if err != nil || len(rows) != 1 || rows[0].Value != 2 {
		t.Fatalf("unexpected availabilities %#v (err %v)", rows, err)
	}

	if err := storage.DeleteSchedule(ctx, scheduleID); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	if err := storage.DeleteAvailability(ctx, rows[0].Key()); err != nil {
		t.Fatalf("DeleteAvailability failed: %v", err)
	}
	for _, c := range candidates {
		if err := storage.DeleteCandidate(ctx, c.ID); err != nil {
			t.Fatalf("DeleteCandidate failed: %v", err)
		}
	}
	if err := storage.DeleteSchedule(ctx, scheduleID); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}
}
