package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/attendance-scheduler/internal/persistence"
	"github.com/example/attendance-scheduler/internal/persistence/memory"
	"github.com/example/attendance-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated SQLite store backed by a temporary file
// for integration-style persistence tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a store in tb.TempDir. Callers may
// invoke Close, but the harness also registers it with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	storage, err := sqlite.Open(context.Background(), path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background(), nil); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// StoreFactory opens an empty store for one test.
type StoreFactory struct {
	Name string
	Open func(tb testing.TB) persistence.Store
}

// StoreFactories lists every embedded store implementation so that
// repository behaviour can be checked against each of them.
func StoreFactories() []StoreFactory {
	return []StoreFactory{
		{Name: "sqlite", Open: func(tb testing.TB) persistence.Store { return NewSQLiteHarness(tb).Storage }},
		{Name: "memory", Open: func(tb testing.TB) persistence.Store { return memory.New() }},
	}
}

// SeedUser stores user, failing tb on error.
func SeedUser(tb testing.TB, store persistence.UserRepository, user UserFixture) UserFixture {
	tb.Helper()
	if err := store.UpsertUser(context.Background(), user.Persistence()); err != nil {
		tb.Fatalf("failed to seed user %d: %v", user.ID, err)
	}
	return user
}

// SeedSchedule stores the schedule root and its candidates. The creator must
// already exist.
func SeedSchedule(tb testing.TB, store persistence.Store, schedule ScheduleFixture) []persistence.Candidate {
	tb.Helper()
	ctx := context.Background()
	if err := store.CreateSchedule(ctx, schedule.Persistence()); err != nil {
		tb.Fatalf("failed to seed schedule %s: %v", schedule.ID, err)
	}
	candidates, err := store.CreateCandidates(ctx, schedule.ID, schedule.Candidates)
	if err != nil {
		tb.Fatalf("failed to seed candidates of %s: %v", schedule.ID, err)
	}
	return candidates
}

// SeedAvailability stores one answer.
func SeedAvailability(tb testing.TB, store persistence.AvailabilityRepository, scheduleID string, userID, candidateID int64, value int) {
	tb.Helper()
	err := store.UpsertAvailability(context.Background(), persistence.Availability{
		ScheduleID:  scheduleID,
		UserID:      userID,
		CandidateID: candidateID,
		Value:       value,
	})
	if err != nil {
		tb.Fatalf("failed to seed availability: %v", err)
	}
}
