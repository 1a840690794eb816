package application

import (
	"context"
	"errors"

	"github.com/example/attendance-scheduler/internal/persistence"
)

// UserRepository captures the user persistence needed by the services.
type UserRepository interface {
	UpsertUser(ctx context.Context, user User) error
}

// ScheduleRepository captures schedule root persistence.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedulesByCreator(ctx context.Context, userID int64) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// CandidateRepository captures candidate persistence.
type CandidateRepository interface {
	CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]Candidate, error)
	ListCandidates(ctx context.Context, scheduleID string) ([]Candidate, error)
	DeleteCandidate(ctx context.Context, id int64) error
}

// AvailabilityRepository captures availability persistence. UpsertAvailability
// must be atomic per natural key.
type AvailabilityRepository interface {
	UpsertAvailability(ctx context.Context, record AvailabilityRecord) error
	ListAvailabilities(ctx context.Context, scheduleID string) ([]AvailabilityRecord, error)
	DeleteAvailability(ctx context.Context, key AvailabilityKey) error
}

// Repositories groups the repositories of one store or one transaction.
type Repositories struct {
	Users          UserRepository
	Schedules      ScheduleRepository
	Candidates     CandidateRepository
	Availabilities AvailabilityRepository
}

// Transactor runs fn against repositories bound to a single transaction,
// committing when fn returns nil.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

func mapRepoError(err error, field string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add(field, "related records are missing")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add(field, "value violates a constraint")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
