package persistence

import "context"

// UserRepository mirrors identities resolved by the identity provider.
type UserRepository interface {
	UpsertUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id int64) (User, error)
}

// ScheduleRepository stores schedule roots.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedulesByCreator(ctx context.Context, userID int64) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// CandidateRepository stores the candidates owned by a schedule.
//
// ListCandidates returns rows ordered by ID ascending. CreateCandidates
// assigns IDs in the order of names.
type CandidateRepository interface {
	CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]Candidate, error)
	ListCandidates(ctx context.Context, scheduleID string) ([]Candidate, error)
	DeleteCandidate(ctx context.Context, id int64) error
}

// AvailabilityRepository stores availability answers.
//
// UpsertAvailability must be atomic per natural key. ListAvailabilities
// returns rows joined with their user, ordered by username then candidate ID.
type AvailabilityRepository interface {
	UpsertAvailability(ctx context.Context, availability Availability) error
	ListAvailabilities(ctx context.Context, scheduleID string) ([]Availability, error)
	DeleteAvailability(ctx context.Context, key AvailabilityKey) error
}

// Store bundles every repository of the scheduler.
type Store interface {
	UserRepository
	ScheduleRepository
	CandidateRepository
	AvailabilityRepository
}

// TxStore is a Store able to run a unit of work inside a single transaction.
// The Store handed to fn is bound to the transaction and must not be retained.
type TxStore interface {
	Store
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
