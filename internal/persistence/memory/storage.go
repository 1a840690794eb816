// Package memory provides a map-backed persistence.Store that enforces the same
// referential rules as the SQL schema. It offers no transactions.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/example/attendance-scheduler/internal/persistence"
)

// Storage is an in-memory persistence.Store.
type Storage struct {
	mu              sync.RWMutex
	users           map[int64]persistence.User
	schedules       map[string]persistence.Schedule
	candidates      map[int64]persistence.Candidate
	availabilities  map[persistence.AvailabilityKey]int
	nextCandidateID int64
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		users:          make(map[int64]persistence.User),
		schedules:      make(map[string]persistence.Schedule),
		candidates:     make(map[int64]persistence.Candidate),
		availabilities: make(map[persistence.AvailabilityKey]int),
	}
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// --- UserRepository implementation ---

// UpsertUser stores the user or refreshes its username.
func (s *Storage) UpsertUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = user
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// --- ScheduleRepository implementation ---

// CreateSchedule stores a new schedule root.
func (s *Storage) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.schedules[schedule.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.users[schedule.CreatedBy]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	schedule.CreatorName = ""
	s.schedules[schedule.ID] = schedule
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (s *Storage) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	return s.withCreatorLocked(schedule), nil
}

// ListSchedulesByCreator returns the schedules of userID, most recently updated first.
func (s *Storage) ListSchedulesByCreator(ctx context.Context, userID int64) ([]persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var schedules []persistence.Schedule
	for _, schedule := range s.schedules {
		if schedule.CreatedBy == userID {
			schedules = append(schedules, s.withCreatorLocked(schedule))
		}
	}

	slices.SortFunc(schedules, func(a, b persistence.Schedule) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return schedules, nil
}

// DeleteSchedule removes a schedule root that no longer has children.
func (s *Storage) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, c := range s.candidates {
		if c.ScheduleID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	for key := range s.availabilities {
		if key.ScheduleID == id {
			return persistence.ErrForeignKeyViolation
		}
	}

	delete(s.schedules, id)
	return nil
}

func (s *Storage) withCreatorLocked(schedule persistence.Schedule) persistence.Schedule {
	if user, ok := s.users[schedule.CreatedBy]; ok {
		schedule.CreatorName = user.Username
	}
	return schedule
}

// --- CandidateRepository implementation ---

// CreateCandidates stores names in order with ascending IDs.
func (s *Storage) CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]persistence.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[scheduleID]; !ok {
		return nil, persistence.ErrForeignKeyViolation
	}

	created := make([]persistence.Candidate, 0, len(names))
	for _, name := range names {
		s.nextCandidateID++
		c := persistence.Candidate{ID: s.nextCandidateID, ScheduleID: scheduleID, Name: name}
		s.candidates[c.ID] = c
		created = append(created, c)
	}
	return created, nil
}

// ListCandidates returns the candidates of a schedule ordered by ID.
func (s *Storage) ListCandidates(ctx context.Context, scheduleID string) ([]persistence.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []persistence.Candidate
	for _, c := range s.candidates {
		if c.ScheduleID == scheduleID {
			candidates = append(candidates, c)
		}
	}
	slices.SortFunc(candidates, func(a, b persistence.Candidate) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return candidates, nil
}

// DeleteCandidate removes a candidate that no availability references.
func (s *Storage) DeleteCandidate(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.candidates[id]; !ok {
		return persistence.ErrNotFound
	}
	for key := range s.availabilities {
		if key.CandidateID == id {
			return persistence.ErrForeignKeyViolation
		}
	}

	delete(s.candidates, id)
	return nil
}

// --- AvailabilityRepository implementation ---

// UpsertAvailability writes or replaces the value stored under the natural key.
func (s *Storage) UpsertAvailability(ctx context.Context, availability persistence.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[availability.ScheduleID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.users[availability.UserID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.candidates[availability.CandidateID]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	s.availabilities[availability.Key()] = availability.Value
	return nil
}

// ListAvailabilities returns the rows of a schedule ordered by username then candidate ID.
func (s *Storage) ListAvailabilities(ctx context.Context, scheduleID string) ([]persistence.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []persistence.Availability
	for key, value := range s.availabilities {
		if key.ScheduleID != scheduleID {
			continue
		}
		rows = append(rows, persistence.Availability{
			ScheduleID:  key.ScheduleID,
			UserID:      key.UserID,
			CandidateID: key.CandidateID,
			Value:       value,
			Username:    s.users[key.UserID].Username,
		})
	}
	slices.SortFunc(rows, func(a, b persistence.Availability) int {
		if c := cmp.Compare(a.Username, b.Username); c != 0 {
			return c
		}
		if c := cmp.Compare(a.CandidateID, b.CandidateID); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return rows, nil
}

// DeleteAvailability removes the row identified by key.
func (s *Storage) DeleteAvailability(ctx context.Context, key persistence.AvailabilityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.availabilities[key]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.availabilities, key)
	return nil
}
