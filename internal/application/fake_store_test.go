package application

import (
	"context"
	"errors"
	"sync"

	"github.com/example/attendance-scheduler/internal/persistence"
)

// fakeStore is an in-memory store enforcing the same references as the SQL
// schema. Failures can be injected per operation.
type fakeStore struct {
	mu             sync.Mutex
	users          map[int64]User
	schedules      map[string]Schedule
	candidates     map[int64]Candidate
	availabilities map[AvailabilityKey]AvailabilityRecord
	nextCandidate  int64

	failCreateCandidates error
	failDeleteCandidate  error
	failDeleteSchedule   error
	deleteCalls          []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:          make(map[int64]User),
		schedules:      make(map[string]Schedule),
		candidates:     make(map[int64]Candidate),
		availabilities: make(map[AvailabilityKey]AvailabilityRecord),
	}
}

func (f *fakeStore) repos() Repositories {
	return Repositories{Users: f, Schedules: f, Candidates: f, Availabilities: f}
}

func (f *fakeStore) UpsertUser(ctx context.Context, user User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) CreateSchedule(ctx context.Context, schedule Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[schedule.CreatedBy]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := f.schedules[schedule.ID]; ok {
		return persistence.ErrDuplicate
	}
	f.schedules[schedule.ID] = schedule
	return nil
}

func (f *fakeStore) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[id]
	if !ok {
		return Schedule{}, persistence.ErrNotFound
	}
	s.CreatorName = f.users[s.CreatedBy].Username
	return s, nil
}

func (f *fakeStore) ListSchedulesByCreator(ctx context.Context, userID int64) ([]Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Schedule
	for _, s := range f.schedules {
		if s.CreatedBy == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteSchedule(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, "schedule")
	if f.failDeleteSchedule != nil {
		return f.failDeleteSchedule
	}
	if _, ok := f.schedules[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, c := range f.candidates {
		if c.ScheduleID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	for k := range f.availabilities {
		if k.ScheduleID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeStore) CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateCandidates != nil {
		return nil, f.failCreateCandidates
	}
	if _, ok := f.schedules[scheduleID]; !ok {
		return nil, persistence.ErrForeignKeyViolation
	}
	out := make([]Candidate, 0, len(names))
	for _, name := range names {
		f.nextCandidate++
		c := Candidate{ID: f.nextCandidate, ScheduleID: scheduleID, Name: name}
		f.candidates[c.ID] = c
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) ListCandidates(ctx context.Context, scheduleID string) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Candidate
	for id := int64(1); id <= f.nextCandidate; id++ {
		if c, ok := f.candidates[id]; ok && c.ScheduleID == scheduleID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteCandidate(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, "candidate")
	if f.failDeleteCandidate != nil {
		return f.failDeleteCandidate
	}
	if _, ok := f.candidates[id]; !ok {
		return persistence.ErrNotFound
	}
	for k := range f.availabilities {
		if k.CandidateID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(f.candidates, id)
	return nil
}

func (f *fakeStore) UpsertAvailability(ctx context.Context, record AvailabilityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schedules[record.ScheduleID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := f.users[record.UserID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := f.candidates[record.CandidateID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	record.Username = ""
	f.availabilities[record.Key()] = record
	return nil
}

func (f *fakeStore) ListAvailabilities(ctx context.Context, scheduleID string) ([]AvailabilityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []AvailabilityRecord
	for k, r := range f.availabilities {
		if k.ScheduleID == scheduleID {
			r.Username = f.users[r.UserID].Username
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAvailability(ctx context.Context, key AvailabilityKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, "availability")
	if _, ok := f.availabilities[key]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.availabilities, key)
	return nil
}

func (f *fakeStore) counts() (schedules, candidates, availabilities int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.schedules), len(f.candidates), len(f.availabilities)
}

func (f *fakeStore) snapshot() *fakeStore {
	c := newFakeStore()
	for k, v := range f.users {
		c.users[k] = v
	}
	for k, v := range f.schedules {
		c.schedules[k] = v
	}
	for k, v := range f.candidates {
		c.candidates[k] = v
	}
	for k, v := range f.availabilities {
		c.availabilities[k] = v
	}
	c.nextCandidate = f.nextCandidate
	c.failCreateCandidates = f.failCreateCandidates
	c.failDeleteCandidate = f.failDeleteCandidate
	c.failDeleteSchedule = f.failDeleteSchedule
	return c
}

// fakeTransactor runs fn against a copy of the store and publishes the copy
// only when fn succeeds.
type fakeTransactor struct {
	store *fakeStore
	calls int
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	t.calls++
	tx := t.store.snapshot()
	if err := fn(ctx, tx.repos()); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.schedules = tx.schedules
	t.store.candidates = tx.candidates
	t.store.availabilities = tx.availabilities
	t.store.nextCandidate = tx.nextCandidate
	return nil
}

var errInjected = errors.New("injected failure")
