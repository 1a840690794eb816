package main

import (
	"context"

	"github.com/example/attendance-scheduler/internal/application"
	"github.com/example/attendance-scheduler/internal/persistence"
)

// newRepositories exposes a persistence store through the repository
// interfaces of the application layer.
func newRepositories(store persistence.Store) application.Repositories {
	return application.Repositories{
		Users:          newUserRepositoryAdapter(store),
		Schedules:      newScheduleRepositoryAdapter(store),
		Candidates:     newCandidateRepositoryAdapter(store),
		Availabilities: newAvailabilityRepositoryAdapter(store),
	}
}

// newTransactor returns nil when store cannot run transactions.
func newTransactor(store persistence.Store) application.Transactor {
	txStore, ok := store.(persistence.TxStore)
	if !ok {
		return nil
	}
	return &transactorAdapter{store: txStore}
}

type transactorAdapter struct {
	store persistence.TxStore
}

func (a *transactorAdapter) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos application.Repositories) error) error {
	return a.store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Store) error {
		return fn(ctx, newRepositories(tx))
	})
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) UpsertUser(ctx context.Context, user application.User) error {
	return a.repo.UpsertUser(ctx, persistence.User{ID: user.ID, Username: user.Username})
}

type scheduleRepositoryAdapter struct {
	repo persistence.ScheduleRepository
}

func newScheduleRepositoryAdapter(repo persistence.ScheduleRepository) *scheduleRepositoryAdapter {
	return &scheduleRepositoryAdapter{repo: repo}
}

func (a *scheduleRepositoryAdapter) CreateSchedule(ctx context.Context, schedule application.Schedule) error {
	return a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule))
}

func (a *scheduleRepositoryAdapter) GetSchedule(ctx context.Context, id string) (application.Schedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) ListSchedulesByCreator(ctx context.Context, userID int64) ([]application.Schedule, error) {
	stored, err := a.repo.ListSchedulesByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	schedules := make([]application.Schedule, 0, len(stored))
	for _, schedule := range stored {
		schedules = append(schedules, toApplicationSchedule(schedule))
	}
	return schedules, nil
}

func (a *scheduleRepositoryAdapter) DeleteSchedule(ctx context.Context, id string) error {
	return a.repo.DeleteSchedule(ctx, id)
}

type candidateRepositoryAdapter struct {
	repo persistence.CandidateRepository
}

func newCandidateRepositoryAdapter(repo persistence.CandidateRepository) *candidateRepositoryAdapter {
	return &candidateRepositoryAdapter{repo: repo}
}

func (a *candidateRepositoryAdapter) CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]application.Candidate, error) {
	stored, err := a.repo.CreateCandidates(ctx, scheduleID, names)
	if err != nil {
		return nil, err
	}
	return toApplicationCandidates(stored), nil
}

func (a *candidateRepositoryAdapter) ListCandidates(ctx context.Context, scheduleID string) ([]application.Candidate, error) {
	stored, err := a.repo.ListCandidates(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	return toApplicationCandidates(stored), nil
}

func (a *candidateRepositoryAdapter) DeleteCandidate(ctx context.Context, id int64) error {
	return a.repo.DeleteCandidate(ctx, id)
}

type availabilityRepositoryAdapter struct {
	repo persistence.AvailabilityRepository
}

func newAvailabilityRepositoryAdapter(repo persistence.AvailabilityRepository) *availabilityRepositoryAdapter {
	return &availabilityRepositoryAdapter{repo: repo}
}

func (a *availabilityRepositoryAdapter) UpsertAvailability(ctx context.Context, record application.AvailabilityRecord) error {
	return a.repo.UpsertAvailability(ctx, persistence.Availability{
		ScheduleID:  record.ScheduleID,
		UserID:      record.UserID,
		CandidateID: record.CandidateID,
		Value:       int(record.Value),
	})
}

func (a *availabilityRepositoryAdapter) ListAvailabilities(ctx context.Context, scheduleID string) ([]application.AvailabilityRecord, error) {
	stored, err := a.repo.ListAvailabilities(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	records := make([]application.AvailabilityRecord, 0, len(stored))
	for _, row := range stored {
		records = append(records, application.AvailabilityRecord{
			ScheduleID:  row.ScheduleID,
			UserID:      row.UserID,
			CandidateID: row.CandidateID,
			Value:       application.AvailabilityValue(row.Value),
			Username:    row.Username,
		})
	}
	return records, nil
}

func (a *availabilityRepositoryAdapter) DeleteAvailability(ctx context.Context, key application.AvailabilityKey) error {
	return a.repo.DeleteAvailability(ctx, persistence.AvailabilityKey{
		ScheduleID:  key.ScheduleID,
		UserID:      key.UserID,
		CandidateID: key.CandidateID,
	})
}

func toPersistenceSchedule(schedule application.Schedule) persistence.Schedule {
	return persistence.Schedule{
		ID:        schedule.ID,
		Name:      schedule.Name,
		Memo:      schedule.Memo,
		CreatedBy: schedule.CreatedBy,
		UpdatedAt: schedule.UpdatedAt,
	}
}

func toApplicationSchedule(schedule persistence.Schedule) application.Schedule {
	return application.Schedule{
		ID:          schedule.ID,
		Name:        schedule.Name,
		Memo:        schedule.Memo,
		CreatedBy:   schedule.CreatedBy,
		CreatorName: schedule.CreatorName,
		UpdatedAt:   schedule.UpdatedAt,
	}
}

func toApplicationCandidates(stored []persistence.Candidate) []application.Candidate {
	candidates := make([]application.Candidate, 0, len(stored))
	for _, c := range stored {
		candidates = append(candidates, application.Candidate{ID: c.ID, ScheduleID: c.ScheduleID, Name: c.Name})
	}
	return candidates
}
