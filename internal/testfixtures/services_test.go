package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/attendance-scheduler/internal/application"
)

type capturingScheduleRepo struct {
	created []application.Schedule
}

func (c *capturingScheduleRepo) CreateSchedule(ctx context.Context, schedule application.Schedule) error {
	c.created = append(c.created, schedule)
	return nil
}

func (c *capturingScheduleRepo) GetSchedule(ctx context.Context, id string) (application.Schedule, error) {
	return application.Schedule{}, application.ErrNotFound
}

func (c *capturingScheduleRepo) ListSchedulesByCreator(ctx context.Context, userID int64) ([]application.Schedule, error) {
	return nil, nil
}

func (c *capturingScheduleRepo) DeleteSchedule(ctx context.Context, id string) error {
	return nil
}

type capturingCandidateRepo struct {
	names []string
}

func (c *capturingCandidateRepo) CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]application.Candidate, error) {
	c.names = append(c.names, names...)
	return nil, nil
}

func (c *capturingCandidateRepo) ListCandidates(ctx context.Context, scheduleID string) ([]application.Candidate, error) {
	return nil, nil
}

func (c *capturingCandidateRepo) DeleteCandidate(ctx context.Context, id int64) error {
	return nil
}

func TestServiceFactoryNewScheduleService(t *testing.T) {
	factory := NewServiceFactory()
	schedules := &capturingScheduleRepo{}
	candidates := &capturingCandidateRepo{}

	svc := factory.NewScheduleService(ScheduleServiceDeps{
		Repositories: application.Repositories{Schedules: schedules, Candidates: candidates},
	})

	owner := NewUserFixture(WithUserID(0), WithUsername("testuser"))
	fixture := NewScheduleFixture(WithScheduleName("Trip"), WithCandidates("Day1", "Day2"))

	first, err := svc.CreateSchedule(context.Background(), fixture.CreateParams(owner.Viewer()))
	if err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}
	second, err := svc.CreateSchedule(context.Background(), fixture.CreateParams(owner.Viewer()))
	if err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}

	if first.ID != "schedule-1" || second.ID != "schedule-2" {
		t.Fatalf("expected sequential IDs, got %q and %q", first.ID, second.ID)
	}
	if !first.UpdatedAt.Equal(ReferenceTime()) || !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("expected ticking timestamps, got %v and %v", first.UpdatedAt, second.UpdatedAt)
	}
	if len(candidates.names) != 4 || candidates.names[0] != "Day1" {
		t.Fatalf("unexpected candidates: %v", candidates.names)
	}
}

func TestServiceFactoryRandomIDs(t *testing.T) {
	factory := NewServiceFactory(WithIDGenerator(nil))
	svc := factory.NewScheduleService(ScheduleServiceDeps{
		Repositories: application.Repositories{Schedules: &capturingScheduleRepo{}, Candidates: &capturingCandidateRepo{}},
	})

	schedule, err := svc.CreateSchedule(context.Background(), NewScheduleFixture().CreateParams(NewUserFixture().Viewer()))
	if err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}
	if len(schedule.ID) != 36 {
		t.Fatalf("expected a UUID, got %q", schedule.ID)
	}
}

type recordingUserRepo struct {
	users []application.User
}

func (r *recordingUserRepo) UpsertUser(ctx context.Context, user application.User) error {
	r.users = append(r.users, user)
	return nil
}

func TestServiceFactoryBuildsRemainingServices(t *testing.T) {
	start := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	core, logs := observer.New(zap.DebugLevel)
	factory := NewServiceFactory(
		WithClock(NewClock(start)),
		WithLogger(zap.New(core)),
	)
	if got := factory.Clock.Current(); !got.Equal(start) {
		t.Fatalf("expected clock override, got %v", got)
	}

	users := &recordingUserRepo{}
	repos := application.Repositories{
		Users:      users,
		Schedules:  &capturingScheduleRepo{},
		Candidates: &capturingCandidateRepo{},
	}

	if err := factory.NewUserService(repos).EnsureUser(context.Background(), NewUserFixture(WithUsername("alice")).Viewer()); err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if len(users.users) != 1 || users.users[0].Username != "alice" {
		t.Fatalf("expected user to be recorded, got %+v", users.users)
	}

	if factory.NewAvailabilityService(repos, true) == nil {
		t.Fatal("expected availability service")
	}

	repos.Availabilities = nil
	_, err := factory.NewViewBuilder(repos).BuildView(context.Background(), "missing", NewUserFixture().Viewer())
	if err == nil || errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected configuration error from incomplete repositories, got %v", err)
	}

	_, err = factory.NewScheduleService(ScheduleServiceDeps{Repositories: repos}).CreateSchedule(context.Background(), NewScheduleFixture().CreateParams(NewUserFixture().Viewer()))
	if err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}
	if logs.FilterMessage("schedule created").Len() != 1 {
		t.Fatalf("expected service logs to reach the factory logger")
	}
}
