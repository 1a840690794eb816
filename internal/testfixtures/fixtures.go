package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/attendance-scheduler/internal/application"
	"github.com/example/attendance-scheduler/internal/persistence"
)

var (
	userCounter     int64
	scheduleCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic identity as resolved by the
// identity provider.
type UserFixture struct {
	ID       int64
	Username string
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user fixture with a fresh positive ID. Use
// WithUserID(0) for the user the end-to-end scenarios act as.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddInt64(&userCounter, 1)
	fixture := UserFixture{
		ID:       1000 + idx,
		Username: fmt.Sprintf("user%03d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id int64) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUsername overrides the generated username.
func WithUsername(name string) UserOption {
	return func(f *UserFixture) {
		f.Username = name
	}
}

// Viewer returns the fixture as the acting application.Viewer.
func (f UserFixture) Viewer() application.Viewer {
	return application.Viewer{UserID: f.ID, Username: f.Username}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{ID: f.ID, Username: f.Username}
}

// --------------------------- Schedule fixtures ---------------------------

// ScheduleFixture represents a deterministic schedule with its candidate names.
type ScheduleFixture struct {
	ID         string
	Name       string
	Memo       string
	CreatedBy  int64
	UpdatedAt  time.Time
	Candidates []string
}

// ScheduleOption configures the generated schedule fixture.
type ScheduleOption func(*ScheduleFixture)

// NewScheduleFixture returns a schedule fixture with two candidates. Each
// fixture is one minute newer than the previous one.
func NewScheduleFixture(opts ...ScheduleOption) ScheduleFixture {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	fixture := ScheduleFixture{
		ID:         fmt.Sprintf("schedule-%03d", idx),
		Name:       fmt.Sprintf("Schedule %03d", idx),
		UpdatedAt:  referenceTime.Add(time.Duration(idx) * time.Minute),
		Candidates: []string{"Day1", "Day2"},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleID overrides the generated schedule ID.
func WithScheduleID(id string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.ID = id
	}
}

// WithScheduleName overrides the generated schedule name.
func WithScheduleName(name string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Name = name
	}
}

// WithScheduleMemo sets the memo.
func WithScheduleMemo(memo string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Memo = memo
	}
}

// WithCreator sets the creating user.
func WithCreator(user UserFixture) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.CreatedBy = user.ID
	}
}

// WithScheduleUpdatedAt overrides the update timestamp.
func WithScheduleUpdatedAt(t time.Time) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.UpdatedAt = t
	}
}

// WithCandidates replaces the candidate names.
func WithCandidates(names ...string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Candidates = append([]string(nil), names...)
	}
}

// Persistence returns the schedule root as a persistence.Schedule value.
func (f ScheduleFixture) Persistence() persistence.Schedule {
	return persistence.Schedule{
		ID:        f.ID,
		Name:      f.Name,
		Memo:      f.Memo,
		CreatedBy: f.CreatedBy,
		UpdatedAt: f.UpdatedAt,
	}
}

// CandidatesText joins the candidate names the way a form submits them.
func (f ScheduleFixture) CandidatesText() string {
	return strings.Join(f.Candidates, "\n")
}

// CreateParams returns the creation request a viewer would submit for the fixture.
func (f ScheduleFixture) CreateParams(viewer application.Viewer) application.CreateScheduleParams {
	return application.CreateScheduleParams{
		Viewer:         viewer,
		Name:           f.Name,
		Memo:           f.Memo,
		CandidatesText: f.CandidatesText(),
	}
}
