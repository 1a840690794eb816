package application

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ViewBuilder assembles the attendance view of a schedule from raw records.
// Every call rereads the store; nothing is cached.
type ViewBuilder struct {
	schedules      ScheduleRepository
	candidates     CandidateRepository
	availabilities AvailabilityRepository
	logger         *zap.Logger
}

// NewViewBuilder constructs a view builder.
func NewViewBuilder(repos Repositories) *ViewBuilder {
	return NewViewBuilderWithLogger(repos, nil)
}

// NewViewBuilderWithLogger constructs a view builder with a specified logger.
func NewViewBuilderWithLogger(repos Repositories, logger *zap.Logger) *ViewBuilder {
	return &ViewBuilder{
		schedules:      repos.Schedules,
		candidates:     repos.Candidates,
		availabilities: repos.Availabilities,
		logger:         defaultLogger(logger),
	}
}

// BuildView returns the schedule with its candidates, its participants and the
// dense answer matrix. It fails with ErrNotFound when the schedule is absent.
func (b *ViewBuilder) BuildView(ctx context.Context, scheduleID string, viewer Viewer) (view ScheduleView, err error) {
	if b == nil || b.schedules == nil || b.candidates == nil || b.availabilities == nil {
		err = fmt.Errorf("ViewBuilder is not configured")
		return
	}

	ctx, span := startSpan(ctx, "ViewBuilder.BuildView",
		attribute.String("schedule.id", scheduleID),
		attribute.Int64("viewer.id", viewer.UserID),
	)
	logger := serviceLogger(ctx, b.logger, "ViewBuilder", "BuildView",
		zap.String("schedule_id", scheduleID),
		zap.Int64("viewer_id", viewer.UserID),
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.Warn("failed to build schedule view", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
		}
	}()

	schedule, err := b.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		err = mapRepoError(err, "schedule_id")
		return
	}

	candidates, err := b.candidates.ListCandidates(ctx, scheduleID)
	if err != nil {
		return
	}

	records, err := b.availabilities.ListAvailabilities(ctx, scheduleID)
	if err != nil {
		return
	}

	view = AssembleView(schedule, candidates, records, viewer)
	span.SetAttributes(
		attribute.Int("view.participants", len(view.Participants)),
		attribute.Int("view.candidates", len(view.Candidates)),
	)
	return
}

// AssembleView is the pure part of BuildView. Candidates are ordered by ID.
// Records are ordered by username then candidate ID before participants are
// collected: the viewer comes first and is always flagged IsSelf, followed by
// every other user in record order. A user is listed once; a later record
// refreshes the username without moving the user. Cells without a record
// hold AvailabilityAbsent. Records for candidates outside the schedule are
// ignored.
func AssembleView(schedule Schedule, candidates []Candidate, records []AvailabilityRecord, viewer Viewer) ScheduleView {
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b Candidate) int {
		return cmp.Compare(a.ID, b.ID)
	})

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b AvailabilityRecord) int {
		if c := cmp.Compare(a.Username, b.Username); c != 0 {
			return c
		}
		return cmp.Compare(a.CandidateID, b.CandidateID)
	})

	participants := []Participant{{UserID: viewer.UserID, Username: viewer.Username, IsSelf: true}}
	position := map[int64]int{viewer.UserID: 0}
	for _, r := range sorted {
		if i, ok := position[r.UserID]; ok {
			participants[i].Username = r.Username
			continue
		}
		position[r.UserID] = len(participants)
		participants = append(participants, Participant{
			UserID:   r.UserID,
			Username: r.Username,
			IsSelf:   r.UserID == viewer.UserID,
		})
	}

	matrix := newMatrix(participants, ordered)
	for _, r := range sorted {
		matrix.set(r.UserID, r.CandidateID, r.Value)
	}

	return ScheduleView{
		Schedule:     schedule,
		Candidates:   ordered,
		Participants: participants,
		Matrix:       matrix,
	}
}
