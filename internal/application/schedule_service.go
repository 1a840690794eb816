package application

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxScheduleNameLength is the maximum schedule name length in characters.
	MaxScheduleNameLength = 255
	// UntitledScheduleName replaces names that are blank.
	UntitledScheduleName = "（名称未設定）"

	defaultDeleteConcurrency = 8
)

// ScheduleOptions tunes the schedule aggregate manager.
type ScheduleOptions struct {
	// Transactional wraps create and delete in one transaction when a Transactor is available.
	Transactional bool
	// DeleteConcurrency bounds the deletions issued at once within a tier.
	DeleteConcurrency int
}

// ScheduleService creates, lists and deletes schedule aggregates.
type ScheduleService struct {
	repos       Repositories
	tx          Transactor
	opts        ScheduleOptions
	idGenerator func() string
	now         func() time.Time
	logger      *zap.Logger
}

// NewScheduleService wires dependencies for schedule operations. tx may be nil
// for stores without transactions and a nil idGenerator issues random UUIDs.
func NewScheduleService(repos Repositories, tx Transactor, opts ScheduleOptions, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(repos, tx, opts, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies for schedule operations with a specified logger.
func NewScheduleServiceWithLogger(repos Repositories, tx Transactor, opts ScheduleOptions, idGenerator func() string, now func() time.Time, logger *zap.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if opts.DeleteConcurrency <= 0 {
		opts.DeleteConcurrency = defaultDeleteConcurrency
	}
	return &ScheduleService{
		repos:       repos,
		tx:          tx,
		opts:        opts,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, fields...)
}

func (s *ScheduleService) transactional() bool {
	return s.tx != nil && s.opts.Transactional
}

// NormalizeScheduleName truncates name to MaxScheduleNameLength characters and
// substitutes UntitledScheduleName when the result is blank.
func NormalizeScheduleName(name string) string {
	if utf8.RuneCountInString(name) > MaxScheduleNameLength {
		name = string([]rune(name)[:MaxScheduleNameLength])
	}
	if strings.TrimSpace(name) == "" {
		return UntitledScheduleName
	}
	return name
}

// ParseCandidateNames splits text into lines, trims them and drops blank ones,
// keeping their order.
func ParseCandidateNames(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	names := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// CreateSchedule persists a schedule and then its candidates. Without a
// transaction a failure at the candidate stage leaves the schedule in place
// and is reported as a partial *AggregateError.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (schedule Schedule, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleService is nil")
		return
	}
	if s.repos.Schedules == nil || s.repos.Candidates == nil {
		err = fmt.Errorf("schedule repositories not configured")
		return
	}

	schedule = Schedule{
		ID:          s.idGenerator(),
		Name:        NormalizeScheduleName(params.Name),
		Memo:        params.Memo,
		CreatedBy:   params.Viewer.UserID,
		CreatorName: params.Viewer.Username,
		UpdatedAt:   s.now(),
	}
	names := ParseCandidateNames(params.CandidatesText)

	ctx, span := startSpan(ctx, "ScheduleService.CreateSchedule",
		attribute.String("schedule.id", schedule.ID),
		attribute.Int("schedule.candidates", len(names)),
		attribute.Bool("transactional", s.transactional()),
	)
	logger := s.loggerWith(ctx, "CreateSchedule",
		zap.Int64("viewer_id", params.Viewer.UserID),
		zap.String("schedule_id", schedule.ID),
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.Error("failed to create schedule", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Info("schedule created", zap.Int("candidates", len(names)))
	}()

	if s.transactional() {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
			return createAggregate(ctx, repos, schedule, names)
		})
		markRolledBack(err)
		return
	}

	err = createAggregate(ctx, s.repos, schedule, names)
	return
}

func createAggregate(ctx context.Context, repos Repositories, schedule Schedule, names []string) error {
	if err := repos.Schedules.CreateSchedule(ctx, schedule); err != nil {
		return &AggregateError{Op: "create", ScheduleID: schedule.ID, Stage: StageSchedule, RolledBack: true, Err: mapRepoError(err, "schedule")}
	}
	if _, err := repos.Candidates.CreateCandidates(ctx, schedule.ID, names); err != nil {
		return &AggregateError{Op: "create", ScheduleID: schedule.ID, Stage: StageCandidates, Err: mapRepoError(err, "candidates")}
	}
	return nil
}

// ListSchedules returns the schedules created by the viewer, most recently updated first.
func (s *ScheduleService) ListSchedules(ctx context.Context, viewer Viewer) ([]Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.repos.Schedules == nil {
		return nil, fmt.Errorf("schedule repository not configured")
	}

	schedules, err := s.repos.Schedules.ListSchedulesByCreator(ctx, viewer.UserID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return schedules, nil
}

// DeleteSchedule deletes the aggregate on behalf of viewer, who must be its creator.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, viewer Viewer, scheduleID string) error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.repos.Schedules == nil {
		return fmt.Errorf("schedule repository not configured")
	}

	existing, err := s.repos.Schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return mapRepoError(err, "schedule_id")
	}
	if existing.CreatedBy != viewer.UserID {
		return ErrUnauthorized
	}
	return s.DeleteAggregate(ctx, scheduleID)
}

// DeleteAggregate removes every availability, then every candidate, then the
// schedule itself. Deletions inside a tier run concurrently and each tier
// finishes before the next starts. A schedule that is already gone is not an
// error. Without a transaction a failure leaves the earlier tiers deleted and
// is reported as a partial *AggregateError.
func (s *ScheduleService) DeleteAggregate(ctx context.Context, scheduleID string) (err error) {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.repos.Schedules == nil || s.repos.Candidates == nil || s.repos.Availabilities == nil {
		return fmt.Errorf("schedule repositories not configured")
	}

	ctx, span := startSpan(ctx, "ScheduleService.DeleteAggregate",
		attribute.String("schedule.id", scheduleID),
		attribute.Bool("transactional", s.transactional()),
	)
	logger := s.loggerWith(ctx, "DeleteAggregate", zap.String("schedule_id", scheduleID))
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.Error("failed to delete schedule aggregate", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Info("schedule aggregate deleted")
	}()

	if s.transactional() {
		// A transaction holds one connection, so tiers run sequentially.
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
			return deleteAggregate(ctx, repos, scheduleID, 1)
		})
		markRolledBack(err)
		return
	}

	err = deleteAggregate(ctx, s.repos, scheduleID, s.opts.DeleteConcurrency)
	return
}

func deleteAggregate(ctx context.Context, repos Repositories, scheduleID string, limit int) error {
	records, err := repos.Availabilities.ListAvailabilities(ctx, scheduleID)
	if err != nil {
		return &AggregateError{Op: "delete", ScheduleID: scheduleID, Stage: StageAvailabilities, Err: err}
	}
	err = deleteTier(ctx, limit, records, func(ctx context.Context, r AvailabilityRecord) error {
		return repos.Availabilities.DeleteAvailability(ctx, r.Key())
	})
	if err != nil {
		return &AggregateError{Op: "delete", ScheduleID: scheduleID, Stage: StageAvailabilities, Err: err}
	}

	candidates, err := repos.Candidates.ListCandidates(ctx, scheduleID)
	if err != nil {
		return &AggregateError{Op: "delete", ScheduleID: scheduleID, Stage: StageCandidates, Err: err}
	}
	err = deleteTier(ctx, limit, candidates, func(ctx context.Context, c Candidate) error {
		return repos.Candidates.DeleteCandidate(ctx, c.ID)
	})
	if err != nil {
		return &AggregateError{Op: "delete", ScheduleID: scheduleID, Stage: StageCandidates, Err: err}
	}

	if err := repos.Schedules.DeleteSchedule(ctx, scheduleID); err != nil && !isNotFoundError(err) {
		return &AggregateError{Op: "delete", ScheduleID: scheduleID, Stage: StageSchedule, Err: err}
	}
	return nil
}

// deleteTier applies del to every item with at most limit calls in flight and
// returns once all of them have finished. Rows removed concurrently by
// someone else are not an error.
func deleteTier[T any](ctx context.Context, limit int, items []T, del func(context.Context, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, item := range items {
		g.Go(func() error {
			if err := del(gctx, item); err != nil && !isNotFoundError(err) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// markRolledBack flags an aggregate error returned from a transaction as
// having left nothing behind.
func markRolledBack(err error) {
	if aggErr, ok := err.(*AggregateError); ok {
		aggErr.RolledBack = true
	}
}
