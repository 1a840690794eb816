package application

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AvailabilityService records single availability answers.
type AvailabilityService struct {
	candidates     CandidateRepository
	availabilities AvailabilityRepository
	strict         bool
	logger         *zap.Logger
}

// NewAvailabilityService constructs an availability service. In strict mode
// out-of-range values and candidates that do not belong to the schedule are
// rejected; otherwise every write is accepted as submitted.
func NewAvailabilityService(repos Repositories, strict bool) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(repos, strict, nil)
}

// NewAvailabilityServiceWithLogger constructs an availability service with a specified logger.
func NewAvailabilityServiceWithLogger(repos Repositories, strict bool, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		candidates:     repos.Candidates,
		availabilities: repos.Availabilities,
		strict:         strict,
		logger:         defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, fields...)
}

// UpsertAvailability writes or replaces the answer for (schedule, user, candidate).
// Replaying the same call stores the same row and returns the same result.
func (s *AvailabilityService) UpsertAvailability(ctx context.Context, params UpsertAvailabilityParams) (result UpsertAvailabilityResult, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}
	if s.availabilities == nil {
		err = fmt.Errorf("availability repository not configured")
		return
	}

	ctx, span := startSpan(ctx, "AvailabilityService.UpsertAvailability",
		attribute.String("schedule.id", params.ScheduleID),
		attribute.Int64("user.id", params.UserID),
		attribute.Int64("candidate.id", params.CandidateID),
	)
	logger := s.loggerWith(ctx, "UpsertAvailability",
		zap.String("schedule_id", params.ScheduleID),
		zap.Int64("user_id", params.UserID),
		zap.Int64("candidate_id", params.CandidateID),
		zap.Stringer("input", params.Input),
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.Error("failed to upsert availability", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Debug("availability stored", zap.Stringer("availability", result.Availability))
	}()

	if params.Input.IsMalformed() {
		logger.Info("malformed availability coerced to default", zap.String("raw", params.Input.Raw()))
	}
	value := CoerceAvailability(params.Input)

	if s.strict {
		if err = s.validate(ctx, params, value); err != nil {
			return
		}
	}

	record := AvailabilityRecord{
		ScheduleID:  params.ScheduleID,
		UserID:      params.UserID,
		CandidateID: params.CandidateID,
		Value:       value,
	}
	if err = s.availabilities.UpsertAvailability(ctx, record); err != nil {
		err = mapRepoError(err, "availability")
		return
	}

	result = UpsertAvailabilityResult{Status: "OK", Availability: value}
	return
}

func (s *AvailabilityService) validate(ctx context.Context, params UpsertAvailabilityParams, value AvailabilityValue) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.ScheduleID) == "" {
		vErr.add("schedule_id", "schedule id is required")
	}
	if !value.Valid() {
		vErr.add("availability", "availability must be 0, 1 or 2")
	}
	if vErr.HasErrors() {
		return vErr
	}
	if s.candidates == nil {
		return nil
	}

	candidates, err := s.candidates.ListCandidates(ctx, params.ScheduleID)
	if err != nil {
		return mapRepoError(err, "candidate_id")
	}
	for _, c := range candidates {
		if c.ID == params.CandidateID {
			return nil
		}
	}
	vErr.add("candidate_id", "candidate does not belong to schedule")
	return vErr
}
