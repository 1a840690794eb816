package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting viewer lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// AggregateStage names one step of a multi-record schedule aggregate operation.
type AggregateStage string

const (
	StageSchedule       AggregateStage = "schedule"
	StageCandidates     AggregateStage = "candidates"
	StageAvailabilities AggregateStage = "availabilities"
)

// AggregateError reports a schedule aggregate create or delete that stopped at
// Stage. When RolledBack is false the steps before Stage remain persisted.
type AggregateError struct {
	Op         string
	ScheduleID string
	Stage      AggregateStage
	RolledBack bool
	Err        error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	state := "partially applied"
	if e.RolledBack {
		state = "rolled back"
	}
	return fmt.Sprintf("schedule aggregate %s %s failed at %s (%s): %v", e.Op, e.ScheduleID, e.Stage, state, e.Err)
}

// Unwrap exposes the underlying store failure.
func (e *AggregateError) Unwrap() error {
	return e.Err
}

// IsPartialAggregateFailure reports whether err left a schedule aggregate half written.
func IsPartialAggregateFailure(err error) bool {
	var aggErr *AggregateError
	return errors.As(err, &aggErr) && !aggErr.RolledBack
}
