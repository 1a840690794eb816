package sqlite

import (
	"context"

	"github.com/example/attendance-scheduler/internal/persistence"
)

// AvailabilityRepository implements persistence.AvailabilityRepository using SQLite
type AvailabilityRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAvailabilityRepository creates a new SQLite availability repository
func NewAvailabilityRepository(helper *QueryHelper) *AvailabilityRepository {
	return &AvailabilityRepository{helper: helper, mapper: NewErrorMapper()}
}

// UpsertAvailability writes or replaces the row for the availability's natural key
// in a single statement.
func (r *AvailabilityRepository) UpsertAvailability(ctx context.Context, availability persistence.Availability) error {
	query := `
		INSERT INTO availabilities (schedule_id, user_id, candidate_id, availability)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (schedule_id, user_id, candidate_id) DO UPDATE SET availability = excluded.availability
	`

	_, err := r.helper.Exec(ctx, query,
		availability.ScheduleID,
		availability.UserID,
		availability.CandidateID,
		availability.Value,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListAvailabilities returns the rows of a schedule joined with their user.
func (r *AvailabilityRepository) ListAvailabilities(ctx context.Context, scheduleID string) ([]persistence.Availability, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT a.schedule_id, a.user_id, a.candidate_id, a.availability, u.username
		FROM availabilities a
		JOIN users u ON u.user_id = a.user_id
		WHERE a.schedule_id = ?
		ORDER BY u.username ASC, a.candidate_id ASC
	`, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var availabilities []persistence.Availability
	for rows.Next() {
		var a persistence.Availability
		if err := rows.Scan(&a.ScheduleID, &a.UserID, &a.CandidateID, &a.Value, &a.Username); err != nil {
			return nil, r.mapper.MapError(err)
		}
		availabilities = append(availabilities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return availabilities, nil
}

// DeleteAvailability removes the row identified by key.
func (r *AvailabilityRepository) DeleteAvailability(ctx context.Context, key persistence.AvailabilityKey) error {
	result, err := r.helper.Exec(ctx,
		"DELETE FROM availabilities WHERE schedule_id = ? AND user_id = ? AND candidate_id = ?",
		key.ScheduleID, key.UserID, key.CandidateID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}
