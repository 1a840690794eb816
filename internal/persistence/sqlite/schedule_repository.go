package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/attendance-scheduler/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite
type ScheduleRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewScheduleRepository creates a new SQLite schedule repository
func NewScheduleRepository(helper *QueryHelper) *ScheduleRepository {
	return &ScheduleRepository{helper: helper, mapper: NewErrorMapper()}
}

// CreateSchedule inserts a schedule root.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO schedules (schedule_id, schedule_name, memo, created_by, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		schedule.ID,
		schedule.Name,
		schedule.Memo,
		schedule.CreatedBy,
		formatTime(schedule.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetSchedule retrieves a schedule together with its creator's username.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	if id == "" {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	query := `
		SELECT s.schedule_id, s.schedule_name, s.memo, s.created_by, COALESCE(u.username, ''), s.updated_at
		FROM schedules s
		LEFT JOIN users u ON u.user_id = s.created_by
		WHERE s.schedule_id = ?
	`

	schedule, err := scanSchedule(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Schedule{}, r.mapper.MapError(err)
	}
	return schedule, nil
}

// ListSchedulesByCreator returns the schedules created by userID, most recently updated first.
func (r *ScheduleRepository) ListSchedulesByCreator(ctx context.Context, userID int64) ([]persistence.Schedule, error) {
	query := `
		SELECT s.schedule_id, s.schedule_name, s.memo, s.created_by, COALESCE(u.username, ''), s.updated_at
		FROM schedules s
		LEFT JOIN users u ON u.user_id = s.created_by
		WHERE s.created_by = ?
		ORDER BY s.updated_at DESC, s.schedule_id ASC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var schedules []persistence.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return schedules, nil
}

// DeleteSchedule removes the schedule root. It fails with a foreign key
// violation while candidates or availabilities still reference it.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM schedules WHERE schedule_id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (persistence.Schedule, error) {
	var (
		schedule  persistence.Schedule
		updatedAt string
	)
	if err := row.Scan(
		&schedule.ID,
		&schedule.Name,
		&schedule.Memo,
		&schedule.CreatedBy,
		&schedule.CreatorName,
		&updatedAt,
	); err != nil {
		return persistence.Schedule{}, err
	}
	parsed, err := parseTime(updatedAt)
	if err != nil {
		return persistence.Schedule{}, err
	}
	schedule.UpdatedAt = parsed
	return schedule, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
