// Package postgres implements persistence.TxStore on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/persistence"
	"github.com/example/attendance-scheduler/internal/persistence/migrations"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage is the PostgreSQL-backed persistence.TxStore.
type Storage struct {
	pool *pgxpool.Pool
	db   dbtx
}

var _ persistence.TxStore = (*Storage)(nil)

// Open creates a connection pool for dsn and verifies connectivity.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Storage{pool: pool, db: pool}, nil
}

// Close releases the pool.
func (s *Storage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres: storage is bound to a transaction")
	}
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema through a database/sql view of the pool.
func (s *Storage) Migrate(ctx context.Context, logger *zap.Logger) error {
	if s.pool == nil {
		return errors.New("postgres: storage is bound to a transaction")
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Up(ctx, db, migrations.DialectPostgres, logger)
}

// WithinTransaction runs fn against a Storage bound to one transaction.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx persistence.Store) error) error {
	if s.pool == nil {
		return errors.New("postgres: nested transactions are not supported")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &Storage{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// mapError converts pgx errors into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w: %s", persistence.ErrForeignKeyViolation, pgErr.Message)
		case "23505":
			return fmt.Errorf("%w: %s", persistence.ErrDuplicate, pgErr.Message)
		case "23502", "23514", "22001":
			return fmt.Errorf("%w: %s", persistence.ErrConstraintViolation, pgErr.Message)
		}
	}
	return err
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// --- UserRepository implementation ---

// UpsertUser inserts the user or refreshes its username.
func (s *Storage) UpsertUser(ctx context.Context, user persistence.User) error {
	query := `
		INSERT INTO users (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username
	`
	if _, err := s.db.Exec(ctx, query, user.ID, user.Username); err != nil {
		return fmt.Errorf("upsert user: %w", mapError(err))
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	var user persistence.User
	err := s.db.QueryRow(ctx, "SELECT user_id, username FROM users WHERE user_id = $1", id).
		Scan(&user.ID, &user.Username)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// --- ScheduleRepository implementation ---

// CreateSchedule inserts a schedule root.
func (s *Storage) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO schedules (schedule_id, schedule_name, memo, created_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query,
		schedule.ID,
		schedule.Name,
		schedule.Memo,
		schedule.CreatedBy,
		schedule.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create schedule: %w", mapError(err))
	}
	return nil
}

const scheduleColumns = `s.schedule_id, s.schedule_name, s.memo, s.created_by, COALESCE(u.username, ''), s.updated_at`

// GetSchedule retrieves a schedule together with its creator's username.
func (s *Storage) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules s
		LEFT JOIN users u ON u.user_id = s.created_by
		WHERE s.schedule_id = $1
	`
	schedule, err := scanSchedule(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Schedule{}, mapError(err)
	}
	return schedule, nil
}

// ListSchedulesByCreator returns the schedules of userID, most recently updated first.
func (s *Storage) ListSchedulesByCreator(ctx context.Context, userID int64) ([]persistence.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules s
		LEFT JOIN users u ON u.user_id = s.created_by
		WHERE s.created_by = $1
		ORDER BY s.updated_at DESC, s.schedule_id ASC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", mapError(err))
	}
	defer rows.Close()

	var schedules []persistence.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", mapError(err))
	}
	return schedules, nil
}

// DeleteSchedule removes the schedule root.
func (s *Storage) DeleteSchedule(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM schedules WHERE schedule_id = $1", id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", mapError(err))
	}
	return requireAffected(tag)
}

func scanSchedule(row pgx.Row) (persistence.Schedule, error) {
	var schedule persistence.Schedule
	err := row.Scan(
		&schedule.ID,
		&schedule.Name,
		&schedule.Memo,
		&schedule.CreatedBy,
		&schedule.CreatorName,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return persistence.Schedule{}, err
	}
	schedule.UpdatedAt = schedule.UpdatedAt.UTC()
	return schedule, nil
}

// --- CandidateRepository implementation ---

// CreateCandidates inserts names in order, returning the identity values assigned.
func (s *Storage) CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]persistence.Candidate, error) {
	created := make([]persistence.Candidate, 0, len(names))
	for _, name := range names {
		c := persistence.Candidate{ScheduleID: scheduleID, Name: name}
		err := s.db.QueryRow(ctx,
			"INSERT INTO candidates (candidate_name, schedule_id) VALUES ($1, $2) RETURNING candidate_id",
			name, scheduleID,
		).Scan(&c.ID)
		if err != nil {
			return created, fmt.Errorf("create candidate: %w", mapError(err))
		}
		created = append(created, c)
	}
	return created, nil
}

// ListCandidates returns the candidates of a schedule in creation order.
func (s *Storage) ListCandidates(ctx context.Context, scheduleID string) ([]persistence.Candidate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT candidate_id, schedule_id, candidate_name
		FROM candidates
		WHERE schedule_id = $1
		ORDER BY candidate_id ASC
	`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", mapError(err))
	}
	defer rows.Close()

	var candidates []persistence.Candidate
	for rows.Next() {
		var c persistence.Candidate
		if err := rows.Scan(&c.ID, &c.ScheduleID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", mapError(err))
	}
	return candidates, nil
}

// DeleteCandidate removes a single candidate.
func (s *Storage) DeleteCandidate(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM candidates WHERE candidate_id = $1", id)
	if err != nil {
		return fmt.Errorf("delete candidate: %w", mapError(err))
	}
	return requireAffected(tag)
}

// --- AvailabilityRepository implementation ---

// UpsertAvailability writes or replaces the row for the natural key in one statement.
func (s *Storage) UpsertAvailability(ctx context.Context, availability persistence.Availability) error {
	query := `
		INSERT INTO availabilities (schedule_id, user_id, candidate_id, availability)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (schedule_id, user_id, candidate_id) DO UPDATE SET availability = EXCLUDED.availability
	`
	_, err := s.db.Exec(ctx, query,
		availability.ScheduleID,
		availability.UserID,
		availability.CandidateID,
		availability.Value,
	)
	if err != nil {
		return fmt.Errorf("upsert availability: %w", mapError(err))
	}
	return nil
}

// ListAvailabilities returns the rows of a schedule joined with their user.
// Usernames are compared bytewise so the order does not depend on the server locale.
func (s *Storage) ListAvailabilities(ctx context.Context, scheduleID string) ([]persistence.Availability, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.schedule_id, a.user_id, a.candidate_id, a.availability, u.username
		FROM availabilities a
		JOIN users u ON u.user_id = a.user_id
		WHERE a.schedule_id = $1
		ORDER BY u.username COLLATE "C" ASC, a.candidate_id ASC
	`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list availabilities: %w", mapError(err))
	}
	defer rows.Close()

	var availabilities []persistence.Availability
	for rows.Next() {
		var a persistence.Availability
		if err := rows.Scan(&a.ScheduleID, &a.UserID, &a.CandidateID, &a.Value, &a.Username); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		availabilities = append(availabilities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list availabilities: %w", mapError(err))
	}
	return availabilities, nil
}

// DeleteAvailability removes the row identified by key.
func (s *Storage) DeleteAvailability(ctx context.Context, key persistence.AvailabilityKey) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM availabilities WHERE schedule_id = $1 AND user_id = $2 AND candidate_id = $3",
		key.ScheduleID, key.UserID, key.CandidateID,
	)
	if err != nil {
		return fmt.Errorf("delete availability: %w", mapError(err))
	}
	return requireAffected(tag)
}
