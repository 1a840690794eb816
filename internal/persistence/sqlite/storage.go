package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/attendance-scheduler/internal/persistence"
	"github.com/example/attendance-scheduler/internal/persistence/migrations"
)

// Storage is the SQLite-backed persistence.TxStore.
type Storage struct {
	*UserRepository
	*ScheduleRepository
	*CandidateRepository
	*AvailabilityRepository

	pool *ConnectionPool
}

var _ persistence.TxStore = (*Storage)(nil)

// Open connects to the SQLite database described by dsn.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	storage := newStorage(NewQueryHelper(pool))
	storage.pool = pool
	return storage, nil
}

func newStorage(helper *QueryHelper) *Storage {
	return &Storage{
		UserRepository:         NewUserRepository(helper),
		ScheduleRepository:     NewScheduleRepository(helper),
		CandidateRepository:    NewCandidateRepository(helper),
		AvailabilityRepository: NewAvailabilityRepository(helper),
	}
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("sqlite: storage is bound to a transaction")
	}
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *zap.Logger) error {
	if s.pool == nil {
		return fmt.Errorf("sqlite: storage is bound to a transaction")
	}
	return migrations.Up(ctx, s.pool.DB(), migrations.DialectSQLite, logger)
}

// WithinTransaction runs fn against repositories bound to one transaction.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx persistence.Store) error) error {
	if s.pool == nil {
		return fmt.Errorf("sqlite: nested transactions are not supported")
	}
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, newStorage(newTxQueryHelper(tx)))
	})
}
