// Package migrations embeds the schema of every supported store and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedded embed.FS

// Dialect selects the migration set and SQL dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) goose() (goose.Dialect, error) {
	switch d {
	case DialectSQLite:
		return goose.DialectSQLite3, nil
	case DialectPostgres:
		return goose.DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", d)
	}
}

// NewProvider builds a goose provider over the embedded migrations of dialect.
func NewProvider(db *sql.DB, dialect Dialect) (*goose.Provider, error) {
	gooseDialect, err := dialect.goose()
	if err != nil {
		return nil, err
	}
	fsys, err := fs.Sub(embedded, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("migrations: open %s migrations: %w", dialect, err)
	}
	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("migrations: create provider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect Dialect, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider, err := NewProvider(db, dialect)
	if err != nil {
		return err
	}

	logger.Info("applying database migrations", zap.String("dialect", string(dialect)))
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, result := range results {
		if result == nil || result.Source == nil {
			continue
		}
		logger.Info("migration applied",
			zap.Int64("version", result.Source.Version),
			zap.String("file", result.Source.Path),
			zap.Duration("duration", result.Duration),
		)
	}
	logger.Info("migrations applied successfully", zap.Int("applied", len(results)))
	return nil
}

// Version reports the schema version currently recorded in db.
func Version(ctx context.Context, db *sql.DB, dialect Dialect) (int64, error) {
	provider, err := NewProvider(db, dialect)
	if err != nil {
		return 0, err
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}
