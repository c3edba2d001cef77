package database

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator applies the embedded schema migrations.
type Migrator struct {
	runner *migrate.Migrate
	log    *zap.Logger
}

// NewMigrator opens a migration runner against dsn using the embedded migration set.
func NewMigrator(dsn string, log *zap.Logger) (*Migrator, error) {
	if log == nil {
		log = zap.NewNop()
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	runner, err := migrate.NewWithSourceInstance("iofs", source, MigrationURL(dsn))
	if err != nil {
		return nil, fmt.Errorf("create migrate runner: %w", err)
	}

	return &Migrator{runner: runner, log: log}, nil
}

// MigrationURL rewrites a postgres DSN to the scheme understood by the pgx/v5 migrate driver.
func MigrationURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// Up applies pending migrations; steps <= 0 applies all. It reports whether anything changed.
func (m *Migrator) Up(steps int) (bool, error) {
	var err error
	if steps > 0 {
		err = m.runner.Steps(steps)
	} else {
		err = m.runner.Up()
	}
	return m.finish("up", err)
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) (bool, error) {
	if steps <= 0 {
		return false, fmt.Errorf("invalid rollback steps %d: expected a positive integer", steps)
	}
	return m.finish("down", m.runner.Steps(-steps))
}

// Force sets the recorded version without running migrations; -1 clears it.
func (m *Migrator) Force(version int) error {
	if err := m.runner.Force(version); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}
	m.log.Warn("migration version forced", zap.Int("version", version))
	return nil
}

// Version returns the current schema version and dirty flag.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.runner.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	sourceErr, databaseErr := m.runner.Close()
	return errors.Join(sourceErr, databaseErr)
}

func (m *Migrator) finish(direction string, err error) (bool, error) {
	if err == nil {
		version, dirty, _ := m.Version()
		m.log.Info("schema migrated", zap.String("direction", direction), zap.Uint("version", version), zap.Bool("dirty", dirty))
		return true, nil
	}
	if isNoChangeBoundaryError(err) {
		m.log.Info("schema already at requested version", zap.String("direction", direction))
		return false, nil
	}
	var shortLimit migrate.ErrShortLimit
	if errors.As(err, &shortLimit) {
		m.log.Info("migration boundary reached", zap.String("direction", direction), zap.Uint("short", shortLimit.Short))
		return true, nil
	}
	return false, fmt.Errorf("migrate %s: %w", direction, err)
}

func isNoChangeBoundaryError(err error) bool {
	if errors.Is(err, migrate.ErrNoChange) {
		return true
	}
	// Steps returns a bare os.ErrNotExist at the first or last migration.
	return errors.Is(err, os.ErrNotExist)
}
