// Package db opens the console database and applies the embedded schema
// migrations. Both postgres and sqlite are supported; the schema sticks to
// the subset of SQL the two share.
package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// Open connects and pings. For sqlite the DSN is a file path and WAL plus
// foreign keys are enabled.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn += "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Direction selects what Migrate does.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrator wraps golang-migrate over the embedded migrations.
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(db *sql.DB, driver string) (*Migrator, error) {
	var (
		drv database.Driver
		err error
	)
	switch driver {
	case DriverPostgres:
		drv, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		drv, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create migrate driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, drv)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Run applies all migrations in dir, or steps migrations when steps != 0.
// ErrNoChange is not an error.
func (mg *Migrator) Run(dir Direction, steps int) error {
	start := time.Now()
	var err error
	switch {
	case steps != 0:
		err = mg.m.Steps(steps)
	case dir == Up:
		err = mg.m.Up()
	case dir == Down:
		err = mg.m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	log.Info().Str("direction", string(dir)).Int("steps", steps).Dur("took", time.Since(start)).Msg("migrations applied")
	return nil
}

// Version reports the current schema version; 0 when nothing is applied.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// MigrateUp is the serve-time shortcut.
func MigrateUp(db *sql.DB, driver string) error {
	mg, err := NewMigrator(db, driver)
	if err != nil {
		return err
	}
	return mg.Run(Up, 0)
}
