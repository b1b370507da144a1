package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// newMigrator opens a dedicated database/sql handle for golang-migrate. The caller must
// close the returned migrator.
func newMigrator(connStr string) (*migrate.Migrate, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("could not start migrate driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("could not read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migration failed to start: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. Running it on an up-to-date schema is a no-op.
func MigrateUp(connStr string) error {
	m, err := newMigrator(connStr)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run up migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("could not read schema version: %w", err)
	}
	log.Printf("[MIGRATE] schema at version %d (dirty=%v)", version, dirty)
	return nil
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(connStr string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, err := newMigrator(connStr)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not roll back %d migrations: %w", steps, err)
	}
	log.Printf("[MIGRATE] rolled back %d migration(s)", steps)
	return nil
}
