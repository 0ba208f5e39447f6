package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema reports a migration that stopped halfway. The file needs a
// manual look before the app writes to it again.
var ErrDirtySchema = errors.New("transactions schema is dirty")

// withMigrator opens a private handle on dbPath and hands fn a migrator over
// the embedded migrations. Both are closed when fn returns.
func withMigrator(dbPath string, fn func(*migrate.Migrate) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s for schema check: %w", dbPath, err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("attach schema driver to %s: %w", dbPath, err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare schema migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}

// EnsureSchema makes sure the transactions table exists in dbPath. The
// create statement is guarded with IF NOT EXISTS, so a file that already
// holds the table (an older install, or one created by hand) is adopted with
// its rows untouched and only gains migration bookkeeping. Running it on an
// up-to-date file does nothing.
func EnsureSchema(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			var dirty migrate.ErrDirty
			if errors.As(err, &dirty) {
				return fmt.Errorf("%w at version %d", ErrDirtySchema, dirty.Version)
			}
			return fmt.Errorf("create transactions table: %w", err)
		}
		return nil
	})
}

// SchemaVersion returns the applied schema version of dbPath. A file that was
// never initialised reports version 0.
func SchemaVersion(dbPath string) (uint, error) {
	var version uint
	err := withMigrator(dbPath, func(m *migrate.Migrate) error {
		v, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			return nil
		case err != nil:
			return fmt.Errorf("read schema version: %w", err)
		case dirty:
			return fmt.Errorf("%w at version %d", ErrDirtySchema, v)
		}
		version = v
		return nil
	})
	return version, err
}
