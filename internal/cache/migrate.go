package cache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const cacheMigrationsPath = "migrations/cache"

//go:embed migrations/cache/*.sql
var migrationsFS embed.FS

// MigrateDB applies the cache schema migrations.
func MigrateDB(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate %s: nil db", cacheMigrationsPath)
	}

	sourceDriver, err := iofs.New(migrationsFS, cacheMigrationsPath)
	if err != nil {
		return fmt.Errorf("migrate %s: init source: %w", cacheMigrationsPath, err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("migrate %s: init db driver: %w", cacheMigrationsPath, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("migrate %s: init migrator: %w", cacheMigrationsPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: up: %w", cacheMigrationsPath, err)
	}
	return nil
}

// openMigrated opens the store database, applying migrations. Versioning is
// destructive on purpose: if the existing file cannot be migrated (older
// incompatible schema, dirty migration state, corruption) it is wiped and
// recreated, because everything in it is a cache and never a source of truth.
func openMigrated(path string) (*sql.DB, error) {
	db, err := OpenDB(path)
	if err == nil {
		if merr := MigrateDB(db); merr == nil {
			return db, nil
		}
		db.Close()
	}

	if rerr := removeStoreFiles(path); rerr != nil {
		return nil, fmt.Errorf("reset cache store %s: %w", path, rerr)
	}
	db, err = OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// removeStoreFiles deletes the database together with its WAL sidecars.
func removeStoreFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
