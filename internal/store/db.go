// Package store implements the durable key-value storage behind persisted
// fingerprints, plus the update history, on SQLite.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const (
	migrationsPath      = "migrations"
	migrateDefaultTable = "schema_migrations"

	// DBFilename is the state database file created under the state dir.
	DBFilename = "stalecheck.db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenDB opens (or creates) a SQLite database with the pragmas used for a
// single-writer state file.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}

	// Single-writer: only one connection needed.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q on %s: %w", p, path, err)
		}
	}

	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate %s: nil db", migrationsPath)
	}

	sourceDriver, err := iofs.New(migrationsFS, migrationsPath)
	if err != nil {
		return fmt.Errorf("migrate %s: init source: %w", migrationsPath, err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{
		MigrationsTable: migrateDefaultTable,
	})
	if err != nil {
		return fmt.Errorf("migrate %s: init db driver: %w", migrationsPath, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("migrate %s: init migrator: %w", migrationsPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: up: %w", migrationsPath, err)
	}
	return nil
}

// Bootstrap opens the state database under stateDir, migrates it, and returns
// the KV and history repos sharing the connection plus a closer for it.
func Bootstrap(stateDir string) (*SQLiteKV, *HistoryRepo, io.Closer, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create state dir %s: %w", stateDir, err)
	}

	path := filepath.Join(stateDir, DBFilename)
	db, err := OpenDB(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return NewSQLiteKV(db), NewHistoryRepo(db), db, nil
}
