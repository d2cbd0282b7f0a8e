package sqlite

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
)

// connPragmas run on every new connection. Deleting a category relies on
// foreign_keys for ON DELETE SET NULL; sessions share the file with the blog
// tables, hence WAL and the busy timeout.
var connPragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// dsn builds the modernc.org/sqlite connection string for path
func dsn(path string) string {
	q := url.Values{"_pragma": connPragmas}
	// CreatePost reads back inside its transaction, take the write lock up front
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

// NewDB opens the blog database, one connection at a time
func NewDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("cannot open db %s: %w", path, err)
	}

	// a single writer, sessions and posts queue behind it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Migrate brings the schema up to date from the sqlite migrations directory
func (s *Store) Migrate(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migrations driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating %s: %w", migrationsPath, err)
	}

	return nil
}
