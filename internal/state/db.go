// Package state provides SQLite-based persistence for goals and tasks.
// The database lives in a single file (mentor.db in the working directory
// unless configured otherwise). No connection is held between calls: every
// public operation opens the file, does its work and closes it again.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// DefaultDBPath is used when no storage path is configured.
const DefaultDBPath = "mentor.db"

// Supported database/sql driver names.
const (
	// DriverSQLite is the pure-Go driver from modernc.org/sqlite.
	DriverSQLite = "sqlite"
	// DriverSQLite3 is the cgo driver from github.com/mattn/go-sqlite3.
	DriverSQLite3 = "sqlite3"
)

// ErrEmptyTitle is returned when a goal is saved without a title.
var ErrEmptyTitle = errors.New("goal title is required")

// Store persists goals and tasks in an SQLite file.
type Store struct {
	path   string
	driver string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithDriver selects the database/sql driver (DriverSQLite or DriverSQLite3).
func WithDriver(driver string) Option {
	return func(s *Store) {
		if driver != "" {
			s.driver = driver
		}
	}
}

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store for the database at path.
// An empty path falls back to DefaultDBPath. Nothing is opened until the
// first operation; call Init before using a fresh file.
func New(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultDBPath
	}
	s := &Store{
		path:   path,
		driver: DriverSQLite,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// open opens the database file, creating parent directories as needed.
// The pool is limited to one connection so the pragmas below apply to
// every statement issued through it.
func (s *Store) open() (*sql.DB, error) {
	switch s.driver {
	case DriverSQLite, DriverSQLite3:
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", s.driver)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open(s.driver, s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return conn, nil
}

// withConn runs fn against a freshly opened database and always closes it.
func (s *Store) withConn(fn func(conn *sql.DB) error) (err error) {
	conn, err := s.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close database: %w", cerr)
		}
	}()
	return fn(conn)
}

// transaction runs fn within a transaction on a freshly opened database.
func (s *Store) transaction(fn func(tx *sql.Tx) error) error {
	return s.withConn(func(conn *sql.DB) error {
		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}

		return tx.Commit()
	})
}

// Init creates the goals and tasks tables if they do not exist yet.
// Applied migrations are recorded in schema_version, so calling Init
// repeatedly is a no-op.
func (s *Store) Init() error {
	return s.withConn(func(conn *sql.DB) error {
		_, err := conn.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return fmt.Errorf("create schema_version table: %w", err)
		}

		var currentVersion int
		row := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err := row.Scan(&currentVersion); err != nil {
			return fmt.Errorf("get schema version: %w", err)
		}

		for _, m := range migrations {
			if m.version <= currentVersion {
				continue
			}

			tx, err := conn.Begin()
			if err != nil {
				return fmt.Errorf("begin transaction: %w", err)
			}

			if _, err := tx.Exec(m.sql); err != nil {
				tx.Rollback()
				return fmt.Errorf("apply migration v%d: %w", m.version, err)
			}

			if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
				tx.Rollback()
				return fmt.Errorf("record migration v%d: %w", m.version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("commit migration v%d: %w", m.version, err)
			}
		}

		return nil
	})
}

var migrations = []struct {
	version int
	sql     string
}{
	{1, migrationV1Goals},
	{2, migrationV2Tasks},
}

const migrationV1Goals = `
CREATE TABLE IF NOT EXISTS goals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	title TEXT NOT NULL,
	why TEXT,
	deadline TEXT,
	metric TEXT,
	status TEXT NOT NULL DEFAULT 'active'
);
`

const migrationV2Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	goal_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	order_index INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	FOREIGN KEY(goal_id) REFERENCES goals(id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_goal_order ON tasks(goal_id, order_index);
`

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
