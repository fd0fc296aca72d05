package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.db")
}

// setupTestStore creates a new initialized store in a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(tempDBPath(t))
	if err := s.Init(); err != nil {
		t.Fatalf("failed to init test store: %v", err)
	}
	return s
}

// countRows runs a COUNT query against the store's file.
func countRows(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	err := s.withConn(func(conn *sql.DB) error {
		return conn.QueryRow(query, args...).Scan(&n)
	})
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func TestNew_DefaultPath(t *testing.T) {
	s := New("")
	if s.Path() != DefaultDBPath {
		t.Errorf("Path() = %q, want %q", s.Path(), DefaultDBPath)
	}
	if s.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverSQLite)
	}
}

func TestNew_WithDriver(t *testing.T) {
	s := New("x.db", WithDriver(DriverSQLite3))
	if s.Driver() != DriverSQLite3 {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverSQLite3)
	}

	// Empty driver keeps the default.
	s = New("x.db", WithDriver(""))
	if s.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverSQLite)
	}
}

func TestInit_CreatesFile(t *testing.T) {
	path := tempDBPath(t)
	s := New(path)

	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestInit_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	s := New(filepath.Join(nested, "test.db"))

	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestInit_InvalidPath(t *testing.T) {
	// Files cannot be created under /proc on Linux.
	s := New("/proc/nonexistent/test.db")
	if err := s.Init(); err == nil {
		t.Error("expected error initializing db at invalid path")
	}
}

func TestInit_UnsupportedDriver(t *testing.T) {
	s := New(tempDBPath(t), WithDriver("postgres"))
	if err := s.Init(); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestInit_CreatesTables(t *testing.T) {
	s := setupTestStore(t)

	for _, table := range []string{"schema_version", "goals", "tasks"} {
		n := countRows(t, s, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		if n != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestInit_Idempotent(t *testing.T) {
	s := New(tempDBPath(t))

	for i := 0; i < 3; i++ {
		if err := s.Init(); err != nil {
			t.Fatalf("Init (iteration %d) failed: %v", i, err)
		}
	}

	if n := countRows(t, s, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('goals', 'tasks')"); n != 2 {
		t.Errorf("entity table count = %d, want 2", n)
	}
	if n := countRows(t, s, "SELECT COUNT(*) FROM schema_version"); n != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", n, len(migrations))
	}
	if n := countRows(t, s, "SELECT MAX(version) FROM schema_version"); n != 2 {
		t.Errorf("schema version = %d, want 2", n)
	}
}

func TestInit_PreservesData(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.SaveGoal("Keep me", nil, nil, nil)
	if err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}

	if err := s.Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}

	goal, err := s.GetGoal(id)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if goal == nil {
		t.Fatal("goal lost after re-initializing")
	}
}

func TestStore_ReleasesFileBetweenCalls(t *testing.T) {
	path := tempDBPath(t)
	s := New(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// A second store on the same file sees writes made by the first.
	other := New(path)
	id, err := s.SaveGoal("Shared", nil, nil, nil)
	if err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}
	goal, err := other.GetGoal(id)
	if err != nil {
		t.Fatalf("GetGoal from second store failed: %v", err)
	}
	if goal == nil || goal.Title != "Shared" {
		t.Errorf("second store read %+v, want title Shared", goal)
	}
}
