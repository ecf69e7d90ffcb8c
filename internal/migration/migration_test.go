package migration

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitthemes/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mapFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return m
}

func TestGetCurrentVersionFreshDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(nil), DriverSQLite)

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	db := setupTestDB(t)

	t.Run("sorted by version", func(t *testing.T) {
		runner := NewRunner(db, mapFS(map[string]string{
			"002_second.sql": "SELECT 2;",
			"001_first.sql":  "SELECT 1;",
			"README.md":      "ignored",
		}), DriverSQLite)

		migrations, err := runner.ReadMigrationFiles()
		if err != nil {
			t.Fatalf("ReadMigrationFiles failed: %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != 1 || migrations[0].Name != "first" {
			t.Errorf("unexpected first migration: %+v", migrations[0])
		}
		if migrations[1].Version != 2 || migrations[1].Name != "second" {
			t.Errorf("unexpected second migration: %+v", migrations[1])
		}
	})

	t.Run("duplicate versions", func(t *testing.T) {
		runner := NewRunner(db, mapFS(map[string]string{
			"001_a.sql": "SELECT 1;",
			"001_b.sql": "SELECT 1;",
		}), DriverSQLite)

		_, err := runner.ReadMigrationFiles()
		if err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
			t.Errorf("expected duplicate version error, got %v", err)
		}
	})

	t.Run("invalid filename", func(t *testing.T) {
		runner := NewRunner(db, mapFS(map[string]string{
			"init.sql": "SELECT 1;",
		}), DriverSQLite)

		if _, err := runner.ReadMigrationFiles(); err == nil {
			t.Error("expected error for filename without version prefix")
		}
	})

	t.Run("version zero", func(t *testing.T) {
		runner := NewRunner(db, mapFS(map[string]string{
			"000_init.sql": "SELECT 1;",
		}), DriverSQLite)

		if _, err := runner.ReadMigrationFiles(); err == nil {
			t.Error("expected error for version 0")
		}
	})
}

func TestApplyMigrations(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_create.sql": "CREATE TABLE items (id INTEGER PRIMARY KEY);",
		"002_alter.sql":  "ALTER TABLE items ADD COLUMN name TEXT;",
	}), DriverSQLite)

	var logs []string
	count, err := runner.ApplyMigrations(func(msg string) { logs = append(logs, msg) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	if _, err := db.Exec("INSERT INTO items (id, name) VALUES (1, 'x')"); err != nil {
		t.Errorf("migrated schema is incomplete: %v", err)
	}

	// Second run is a no-op
	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

func TestApplyMigrationsRollsBackFailedMigration(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_ok.sql":     "CREATE TABLE ok (id INTEGER);",
		"002_broken.sql": "CREATE TABLE broken (id INTEGER;",
	}), DriverSQLite)

	count, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version to stay at 1, got %d", version)
	}
}

func TestValidateVersionRejectsNewerDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_init.sql": "CREATE TABLE t (id INTEGER);",
	}), DriverSQLite)

	if err := runner.EnsureSchemaVersionTable(); err != nil {
		t.Fatalf("EnsureSchemaVersionTable failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (9)"); err != nil {
		t.Fatalf("failed to seed version: %v", err)
	}

	if err := runner.ValidateVersion(); err == nil {
		t.Error("expected error for database newer than migrations")
	}
}

func TestStatus(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_init.sql": "CREATE TABLE a (id INTEGER);",
		"002_more.sql": "CREATE TABLE b (id INTEGER);",
	}), DriverSQLite)

	current, latest, err := runner.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if current != 0 || latest != 2 {
		t.Errorf("Status() = (%d, %d), want (0, 2)", current, latest)
	}

	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	current, latest, err = runner.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if current != 2 || latest != 2 {
		t.Errorf("Status() = (%d, %d), want (2, 2)", current, latest)
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	db := setupTestDB(t)
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatalf("fs.Sub failed: %v", err)
	}

	runner := NewRunner(db, sub, DriverSQLite)
	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}

	for _, table := range []string{"themes", "habits", "completions"} {
		var count int
		err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to inspect schema: %v", err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestInsertVersionSQL(t *testing.T) {
	if got := NewRunner(nil, nil, DriverPostgres).insertVersionSQL(); !strings.Contains(got, "$1") {
		t.Errorf("postgres insert should use $1 placeholder, got %q", got)
	}
	if got := NewRunner(nil, nil, DriverSQLite).insertVersionSQL(); !strings.Contains(got, "?") {
		t.Errorf("sqlite insert should use ? placeholder, got %q", got)
	}
}
