package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"sql/001_create_items.up.sql":   {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
	"sql/001_create_items.down.sql": {Data: []byte("DROP TABLE items;")},
	"sql/002_add_name.up.sql":       {Data: []byte("ALTER TABLE items ADD COLUMN name TEXT;")},
	"sql/002_add_name.down.sql":     {Data: []byte("ALTER TABLE items DROP COLUMN name;")},
	"sql/README.md":                 {Data: []byte("not a migration")},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMigrations(t *testing.T) {
	migrations, err := NewFSProvider(testMigrations, "sql", "").GetMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	for _, m := range migrations {
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d is missing a direction", m.Version)
		}
		if m.Version == 2 && m.Name != "add name" {
			t.Errorf("expected name %q, got %q", "add name", m.Name)
		}
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "sql", ""), nil)

	if err := m.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if v, err := m.CurrentVersion(); err != nil || v != 2 {
		t.Fatalf("expected version 2, got %d (%v)", v, err)
	}
	if _, err := db.Exec("INSERT INTO items (id, name) VALUES (1, 'a')"); err != nil {
		t.Fatalf("schema not applied: %v", err)
	}

	// A second run is a no-op
	if err := m.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}

	if err := m.MigrateTo(1); err != nil {
		t.Fatalf("MigrateTo(1): %v", err)
	}
	if v, _ := m.CurrentVersion(); v != 1 {
		t.Errorf("expected version 1 after rollback, got %d", v)
	}
	if _, err := db.Exec("INSERT INTO items (id, name) VALUES (2, 'b')"); err == nil {
		t.Error("expected the name column to be dropped")
	}

	pending, err := m.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("expected migration 2 pending, got %+v", pending)
	}
}

func TestMissingDirection(t *testing.T) {
	fsys := fstest.MapFS{"sql/001_only_down.down.sql": {Data: []byte("SELECT 1;")}}
	m := NewMigrator(openDB(t), NewFSProvider(fsys, "sql", ""), nil)
	if err := m.MigrateUp(); err == nil {
		t.Error("expected an error for a migration without up SQL")
	}
}
