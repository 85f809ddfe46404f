package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	dbfs "github.com/garnizeh/review/db"
	"github.com/garnizeh/review/internal/db"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("scan schema_migrations count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migrations recorded, got %d", count)
	}

	for _, table := range []string{"users", "submissions", "remark_reads"} {
		var name string
		if err := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Fatalf("expected %s table exists: %v", table, err)
		}
	}
}

func TestMigrate_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "review.db")

	d, err := db.New(ctx, path, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	d.Close()

	// reopening sees the recorded versions and applies nothing new
	d, err = db.New(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer d.Close()
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate after reopen failed: %v", err)
	}
}

func TestMigrate_RemarkInvariantEnforced(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer d.Close()
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	_, err = d.Exec(ctx, `INSERT INTO submissions (id, mentee_id, project_id, stage_key, remark, remark_updated_at, created) VALUES ('s', 'm', 'p', 'idea', 'text', NULL, 0)`)
	if err == nil {
		t.Fatalf("expected check constraint to reject a remark without remark_updated_at")
	}
}

func TestMigrate_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer d.Close()

	fsys := fstest.MapFS{
		"migrations/0001_ok.sql":     {Data: []byte(`CREATE TABLE a (id INTEGER);`)},
		"migrations/0002_broken.sql": {Data: []byte(`CREATE TABLE b (id INTEGER); CREATE TABLE oops (`)},
		"migrations/README.md":       {Data: []byte(`ignored`)},
	}

	if err := db.Migrate(ctx, d, fsys); err == nil {
		t.Fatalf("expected broken migration to fail")
	}

	var versions []string
	if err := d.Select(ctx, &versions, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		t.Fatalf("select versions: %v", err)
	}
	if len(versions) != 1 || versions[0] != "0001_ok" {
		t.Fatalf("unexpected recorded versions: %v", versions)
	}

	var n int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='b'`).Scan(&n); err != nil {
		t.Fatalf("count table b: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected table b to be rolled back")
	}
}
