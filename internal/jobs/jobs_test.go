package jobs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	dbfs "github.com/garnizeh/review/db"
	"github.com/garnizeh/review/internal/db"
	"github.com/garnizeh/review/internal/jobs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fileBackuper struct {
	calls atomic.Int32
	err   error
}

func (f *fileBackuper) Backup(ctx context.Context, dst string) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte("snapshot"), 0o600)
}

func listBackups(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "review-*.db"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestRunOnce_PrunesToKeep(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	b := &fileBackuper{}
	s := jobs.NewBackupScheduler(b, dir, 0, 3, nil)

	var last string
	for i := 0; i < 5; i++ {
		dst, err := s.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("RunOnce %d: %v", i, err)
		}
		last = dst
		time.Sleep(time.Millisecond)
	}

	got := listBackups(t, dir)
	if len(got) != 3 {
		t.Fatalf("expected 3 backups kept, got %d: %v", len(got), got)
	}
	if got[len(got)-1] != last {
		t.Fatalf("newest backup was pruned: kept %v, last %s", got, last)
	}

	// unrelated files are never pruned
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestRunOnce_BackupError(t *testing.T) {
	dir := t.TempDir()
	want := errors.New("disk full")
	s := jobs.NewBackupScheduler(&fileBackuper{err: want}, dir, 0, 3, nil)

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if n := len(listBackups(t, dir)); n != 0 {
		t.Fatalf("expected no backups, got %d", n)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	dir := t.TempDir()
	b := &fileBackuper{}
	s := jobs.NewBackupScheduler(b, dir, 10*time.Millisecond, 2, nil)
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for b.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop()

	if b.calls.Load() < 3 {
		t.Fatalf("expected at least 3 scheduled backups, got %d", b.calls.Load())
	}
	if n := len(listBackups(t, dir)); n > 2 {
		t.Fatalf("expected at most 2 backups kept, got %d", n)
	}
}

func TestScheduler_DisabledAndCanceled(t *testing.T) {
	b := &fileBackuper{}
	disabled := jobs.NewBackupScheduler(b, t.TempDir(), 0, 1, nil)
	disabled.Start(context.Background())
	disabled.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	s := jobs.NewBackupScheduler(b, t.TempDir(), time.Hour, 1, nil)
	s.Start(ctx)
	cancel()
	s.Stop()

	if n := b.calls.Load(); n != 0 {
		t.Fatalf("expected no backups, got %d", n)
	}
}

func TestRunOnce_RealDatabase(t *testing.T) {
	ctx := context.Background()
	d, err := db.New(ctx, filepath.Join(t.TempDir(), "review.db"), nil)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	defer d.Close()
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	dir := t.TempDir()
	dst, err := jobs.NewBackupScheduler(d, dir, 0, 1, nil).RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	snap, err := db.New(ctx, dst, nil)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer snap.Close()
	var n int
	if err := snap.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 migrations in snapshot, got %d", n)
	}
}
