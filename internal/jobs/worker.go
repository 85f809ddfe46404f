package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const backupPrefix = "review-"

// Backuper writes a consistent snapshot of the database to a path.
type Backuper interface {
	Backup(ctx context.Context, dst string) error
}

// BackupScheduler snapshots the database on a fixed interval and keeps the
// newest Keep snapshots in Dir.
type BackupScheduler struct {
	db       Backuper
	dir      string
	interval time.Duration
	keep     int
	logger   *slog.Logger
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewBackupScheduler(db Backuper, dir string, interval time.Duration, keep int, logger *slog.Logger) *BackupScheduler {
	if keep <= 0 {
		keep = 7
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupScheduler{
		db:       db,
		dir:      dir,
		interval: interval,
		keep:     keep,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start launches the scheduler goroutine. A non-positive interval disables it.
func (s *BackupScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("scheduled backups disabled")
		return
	}
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop signals the scheduler to stop and waits for an in-flight backup.
func (s *BackupScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *BackupScheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.logger.Info("backup scheduler stopping")
			return
		case <-ctx.Done():
			s.logger.Info("context canceled, backup scheduler exiting")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("scheduled backup", slog.Any("err", err))
			}
		}
	}
}

// RunOnce takes one snapshot and prunes old ones. It returns the new file.
func (s *BackupScheduler) RunOnce(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	// nanoseconds keep names unique and lexically ordered by time
	name := backupPrefix + s.now().UTC().Format("20060102T150405.000000000Z") + ".db"
	dst := filepath.Join(s.dir, name)
	if err := s.db.Backup(ctx, dst); err != nil {
		return "", err
	}

	if err := s.prune(); err != nil {
		return dst, fmt.Errorf("prune backups: %w", err)
	}
	return dst, nil
}

func (s *BackupScheduler) prune() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), ".db") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.keep {
		return nil
	}
	sort.Strings(names)

	var errs []error
	for _, n := range names[:len(names)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, n)); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("pruned backup", slog.String("file", n))
	}
	return errors.Join(errs...)
}
