// Package backup writes scheduled export files of the job tracker store to a directory
// and keeps only the newest of them.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/umputun/jobtrack/app/conditions"
	"github.com/umputun/jobtrack/app/store"
	"github.com/umputun/jobtrack/app/store/enums"
)

const filePrefix = "job-tracker-"

// Exporter makes the text of a full store export
type Exporter interface {
	Export(format enums.Format) (string, error)
}

// Cron interface defines basic robfig/cron methods used by backup
type Cron interface {
	Start()
	Stop() context.Context
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
}

// Notifier alerts about failed scheduled backups
type Notifier interface {
	BackupFailed(ctx context.Context, dir string, err error) error
}

// ConditionChecker checks host resources before a scheduled backup
type ConditionChecker interface {
	Check(cfg conditions.Config) (bool, string)
}

// Backup saves dated export files, one per day, overwriting the file of the same day
type Backup struct {
	Exporter Exporter
	Cron     Cron
	Notifier Notifier // optional

	ConditionChecker ConditionChecker  // optional
	Conditions       conditions.Config // checked before each scheduled run

	Dir    string
	Format enums.Format
	Keep   int  // files to keep, 0 keeps all
	Resume bool // run at start if a scheduled backup was missed
	Now    func() time.Time
}

// Run schedules backups and blocks until ctx is done
func (b *Backup) Run(ctx context.Context, spec string) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("can't parse backup schedule %q: %w", spec, err)
	}

	if b.Resume && b.missed(sched) {
		log.Printf("[INFO] resume missed backup to %s", b.Dir)
		b.scheduled(ctx)
	}

	id := b.Cron.Schedule(sched, cron.FuncJob(func() { b.scheduled(ctx) }))
	log.Printf("[INFO] backup to %s scheduled, first: %s (%v)", b.Dir, sched.Next(b.now()).Format(time.RFC3339), id)

	b.Cron.Start()
	<-ctx.Done()
	log.Print("[DEBUG] backup terminated")
	<-b.Cron.Stop().Done()
	return nil
}

// scheduled runs a backup if conditions allow, failures are logged and sent to the notifier
func (b *Backup) scheduled(ctx context.Context) {
	if b.ConditionChecker != nil {
		if ok, reason := b.ConditionChecker.Check(b.Conditions); !ok {
			log.Printf("[WARN] backup skipped, %s", reason)
			b.notify(ctx, fmt.Errorf("skipped, %s", reason))
			return
		}
	}
	if _, err := b.Save(); err != nil {
		log.Printf("[WARN] backup failed, %v", err)
		b.notify(ctx, err)
	}
}

func (b *Backup) notify(ctx context.Context, err error) {
	if b.Notifier == nil {
		return
	}
	if nerr := b.Notifier.BackupFailed(ctx, b.Dir, err); nerr != nil {
		log.Printf("[WARN] can't send backup failure notification, %v", nerr)
	}
}

// Save writes the export file and prunes old ones, returns the written file name
func (b *Backup) Save() (string, error) {
	text, err := b.Exporter.Export(b.format())
	if err != nil {
		return "", fmt.Errorf("failed to export: %w", err)
	}

	if err = os.MkdirAll(b.Dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to make backup dir %s: %w", b.Dir, err)
	}

	fname := filepath.Join(b.Dir, store.ExportFileName(b.now(), b.format()))
	tmp := fname + ".tmp"
	if err = os.WriteFile(tmp, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, fname); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	log.Printf("[INFO] backup saved to %s", fname)

	if err = b.prune(); err != nil {
		log.Printf("[WARN] can't prune backups in %s, %v", b.Dir, err)
	}
	return fname, nil
}

// prune removes backups of the current format beyond Keep, newest files stay.
// File names carry the date so the name order is the age order.
func (b *Backup) prune() error {
	if b.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		return fmt.Errorf("failed to read dir: %w", err)
	}

	ext := "." + b.format().String()
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || filepath.Ext(e.Name()) != ext {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) <= b.Keep {
		return nil
	}

	slices.Sort(names)
	for _, name := range names[:len(names)-b.Keep] {
		if err := os.Remove(filepath.Join(b.Dir, name)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
		log.Printf("[DEBUG] old backup %s removed", name)
	}
	return nil
}

func (b *Backup) format() enums.Format {
	if b.Format == (enums.Format{}) {
		return enums.FormatJson
	}
	return b.Format
}

func (b *Backup) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
