package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"
)

// missed reports whether a scheduled run was due after the newest backup and didn't happen,
// i.e. the service was down at that time. No backups at all counts as missed.
func (b *Backup) missed(sched cron.Schedule) bool {
	last, err := b.latest()
	if err != nil {
		log.Printf("[WARN] can't check missed backups, %v", err)
		return false
	}
	if last.IsZero() {
		log.Printf("[DEBUG] no backups in %s", b.Dir)
		return true
	}
	next := sched.Next(last)
	if next.Before(b.now()) {
		log.Printf("[DEBUG] backup due at %s missed, last one at %s", next.Format(time.RFC3339), last.Format(time.RFC3339))
		return true
	}
	return false
}

// latest returns modification time of the newest backup file of the current format, zero if none
func (b *Backup) latest() (time.Time, error) {
	entries, err := os.ReadDir(b.Dir)
	if os.IsNotExist(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read dir %s: %w", b.Dir, err)
	}

	ext := "." + b.format().String()
	var res time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) || filepath.Ext(entry.Name()) != ext {
			continue
		}
		finfo, err := entry.Info()
		if err != nil {
			log.Printf("[WARN] can't get info for %s, %s", entry.Name(), err)
			continue
		}
		if finfo.ModTime().After(res) {
			res = finfo.ModTime()
		}
	}
	return res, nil
}
