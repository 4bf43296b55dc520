package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup_missed(t *testing.T) {
	sched, err := cron.ParseStandard("0 3 * * *")
	require.NoError(t, err)
	now := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		files   map[string]time.Time
		missing bool
		want    bool
	}{
		{name: "no dir", missing: true, want: true},
		{name: "empty dir", want: true},
		{name: "fresh", files: map[string]time.Time{"job-tracker-2025-06-20.json": now.Add(-6 * time.Hour)}},
		{name: "run missed", files: map[string]time.Time{"job-tracker-2025-06-19.json": now.Add(-30 * time.Hour)}, want: true},
		{name: "newest wins", files: map[string]time.Time{
			"job-tracker-2025-06-10.json": now.Add(-240 * time.Hour),
			"job-tracker-2025-06-20.json": now.Add(-time.Hour),
		}},
		{name: "other files ignored", want: true, files: map[string]time.Time{
			"job-tracker-2025-06-20.yaml": now.Add(-time.Hour),
			"notes.json":                  now.Add(-time.Hour),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "backups")
			if !tt.missing {
				require.NoError(t, os.Mkdir(dir, 0o750))
			}
			for name, mt := range tt.files {
				fname := filepath.Join(dir, name)
				require.NoError(t, os.WriteFile(fname, []byte("{}"), 0o600))
				require.NoError(t, os.Chtimes(fname, mt, mt))
			}
			b := Backup{Dir: dir, Now: func() time.Time { return now }}
			assert.Equal(t, tt.want, b.missed(sched))
		})
	}
}

func TestBackup_RunResumesMissed(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "job-tracker-2025-06-17.json")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o600))
	mt := time.Date(2025, 6, 17, 3, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(old, mt, mt))

	cr := &fakeCron{}
	b := Backup{Exporter: staticExporter("{}"), Cron: cr, Dir: dir, Now: day(20), Resume: true}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, "0 3 * * *") }()

	require.Eventually(t, func() bool {
		cr.mu.Lock()
		defer cr.mu.Unlock()
		return cr.started
	}, time.Second, 10*time.Millisecond)

	_, err := os.Stat(filepath.Join(dir, "job-tracker-2025-06-20.json"))
	require.NoError(t, err, "missed backup made on start")

	cancel()
	require.NoError(t, <-done)
}

func TestBackup_RunNoResume(t *testing.T) {
	dir := t.TempDir()
	cr := &fakeCron{}
	b := Backup{Exporter: staticExporter("{}"), Cron: cr, Dir: dir, Now: day(20)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, "0 3 * * *") }()

	require.Eventually(t, func() bool {
		cr.mu.Lock()
		defer cr.mu.Unlock()
		return cr.started
	}, time.Second, 10*time.Millisecond)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files, "resume disabled")

	cancel()
	require.NoError(t, <-done)
}
