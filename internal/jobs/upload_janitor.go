package jobs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied when NewUploadJanitor is given a non-positive duration.
const (
	DefaultSweepInterval = time.Hour
	DefaultRetention     = 24 * time.Hour
)

// UploadJanitor removes retained upload files once they pass a maximum age.
type UploadJanitor struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
}

// NewUploadJanitor creates a new upload janitor.
func NewUploadJanitor(dir string, interval, maxAge time.Duration) *UploadJanitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultRetention
	}
	return &UploadJanitor{
		dir:      dir,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Start begins the background sweep loop. It returns when ctx is cancelled.
func (j *UploadJanitor) Start(ctx context.Context) {
	slog.Info("upload janitor started", "dir", j.dir, "interval", j.interval, "max_age", j.maxAge)

	// Run immediately on start
	j.Sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("upload janitor stopped")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep deletes regular files in the upload directory older than maxAge and
// returns how many were removed.
func (j *UploadJanitor) Sweep(ctx context.Context) int {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("upload janitor: failed to read dir", "dir", j.dir, "error", err)
		}
		return 0
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return removed
		default:
		}

		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, e.Name())
		if err := os.Remove(path); err != nil {
			slog.Error("upload janitor: failed to remove file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("upload janitor: removed expired uploads", "count", removed)
	}
	return removed
}
