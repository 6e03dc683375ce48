package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
)

// StartLogRetentionCleaner removes apiprobe log files older than retentionDays from logDir,
// once immediately and then daily until ctx is done.
func StartLogRetentionCleaner(ctx context.Context, retentionDays int, logDir string) {
	if retentionDays <= 0 {
		Logger.Debug("log retention disabled", zap.Int("log_retention_days", retentionDays))
		return
	}
	if strings.TrimSpace(logDir) == "" {
		Logger.Warn("log retention enabled but log directory is empty", zap.Int("log_retention_days", retentionDays))
		return
	}

	cleanup := func() {
		removed, err := purgeLogFiles(logDir, time.Now().UTC().AddDate(0, 0, -retentionDays))
		if err != nil {
			Logger.Warn("log retention cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			Logger.Info("log retention cleanup done", zap.Int("removed", removed))
		}
	}

	cleanup()

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleanup()
			}
		}
	}()
}

// purgeLogFiles deletes *.log files in dir last modified before cutoff and reports how many went away.
func purgeLogFiles(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "read log directory %s", dir)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			Logger.Warn("failed to delete expired log file", zap.String("log_path", path), zap.Error(err))
			continue
		}
		removed++
	}

	return removed, nil
}
