package model

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/apiprobe/apiprobe/common"
)

const (
	sqliteBusyRetryAttempts  = 4
	sqliteBusyRetryBaseDelay = 25 * time.Millisecond
)

// withSQLiteBusyRetry runs op and, on SQLite only, retries while the database reports a lock.
func withSQLiteBusyRetry(ctx context.Context, op func(ctx context.Context) error) error {
	if !common.UsingSQLite.Load() {
		return op(ctx)
	}

	var lastErr error
	for attempt := 0; attempt <= sqliteBusyRetryAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * sqliteBusyRetryBaseDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Wrap(lastErr, "context canceled while waiting for SQLite lock")
			case <-timer.C:
			}
		}

		if lastErr = op(ctx); lastErr == nil || !isSQLiteBusy(lastErr) {
			return lastErr
		}
	}

	return errors.Wrap(lastErr, "SQLite remained busy after retries")
}

func isSQLiteBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"database is locked", "database table is locked", "database is busy", "sqlite_busy"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
