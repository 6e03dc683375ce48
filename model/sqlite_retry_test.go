package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apiprobe/apiprobe/common"
)

func useSQLiteFlag(t *testing.T, on bool) {
	t.Helper()
	prev := common.UsingSQLite.Load()
	common.UsingSQLite.Store(on)
	t.Cleanup(func() { common.UsingSQLite.Store(prev) })
}

func TestWithSQLiteBusyRetryEventuallySucceeds(t *testing.T) {
	useSQLiteFlag(t, true)

	attempts := 0
	err := withSQLiteBusyRetry(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithSQLiteBusyRetryStopsOnCancel(t *testing.T) {
	useSQLiteFlag(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(sqliteBusyRetryBaseDelay / 2)
		cancel()
	}()

	err := withSQLiteBusyRetry(ctx, func(context.Context) error {
		return errors.New("SQLITE_BUSY: database is locked")
	})
	require.ErrorContains(t, err, "context canceled")
}

func TestWithSQLiteBusyRetryGivesUp(t *testing.T) {
	useSQLiteFlag(t, true)

	attempts := 0
	err := withSQLiteBusyRetry(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("database is busy")
	})
	require.ErrorContains(t, err, "remained busy")
	require.Equal(t, sqliteBusyRetryAttempts+1, attempts)
}

func TestWithSQLiteBusyRetryOnlyForSQLite(t *testing.T) {
	useSQLiteFlag(t, false)

	attempts := 0
	err := withSQLiteBusyRetry(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("database is locked")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestIsSQLiteBusy(t *testing.T) {
	require.True(t, isSQLiteBusy(errors.New("database table is locked")))
	require.True(t, isSQLiteBusy(errors.New("SQLITE_BUSY")))
	require.False(t, isSQLiteBusy(errors.New("UNIQUE constraint failed")))
}
