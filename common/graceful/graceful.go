// Package graceful tracks in-flight executions so shutdown can wait for them.
package graceful

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Laisky/zap"

	"github.com/apiprobe/apiprobe/common/logger"
)

var (
	inFlight atomic.Int64
	draining atomic.Bool
)

// BeginRequest counts one in-flight request. Call the returned func exactly once when it ends.
func BeginRequest() func() {
	inFlight.Add(1)
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			inFlight.Add(-1)
		}
	}
}

// InFlight returns the number of requests currently tracked.
func InFlight() int64 { return inFlight.Load() }

// Drain blocks until no request is in flight or ctx ends.
func Drain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		n := inFlight.Load()
		if n == 0 {
			logger.Logger.Info("graceful drain complete")
			return nil
		}

		select {
		case <-ctx.Done():
			logger.Logger.Error("graceful drain timeout", zap.Int64("in_flight_requests", n))
			return ctx.Err()
		case <-ticker.C:
			logger.Logger.Debug("draining...", zap.Int64("in_flight_requests", n))
		}
	}
}

// SetDraining makes IsDraining report true. New work should be refused from then on.
func SetDraining() { draining.Store(true) }

func IsDraining() bool { return draining.Load() }
