package helper

import (
	"fmt"
	"time"
)

func GetTimeString() string {
	now := time.Now()
	return fmt.Sprintf("%s%d", now.Format("20060102150405"), now.UnixNano()%1e9)
}

// CalcElapsedMs returns the wall time since start in fractional milliseconds. Never negative.
func CalcElapsedMs(start time.Time) float64 {
	elapsed := time.Since(start)
	if elapsed < 0 {
		return 0
	}
	return float64(elapsed) / float64(time.Millisecond)
}
