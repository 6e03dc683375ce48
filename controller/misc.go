package controller

import (
	"context"
	"net/http"
	"runtime"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/common"
	"github.com/apiprobe/apiprobe/common/graceful"
	"github.com/apiprobe/apiprobe/common/helper"
	"github.com/apiprobe/apiprobe/dto"
	"github.com/apiprobe/apiprobe/model"
)

// GetHealth reports process and database health in the fetch response shape.
func GetHealth(c *gin.Context) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(gmw.Ctx(c), 2*time.Second)
	defer cancel()

	status, state, message, database := http.StatusOK, "healthy", "Server is healthy", "ok"
	if err := model.Ping(ctx); err != nil {
		gmw.GetLogger(c).Warn("health check database ping failed", zap.Error(err))
		status, state, message, database = http.StatusServiceUnavailable, "unhealthy", "Database unavailable", "unavailable"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	data := map[string]any{
		"status":          state,
		"database":        database,
		"version":         common.Version,
		"uptime_seconds":  time.Now().Unix() - common.StartTime,
		"goroutines":      runtime.NumGoroutine(),
		"heap_alloc_byte": mem.HeapAlloc,
		"in_flight":       graceful.InFlight(),
	}

	c.JSON(status, dto.FetchResponse{
		Success:         status == http.StatusOK,
		Message:         message,
		Data:            data,
		StatusCode:      status,
		Headers:         map[string]string{},
		ExecutionTimeMs: helper.CalcElapsedMs(start),
		RequestDetails:  map[string]any{},
	})
}
