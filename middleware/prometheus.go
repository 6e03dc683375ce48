package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/monitor"
)

func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		monitor.RecordAPIRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
