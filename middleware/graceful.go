package middleware

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/common/graceful"
)

// GracefulTracker counts requests for graceful.Drain and refuses new ones once draining.
func GracefulTracker() gin.HandlerFunc {
	return func(c *gin.Context) {
		if graceful.IsDraining() {
			c.Header("Connection", "close")
			AbortWithError(c, http.StatusServiceUnavailable, errors.New("server is shutting down"))
			return
		}
		end := graceful.BeginRequest()
		defer end()
		c.Next()
	}
}
