package middleware

import (
	"net/http"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/common/helper"
)

// AbortWithError writes {"status":"error","message":...} and stops the chain.
// Internal errors hide err from the client and carry the request id instead.
func AbortWithError(c *gin.Context, statusCode int, err error) {
	logger := gmw.GetLogger(c)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("server abort", zap.Int("status_code", statusCode), zap.Error(err))
	} else {
		logger.Debug("client abort", zap.Int("status_code", statusCode), zap.Error(err))
	}

	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		message = helper.MessageWithRequestId("Internal server error", c.GetString(helper.RequestIdKey))
	}

	c.AbortWithStatusJSON(statusCode, gin.H{
		"status":  "error",
		"message": message,
	})
}
