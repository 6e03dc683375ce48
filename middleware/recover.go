package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
)

func PanicRecover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				gmw.GetLogger(c).Error("panic detected",
					zap.Any("panic", r),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path))
				AbortWithError(c, http.StatusInternalServerError, errors.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}
