package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/common/helper"
)

// RequestId tags every request with an id, honouring one supplied by a trusted proxy.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(helper.RequestIdKey)
		if id == "" || len(id) > 64 {
			id = helper.GenRequestID()
		}
		c.Set(helper.RequestIdKey, id)
		c.Header(helper.RequestIdKey, id)
		c.Next()
	}
}
