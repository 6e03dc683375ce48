package middleware

import (
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/common/ctxkey"
	"github.com/apiprobe/apiprobe/common/jwtauth"
)

// UserAuth requires a valid bearer token and stores its subject under ctxkey.Id.
func UserAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			AbortWithError(c, http.StatusUnauthorized, errors.New("Missing authorization header"))
			return
		}

		token, ok := jwtauth.BearerToken(header)
		if !ok {
			AbortWithError(c, http.StatusUnauthorized, errors.New("Invalid authorization header format"))
			return
		}

		claims, err := jwtauth.ParseToken(token)
		if err != nil {
			gmw.GetLogger(c).Debug("reject bearer token", zap.Error(err))
			AbortWithError(c, http.StatusUnauthorized, errors.New("Invalid token"))
			return
		}

		c.Set(ctxkey.Id, claims.Subject)
		if claims.ExpiresAt > 0 {
			c.Set(ctxkey.TokenExpiresAt, time.Unix(claims.ExpiresAt, 0))
		}
		c.Next()
	}
}
