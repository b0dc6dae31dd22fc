package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/zlog"
)

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// IdentityMiddleware copies the caller identity the fronting auth layer set
// as trusted headers into the request context. Handlers that mutate state
// reject requests with a blank identity.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("identity_uid", c.GetHeader("X-User-Uid"))
		c.Set("identity_name", c.GetHeader("X-User-Name"))
		c.Set("identity_email", c.GetHeader("X-User-Email"))
		c.Next()
	}
}
