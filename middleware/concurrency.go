package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/limiter"
	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/response"
)

// ConcurrencyLimit 限制同时处理的请求数，超限返回 503。
func ConcurrencyLimit(l *limiter.SemaphoreLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := l.Acquire(ctx); err != nil {
			logging.Warn(ctx, "http concurrency limit exceeded", "path", c.Request.URL.Path, "error", err)
			response.ErrorWithStatus(c, http.StatusServiceUnavailable, "service busy", "concurrency limit exceeded")
			c.Abort()
			return
		}
		defer l.Release()
		c.Next()
	}
}
