package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/logging"
)

// Logger 访问日志，耗时超过 slowThreshold 的请求以 warn 级别输出。
func Logger(logger *logging.Logger, slowThreshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)
		args := []any{
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"cost", cost,
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		if slowThreshold > 0 && cost > slowThreshold {
			logger.WarnContext(ctx, "slow http request", args...)
			return
		}
		logger.InfoContext(ctx, "http request", args...)
	}
}
