package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/limiter"
	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/response"
)

// RateLimit 以客户端 IP 为 key 限流。限流器出错时放行并记录告警。
func RateLimit(l limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := c.ClientIP()

		allowed, err := l.Allow(ctx, key)
		if err != nil {
			logging.Error(ctx, "rate limiter error, fail-open applied", "key", key, "error", err)
			c.Next()
			return
		}
		if !allowed {
			logging.Warn(ctx, "request rejected by rate limiter", "key", key, "path", c.Request.URL.Path)
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "too many requests", "access rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

// NewRateLimiter 按配置选择限流器：distributed 且有 Redis 客户端时用滑动窗口，否则本地令牌桶。
func NewRateLimiter(cfg config.RateLimitConfig, client redis.UniversalClient, prefix string) limiter.Limiter {
	if cfg.Distributed && client != nil {
		// rate 表示每秒请求数，窗口取 1 秒，突发由 burst 提供
		return limiter.NewRedisLimiter(client, prefix+"ratelimit:", max(cfg.Rate, cfg.Burst), time.Second)
	}
	return limiter.NewLocalLimiter(rate.Limit(cfg.Rate), cfg.Burst)
}
