// Package limiter 提供 HTTP 入口的请求速率与并发限制。
package limiter

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/optionlab/logging"
)

// Limiter 按 key（通常为客户端 IP）判断请求是否放行。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter 进程内令牌桶，每个 key 独立一个桶。
type LocalLimiter struct {
	r       rate.Limit
	b       int
	buckets sync.Map // key -> *rate.Limiter
}

// NewLocalLimiter r 为每秒令牌数，b 为桶容量。
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{r: r, b: b}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	v, ok := l.buckets.Load(key)
	if !ok {
		v, _ = l.buckets.LoadOrStore(key, rate.NewLimiter(l.r, l.b))
	}
	return v.(*rate.Limiter).Allow(), nil
}

// RedisLimiter 基于 ZSet 的分布式滑动窗口，多实例共享计数。
// Redis 不可用时降级到本地令牌桶。
type RedisLimiter struct {
	client   redis.UniversalClient
	prefix   string
	limit    int64
	window   time.Duration
	fallback *LocalLimiter
}

// NewRedisLimiter 窗口 window 内最多放行 limit 个请求。
func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	perSecond := rate.Limit(float64(limit) / window.Seconds())
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		limit:    int64(limit),
		window:   window,
		fallback: NewLocalLimiter(perSecond, limit),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - l.window.Nanoseconds()
	fullKey := l.prefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "0", strconv.FormatInt(windowStart, 10))
	card := pipe.ZCard(ctx, fullKey)
	pipe.ZAdd(ctx, fullKey, redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, fullKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		logging.Warn(ctx, "redis limiter unavailable, falling back to local", "error", err)
		return l.fallback.Allow(ctx, key)
	}
	// ZCard 在 ZAdd 之前执行，不含当前请求
	return card.Val() < l.limit, nil
}
