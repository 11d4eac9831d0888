// Package cache 提供分析结果缓存：本地 BigCache、Redis 二级缓存、多级组合，
// 以及带时间戳与防击穿能力的 TimedCache。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/logging"
)

// ErrCacheMiss 键不存在或已过期。
var ErrCacheMiss = errors.New("cache miss")

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "The total number of cache hits",
		},
		[]string{"backend"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "The total number of cache misses",
		},
		[]string{"backend"},
	)
	cacheDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "The duration of cache operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

// RegisterMetrics 将缓存指标注册到给定 Registerer，重复注册会被忽略。
func RegisterMetrics(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{cacheHits, cacheMisses, cacheDuration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				logging.Default().Warn("register cache metric failed", "error", err)
			}
		}
	}
}

// Cache 缓存接口，value 以 JSON 序列化存储。
type Cache interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// RedisCache 基于 Redis 的二级缓存，所有操作经过熔断器。
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	cb     *gobreaker.CircuitBreaker
}

// NewRedisCache 包装已建立的 Redis 客户端。
func NewRedisCache(client redis.UniversalClient, prefix string, cbCfg config.CircuitBreakerConfig) *RedisCache {
	timeout := cbCfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: cbCfg.MaxRequests,
		Interval:    cbCfg.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		// 未命中是正常结果，不计入熔断失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Default().Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &RedisCache{client: client, prefix: prefix, cb: cb}
}

func (c *RedisCache) buildKey(key string) string {
	return c.prefix + key
}

func observe(backend, op string, start time.Time) {
	cacheDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// Get 读取并反序列化到 value（必须为指针）。
func (c *RedisCache) Get(ctx context.Context, key string, value any) error {
	defer observe("redis", "get", time.Now())

	_, err := c.cb.Execute(func() (any, error) {
		data, err := c.client.Get(ctx, c.buildKey(key)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				cacheMisses.WithLabelValues("redis").Inc()
				return nil, ErrCacheMiss
			}
			return nil, err
		}
		cacheHits.WithLabelValues("redis").Inc()
		return nil, json.Unmarshal(data, value)
	})
	return err
}

// Set 序列化并写入。
func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	defer observe("redis", "set", time.Now())

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	_, err = c.cb.Execute(func() (any, error) {
		return nil, c.client.Set(ctx, c.buildKey(key), data, expiration).Err()
	})
	return err
}

// Delete 删除一个或多个键。
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	defer observe("redis", "delete", time.Now())

	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = c.buildKey(key)
	}
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.client.Del(ctx, fullKeys...).Err()
	})
	return err
}

// Exists 检查键是否存在。
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	defer observe("redis", "exists", time.Now())

	result, err := c.cb.Execute(func() (any, error) {
		n, err := c.client.Exists(ctx, c.buildKey(key)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Close 客户端由 redis 包的 cleanup 负责关闭，这里不重复关闭。
func (c *RedisCache) Close() error {
	return nil
}
