// Package redis 创建带指标钩子的 Redis 客户端，供二级缓存与分布式限流共用。
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/retry"
)

var (
	redisOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_ops_total",
			Help: "The total number of redis operations",
		},
		[]string{"command", "status"},
	)
	redisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_duration_seconds",
			Help:    "The duration of redis operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)

// RegisterMetrics 注册 Redis 指标，重复注册会被忽略。
func RegisterMetrics(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{redisOps, redisDuration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				logging.Default().Warn("register redis metric failed", "error", err)
			}
		}
	}
}

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func status(err error) string {
	if err != nil && !errors.Is(err, redis.Nil) {
		return "error"
	}
	return "success"
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		redisOps.WithLabelValues(cmd.Name(), status(err)).Inc()
		redisDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		redisOps.WithLabelValues("pipeline", status(err)).Inc()
		redisDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
		return err
	}
}

// NewClient 按配置创建客户端：单地址为单机模式，多地址为集群模式。
// 启动 Ping 按 connect_retries 退避重试，全部失败时返回错误。
func NewClient(cfg config.RedisConfig, logger *logging.Logger) (redis.UniversalClient, func(), error) {
	if len(cfg.Addrs) == 0 {
		return nil, nil, errors.New("redis addrs not configured")
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	client.AddHook(metricsHook{})

	p := retry.DefaultPolicy()
	p.MaxRetries = cfg.ConnectRetries
	if cfg.ConnectBackoff > 0 {
		p.InitialBackoff = cfg.ConnectBackoff
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := retry.Do(ctx, p, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis ping failed", "addrs", strings.Join(cfg.Addrs, ","), "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis", "addrs", strings.Join(cfg.Addrs, ","))

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close Redis client", "error", err)
		}
	}
	return client, cleanup, nil
}
