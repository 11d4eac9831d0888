package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/analytics"
	"github.com/wyfcoding/optionlab/app"
	"github.com/wyfcoding/optionlab/cache"
	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/logging"
)

const serviceName = "analytics"

func main() {
	application, err := app.NewBuilder(serviceName).
		WithService(initService).
		WithGin(registerRoutes).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build %s: %v\n", serviceName, err)
		os.Exit(1)
	}
	if err := application.Run(); err != nil {
		logging.Default().Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

// initService 本地 BigCache 为一级缓存，配置了 Redis 时叠加二级缓存。
// cache_ttl<=0 时不缓存对比结果。
func initService(res *app.Resources) (any, func(), error) {
	cfg := res.Config

	local, err := cache.NewBigCache(cfg.Data.BigCache)
	if err != nil {
		return nil, nil, err
	}
	var backend cache.Cache = local
	if res.Redis != nil {
		backend = cache.NewMultiLevelCache(local, cache.NewRedisCache(res.Redis, cfg.Cache.Prefix, cfg.CircuitBreaker), res.Logger)
	}

	var results *cache.TimedCache
	if cfg.Analytics.CacheTTL > 0 {
		results = cache.NewTimedCache(backend, cfg.Analytics.CacheTTL)
	}

	svc := analytics.NewService(cfg.Analytics, results, res.Metrics, res.Logger)
	config.RegisterReloadHook(func(c *config.Config) {
		svc.UpdateConfig(c.Analytics)
	})

	cleanup := func() {
		if err := backend.Close(); err != nil {
			res.Logger.Error("close result cache failed", "error", err)
		}
	}
	return svc, cleanup, nil
}

func registerRoutes(e *gin.Engine, svc any) {
	analytics.NewHandler(svc.(*analytics.Service)).RegisterRoutes(e)
}
