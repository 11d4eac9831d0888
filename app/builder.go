package app

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/wyfcoding/optionlab/cache"
	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/idgen"
	"github.com/wyfcoding/optionlab/limiter"
	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/metrics"
	"github.com/wyfcoding/optionlab/middleware"
	"github.com/wyfcoding/optionlab/redis"
	"github.com/wyfcoding/optionlab/response"
	"github.com/wyfcoding/optionlab/server"
	"github.com/wyfcoding/optionlab/tracing"
	"github.com/wyfcoding/optionlab/validator"
)

const (
	defaultMetricsPath = "/metrics"
	healthPath         = "/sys/health"
	healthTimeout      = 2 * time.Second
)

// Resources 组装阶段创建的公共依赖，传给业务初始化函数。
type Resources struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Redis   goredis.UniversalClient // 未配置 data.redis.addrs 时为 nil
}

// InitFunc 业务初始化，返回服务实例与清理函数。
type InitFunc func(res *Resources) (svc any, cleanup func(), err error)

// RouteFunc 在引擎上注册业务路由。
type RouteFunc func(engine *gin.Engine, svc any)

// HealthChecker 健康检查探测，返回错误表示不健康。
type HealthChecker func(ctx context.Context) error

// Builder 以链式调用组装 App。
type Builder struct {
	serviceName    string
	configPath     string
	initService    InitFunc
	registerGin    RouteFunc
	healthCheckers map[string]HealthChecker
	ginMiddleware  []gin.HandlerFunc
	appOpts        []Option

	engine *gin.Engine
}

func NewBuilder(serviceName string) *Builder {
	return &Builder{
		serviceName:    serviceName,
		healthCheckers: make(map[string]HealthChecker),
	}
}

// WithConfigPath 指定配置文件；未指定时读取 -conf 命令行参数。
func (b *Builder) WithConfigPath(path string) *Builder {
	b.configPath = path
	return b
}

func (b *Builder) WithService(init InitFunc) *Builder {
	b.initService = init
	return b
}

func (b *Builder) WithGin(register RouteFunc) *Builder {
	b.registerGin = register
	return b
}

func (b *Builder) WithHealthChecker(name string, checker HealthChecker) *Builder {
	b.healthCheckers[name] = checker
	return b
}

// WithGinMiddleware 追加在内置治理中间件之后执行的中间件。
func (b *Builder) WithGinMiddleware(mw ...gin.HandlerFunc) *Builder {
	b.ginMiddleware = append(b.ginMiddleware, mw...)
	return b
}

// Engine 返回 Build 创建的引擎，Build 之前为 nil。
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// Build 依次初始化配置、日志、ID 生成器、追踪、指标、Redis、业务服务与 HTTP 服务。
func (b *Builder) Build() (*App, error) {
	cfg, err := b.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := b.initLogger(cfg)

	if err := idgen.Init(cfg.Snowflake); err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}
	if err := validator.RegisterGin(); err != nil {
		return nil, fmt.Errorf("register binding validators: %w", err)
	}

	if cfg.Tracing.Enabled {
		b.initTracing(cfg, logger)
	}

	m := metrics.NewMetrics(b.serviceName)
	m.RegisterBuildInfo(b.serviceName, cfg.Version)
	cache.RegisterMetrics(m.Registry())
	redis.RegisterMetrics(m.Registry())

	res := &Resources{Config: cfg, Logger: logger, Metrics: m}
	if len(cfg.Data.Redis.Addrs) > 0 {
		client, cleanup, err := redis.NewClient(cfg.Data.Redis, logger)
		if err != nil {
			return nil, err
		}
		res.Redis = client
		b.appOpts = append(b.appOpts, WithCleanup("redis", cleanup))
		b.healthCheckers["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}

	var svc any
	if b.initService != nil {
		s, cleanup, err := b.initService(res)
		if err != nil {
			return nil, fmt.Errorf("init service: %w", err)
		}
		svc = s
		if cleanup != nil {
			b.appOpts = append(b.appOpts, WithCleanup("service", cleanup))
		}
	}

	b.engine = server.NewGinEngine(cfg.Server.Environment, b.middlewareChain(cfg, res)...)
	b.registerAdminRoutes(cfg, m)
	if b.registerGin != nil {
		b.registerGin(b.engine, svc)
	}
	b.appOpts = append(b.appOpts, WithServer(server.NewGinServer(b.engine, cfg.Server, logger)))

	config.PrintWithMask(cfg)
	return New(b.serviceName, logger, b.appOpts...), nil
}

func (b *Builder) loadConfig() (*config.Config, error) {
	path := b.configPath
	if path == "" {
		fs := flag.NewFlagSet(b.serviceName, flag.ContinueOnError)
		fs.StringVar(&path, "conf", fmt.Sprintf("./configs/%s/config.toml", b.serviceName), "path to config file")
		if err := fs.Parse(os.Args[1:]); err != nil {
			return nil, err
		}
	}

	cfg := new(config.Config)
	if err := config.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.Name == "" {
		cfg.Server.Name = b.serviceName
	}
	return cfg, nil
}

func (b *Builder) initLogger(cfg *config.Config) *logging.Logger {
	logger := logging.NewFromConfig(logging.Config{
		Service:    b.serviceName,
		Module:     "app",
		Level:      cfg.Log.Level,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	logging.SetDefault(logger)
	return logger
}

func (b *Builder) initTracing(cfg *config.Config, logger *logging.Logger) {
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = b.serviceName
	}
	shutdown, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		return
	}
	b.appOpts = append(b.appOpts, WithHook(Hook{Name: "tracer", OnStop: shutdown}))
}

// middlewareChain 顺序：恢复、请求标识、追踪、日志、指标、跨域、限流、并发、请求体、超时、错误输出。
func (b *Builder) middlewareChain(cfg *config.Config, res *Resources) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		middleware.Recovery(res.Logger),
		middleware.RequestID(),
		middleware.RequestContextEnricher(),
	}
	if cfg.Tracing.Enabled {
		chain = append(chain, middleware.Tracing(b.serviceName), middleware.TraceIDHeader())
	}
	chain = append(chain,
		middleware.Logger(res.Logger, cfg.Log.SlowThreshold),
		middleware.HTTPMetrics(res.Metrics, metricsPath(cfg), healthPath),
	)
	if cfg.CORS.Enabled {
		chain = append(chain, middleware.CORS(cfg.CORS))
	}
	if cfg.RateLimit.Enabled {
		l := middleware.NewRateLimiter(cfg.RateLimit, res.Redis, cfg.Cache.Prefix)
		chain = append(chain, middleware.RateLimit(l))
	}
	if cfg.Concurrency.Enabled {
		sem := limiter.NewSemaphoreLimiter(cfg.Concurrency.Max, cfg.Concurrency.WaitTimeout)
		chain = append(chain, middleware.ConcurrencyLimit(sem))
	}
	chain = append(chain,
		middleware.MaxBodyBytes(cfg.Server.HTTP.MaxBodyBytes),
		middleware.Timeout(cfg.Server.HTTP.Timeout),
		middleware.HTTPErrorHandler(),
	)
	return append(chain, b.ginMiddleware...)
}

func metricsPath(cfg *config.Config) string {
	if cfg.Metrics.Path == "" {
		return defaultMetricsPath
	}
	return cfg.Metrics.Path
}

func (b *Builder) registerAdminRoutes(cfg *config.Config, m *metrics.Metrics) {
	b.engine.GET(healthPath, func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		checks := make(map[string]string, len(b.healthCheckers))
		healthy := true
		for name, check := range b.healthCheckers {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				healthy = false
				continue
			}
			checks[name] = "UP"
		}

		body := gin.H{
			"status":    "UP",
			"service":   b.serviceName,
			"version":   cfg.Version,
			"checks":    checks,
			"timestamp": time.Now().Unix(),
		}
		if !healthy {
			body["status"] = "DOWN"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		response.SuccessWithRawData(c, body)
	})

	if cfg.Metrics.Enabled {
		b.engine.GET(metricsPath(cfg), gin.WrapH(m.Handler()))
	}
}
