// Package config 提供基于 viper 的配置加载、校验与热更新。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wyfcoding/optionlab/logging"
)

// Config 分析服务顶级配置.
type Config struct {
	Version        string               `mapstructure:"version"        toml:"version"`
	Server         ServerConfig         `mapstructure:"server"         toml:"server"`
	Log            LogConfig            `mapstructure:"log"            toml:"log"`
	Metrics        MetricsConfig        `mapstructure:"metrics"        toml:"metrics"`
	Tracing        TracingConfig        `mapstructure:"tracing"        toml:"tracing"`
	RateLimit      RateLimitConfig      `mapstructure:"ratelimit"      toml:"ratelimit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitbreaker" toml:"circuitbreaker"`
	Concurrency    ConcurrencyConfig    `mapstructure:"concurrency"    toml:"concurrency"`
	CORS           CORSConfig           `mapstructure:"cors"           toml:"cors"`
	Cache          CacheConfig          `mapstructure:"cache"          toml:"cache"`
	Data           DataConfig           `mapstructure:"data"           toml:"data"`
	Snowflake      SnowflakeConfig      `mapstructure:"snowflake"      toml:"snowflake"`
	Analytics      AnalyticsConfig      `mapstructure:"analytics"      toml:"analytics"`
}

// ServerConfig HTTP 服务参数.
type ServerConfig struct {
	Name        string `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string `mapstructure:"environment" toml:"environment" validate:"oneof=dev test prod"`
	HTTP        struct {
		Addr              string        `mapstructure:"addr"                toml:"addr"`
		Port              int           `mapstructure:"port"                toml:"port"                validate:"required,min=1,max=65535"`
		Timeout           time.Duration `mapstructure:"timeout"             toml:"timeout"`
		ReadTimeout       time.Duration `mapstructure:"read_timeout"        toml:"read_timeout"`
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" toml:"read_header_timeout"`
		WriteTimeout      time.Duration `mapstructure:"write_timeout"       toml:"write_timeout"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"        toml:"idle_timeout"`
		MaxBodyBytes      int64         `mapstructure:"max_body_bytes"      toml:"max_body_bytes"`
	} `mapstructure:"http" toml:"http"`
}

// LogConfig 日志输出、级别与切割策略.
type LogConfig struct {
	Level         string        `mapstructure:"level"          toml:"level"`
	Output        string        `mapstructure:"output"         toml:"output"         validate:"omitempty,oneof=stdout file both"`
	File          string        `mapstructure:"file"           toml:"file"`
	MaxSize       int           `mapstructure:"max_size"       toml:"max_size"`
	MaxBackups    int           `mapstructure:"max_backups"    toml:"max_backups"`
	MaxAge        int           `mapstructure:"max_age"        toml:"max_age"`
	Compress      bool          `mapstructure:"compress"       toml:"compress"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" toml:"slow_threshold"` // 慢请求阈值
}

// MetricsConfig Prometheus 指标暴露配置.
type MetricsConfig struct {
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// TracingConfig OpenTelemetry 链路追踪配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"gte=0,lte=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// RateLimitConfig 令牌桶限流参数；配置了 Redis 时使用分布式滑动窗口。
type RateLimitConfig struct {
	Rate        int  `mapstructure:"rate"        toml:"rate"`
	Burst       int  `mapstructure:"burst"       toml:"burst"`
	Enabled     bool `mapstructure:"enabled"     toml:"enabled"`
	Distributed bool `mapstructure:"distributed" toml:"distributed"`
}

// CircuitBreakerConfig Redis 缓存熔断策略.
type CircuitBreakerConfig struct {
	Interval    time.Duration `mapstructure:"interval"     toml:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"      toml:"timeout"`
	MaxRequests uint32        `mapstructure:"max_requests" toml:"max_requests"`
	Enabled     bool          `mapstructure:"enabled"      toml:"enabled"`
}

// ConcurrencyConfig HTTP 并发限制.
type ConcurrencyConfig struct {
	Enabled     bool          `mapstructure:"enabled"      toml:"enabled"`
	Max         int           `mapstructure:"max"          toml:"max"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout" toml:"wait_timeout"`
}

// CORSConfig 跨域配置，前端图表页面直接调用分析接口时需要开启。
type CORSConfig struct {
	Enabled          bool          `mapstructure:"enabled"           toml:"enabled"`
	AllowOrigins     []string      `mapstructure:"allow_origins"     toml:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"     toml:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"     toml:"allow_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials" toml:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"           toml:"max_age"`
}

// CacheConfig 结果缓存策略.
type CacheConfig struct {
	Prefix            string        `mapstructure:"prefix"             toml:"prefix"`
	DefaultExpiration time.Duration `mapstructure:"default_expiration" toml:"default_expiration"`
}

// DataConfig 缓存后端.
type DataConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"    toml:"redis"`
	BigCache BigCacheConfig `mapstructure:"bigcache" toml:"bigcache"`
}

// RedisConfig Redis 连接与池化参数；Addrs 为空表示不启用二级缓存.
type RedisConfig struct {
	Password       string        `mapstructure:"password"        toml:"password"`
	Addrs          []string      `mapstructure:"addrs"           toml:"addrs"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"    toml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"   toml:"write_timeout"`
	DB             int           `mapstructure:"db"              toml:"db"`
	PoolSize       int           `mapstructure:"pool_size"       toml:"pool_size"`
	MinIdleConns   int           `mapstructure:"min_idle_conns"  toml:"min_idle_conns"`
	ConnectRetries int           `mapstructure:"connect_retries" toml:"connect_retries" validate:"gte=0"` // 启动 Ping 失败的重试次数
	ConnectBackoff time.Duration `mapstructure:"connect_backoff" toml:"connect_backoff"`
}

// BigCacheConfig 本地内存缓存参数.
type BigCacheConfig struct {
	LifeWindow       time.Duration `mapstructure:"life_window"         toml:"life_window"`
	CleanWindow      time.Duration `mapstructure:"clean_window"        toml:"clean_window"`
	Shards           int           `mapstructure:"shards"              toml:"shards"`
	MaxEntrySize     int           `mapstructure:"max_entry_size"      toml:"max_entry_size"`
	HardMaxCacheSize int           `mapstructure:"hard_max_cache_size" toml:"hard_max_cache_size"`
	Verbose          bool          `mapstructure:"verbose"             toml:"verbose"`
}

// SnowflakeConfig 分布式 ID 生成器参数.
type SnowflakeConfig struct {
	StartTime string `mapstructure:"start_time" toml:"start_time"`
	Type      string `mapstructure:"type"       toml:"type"       validate:"omitempty,oneof=snowflake sonyflake"`
	MachineID int64  `mapstructure:"machine_id" toml:"machine_id"`
}

// AnalyticsConfig 期权分析参数.
type AnalyticsConfig struct {
	RiskFreeRate      float64       `mapstructure:"risk_free_rate"     toml:"risk_free_rate"     validate:"gte=-0.1,lte=1"`
	DefaultVolatility float64       `mapstructure:"default_volatility" toml:"default_volatility" validate:"gt=0,lte=5"`
	MinTimeYears      float64       `mapstructure:"min_time_years"     toml:"min_time_years"     validate:"gte=0"`
	MinVolatility     float64       `mapstructure:"min_volatility"     toml:"min_volatility"     validate:"gte=0"`
	GridPoints        int           `mapstructure:"grid_points"        toml:"grid_points"        validate:"min=2"`
	GridSigmaSpan     float64       `mapstructure:"grid_sigma_span"    toml:"grid_sigma_span"    validate:"gt=0"`
	MaxGridPoints     int           `mapstructure:"max_grid_points"    toml:"max_grid_points"    validate:"gtefield=GridPoints"`
	ChartPoints       int           `mapstructure:"chart_points"       toml:"chart_points"       validate:"min=2"`
	MaxBatch          int           `mapstructure:"max_batch"          toml:"max_batch"          validate:"min=1"`
	BatchParallelism  int           `mapstructure:"batch_parallelism"  toml:"batch_parallelism"  validate:"min=1"`
	ConfidenceLevels  []float64     `mapstructure:"confidence_levels"  toml:"confidence_levels"  validate:"dive,gt=0,lt=1"`
	ReturnTargets     []float64     `mapstructure:"return_targets"     toml:"return_targets"     validate:"dive,gt=0"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"          toml:"cache_ttl"`
}

var defaults = map[string]any{
	"server.environment":           "dev",
	"server.http.port":             8080,
	"log.level":                    "info",
	"log.output":                   "stdout",
	"log.slow_threshold":           "500ms",
	"metrics.enabled":              true,
	"metrics.path":                 "/metrics",
	"tracing.sampler_ratio":        1.0,
	"ratelimit.rate":               100,
	"ratelimit.burst":              200,
	"circuitbreaker.interval":      "60s",
	"circuitbreaker.timeout":       "30s",
	"circuitbreaker.max_requests":  5,
	"cache.prefix":                 "optionlab:",
	"cache.default_expiration":     "5m",
	"data.redis.connect_retries":   3,
	"data.redis.connect_backoff":   "200ms",
	"data.bigcache.life_window":    "10m",
	"data.bigcache.clean_window":   "5m",
	"data.bigcache.shards":         64,
	"data.bigcache.max_entry_size": 16384,
	"snowflake.type":               "snowflake",
	"snowflake.machine_id":         1,
	"analytics.risk_free_rate":     0.05,
	"analytics.default_volatility": 0.30,
	"analytics.min_time_years":     0.001,
	"analytics.min_volatility":     0.01,
	"analytics.grid_points":        150,
	"analytics.grid_sigma_span":    4.0,
	"analytics.max_grid_points":    5000,
	"analytics.chart_points":       150,
	"analytics.max_batch":          50,
	"analytics.batch_parallelism":  8,
	"analytics.confidence_levels":  []float64{0.95, 0.99},
	"analytics.return_targets":     []float64{0.1, 0.25, 0.5, 1.0},
	"analytics.cache_ttl":          "1m",
}

var (
	mu        sync.Mutex
	vInstance = viper.New()
	onReload  []func(*Config)
	validate  = validator.New()
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	onReload = append(onReload, hook)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load 读取 TOML 配置文件，应用 APP_ 前缀环境变量覆盖并校验，随后监听文件变化。
func Load(path string, conf *Config) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}
	if err := decode(v, conf); err != nil {
		return err
	}

	mu.Lock()
	vInstance = v
	mu.Unlock()

	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)
		reload(v, conf)
	})
	v.WatchConfig()
	return nil
}

func decode(v *viper.Viper, conf *Config) error {
	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// reload 先解码到副本，校验通过后才覆盖正在使用的配置。
func reload(v *viper.Viper, conf *Config) {
	var next Config
	if err := decode(v, &next); err != nil {
		slog.Error("reload config failed, keeping previous", "error", err)
		return
	}

	mu.Lock()
	*conf = next
	hooks := append([]func(*Config){}, onReload...)
	mu.Unlock()

	logging.SetLevel(next.Log.Level)
	for _, hook := range hooks {
		hook(conf)
	}
	slog.Info("config hot-reloaded and validated successfully")
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		slog.Error("failed to unmarshal config for masking", "error", err)
		return
	}
	mask(configMap)

	masked, err := json.MarshalIndent(configMap, "  ", "  ")
	if err != nil {
		slog.Error("failed to marshal masked config", "error", err)
		return
	}
	slog.Info("Current effective configuration", "config", string(masked))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}
		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}

// GetViper 返回最近一次 Load 使用的 Viper 实例.
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return vInstance
}
