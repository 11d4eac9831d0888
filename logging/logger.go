// Package logging 提供基于 slog 的结构化日志，自动注入 OpenTelemetry 追踪上下文，
// 支持 lumberjack 文件切割与运行时动态调整级别。
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wyfcoding/optionlab/contextx"
)

var (
	defaultLogger *Logger
	mu            sync.RWMutex
	// level 所有由本包创建的 Handler 共享，SetLevel 修改后立即生效。
	level = new(slog.LevelVar)
)

// Config 日志配置
type Config struct {
	Service    string
	Module     string
	Level      string
	Output     string // stdout | file | both
	File       string // 日志文件路径
	MaxSize    int    // 单个文件最大尺寸 (MB)
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

// Logger 封装 *slog.Logger 并记录服务名与模块名。
type Logger struct {
	*slog.Logger
	Service string
	Module  string
}

// TraceHandler 从 context 中提取 trace_id / span_id 与请求字段注入日志记录。
type TraceHandler struct {
	slog.Handler
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if attrs := contextx.LogAttrs(ctx); len(attrs) > 0 {
		r.Add(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel 将字符串解析为 slog.Level，未知取值回退到 info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel 动态调整全局日志级别，配置热更新时调用。
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Key = "timestamp"
	}
	return a
}

func fileWriter(cfg Config) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// NewFromConfig 按配置创建 Logger。
func NewFromConfig(cfg Config) *Logger {
	return newWithWriters(cfg, writersFor(cfg)...)
}

func writersFor(cfg Config) []io.Writer {
	switch {
	case cfg.File == "":
		return []io.Writer{os.Stdout}
	case cfg.Output == "both":
		return []io.Writer{os.Stdout, fileWriter(cfg)}
	case cfg.Output == "stdout":
		return []io.Writer{os.Stdout}
	default:
		return []io.Writer{fileWriter(cfg)}
	}
}

func newWithWriters(cfg Config, writers ...io.Writer) *Logger {
	level.Set(ParseLevel(cfg.Level))
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}

	handlers := make([]slog.Handler, 0, len(writers))
	for _, w := range writers {
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
	}
	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = newMultiHandler(handlers...)
	}

	l := slog.New(&TraceHandler{Handler: handler}).With(
		slog.String("service", cfg.Service),
		slog.String("module", cfg.Module),
	)
	return &Logger{Logger: l, Service: cfg.Service, Module: cfg.Module}
}

// NewLogger 以服务名、模块名和可选级别创建 Logger。
func NewLogger(service, module string, lvl ...string) *Logger {
	cfg := Config{Service: service, Module: module, Level: "info"}
	if len(lvl) > 0 {
		cfg.Level = lvl[0]
	}
	return NewFromConfig(cfg)
}

// SetDefault 设置全局默认 Logger 并同步到 slog.Default。
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
	slog.SetDefault(l.Logger)
}

// Default 返回全局默认 Logger，未初始化时创建一个输出到 stdout 的实例。
func Default() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger("optionlab", "default")
	}
	return defaultLogger
}

// Info 记录 Info 级别日志
func Info(ctx context.Context, msg string, args ...any) {
	Default().InfoContext(ctx, msg, args...)
}

// Warn 记录 Warn 级别日志
func Warn(ctx context.Context, msg string, args ...any) {
	Default().WarnContext(ctx, msg, args...)
}

// Error 记录 Error 级别日志
func Error(ctx context.Context, msg string, args ...any) {
	Default().ErrorContext(ctx, msg, args...)
}

// Debug 记录 Debug 级别日志
func Debug(ctx context.Context, msg string, args ...any) {
	Default().DebugContext(ctx, msg, args...)
}

// LogDuration 返回一个在调用时记录操作耗时的函数，通常配合 defer 使用。
func LogDuration(ctx context.Context, operation string, args ...any) func() {
	start := time.Now()
	return func() {
		logArgs := append(args, "duration", time.Since(start))
		Debug(ctx, fmt.Sprintf("%s finished", operation), logArgs...)
	}
}
