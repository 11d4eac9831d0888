// Package contextx 在 context.Context 中注入与提取请求级信息。
// Key 使用私有类型，避免跨包冲突。
package contextx

import (
	"context"
)

type contextKey int

const (
	RequestIDKey contextKey = iota // 请求唯一标识
	IPKey                          // 客户端 IP
	UAKey                          // User-Agent
)

// AllKeys 需要写入日志的全部 Key。
var AllKeys = []contextKey{RequestIDKey, IPKey, UAKey}

// KeyNames Key 到日志字段名的映射。
var KeyNames = map[contextKey]string{
	RequestIDKey: "request_id",
	IPKey:        "client_ip",
	UAKey:        "user_agent",
}

func getString(ctx context.Context, key contextKey, fallback string) string {
	if val, ok := ctx.Value(key).(string); ok {
		return val
	}
	return fallback
}

// WithRequestID 注入请求 ID。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID 提取请求 ID，不存在时返回空字符串。
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey, "")
}

func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, IPKey, ip)
}

// GetIP 不存在时返回 "0.0.0.0"。
func GetIP(ctx context.Context) string {
	return getString(ctx, IPKey, "0.0.0.0")
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, UAKey, ua)
}

// GetUserAgent 不存在时返回 "Unknown"。
func GetUserAgent(ctx context.Context) string {
	return getString(ctx, UAKey, "Unknown")
}

// LogAttrs 返回 ctx 中已设置的字段，按 AllKeys 顺序排列为 key/value 对。
func LogAttrs(ctx context.Context) []any {
	var attrs []any
	for _, k := range AllKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			attrs = append(attrs, KeyNames[k], v)
		}
	}
	return attrs
}
