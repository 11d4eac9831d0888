package app

import (
	"context"

	"github.com/wyfcoding/optionlab/server"
)

// Option 配置 App。
type Option func(*options)

type options struct {
	servers []server.Server
	hooks   []Hook
}

// WithServer 注册随 App 启停的服务。
func WithServer(servers ...server.Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithHook 注册生命周期钩子。
func WithHook(hook Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hook)
	}
}

// WithCleanup 注册关闭时执行的清理函数。
func WithCleanup(name string, cleanup func()) Option {
	return WithHook(Hook{Name: name, OnStop: func(context.Context) error {
		cleanup()
		return nil
	}})
}
