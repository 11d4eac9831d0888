package app

import (
	"context"
	"sync"

	"github.com/wyfcoding/optionlab/logging"
)

// Hook 生命周期钩子。
type Hook struct {
	Name    string
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

// Lifecycle 按注册顺序启动组件，按相反顺序停止。
type Lifecycle struct {
	logger *logging.Logger
	hooks  []Hook
	mu     sync.Mutex
}

func NewLifecycle(logger *logging.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

func (l *Lifecycle) Append(hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// Start 任一组件启动失败即返回。
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]Hook(nil), l.hooks...)
	l.mu.Unlock()

	for _, hook := range hooks {
		if hook.OnStart == nil {
			continue
		}
		l.logger.Info("lifecycle: starting component", "name", hook.Name)
		if err := hook.OnStart(ctx); err != nil {
			l.logger.Error("lifecycle: failed to start component", "name", hook.Name, "error", err)
			return err
		}
	}
	return nil
}

// Stop 逆序停止全部组件，返回第一个错误。
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for i := len(l.hooks) - 1; i >= 0; i-- {
		hook := l.hooks[i]
		if hook.OnStop == nil {
			continue
		}
		l.logger.Info("lifecycle: stopping component", "name", hook.Name)
		if err := hook.OnStop(ctx); err != nil {
			l.logger.Error("lifecycle: failed to stop component", "name", hook.Name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
