// Package app 负责组装并运行分析服务：配置、日志、追踪、指标、缓存后端与 HTTP 服务。
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wyfcoding/optionlab/logging"
	"github.com/wyfcoding/optionlab/server"
)

const stopTimeout = 10 * time.Second

// App 管理服务器与依赖组件的生命周期。
type App struct {
	name      string
	logger    *logging.Logger
	servers   []server.Server
	lifecycle *Lifecycle
}

func New(name string, logger *logging.Logger, opts ...Option) *App {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	lc := NewLifecycle(logger)
	for _, h := range o.hooks {
		lc.Append(h)
	}
	return &App{name: name, logger: logger, servers: o.servers, lifecycle: lc}
}

// Run 启动组件与服务器，阻塞直到收到 SIGINT/SIGTERM 或服务器异常退出。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 与 Run 相同，由 ctx 控制退出。
func (a *App) RunContext(ctx context.Context) error {
	a.logger.Info("application starting", "name", a.name, "pid", os.Getpid())

	if err := a.lifecycle.Start(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(a.servers))
	for _, srv := range a.servers {
		go func(s server.Server) {
			if err := s.Start(ctx); err != nil {
				a.logger.Error("server exited with error", "error", err)
				errCh <- err
				cancel()
			}
		}(srv)
	}

	<-ctx.Done()
	a.logger.Info("shutting down application", "name", a.name)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()

	var errs []error
	for _, srv := range a.servers {
		if err := srv.Stop(stopCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.lifecycle.Stop(stopCtx); err != nil {
		errs = append(errs, err)
	}

	select {
	case err := <-errCh:
		errs = append(errs, err)
	default:
	}

	if len(errs) == 0 {
		a.logger.Info("application shut down gracefully")
	}
	return errors.Join(errs...)
}
