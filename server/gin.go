package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/config"
	"github.com/wyfcoding/optionlab/logging"
)

const shutdownTimeout = 5 * time.Second

// GinServer 运行 Gin 引擎的 http.Server，支持优雅关闭。
type GinServer struct {
	server *http.Server
	logger *logging.Logger
}

// NewGinServer 按 server.http 配置创建服务，Addr 为空时监听所有地址。
func NewGinServer(engine *gin.Engine, cfg config.ServerConfig, logger *logging.Logger) *GinServer {
	h := cfg.HTTP
	return &GinServer{
		server: &http.Server{
			Addr:              net.JoinHostPort(h.Addr, strconv.Itoa(h.Port)),
			Handler:           engine,
			ReadTimeout:       h.ReadTimeout,
			ReadHeaderTimeout: h.ReadHeaderTimeout,
			WriteTimeout:      h.WriteTimeout,
			IdleTimeout:       h.IdleTimeout,
		},
		logger: logger,
	}
}

// Addr 监听地址。
func (s *GinServer) Addr() string {
	return s.server.Addr
}

func (s *GinServer) Start(ctx context.Context) error {
	s.logger.Info("starting gin server", "addr", s.server.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("gin server stopping due to context cancellation")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *GinServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping gin server gracefully")
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
