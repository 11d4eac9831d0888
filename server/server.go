// Package server 提供 HTTP 服务的生命周期封装。
package server

import "context"

// Server 由 app 统一启动与关闭。
// Start 阻塞直到 ctx 取消或监听失败；Stop 等待在途请求完成。
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
