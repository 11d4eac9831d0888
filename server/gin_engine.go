package server

import (
	"github.com/gin-gonic/gin"
)

// NewGinEngine 创建不带默认中间件的引擎，中间件顺序由调用方决定。
// prod 环境切换到 ReleaseMode。
func NewGinEngine(environment string, middlewares ...gin.HandlerFunc) *gin.Engine {
	if environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middlewares...)
	return engine
}
