// Package middleware 提供分析服务 HTTP 入口的 Gin 中间件。
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/contextx"
	"github.com/wyfcoding/optionlab/idgen"
)

const HeaderXRequestID = "X-Request-ID"

// RequestID 透传或生成请求 ID，注入 Context 并回写响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = idgen.GenRequestID()
		}
		c.Request = c.Request.WithContext(contextx.WithRequestID(c.Request.Context(), requestID))
		c.Header(HeaderXRequestID, requestID)
		c.Next()
	}
}
