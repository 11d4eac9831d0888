package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/contextx"
)

// RequestContextEnricher 注入客户端 IP 与 User-Agent。
func RequestContextEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := contextx.WithIP(c.Request.Context(), c.ClientIP())
		ctx = contextx.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
