package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionlab/tracing"
)

const HeaderXTraceID = "X-Trace-ID"

// TraceIDHeader 将当前 trace_id 写入响应头，需放在 Tracing 之后。
func TraceIDHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if traceID := tracing.GetTraceID(c.Request.Context()); traceID != "" {
			c.Header(HeaderXTraceID, traceID)
		}
		c.Next()
	}
}
