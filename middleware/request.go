package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videoindex/log"
	"videoindex/metrics"
)

// HeaderRequestID 请求ID头
const HeaderRequestID = "X-Request-ID"

// RequestID 为每个请求分配ID，已带ID的请求沿用原值
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header(HeaderRequestID, reqID)
		c.Request = c.Request.WithContext(log.ContextWithRequestID(c.Request.Context(), reqID))
		c.Next()
	}
}

// AccessLog 访问日志和请求计数
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, status)

		logger := log.FromContext(c.Request.Context(), "http")
		evt := logger.Info()
		if status >= 500 {
			evt = logger.Error()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
