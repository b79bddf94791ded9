package middleware

import (
	"context"
	"time"

	"telequal/pkg/logger"
	"telequal/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggerMiddleware assigns each request a correlation ID and
// logs the request line with whatever correlation fields the context
// carries.
func RequestLoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	contextLogger := logger.NewContextLogger(log)

	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}

		ctx := context.WithValue(c.Request.Context(), "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		contextLogger.LogRequest(
			c.Request.Context(),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
		)
	}
}
