package middleware

import (
	"context"
	"time"

	"townhall/pkg/logger"
	"townhall/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggingMiddleware tags each request with a generated request ID and
// logs it on completion through the context-aware logger.
func RequestLoggingMiddleware(contextLogger *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := utils.GenerateRequestID()

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		contextLogger.LogRequest(ctx,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
		)
	}
}
