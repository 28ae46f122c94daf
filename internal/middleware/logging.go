package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogging logs every request with method, path, status and timing.
func RequestLogging(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(startTime)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("ip", c.ClientIP()),
		}

		if requestID := c.GetString("request_id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			logger.Error("request completed with server error", fields...)
		case status >= 400:
			logger.Warn("request completed with client error", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// ErrorLogging logs handler errors accumulated on the gin context.
func ErrorLogging(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			logger.Error("request error",
				zap.Error(err.Err),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString("request_id")),
			)
		}
	}
}

// Recovery converts panics into a 500 response and logs the stack.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString("request_id")),
					zap.Stack("stack_trace"),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    "internal_error",
					"message": "an internal error occurred",
				})
			}
		}()

		c.Next()
	}
}

// RequestID assigns each request a unique ID, honoring one supplied by
// the caller, and echoes it in the response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}
