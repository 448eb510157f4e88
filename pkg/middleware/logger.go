package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/labelhub/pkg/infra/tracing"
)

// LoggerConfig defines the config for Logger middleware.
type LoggerConfig struct {
	// SkipPaths is a list of paths to skip logging.
	SkipPaths []string
}

// DefaultLoggerConfig is the default Logger middleware config.
var DefaultLoggerConfig = LoggerConfig{
	SkipPaths: []string{"/healthz", "/metrics"},
}

// Logger returns a middleware that logs HTTP requests.
func Logger() gin.HandlerFunc {
	return LoggerWithConfig(DefaultLoggerConfig)
}

// LoggerWithConfig returns a Logger middleware with custom config.
func LoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipPaths[path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		ctx := c.Request.Context()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"remote_addr", c.ClientIP(),
			"latency_ms", latency.Milliseconds(),
		}
		if requestID := GetRequestID(ctx); requestID != "" {
			fields = append(fields, "request_id", requestID)
		}
		if traceID := tracing.TraceIDFromContext(ctx); traceID != "" {
			fields = append(fields, "trace_id", traceID)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Errorw("HTTP Request", fields...)
		case status >= 400:
			logger.Warnw("HTTP Request", fields...)
		default:
			logger.Infow("HTTP Request", fields...)
		}
	}
}
