package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// TimeoutConfig defines the config for Timeout middleware.
type TimeoutConfig struct {
	// Timeout is the request deadline.
	// Default: 30s
	Timeout time.Duration

	// SkipPaths is a list of paths served without a deadline.
	SkipPaths []string
}

// DefaultTimeoutConfig is the default Timeout middleware config.
var DefaultTimeoutConfig = TimeoutConfig{
	Timeout: 30 * time.Second,
}

// Timeout returns a middleware that bounds request processing time.
func Timeout(timeout time.Duration, skipPaths ...string) gin.HandlerFunc {
	return TimeoutWithConfig(TimeoutConfig{Timeout: timeout, SkipPaths: skipPaths})
}

// TimeoutWithConfig returns a Timeout middleware with custom config.
//
// The deadline is set on the request context and the handler keeps running
// on the serving goroutine. Store calls observe the deadline and fail with
// context.DeadlineExceeded, which the error envelope reports as
// ErrRequestTimeout.
func TimeoutWithConfig(config TimeoutConfig) gin.HandlerFunc {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeoutConfig.Timeout
	}

	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), config.Timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
