// Package middleware provides the gin middleware shared by LabelHub servers.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/labelhub/pkg/id"
)

// HeaderXRequestID carries the request ID in both directions.
const HeaderXRequestID = "X-Request-ID"

// RequestIDConfig defines the config for RequestID middleware.
type RequestIDConfig struct {
	// Header is the header name to use for request ID.
	// Default: "X-Request-ID"
	Header string

	// Generator is the function to generate request IDs.
	// Default: a ULID
	Generator func() string
}

// DefaultRequestIDConfig is the default RequestID middleware config.
var DefaultRequestIDConfig = RequestIDConfig{
	Header:    HeaderXRequestID,
	Generator: id.NewULID,
}

type requestIDKey struct{}

// RequestID returns a middleware that adds a unique request ID to each request.
// The request ID is added to:
//   - Request and response headers (X-Request-ID)
//   - Request context (can be retrieved with GetRequestID)
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

// RequestIDWithConfig returns a RequestID middleware with custom config.
func RequestIDWithConfig(config RequestIDConfig) gin.HandlerFunc {
	if config.Header == "" {
		config.Header = HeaderXRequestID
	}
	if config.Generator == nil {
		config.Generator = id.NewULID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(config.Header)
		if requestID == "" {
			requestID = config.Generator()
			c.Request.Header.Set(config.Header, requestID)
		}
		c.Header(config.Header, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey{}, requestID))
		c.Next()
	}
}

// GetRequestID returns the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
