package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/utils/response"
)

// Recovery returns a middleware that recovers from panics.
// It converts panics to JSON error responses using the error code system.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Panic recovered",
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c.Request.Context()),
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)

				resp := response.Err(errors.ErrInternal)
				resp.WithRequestID(GetRequestID(c.Request.Context()))
				c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
			}
		}()
		c.Next()
	}
}
