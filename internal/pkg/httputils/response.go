// Package httputils provides HTTP utility functions.
package httputils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/utils/response"
)

// HeaderRequestID is echoed back in every envelope.
const HeaderRequestID = "X-Request-ID"

// WriteResponse writes the response to the client.
// It handles both success and error cases, ensuring consistent response format.
func WriteResponse(c *gin.Context, err error, data any) {
	var resp *response.Response
	if err != nil {
		resp = response.Err(errors.FromError(err))
		if resp.HTTPStatus() >= http.StatusInternalServerError {
			logger.Errorw("Request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", c.GetHeader(HeaderRequestID),
				"error", err.Error(),
			)
		}
	} else if r, ok := data.(*response.Response); ok {
		// data can be *response.Response (e.g. from response.Page) or raw data
		resp = r
	} else {
		resp = response.Success(data)
	}

	if id := c.GetHeader(HeaderRequestID); id != "" {
		resp.WithRequestID(id)
	}
	c.JSON(resp.HTTPStatus(), resp)
}
