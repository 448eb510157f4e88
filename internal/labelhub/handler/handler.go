// Package handler exposes the LabelHub services over HTTP.
package handler

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/id"
	"github.com/kart-io/labelhub/pkg/validator"
)

// bind decodes the JSON body into obj and validates it.
func bind(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs *validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			return errors.ErrValidationFailed.WithMessage(verrs.Error()).WithDetails(verrs.Errors)
		}
		return errors.ErrBadRequest.WithMessagef("invalid request body: %s", err.Error())
	}
	return nil
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	u, err := id.ParseUUID(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidParam.WithMessagef("%s must be a UUID", name)
	}
	return u, nil
}

// parseInclude reads the comma separated include query parameter. Both
// repeated and comma separated values are accepted.
func parseInclude(c *gin.Context) (store.Include, error) {
	var include store.Include
	for _, raw := range c.QueryArray("include") {
		for _, part := range strings.Split(raw, ",") {
			switch strings.TrimSpace(part) {
			case "":
			case "responses":
				include.Responses = true
			case "suggestions":
				include.Suggestions = true
			case "vectors":
				include.Vectors = true
			default:
				return include, errors.ErrInvalidParam.WithMessagef("unknown include %q", part)
			}
		}
	}
	return include, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ErrInvalidParam.WithMessagef("%s must be an integer", name)
	}
	return n, nil
}
