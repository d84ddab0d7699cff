package util

import (
	"context"
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Validatable is implemented by all request and response payloads in internal/types.
type Validatable interface {
	Validate(formats strfmt.Registry) error
	ContextValidate(ctx context.Context, formats strfmt.Registry) error
}

// BindAndValidateBody binds the JSON request body into v and validates it with the default
// go-openapi format registry. Binding or validation failures become 400 responses.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	ctx := c.Request().Context()
	log := LogFromContext(ctx)

	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		log.Debug().Err(err).Msg("Failed to bind request body")
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}

	if err := v.Validate(strfmt.Default); err != nil {
		log.Debug().Err(err).Msg("Request body validation failed")
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}

	if err := v.ContextValidate(ctx, strfmt.Default); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}

	return nil
}

// ValidateAndReturn validates a response payload before rendering it, so handlers never emit
// a body that violates its own contract.
func ValidateAndReturn(c echo.Context, code int, v Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		return errors.Wrap(err, "response payload failed validation")
	}

	return c.JSON(code, v)
}
