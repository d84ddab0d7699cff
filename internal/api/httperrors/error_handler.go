package httperrors

import (
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// HTTPErrorHandler renders every handler error as a PublicHTTPError body.
// Internal causes are logged, never returned to the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	log := util.LogFromContext(c.Request().Context())

	var httpErr *HTTPError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
	case errors.As(err, &echoErr):
		httpErr = NewFromEcho(echoErr.Code, echoErr.Message)
		httpErr.Internal = echoErr.Internal
	default:
		httpErr = ErrInternal.WithInternal(err)
	}

	if httpErr.StatusCode() >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", httpErr.StatusCode()).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", httpErr.StatusCode()).Msg("Request rejected")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(httpErr.StatusCode())
	} else {
		writeErr = c.JSON(httpErr.StatusCode(), httpErr.PublicHTTPError)
	}
	if writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}
