package verification

import (
	"fmt"

	"github.com/kashguard/go-tee-verifier/internal/api/httperrors"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// bindBody binds and validates a request payload, rejecting it as INVALID_BODY.
func bindBody(c echo.Context, v util.Validatable) error {
	err := util.BindAndValidateBody(c, v)
	if err == nil {
		return nil
	}

	res := httperrors.ErrBadRequestInvalidBody.WithInternal(err)

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		res.Detail = fmt.Sprintf("%v", echoErr.Message)
	}

	return res
}
