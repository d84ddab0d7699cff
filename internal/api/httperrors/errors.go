package httperrors

import (
	"fmt"
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/types"
)

// HTTPError is a public API error, rendered as types.PublicHTTPError.
type HTTPError struct {
	types.PublicHTTPError
	Internal error `json:"-"`
}

// NewHTTPError 创建公开 HTTP 错误
func NewHTTPError(code int, errorType types.PublicHTTPErrorType, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Code:  int64(code),
			Title: title,
			Type:  errorType,
		},
	}
}

// NewHTTPErrorWithDetail 创建带详情的公开 HTTP 错误
func NewHTTPErrorWithDetail(code int, errorType types.PublicHTTPErrorType, title string, detail string) *HTTPError {
	e := NewHTTPError(code, errorType, title)
	e.Detail = detail
	return e
}

// NewFromEcho converts a framework error (unknown route, bad method, ...) into an HTTPError.
func NewFromEcho(code int, message interface{}) *HTTPError {
	return NewHTTPError(code, types.PublicHTTPErrorTypeGeneric, fmt.Sprintf("%v", message))
}

func (e *HTTPError) Error() string {
	var errorType string
	if e.Type != types.PublicHTTPErrorTypeGeneric {
		errorType = fmt.Sprintf(" (%s)", e.Type)
	}

	if len(e.Detail) > 0 {
		return fmt.Sprintf("HTTPError %d%s: %s - %s", e.Code, errorType, e.Title, e.Detail)
	}
	return fmt.Sprintf("HTTPError %d%s: %s", e.Code, errorType, e.Title)
}

// Unwrap exposes the internal cause for errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// WithInternal attaches a cause that is logged but never rendered.
func (e *HTTPError) WithInternal(err error) *HTTPError {
	res := *e
	res.Internal = err
	return &res
}

// StatusCode returns the HTTP status, defaulting to 500.
func (e *HTTPError) StatusCode() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return int(e.Code)
}
