package httperrors

import (
	"net/http"

	"github.com/kashguard/go-tee-verifier/internal/types"
)

var (
	ErrBadRequestInvalidBody          = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeInvalidBody, "Invalid request body")
	ErrNotFoundSession                = NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeSessionNotFound, "Verification session not found")
	ErrConflictSessionIncomplete      = NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeSessionIncomplete, "Verification session has no request/response hashes")
	ErrServiceUnavailableNoCredential = NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeNotConfigured, "Attestation report source is not configured")
	ErrBadGatewayIncompleteEvidence   = NewHTTPError(http.StatusBadGateway, types.PublicHTTPErrorTypeIncompleteEvidence, "Attestation report has no usable evidence")
	ErrInternal                       = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Internal server error")
)
