package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// PublicHTTPErrorType 公开错误类型
type PublicHTTPErrorType string

const (
	PublicHTTPErrorTypeGeneric              PublicHTTPErrorType = "generic"
	PublicHTTPErrorTypeInvalidBody          PublicHTTPErrorType = "INVALID_BODY"
	PublicHTTPErrorTypeSessionNotFound      PublicHTTPErrorType = "SESSION_NOT_FOUND"
	PublicHTTPErrorTypeSessionIncomplete    PublicHTTPErrorType = "SESSION_INCOMPLETE"
	PublicHTTPErrorTypeNotConfigured        PublicHTTPErrorType = "ATTESTATION_NOT_CONFIGURED"
	PublicHTTPErrorTypeIncompleteEvidence   PublicHTTPErrorType = "ATTESTATION_INCOMPLETE_EVIDENCE"
	PublicHTTPErrorTypeProofUnavailable     PublicHTTPErrorType = "PROOF_UNAVAILABLE"
)

// PublicHTTPError is the JSON error body returned by the API.
type PublicHTTPError struct {
	Code   int64               `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Title  string              `json:"title"`
	Type   PublicHTTPErrorType `json:"type"`
}

// Validate validates PublicHTTPError
func (m *PublicHTTPError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("status", "body", m.Code); err != nil {
		res = append(res, err)
	}

	if err := validate.RequiredString("title", "body", m.Title); err != nil {
		res = append(res, err)
	}

	if err := validate.RequiredString("type", "body", string(m.Type)); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this error based on context it is used
func (m *PublicHTTPError) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *PublicHTTPError) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PublicHTTPError) UnmarshalBinary(b []byte) error {
	var res PublicHTTPError
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
