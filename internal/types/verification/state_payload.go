package verification

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/verdict"
)

var overallValues = []interface{}{
	string(verdict.OverallUnverified),
	string(verdict.OverallPending),
	string(verdict.OverallVerified),
	string(verdict.OverallFailed),
}

// PostStatePayload derives a verdict for a session from a proof bundle.
type PostStatePayload struct {
	VerificationID  string          `json:"verificationId"`
	AttestedAddress string          `json:"attestedAddress,omitempty"`
	Proof           *proof.Response `json:"proof,omitempty"`
}

// Validate validates PostStatePayload
func (m *PostStatePayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.RequiredString("verificationId", "body", m.VerificationID); err != nil {
		res = append(res, err)
	}

	if len(m.AttestedAddress) > 0 {
		if err := validate.Pattern("attestedAddress", "body", m.AttestedAddress, `^0[xX][0-9a-fA-F]{40}$`); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PostStatePayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// PostPrefetchPayload 预取验证证明
type PostPrefetchPayload struct {
	VerificationID  string `json:"verificationId"`
	Model           string `json:"model"`
	OriginHint      string `json:"origin,omitempty"`
	AttestedAddress string `json:"attestedAddress,omitempty"`
}

// Validate validates PostPrefetchPayload
func (m *PostPrefetchPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.RequiredString("verificationId", "body", m.VerificationID); err != nil {
		res = append(res, err)
	}

	if err := validate.RequiredString("model", "body", m.Model); err != nil {
		res = append(res, err)
	}

	if len(m.OriginHint) > 0 {
		if err := validate.FormatOf("origin", "body", "uri", m.OriginHint, formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PostPrefetchPayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// StateResponse 验证结论
type StateResponse struct {
	VerificationID string          `json:"verificationId"`
	State          verdict.State   `json:"state"`
	Proof          *proof.Response `json:"proof,omitempty"`
}

// Validate validates StateResponse
func (m *StateResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.EnumCase("state.overall", "body", string(m.State.Overall), overallValues, true); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *StateResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *StateResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *StateResponse) UnmarshalBinary(b []byte) error {
	var res StateResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
