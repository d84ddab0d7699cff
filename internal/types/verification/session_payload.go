package verification

import (
	"context"
	"time"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// PostRecordInferencePayload 记录一次推理调用
type PostRecordInferencePayload struct {
	// VerificationID is the correlation id, generated when empty.
	VerificationID string `json:"verificationId,omitempty"`
	// RequestBody and ResponseBody are the serialized bodies exactly as sent and received.
	RequestBody  *string `json:"requestBody,omitempty"`
	ResponseBody *string `json:"responseBody,omitempty"`
	// RequestHash and ResponseHash may be supplied instead of the bodies.
	RequestHash  string `json:"requestHash,omitempty"`
	ResponseHash string `json:"responseHash,omitempty"`
}

// Validate validates PostRecordInferencePayload
func (m *PostRecordInferencePayload) Validate(formats strfmt.Registry) error {
	var res []error

	if m.RequestBody == nil && len(m.RequestHash) == 0 && m.ResponseBody == nil && len(m.ResponseHash) == 0 {
		res = append(res, errors.Required("requestBody", "body", nil))
	}

	if err := validateHash("requestHash", m.RequestHash); err != nil {
		res = append(res, err)
	}

	if err := validateHash("responseHash", m.ResponseHash); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PostRecordInferencePayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// HasRequest reports whether the request half of the inference call was supplied.
func (m *PostRecordInferencePayload) HasRequest() bool {
	return m.RequestBody != nil || len(m.RequestHash) > 0
}

// PatchSessionHashesPayload 补充已登记会话的哈希
type PatchSessionHashesPayload struct {
	RequestBody  *string `json:"requestBody,omitempty"`
	ResponseBody *string `json:"responseBody,omitempty"`
	RequestHash  string  `json:"requestHash,omitempty"`
	ResponseHash string  `json:"responseHash,omitempty"`
}

// Validate validates PatchSessionHashesPayload
func (m *PatchSessionHashesPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if m.RequestBody == nil && len(m.RequestHash) == 0 && m.ResponseBody == nil && len(m.ResponseHash) == 0 {
		res = append(res, errors.Required("responseBody", "body", nil))
	}

	if err := validateHash("requestHash", m.RequestHash); err != nil {
		res = append(res, err)
	}

	if err := validateHash("responseHash", m.ResponseHash); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PatchSessionHashesPayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// SessionResponse 验证会话
type SessionResponse struct {
	VerificationID string    `json:"verificationId"`
	Nonce          string    `json:"nonce"`
	RequestHash    string    `json:"requestHash,omitempty"`
	ResponseHash   string    `json:"responseHash,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate validates SessionResponse
func (m *SessionResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.RequiredString("verificationId", "body", m.VerificationID); err != nil {
		res = append(res, err)
	}

	if err := validate.RequiredString("nonce", "body", m.Nonce); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *SessionResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *SessionResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *SessionResponse) UnmarshalBinary(b []byte) error {
	var res SessionResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// hashPattern matches a lower or upper case hex SHA-256 digest.
const hashPattern = `^[0-9a-fA-F]{64}$`

func validateHash(name, value string) *errors.Validation {
	if len(value) == 0 {
		return nil
	}
	return validate.Pattern(name, "body", value, hashPattern)
}
