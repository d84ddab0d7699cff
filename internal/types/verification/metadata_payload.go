package verification

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
	"github.com/kashguard/go-tee-verifier/internal/infra/metadata"
)

// PostMetadataPayload normalizes the verification metadata of a raw provider response.
type PostMetadataPayload struct {
	Payload    map[string]interface{} `json:"payload"`
	Envelope   map[string]interface{} `json:"envelope,omitempty"`
	FallbackID string                 `json:"fallbackId,omitempty"`
}

// Validate validates PostMetadataPayload
func (m *PostMetadataPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if m.Payload == nil {
		res = append(res, errors.Required("payload", "body", nil))
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PostMetadataPayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MetadataResponse 规范化后的验证元数据, Metadata is nil when no verification signal exists.
type MetadataResponse struct {
	Found    bool               `json:"found"`
	Metadata *metadata.Metadata `json:"metadata,omitempty"`
}

// Validate validates MetadataResponse
func (m *MetadataResponse) Validate(formats strfmt.Registry) error {
	if m.Metadata == nil {
		return nil
	}

	var res []error

	if err := validate.Enum("metadata.status", "body", string(m.Metadata.Status), []interface{}{
		string(metadata.StatusPending),
		string(metadata.StatusVerified),
		string(metadata.StatusFailed),
	}); err != nil {
		res = append(res, err)
	}

	if err := validate.RequiredString("metadata.source", "body", m.Metadata.Source); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *MetadataResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *MetadataResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}
