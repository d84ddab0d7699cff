package metadata

import (
	"strings"
)

// Status is the closed set of verification statuses carried by metadata.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
)

// DefaultSource labels metadata when the payload does not name its source.
const DefaultSource = "near-ai-cloud"

// Metadata is the normalized verification metadata of one inference response.
// Values are never mutated after construction; Merge and Normalize return copies.
type Metadata struct {
	Source            string      `json:"source"`
	Status            Status      `json:"status"`
	MessageID         string      `json:"messageId,omitempty"`
	Nonce             string      `json:"nonce,omitempty"`
	AttestationReport interface{} `json:"attestationReport,omitempty"`
	AttestationURL    string      `json:"attestationUrl,omitempty"`
	Proof             interface{} `json:"proof,omitempty"`
	Signature         string      `json:"signature,omitempty"`
	Measurement       string      `json:"measurement,omitempty"`
	IssuedAt          string      `json:"issuedAt,omitempty"`
	Error             string      `json:"error,omitempty"`
}

// CoerceStatus maps provider status strings onto the closed three value status.
func CoerceStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "verified", "valid":
		return StatusVerified
	case "failed", "invalid":
		return StatusFailed
	default:
		return StatusPending
	}
}
