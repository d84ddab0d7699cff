package proof

import (
	"encoding/json"
)

// SignaturePayload is the provider signature over "{requestHash}:{responseHash}".
type SignaturePayload struct {
	Text           string `json:"text,omitempty"`
	Signature      string `json:"signature,omitempty"`
	SigningAddress string `json:"signing_address,omitempty"`
	SigningAlgo    string `json:"signing_algo,omitempty"`
}

// NonceCheck is the backend's comparison of the session nonce with the attested one.
type NonceCheck struct {
	Valid    bool   `json:"valid"`
	Expected string `json:"expected,omitempty"`
	Attested string `json:"attested,omitempty"`
	NRAS     string `json:"nras,omitempty"`
}

// CheckResult is one remote sub-verdict.
type CheckResult struct {
	Verified *bool    `json:"verified,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Results summarizes the backend's own evaluation.
type Results struct {
	Verified  *bool        `json:"verified,omitempty"`
	Reasons   []string     `json:"reasons,omitempty"`
	GPU       *CheckResult `json:"gpu,omitempty"`
	CPU       *CheckResult `json:"cpu,omitempty"`
	Nonce     *CheckResult `json:"nonce,omitempty"`
	Signature *CheckResult `json:"signature,omitempty"`
}

// Response is the verification proof bundle returned by the backend. It is treated as
// read-only evidence.
type Response struct {
	Attestation json.RawMessage   `json:"attestation,omitempty"`
	Signature   *SignaturePayload `json:"signature,omitempty"`
	NRAS        json.RawMessage   `json:"nras,omitempty"`
	Intel       json.RawMessage   `json:"intel,omitempty"`
	NonceCheck  *NonceCheck       `json:"nonceCheck,omitempty"`
	Results     *Results          `json:"results,omitempty"`
}

// Request asks the backend to evaluate the evidence of one verification session.
type Request struct {
	VerificationID         string   `json:"verificationId"`
	Model                  string   `json:"model"`
	RequestHash            string   `json:"requestHash"`
	ResponseHash           string   `json:"responseHash"`
	Nonce                  string   `json:"nonce,omitempty"`
	ExpectedArch           string   `json:"expectedArch,omitempty"`
	ExpectedDeviceCertHash string   `json:"expectedDeviceCertHash,omitempty"`
	ExpectedRimHash        string   `json:"expectedRimHash,omitempty"`
	ExpectedUEID           string   `json:"expectedUeid,omitempty"`
	ExpectedMeasurements   []string `json:"expectedMeasurements,omitempty"`
}
