package expectations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Expectations are the hardware reference values a model's output must be attested against.
type Expectations struct {
	// Nonce is request scoped and never cached.
	Nonce          string   `json:"nonce,omitempty"`
	Arch           string   `json:"arch"`
	DeviceCertHash string   `json:"deviceCertHash"`
	RimHash        string   `json:"rimHash,omitempty"`
	UEID           string   `json:"ueid,omitempty"`
	Measurements   []string `json:"measurements"`
}

// WithNonce returns a request scoped copy carrying nonce.
func (e Expectations) WithNonce(nonce string) Expectations {
	e.Nonce = nonce
	e.Measurements = append([]string(nil), e.Measurements...)
	return e
}

// Validate returns the names of missing required fields in a stable order.
// An empty result means the set is complete.
func Validate(e Expectations) []string {
	missing := make([]string, 0, 3)
	if len(strings.TrimSpace(e.Arch)) == 0 {
		missing = append(missing, "arch")
	}
	if len(strings.TrimSpace(e.DeviceCertHash)) == 0 {
		missing = append(missing, "deviceCertHash")
	}
	if len(e.Measurements) == 0 {
		missing = append(missing, "measurements")
	}
	return missing
}

// ReportFetcher fetches a raw hardware attestation report for a model.
type ReportFetcher interface {
	FetchAttestationReport(ctx context.Context, model string) (json.RawMessage, error)
}

var (
	// ErrMissingCredential is returned when no credential is available to fetch a report.
	ErrMissingCredential = errors.New("no credential configured to fetch attestation reports")
	// ErrReportUnavailable wraps transport and upstream failures while fetching a report.
	ErrReportUnavailable = errors.New("attestation report unavailable")
)

// ConfigurationError 配置错误: the resolver is not set up to fetch reports.
type ConfigurationError struct {
	Model string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("attestation expectations for model %q: configuration error: %v", e.Model, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IncompleteEvidenceError 证据不完整: a report was fetched but yielded no usable evidence.
type IncompleteEvidenceError struct {
	Model   string
	Missing []string
}

func (e *IncompleteEvidenceError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("attestation report for model %q contains no usable evidence list", e.Model)
	}
	return fmt.Sprintf("attestation report for model %q is missing required fields: %s", e.Model, strings.Join(e.Missing, ", "))
}
