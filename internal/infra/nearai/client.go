package nearai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds a single attestation report request.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 512

// Client 推理服务商的证明报告客户端
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a client for the inference provider's attestation report endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchAttestationReport fetches the raw hardware attestation report of model.
// It returns expectations.ErrMissingCredential when no API key is configured.
func (c *Client) FetchAttestationReport(ctx context.Context, model string) (json.RawMessage, error) {
	if len(c.apiKey) == 0 {
		return nil, expectations.ErrMissingCredential
	}

	query := url.Values{}
	query.Set("model", model)
	endpoint := fmt.Sprintf("%s/v1/attestation/report?%s", c.baseURL, query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute HTTP request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read attestation report")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("attestation report request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if !json.Valid(body) {
		return nil, errors.New("attestation report is not valid JSON")
	}

	return json.RawMessage(body), nil
}
