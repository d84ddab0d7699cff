package nearai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	"github.com/kashguard/go-tee-verifier/internal/infra/nearai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAttestationReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/attestation/report", r.URL.Path)
		assert.Equal(t, "deepseek-ai/DeepSeek-V3.1", r.URL.Query().Get("model"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nvidia_payload": {"evidence_list": []}}`))
	}))
	defer srv.Close()

	client := nearai.NewClient(srv.URL+"/", "secret", time.Second)
	raw, err := client.FetchAttestationReport(context.Background(), "deepseek-ai/DeepSeek-V3.1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nvidia_payload": {"evidence_list": []}}`, string(raw))
}

func TestFetchAttestationReportMissingKey(t *testing.T) {
	client := nearai.NewClient("http://127.0.0.1:1", "", time.Second)

	_, err := client.FetchAttestationReport(context.Background(), "model-x")
	assert.ErrorIs(t, err, expectations.ErrMissingCredential)
}

func TestFetchAttestationReportErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := nearai.NewClient(srv.URL, "secret", time.Second)
	_, err := client.FetchAttestationReport(context.Background(), "model-x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestFetchAttestationReportInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	client := nearai.NewClient(srv.URL, "secret", time.Second)
	_, err := client.FetchAttestationReport(context.Background(), "model-x")
	assert.Error(t, err)
}

func TestFetchAttestationReportTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := nearai.NewClient(srv.URL, "secret", 50*time.Millisecond)
	_, err := client.FetchAttestationReport(context.Background(), "model-x")
	assert.Error(t, err)
}
