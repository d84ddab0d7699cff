package proof_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBaseURL(t *testing.T) {
	full := proof.Origins{
		PublicSiteURL: "https://site.example.org/",
		AppBaseURL:    "https://app.example.org",
		DeploymentURL: "preview-123.vercel.app",
		Default:       "http://localhost:3000",
	}

	tests := []struct {
		name     string
		origins  proof.Origins
		hint     string
		expected string
	}{
		{"configured hint wins", full, "https://app.example.org/", "https://app.example.org"},
		{"trusted hint wins", proof.Origins{PublicSiteURL: "https://site.example.org", Trusted: []string{"https://HINT.example.org"}}, "https://hint.example.org", "https://hint.example.org"},
		{"deployment hint", full, "https://preview-123.vercel.app", "https://preview-123.vercel.app"},
		{"untrusted hint ignored", full, "https://attacker.example.net", "https://site.example.org"},
		{"untrusted port ignored", full, "https://site.example.org:8443", "https://site.example.org"},
		{"relative hint ignored", full, "/api", "https://site.example.org"},
		{"public site", full, "", "https://site.example.org"},
		{"app base", proof.Origins{AppBaseURL: "https://app.example.org", DeploymentURL: "x.vercel.app"}, "", "https://app.example.org"},
		{"deployment gets scheme", proof.Origins{DeploymentURL: "x.vercel.app", Default: "http://localhost:3000"}, "", "https://x.vercel.app"},
		{"deployment keeps scheme", proof.Origins{DeploymentURL: "http://x.internal"}, "", "http://x.internal"},
		{"configured default", proof.Origins{Default: "http://localhost:4000"}, "  ", "http://localhost:4000"},
		{"hardcoded default", proof.Origins{}, "", "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := proof.NewPrefetcher(tt.origins, "", time.Second, nil)
			assert.Equal(t, tt.expected, p.ResolveBaseURL(tt.hint))
		})
	}
}

func TestPrefetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/verification/proof", r.URL.Path)

		var req proof.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chatcmpl-1", req.VerificationID)
		assert.Equal(t, "HOPPER", req.ExpectedArch)
		assert.Equal(t, []string{"m1"}, req.ExpectedMeasurements)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"signature": {"text": "a:b", "signature": "0x01", "signing_address": "0xabc"},
			"nonceCheck": {"valid": true, "expected": "n", "attested": "n"},
			"results": {"verified": true, "reasons": [], "gpu": {"verified": true}}
		}`))
	}))
	defer srv.Close()

	m := metrics.New()
	p := proof.NewPrefetcher(proof.Origins{Trusted: []string{srv.URL}}, "/api/verification/proof", time.Second, m)

	res := p.Prefetch(context.Background(), srv.URL, proof.Request{
		VerificationID:       "chatcmpl-1",
		Model:                "model-x",
		RequestHash:          "a",
		ResponseHash:         "b",
		ExpectedArch:         "HOPPER",
		ExpectedMeasurements: []string{"m1"},
	})
	require.NotNil(t, res)
	require.NotNil(t, res.Signature)
	assert.Equal(t, "a:b", res.Signature.Text)
	require.NotNil(t, res.NonceCheck)
	assert.True(t, res.NonceCheck.Valid)
	require.NotNil(t, res.Results.GPU.Verified)
	assert.True(t, *res.Results.GPU.Verified)
	assert.Nil(t, res.Results.CPU)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Prefetches.WithLabelValues("ok")))
}

func TestPrefetchFailuresReturnNil(t *testing.T) {
	errSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer errSrv.Close()

	garbageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer garbageSrv.Close()

	m := metrics.New()
	p := proof.NewPrefetcher(proof.Origins{Trusted: []string{errSrv.URL, garbageSrv.URL, "http://127.0.0.1:1"}}, "", time.Second, m)

	assert.Nil(t, p.Prefetch(context.Background(), errSrv.URL, proof.Request{VerificationID: "id"}))
	assert.Nil(t, p.Prefetch(context.Background(), garbageSrv.URL, proof.Request{VerificationID: "id"}))
	assert.Nil(t, p.Prefetch(context.Background(), "http://127.0.0.1:1", proof.Request{VerificationID: "id"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Prefetches.WithLabelValues("status_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Prefetches.WithLabelValues("decode_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Prefetches.WithLabelValues("transport_error")))
}

func TestPrefetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := proof.NewPrefetcher(proof.Origins{Default: srv.URL}, "", 50*time.Millisecond, nil)

	start := time.Now()
	assert.Nil(t, p.Prefetch(context.Background(), "", proof.Request{VerificationID: "id"}))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPrefetchIgnoresUntrustedOrigin(t *testing.T) {
	var untrustedHits atomic.Int32
	untrusted := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		untrustedHits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer untrusted.Close()

	var configuredHits atomic.Int32
	configured := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		configuredHits.Add(1)
		_, _ = w.Write([]byte(`{"nonceCheck": {"valid": true}}`))
	}))
	defer configured.Close()

	p := proof.NewPrefetcher(proof.Origins{PublicSiteURL: configured.URL}, "", time.Second, nil)

	res := p.Prefetch(context.Background(), untrusted.URL, proof.Request{VerificationID: "id"})
	require.NotNil(t, res)
	assert.Equal(t, int32(0), untrustedHits.Load())
	assert.Equal(t, int32(1), configuredHits.Load())
}
