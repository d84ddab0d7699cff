package verification_test

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	"github.com/kashguard/go-tee-verifier/internal/infra/metadata"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	"github.com/kashguard/go-tee-verifier/internal/infra/verdict"
	"github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResolver for testing
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) GetExpectations(ctx context.Context, model string) (*expectations.Expectations, error) {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expectations.Expectations), args.Error(1)
}

func (m *MockResolver) Invalidate(model string) {
	m.Called(model)
}

// MockPrefetcher for testing
type MockPrefetcher struct {
	mock.Mock
}

func (m *MockPrefetcher) Prefetch(ctx context.Context, originHint string, req proof.Request) *proof.Response {
	args := m.Called(ctx, originHint, req)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*proof.Response)
}

func newService(t *testing.T, opts verification.Options) (*verification.Service, *session.MemoryStore, *MockResolver, *MockPrefetcher, *metrics.Metrics) {
	t.Helper()

	store := session.NewMemoryStore(nil)
	resolver := &MockResolver{}
	prefetcher := &MockPrefetcher{}
	m := metrics.New()

	return verification.NewService(store, resolver, prefetcher, opts, m), store, resolver, prefetcher, m
}

func TestHashBody(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", verification.HashBody(nil))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", verification.HashBody([]byte("hello")))
}

func TestRecordInference(t *testing.T) {
	svc, store, _, _, m := newService(t, verification.Options{})
	ctx := context.Background()

	sess := svc.RecordInference(ctx, "chatcmpl-1", []byte(`{"q":1}`), nil)
	require.NotNil(t, sess)
	assert.Equal(t, verification.HashBody([]byte(`{"q":1}`)), sess.RequestHash)
	assert.Empty(t, sess.ResponseHash)

	again := svc.RecordInference(ctx, "chatcmpl-1", nil, []byte(`{"a":2}`))
	require.NotNil(t, again)
	assert.Equal(t, sess.Nonce, again.Nonce)
	assert.Equal(t, sess.RequestHash, again.RequestHash)
	assert.Equal(t, verification.HashBody([]byte(`{"a":2}`)), again.ResponseHash)

	generated := svc.RecordInference(ctx, "", []byte("x"), []byte("y"))
	require.NotNil(t, generated)
	assert.Len(t, generated.ID, 36)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsRegistered))
}

func TestRecordResponse(t *testing.T) {
	svc, store, _, _, _ := newService(t, verification.Options{})
	ctx := context.Background()

	registered := svc.RecordInference(ctx, "chatcmpl-2", []byte("req"), nil)
	require.NotNil(t, registered)

	updated, err := svc.RecordResponse(ctx, "chatcmpl-2", []byte("resp"))
	require.NoError(t, err)
	assert.Equal(t, registered.Nonce, updated.Nonce)
	assert.Equal(t, registered.RequestHash, updated.RequestHash)
	assert.Equal(t, verification.HashBody([]byte("resp")), updated.ResponseHash)

	upper, err := svc.UpdateHashes(ctx, "chatcmpl-2", "ABCDEF", "")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", upper.RequestHash)

	_, err = svc.RecordResponse(ctx, "unknown", []byte("resp"))
	assert.ErrorIs(t, err, verification.ErrSessionNotFound)

	_, found, err := store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, store.Len())
}

func TestAttachMetadata(t *testing.T) {
	svc, store, _, _, _ := newService(t, verification.Options{ServerContext: true})
	ctx := context.Background()

	assert.Nil(t, svc.AttachMetadata(ctx, map[string]interface{}{"id": "msg_1"}, nil, "fallback"))

	m := svc.AttachMetadata(ctx, map[string]interface{}{
		"verification": map[string]interface{}{"status": "valid"},
	}, nil, "msg_1")
	require.NotNil(t, m)
	assert.Equal(t, metadata.StatusVerified, m.Status)
	assert.Equal(t, "msg_1", m.MessageID)
	assert.Equal(t, metadata.DefaultSource, m.Source)

	sess, ok, err := store.Get(ctx, "msg_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sess.Nonce, m.Nonce)
}

func TestAttachMetadataClientContext(t *testing.T) {
	svc, store, _, _, _ := newService(t, verification.Options{MetadataSource: "custom"})

	m := svc.AttachMetadata(context.Background(), map[string]interface{}{
		"id":           "msg_2",
		"verification": map[string]interface{}{"status": "failed"},
	}, nil, "")
	require.NotNil(t, m)
	assert.Equal(t, "custom", m.Source)
	assert.Equal(t, metadata.StatusFailed, m.Status)
	assert.Empty(t, m.Nonce)
	assert.Equal(t, 0, store.Len())
}

func TestPrefetch(t *testing.T) {
	svc, _, resolver, prefetcher, _ := newService(t, verification.Options{})
	ctx := context.Background()

	sess := svc.RecordInference(ctx, "chatcmpl-1", []byte("req"), []byte("resp"))
	require.NotNil(t, sess)

	resolver.On("GetExpectations", mock.Anything, "model-x").Return(&expectations.Expectations{
		Arch:           "HOPPER",
		DeviceCertHash: "cert",
		RimHash:        "rim",
		UEID:           "ueid",
		Measurements:   []string{"m1"},
	}, nil)

	expected := &proof.Response{NonceCheck: &proof.NonceCheck{Valid: true}}
	prefetcher.On("Prefetch", mock.Anything, "https://origin", mock.MatchedBy(func(req proof.Request) bool {
		return req.VerificationID == "chatcmpl-1" &&
			req.Model == "model-x" &&
			req.RequestHash == sess.RequestHash &&
			req.ResponseHash == sess.ResponseHash &&
			req.Nonce == sess.Nonce &&
			req.ExpectedArch == "HOPPER" &&
			req.ExpectedDeviceCertHash == "cert" &&
			req.ExpectedRimHash == "rim" &&
			req.ExpectedUEID == "ueid" &&
			len(req.ExpectedMeasurements) == 1
	})).Return(expected)

	res, err := svc.Prefetch(ctx, "https://origin", "chatcmpl-1", "model-x")
	require.NoError(t, err)
	assert.Same(t, expected, res)

	resolver.AssertExpectations(t)
	prefetcher.AssertExpectations(t)
}

func TestPrefetchDegradesOnTransportFailure(t *testing.T) {
	svc, _, resolver, prefetcher, _ := newService(t, verification.Options{})
	ctx := context.Background()

	svc.RecordInference(ctx, "chatcmpl-1", []byte("req"), []byte("resp"))

	resolver.On("GetExpectations", mock.Anything, "model-x").Return(nil, errors.Wrap(expectations.ErrReportUnavailable, "timeout"))
	prefetcher.On("Prefetch", mock.Anything, "", mock.MatchedBy(func(req proof.Request) bool {
		return len(req.ExpectedArch) == 0 && req.ExpectedMeasurements == nil
	})).Return(nil)

	res, err := svc.Prefetch(ctx, "", "chatcmpl-1", "model-x")
	require.NoError(t, err)
	assert.Nil(t, res)

	prefetcher.AssertExpectations(t)
}

func TestPrefetchErrors(t *testing.T) {
	svc, _, resolver, prefetcher, _ := newService(t, verification.Options{})
	ctx := context.Background()

	_, err := svc.Prefetch(ctx, "", "unknown", "model-x")
	assert.ErrorIs(t, err, verification.ErrSessionNotFound)

	svc.RecordInference(ctx, "partial", []byte("req"), nil)
	_, err = svc.Prefetch(ctx, "", "partial", "model-x")
	assert.ErrorIs(t, err, verification.ErrHashesMissing)

	svc.RecordInference(ctx, "chatcmpl-1", []byte("req"), []byte("resp"))

	resolver.On("GetExpectations", mock.Anything, "unconfigured").Return(nil, &expectations.ConfigurationError{Model: "unconfigured", Err: expectations.ErrMissingCredential})
	_, err = svc.Prefetch(ctx, "", "chatcmpl-1", "unconfigured")
	var cfgErr *expectations.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	resolver.On("GetExpectations", mock.Anything, "broken").Return(nil, &expectations.IncompleteEvidenceError{Model: "broken", Missing: []string{"arch"}})
	_, err = svc.Prefetch(ctx, "", "chatcmpl-1", "broken")
	var evidenceErr *expectations.IncompleteEvidenceError
	assert.True(t, errors.As(err, &evidenceErr))

	prefetcher.AssertNotCalled(t, "Prefetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate(t *testing.T) {
	svc, _, _, _, m := newService(t, verification.Options{})
	ctx := context.Background()

	state := svc.Evaluate(ctx, "unknown", nil, "")
	assert.Equal(t, verdict.OverallUnverified, state.Overall)

	reqBody, respBody := []byte(`{"messages":[]}`), []byte(`{"id":"chatcmpl-1"}`)
	sess := svc.RecordInference(ctx, "chatcmpl-1", reqBody, respBody)
	require.NotNil(t, sess)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	text := sess.RequestHash + ":" + sess.ResponseHash
	sig, err := crypto.Sign(verdict.TextHash([]byte(text)), key)
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	verified := true

	resp := &proof.Response{
		Signature:  &proof.SignaturePayload{Text: text, Signature: "0x" + hex.EncodeToString(sig), SigningAddress: address},
		NonceCheck: &proof.NonceCheck{Valid: true, Expected: sess.Nonce, Attested: sess.Nonce},
		Results: &proof.Results{
			Verified: &verified,
			GPU:      &proof.CheckResult{Verified: &verified},
		},
	}

	state = svc.Evaluate(ctx, "chatcmpl-1", resp, address)
	assert.Equal(t, verdict.OverallVerified, state.Overall)
	assert.Equal(t, address, state.RecoveredAddress)

	state = svc.Evaluate(ctx, "chatcmpl-1", resp, "0x0000000000000000000000000000000000000001")
	assert.Equal(t, verdict.OverallFailed, state.Overall)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("unverified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("failed")))
}

func TestVerify(t *testing.T) {
	svc, _, resolver, prefetcher, _ := newService(t, verification.Options{})
	ctx := context.Background()

	svc.RecordInference(ctx, "chatcmpl-1", []byte("req"), []byte("resp"))
	resolver.On("GetExpectations", mock.Anything, "model-x").Return(nil, expectations.ErrReportUnavailable)
	prefetcher.On("Prefetch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	state, resp, err := svc.Verify(ctx, "", "chatcmpl-1", "model-x", "")
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, verdict.OverallPending, state.Overall)

	_, _, err = svc.Verify(ctx, "", "missing", "model-x", "")
	assert.ErrorIs(t, err, verification.ErrSessionNotFound)
}

func TestVerifyDropsExpectationsOnGPUFailure(t *testing.T) {
	svc, _, resolver, prefetcher, _ := newService(t, verification.Options{})
	ctx := context.Background()

	svc.RecordInference(ctx, "chatcmpl-1", []byte("req"), []byte("resp"))

	failed := false
	resolver.On("GetExpectations", mock.Anything, "model-x").Return(&expectations.Expectations{Arch: "HOPPER"}, nil)
	resolver.On("Invalidate", "model-x").Once()
	prefetcher.On("Prefetch", mock.Anything, mock.Anything, mock.Anything).Return(&proof.Response{
		NonceCheck: &proof.NonceCheck{Valid: true},
		Results:    &proof.Results{GPU: &proof.CheckResult{Verified: &failed}},
	})

	state, _, err := svc.Verify(ctx, "", "chatcmpl-1", "model-x", "")
	require.NoError(t, err)
	assert.Equal(t, verdict.StepError, state.Steps.GPU.Status)

	resolver.AssertExpectations(t)
}
