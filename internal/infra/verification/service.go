package verification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	"github.com/kashguard/go-tee-verifier/internal/infra/metadata"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	"github.com/kashguard/go-tee-verifier/internal/infra/verdict"
	"github.com/kashguard/go-tee-verifier/internal/metrics"
	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound = errors.New("verification session not found")
	ErrHashesMissing   = errors.New("verification session has no request/response hashes")
)

// ExpectationsResolver resolves hardware reference values per model.
type ExpectationsResolver interface {
	GetExpectations(ctx context.Context, model string) (*expectations.Expectations, error)
	Invalidate(model string)
}

// ProofPrefetcher asks the verification backend for a proof. A nil response means "not available".
type ProofPrefetcher interface {
	Prefetch(ctx context.Context, originHint string, req proof.Request) *proof.Response
}

// Options 部署策略
type Options struct {
	// ServerContext enables eager session registration while normalizing metadata.
	ServerContext  bool
	CPURequired    bool
	CPUConfigured  bool
	MetadataSource string
}

// Service 验证流水线服务, composes session store, normalizer, resolver, prefetcher and verdict.
type Service struct {
	sessions   session.Store
	resolver   ExpectationsResolver
	prefetcher ProofPrefetcher
	extractor  metadata.Extractor
	opts       Options
	metrics    *metrics.Metrics
}

// NewService 创建验证服务
func NewService(
	sessions session.Store,
	resolver ExpectationsResolver,
	prefetcher ProofPrefetcher,
	opts Options,
	m *metrics.Metrics,
) *Service {
	source := opts.MetadataSource
	if len(source) == 0 {
		source = metadata.DefaultSource
	}

	return &Service{
		sessions:   sessions,
		resolver:   resolver,
		prefetcher: prefetcher,
		extractor:  metadata.Extractor{Source: source},
		opts:       opts,
		metrics:    m,
	}
}

// HashBody returns the hex SHA-256 digest of a serialized request or response body.
func HashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// RecordInference hashes the request/response of an inference call and registers its session.
// A nil body leaves its hash untouched.
func (s *Service) RecordInference(ctx context.Context, id string, request, response []byte) *session.Session {
	var reqHash, respHash string
	if request != nil {
		reqHash = HashBody(request)
	}
	if response != nil {
		respHash = HashBody(response)
	}

	return s.RecordHashes(ctx, id, reqHash, respHash)
}

// RecordHashes registers the session of an inference call from precomputed digests.
// An empty id gets a generated one. Failures are logged and yield nil so the inference result
// is always delivered.
func (s *Service) RecordHashes(ctx context.Context, id string, requestHash, responseHash string) *session.Session {
	if len(id) == 0 {
		id = uuid.NewString()
	}

	sess, err := s.sessions.Register(ctx, session.RegisterParams{
		ID:           id,
		RequestHash:  strings.ToLower(requestHash),
		ResponseHash: strings.ToLower(responseHash),
	})
	if err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Str("verification_id", id).Msg("Failed to record inference session")
		return nil
	}

	s.metrics.ObserveSessionRegistered()
	util.LogFromContext(ctx).Debug().
		Str("verification_id", id).
		Str("request_hash", sess.RequestHash).
		Str("response_hash", sess.ResponseHash).
		Msg("Recorded inference session")

	return sess
}

// RecordResponse hashes the response body of an already registered inference call.
func (s *Service) RecordResponse(ctx context.Context, id string, response []byte) (*session.Session, error) {
	return s.UpdateHashes(ctx, id, "", HashBody(response))
}

// UpdateHashes 更新已登记会话的哈希. Unknown ids are left alone and reported as
// ErrSessionNotFound, no session (and no nonce) is created for them.
func (s *Service) UpdateHashes(ctx context.Context, id string, requestHash, responseHash string) (*session.Session, error) {
	found, err := s.sessions.UpdateHashes(ctx, id, session.HashUpdate{
		RequestHash:  strings.ToLower(requestHash),
		ResponseHash: strings.ToLower(responseHash),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update session %s", id)
	}
	if !found {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}

	util.LogFromContext(ctx).Debug().Str("verification_id", id).Msg("Updated inference session hashes")

	return s.session(ctx, id)
}

// AttachMetadata extracts and normalizes the verification metadata of a provider payload.
// It returns nil when the payload carries no verification signal at all.
func (s *Service) AttachMetadata(ctx context.Context, payload, envelope map[string]interface{}, fallbackID string) *metadata.Metadata {
	m, ok := s.extractor.Extract(payload, envelope)
	if !ok {
		return nil
	}

	normalized := metadata.Normalize(*m, fallbackID)
	if s.opts.ServerContext {
		normalized = metadata.EnsureSession(ctx, s.sessions, normalized)
	}

	return &normalized
}

// Prefetch requests a proof for a recorded session. Configuration and incomplete-evidence
// errors of the resolver are returned, a transport failure degrades to a prefetch without
// expected values. A nil response with a nil error means the backend could not be reached.
func (s *Service) Prefetch(ctx context.Context, originHint string, id string, model string) (*proof.Response, error) {
	logger := util.LogFromContext(ctx).With().Str("verification_id", id).Str("model", model).Logger()

	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(sess.RequestHash) == 0 || len(sess.ResponseHash) == 0 {
		return nil, errors.Wrapf(ErrHashesMissing, "session %s", id)
	}

	req := proof.Request{
		VerificationID: id,
		Model:          model,
		RequestHash:    sess.RequestHash,
		ResponseHash:   sess.ResponseHash,
		Nonce:          sess.Nonce,
	}

	exp, err := s.resolver.GetExpectations(ctx, model)
	if err != nil {
		var cfgErr *expectations.ConfigurationError
		var evidenceErr *expectations.IncompleteEvidenceError
		if errors.As(err, &cfgErr) || errors.As(err, &evidenceErr) {
			logger.Error().Err(err).Msg("Cannot resolve attestation expectations")
			return nil, err
		}

		logger.Warn().Err(err).Msg("Attestation expectations unavailable, prefetching without expected values")
	} else {
		withNonce := exp.WithNonce(sess.Nonce)
		req.ExpectedArch = withNonce.Arch
		req.ExpectedDeviceCertHash = withNonce.DeviceCertHash
		req.ExpectedRimHash = withNonce.RimHash
		req.ExpectedUEID = withNonce.UEID
		req.ExpectedMeasurements = withNonce.Measurements
	}

	return s.prefetcher.Prefetch(ctx, originHint, req), nil
}

// Evaluate derives the verdict of a session from a proof bundle. resp may be nil.
func (s *Service) Evaluate(ctx context.Context, id string, resp *proof.Response, attestedAddress string) verdict.State {
	var sess *session.Session
	if len(id) > 0 {
		found, err := s.session(ctx, id)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			util.LogFromContext(ctx).Warn().Err(err).Str("verification_id", id).Msg("Failed to load verification session")
		}
		sess = found
	}

	in := verdict.InputFromProof(resp, sess, verdict.Options{
		CPURequired:     s.opts.CPURequired,
		CPUConfigured:   s.opts.CPUConfigured,
		AttestedAddress: attestedAddress,
	})

	state := verdict.Evaluate(in)
	s.metrics.ObserveVerdict(string(state.Overall))

	log.Info().
		Str("verification_id", id).
		Str("overall", string(state.Overall)).
		Strs("reasons", state.Reasons).
		Msg("Derived verification verdict")

	return state
}

// Verify prefetches a proof and evaluates it in one go. A failed GPU check drops the cached
// expectations of model.
func (s *Service) Verify(ctx context.Context, originHint string, id string, model string, attestedAddress string) (verdict.State, *proof.Response, error) {
	resp, err := s.Prefetch(ctx, originHint, id, model)
	if err != nil {
		return verdict.State{}, nil, err
	}

	state := s.Evaluate(ctx, id, resp, attestedAddress)

	// reference values may be stale after a model rollout
	if state.Steps.GPU.Status == verdict.StepError {
		util.LogFromContext(ctx).Info().Str("verification_id", id).Str("model", model).Msg("Dropping cached attestation expectations after failed GPU check")
		s.resolver.Invalidate(model)
	}

	return state, resp, nil
}

// Session returns a recorded session.
func (s *Service) Session(ctx context.Context, id string) (*session.Session, error) {
	return s.session(ctx, id)
}

func (s *Service) session(ctx context.Context, id string) (*session.Session, error) {
	sess, ok, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load session %s", id)
	}
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	return sess, nil
}
