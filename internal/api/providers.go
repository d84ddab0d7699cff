package api

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	"github.com/kashguard/go-tee-verifier/internal/infra/nearai"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	"github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/metrics"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - constructors that adapt sub-configs to the components of the verification pipeline.

// NewClock 时钟, a mock clock when a test is passed
func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

// NoTest 非测试环境
func NoTest() []*testing.T {
	return nil
}

// NewRedisClient returns nil, nil when no redis URL is configured.
func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if len(cfg.Redis.URL) == 0 {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis url")
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return client, nil
}

// NewSessionStore 会话存储: redis when a client is available, otherwise process memory.
func NewSessionStore(cfg config.Server, client *redis.Client, clock time2.Clock) session.Store {
	if client == nil {
		log.Warn().Msg("No redis configured, verification sessions live in process memory")
		return session.NewMemoryStore(clock)
	}

	return session.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Redis.SessionTTL, clock)
}

// NewReportClient 证明报告客户端
func NewReportClient(cfg config.Server) *nearai.Client {
	if len(cfg.Verification.CloudAPIKey) == 0 {
		log.Warn().Msg("NEARAI_CLOUD_API_KEY is not set, attestation expectations cannot be resolved")
	}

	return nearai.NewClient(cfg.Verification.CloudAPIBaseURL, cfg.Verification.CloudAPIKey, cfg.Verification.ReportTimeout)
}

// NewExpectationsResolver 硬件期望值解析器
func NewExpectationsResolver(cfg config.Server, client *nearai.Client, clock time2.Clock, m *metrics.Metrics) *expectations.Resolver {
	return expectations.NewResolver(client, cfg.Verification.ExpectationsTTL, clock, m)
}

// NewPrefetcher 证明预取器
func NewPrefetcher(cfg config.Server, m *metrics.Metrics) *proof.Prefetcher {
	return proof.NewPrefetcher(proof.Origins{
		PublicSiteURL: cfg.Verification.PublicSiteURL,
		AppBaseURL:    cfg.Verification.AppBaseURL,
		DeploymentURL: cfg.Verification.DeploymentURL,
		Default:       cfg.Verification.DefaultOrigin,
		Trusted:       cfg.Verification.TrustedOrigins,
	}, cfg.Verification.ProofPath, cfg.Verification.PrefetchTimeout, m)
}

// NewVerificationService 验证流水线服务
func NewVerificationService(
	cfg config.Server,
	sessions session.Store,
	resolver verification.ExpectationsResolver,
	prefetcher verification.ProofPrefetcher,
	m *metrics.Metrics,
) *verification.Service {
	return verification.NewService(sessions, resolver, prefetcher, verification.Options{
		ServerContext:  cfg.Verification.ServerContext,
		CPURequired:    cfg.Verification.CPUAttestationRequired,
		CPUConfigured:  cfg.Verification.CPUAttestationConfigured(),
		MetadataSource: cfg.Verification.MetadataSource,
	}, m)
}
