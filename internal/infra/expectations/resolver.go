package expectations

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-tee-verifier/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long resolved expectations are served from cache.
const DefaultTTL = 5 * time.Minute

type cacheEntry struct {
	value     Expectations
	expiresAt time.Time
}

// Resolver 硬件参考值解析器, caches expectations per model.
// The cache lock is never held across a report fetch, so concurrent misses for the same
// model may fetch twice; the later result simply overwrites the earlier one.
type Resolver struct {
	fetcher ReportFetcher
	ttl     time.Duration
	clock   time2.Clock
	metrics *metrics.Metrics

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewResolver 创建期望值解析器. A ttl of 0 falls back to the default TTL.
func NewResolver(fetcher ReportFetcher, ttl time.Duration, clock time2.Clock, m *metrics.Metrics) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time2.DefaultClock
	}

	return &Resolver{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   clock,
		metrics: m,
		cache:   make(map[string]cacheEntry),
	}
}

// GetExpectations returns the reference values for model.
//
// Errors:
//   - *ConfigurationError when no credential is available to fetch a report
//   - *IncompleteEvidenceError when the report has no usable evidence
//   - ErrReportUnavailable (wrapped) on transport failures without a stale cache entry
//
// On transport failures a stale cache entry is served instead of an error.
func (r *Resolver) GetExpectations(ctx context.Context, model string) (*Expectations, error) {
	entry, cached := r.lookup(model)
	if cached && entry.expiresAt.After(r.clock.Now()) {
		r.metrics.ObserveCache("hit")
		res := entry.value.WithNonce("")
		return &res, nil
	}
	r.metrics.ObserveCache("miss")

	if r.fetcher == nil {
		r.metrics.ObserveReportFailure("configuration")
		return nil, &ConfigurationError{Model: model, Err: ErrMissingCredential}
	}

	raw, err := r.fetcher.FetchAttestationReport(ctx, model)
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			r.metrics.ObserveReportFailure("configuration")
			return nil, &ConfigurationError{Model: model, Err: err}
		}

		r.metrics.ObserveReportFailure("transport")
		if cached {
			log.Warn().Err(err).Str("model", model).Time("expired_at", entry.expiresAt).Msg("Failed to refresh attestation expectations, serving stale entry")
			r.metrics.ObserveCache("stale")
			res := entry.value.WithNonce("")
			return &res, nil
		}

		return nil, errors.Wrapf(ErrReportUnavailable, "model %s: %v", model, err)
	}

	res, err := ExpectationsFromReport(model, raw)
	if err != nil {
		r.metrics.ObserveReportFailure("incomplete_evidence")
		return nil, err
	}

	r.mu.Lock()
	r.cache[model] = cacheEntry{
		value:     res.WithNonce(""),
		expiresAt: r.clock.Now().Add(r.ttl),
	}
	r.mu.Unlock()

	log.Debug().Str("model", model).Str("arch", res.Arch).Int("measurements", len(res.Measurements)).Msg("Resolved attestation expectations")

	return res, nil
}

// Invalidate drops the cached expectations of model.
func (r *Resolver) Invalidate(model string) {
	r.mu.Lock()
	delete(r.cache, model)
	r.mu.Unlock()
}

func (r *Resolver) lookup(model string) (cacheEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[model]
	return entry, ok
}

// ExpectationsFromReport derives expectations from a raw attestation report.
func ExpectationsFromReport(model string, raw json.RawMessage) (*Expectations, error) {
	var report map[string]interface{}
	if err := json.Unmarshal(raw, &report); err != nil || report == nil {
		return nil, &IncompleteEvidenceError{Model: model}
	}

	payload, source, ok := selectPayload(report)
	if !ok {
		return nil, &IncompleteEvidenceError{Model: model}
	}

	res := reduceEvidence(payload)
	if missing := Validate(res); len(missing) > 0 {
		return nil, &IncompleteEvidenceError{Model: model, Missing: missing}
	}

	log.Debug().Str("model", model).Str("payload_source", source).Msg("Selected GPU evidence payload")

	return &res, nil
}
