package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the verification pipeline.
// All methods are safe to call on a nil receiver so components can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	ExpectationsCache   *prometheus.CounterVec
	ReportFetchFailures *prometheus.CounterVec
	Prefetches          *prometheus.CounterVec
	Verdicts            *prometheus.CounterVec
	SessionsRegistered  prometheus.Counter
}

// New creates and registers all collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ExpectationsCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tee_verifier_expectations_cache_total",
			Help: "Expectation lookups by cache result (hit, miss, stale).",
		}, []string{"result"}),
		ReportFetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tee_verifier_report_fetch_failures_total",
			Help: "Failed attestation report resolutions by reason.",
		}, []string{"reason"}),
		Prefetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tee_verifier_proof_prefetch_total",
			Help: "Proof prefetch attempts by outcome.",
		}, []string{"outcome"}),
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tee_verifier_verdicts_total",
			Help: "Derived verification verdicts by overall status.",
		}, []string{"overall"}),
		SessionsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "tee_verifier_sessions_registered_total",
			Help: "Verification session registrations (including idempotent re-registrations).",
		}),
	}
}

// ObserveCache 记录期望值缓存命中情况
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.ExpectationsCache.WithLabelValues(result).Inc()
}

// ObserveReportFailure 记录证明报告拉取失败
func (m *Metrics) ObserveReportFailure(reason string) {
	if m == nil {
		return
	}
	m.ReportFetchFailures.WithLabelValues(reason).Inc()
}

// ObservePrefetch 记录证明预取结果
func (m *Metrics) ObservePrefetch(outcome string) {
	if m == nil {
		return
	}
	m.Prefetches.WithLabelValues(outcome).Inc()
}

// ObserveVerdict 记录验证结论
func (m *Metrics) ObserveVerdict(overall string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(overall).Inc()
}

// ObserveSessionRegistered 记录会话注册
func (m *Metrics) ObserveSessionRegistered() {
	if m == nil {
		return
	}
	m.SessionsRegistered.Inc()
}
