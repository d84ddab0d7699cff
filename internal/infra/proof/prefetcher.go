package proof

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single prefetch call.
const DefaultTimeout = 15 * time.Second

// Origins lists the configured base URL candidates, in resolution order after the origin hint.
// An origin hint is honored only when its scheme and host match one of these or an entry of Trusted.
type Origins struct {
	PublicSiteURL string
	AppBaseURL    string
	DeploymentURL string
	Default       string
	Trusted       []string
}

func (o Origins) allows(hint string) bool {
	origin := originOf(hint)
	if len(origin) == 0 {
		return false
	}

	allowed := append([]string{o.PublicSiteURL, o.AppBaseURL, withScheme(o.DeploymentURL), o.Default}, o.Trusted...)
	for _, a := range allowed {
		if originOf(a) == origin {
			return true
		}
	}
	return false
}

// Prefetcher 证明预取器, asks the verification backend for a proof ahead of time.
type Prefetcher struct {
	origins Origins
	path    string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewPrefetcher 创建证明预取器
func NewPrefetcher(origins Origins, path string, timeout time.Duration, m *metrics.Metrics) *Prefetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if len(path) == 0 {
		path = "/api/verification/proof"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &Prefetcher{
		origins: origins,
		path:    path,
		client: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
	}
}

// ResolveBaseURL picks the first non-empty candidate: origin hint, public site URL, app base URL,
// platform deployment URL, default. A hint outside the configured origins is ignored.
func (p *Prefetcher) ResolveBaseURL(originHint string) string {
	if hint := strings.TrimSpace(originHint); len(hint) > 0 && !p.origins.allows(hint) {
		log.Warn().Str("origin", hint).Msg("Ignoring untrusted proof origin hint")
		originHint = ""
	}

	candidates := []string{
		originHint,
		p.origins.PublicSiteURL,
		p.origins.AppBaseURL,
		withScheme(p.origins.DeploymentURL),
		p.origins.Default,
	}

	for _, c := range candidates {
		if c = strings.TrimSpace(c); len(c) > 0 {
			return strings.TrimRight(c, "/")
		}
	}

	return "http://localhost:3000"
}

// Prefetch performs one proof request. Any failure is logged and yields nil, a failed prefetch
// leaves the verdict pending and never fails the caller.
func (p *Prefetcher) Prefetch(ctx context.Context, originHint string, req Request) *Response {
	endpoint := p.ResolveBaseURL(originHint) + p.path
	logger := log.With().Str("verification_id", req.VerificationID).Str("model", req.Model).Str("endpoint", endpoint).Logger()

	body, err := json.Marshal(req)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to marshal proof prefetch request")
		p.metrics.ObservePrefetch("error")
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create proof prefetch request")
		p.metrics.ObservePrefetch("error")
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		logger.Warn().Err(err).Msg("Proof prefetch request failed")
		p.metrics.ObservePrefetch("transport_error")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn().Int("status", resp.StatusCode).Str("body", strings.TrimSpace(string(snippet))).Msg("Proof prefetch returned non-success status")
		p.metrics.ObservePrefetch("status_error")
		return nil
	}

	var res Response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode proof prefetch response")
		p.metrics.ObservePrefetch("decode_error")
		return nil
	}

	p.metrics.ObservePrefetch("ok")
	logger.Debug().Msg("Prefetched verification proof")

	return &res
}

func withScheme(host string) string {
	host = strings.TrimSpace(host)
	if len(host) == 0 || strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// originOf reduces a URL to its lower case scheme://host[:port], "" when it has neither.
func originOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || len(u.Scheme) == 0 || len(u.Host) == 0 {
		return ""
	}

	return strings.ToLower(u.Scheme + "://" + u.Host)
}
