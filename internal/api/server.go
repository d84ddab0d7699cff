package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	"github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Router 路由分组
type Router struct {
	Routes            []*echo.Route
	Root              *echo.Group
	Management        *echo.Group
	APIV1Verification *echo.Group
}

// Server 验证服务 HTTP 服务器
type Server struct {
	Config       config.Server
	Echo         *echo.Echo
	Router       *Router
	Clock        time2.Clock
	Metrics      *metrics.Metrics
	Redis        *redis.Client
	Sessions     session.Store
	Expectations *expectations.Resolver
	Prefetcher   *proof.Prefetcher
	Verification *verification.Service

	started time.Time
}

// NewServer 创建服务器, components are attached by the wire injectors
func NewServer(cfg config.Server) *Server {
	return &Server{
		Config:  cfg,
		started: time.Now(),
	}
}

// newServerWithComponents is the wire provider assembling a Server from its components.
func newServerWithComponents(
	cfg config.Server,
	clock time2.Clock,
	m *metrics.Metrics,
	client *redis.Client,
	sessions session.Store,
	resolver *expectations.Resolver,
	prefetcher *proof.Prefetcher,
	svc *verification.Service,
) *Server {
	s := NewServer(cfg)
	s.Clock = clock
	s.Metrics = m
	s.Redis = client
	s.Sessions = sessions
	s.Expectations = resolver
	s.Prefetcher = prefetcher
	s.Verification = svc

	return s
}

// Ready reports whether all components required to serve requests are initialized.
func (s *Server) Ready() bool {
	return s.Echo != nil &&
		s.Router != nil &&
		s.Sessions != nil &&
		s.Expectations != nil &&
		s.Prefetcher != nil &&
		s.Verification != nil
}

// Uptime since the server was created.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.started)
}

// Start 启动 HTTP 服务
func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
			errs = append(errs, err)
		}
	}

	return errs
}
