package test

import (
	"context"
	"testing"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/api/router"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WithTestServer runs closure against a fully wired server with in-memory sessions and a mock clock.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, config.DefaultServiceConfigFromEnv(), closure)
}

// WithTestServerConfigurable is WithTestServer with a caller supplied config.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	// sessions stay in memory so tests run in isolation
	cfg.Redis.URL = ""
	cfg.Logger.RequestLevel = cfg.Logger.Level

	s, err := api.InitNewServerWithTest(cfg, t)
	require.NoError(t, err, "failed to create test server")

	router.Init(s)
	require.True(t, s.Ready(), "test server is not ready")

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Empty(t, s.Shutdown(ctx), "failed to shutdown test server")
}
