//go:build wireinject

//go:generate wire

package api

import (
	"testing"

	"github.com/google/wire"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/kashguard/go-tee-verifier/internal/infra/expectations"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/metrics"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	metrics.New,
	NewClock,
	NewRedisClient,
	NewSessionStore,
	verificationServiceSet,
)

var verificationServiceSet = wire.NewSet(
	NewReportClient,
	NewExpectationsResolver,
	wire.Bind(new(verification.ExpectationsResolver), new(*expectations.Resolver)),
	NewPrefetcher,
	wire.Bind(new(verification.ProofPrefetcher), new(*proof.Prefetcher)),
	NewVerificationService,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NoTest)
	return new(Server), nil
}

// InitNewServerWithTest returns a new Server instance with a mock clock when a test is passed.
func InitNewServerWithTest(
	_ config.Server,
	t ...*testing.T,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
