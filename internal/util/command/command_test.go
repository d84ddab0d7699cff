package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/infra/session"
	"github.com/kashguard/go-tee-verifier/internal/test"
	"github.com/kashguard/go-tee-verifier/internal/util/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithServer(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		ctx := testContext(t)

		var testError = errors.New("test error")

		s.Config.Logger.PrettyPrintConsole = false
		resultErr := command.WithServer(ctx, s.Config, func(ctx context.Context, s *api.Server) error {
			assert.True(t, s.Ready())

			sess, err := s.Sessions.Register(ctx, session.RegisterParams{ID: "cmd-test"})
			require.NoError(t, err)
			assert.NotEmpty(t, sess.Nonce)

			return testError
		})

		assert.Equal(t, testError, resultErr)
	})
}

func TestNewSubcommandGroup(t *testing.T) {
	child := command.NewSubcommandGroup("child")
	group := command.NewSubcommandGroup("verify", child)

	assert.Equal(t, "verify <subcommand>", group.Use)
	require.Len(t, group.Commands(), 1)
	assert.Equal(t, "child", group.Commands()[0].Name())
}

// testContext mirrors testing.T.Context (Go 1.24+): canceled when the test cleans up.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
