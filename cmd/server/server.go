package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/kashguard/go-tee-verifier/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// New 创建 server 命令
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the verification server",
		Long: `Starts the HTTP server exposing the verification pipeline:
session registration, metadata normalization, proof prefetch and verdict derivation.
Requires configuration through ENV.`,
		Run: func(_ *cobra.Command, _ []string) {
			runServer()
		},
	}
}

func runServer() {
	cfg := config.DefaultServiceConfigFromEnv()

	err := command.WithServer(context.Background(), cfg, func(ctx context.Context, s *api.Server) error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

		errc := make(chan error, 1)
		go func() {
			log.Info().Str("address", s.Config.Echo.ListenAddress).Msg("Starting server")
			errc <- s.Start()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.Wrap(err, "server stopped unexpectedly")
		case sig := <-quit:
			log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.Echo.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to shut down echo")
		}
		return nil
	})

	if err != nil {
		log.Fatal().Err(err).Msg("Server terminated with error")
	}

	log.Info().Msg("Server shut down")
}
