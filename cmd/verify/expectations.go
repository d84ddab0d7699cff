package verify

import (
	"context"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/kashguard/go-tee-verifier/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newExpectations() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expectations",
		Short: "Resolves and prints the hardware reference values of a model",
		Run: func(cmd *cobra.Command, _ []string) {
			model, err := cmd.Flags().GetString(modelFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse model flag")
			}

			cfg := config.DefaultServiceConfigFromEnv()
			err = command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				exp, err := s.Expectations.GetExpectations(ctx, model)
				if err != nil {
					return err
				}
				return printJSON(exp)
			})
			if err != nil {
				log.Fatal().Err(err).Str("model", model).Msg("Failed to resolve attestation expectations")
			}
		},
	}

	cmd.Flags().StringP(modelFlag, "m", "", "Model identifier, e.g. deepseek-ai/DeepSeek-V3.1")
	_ = cmd.MarkFlagRequired(modelFlag)

	return cmd
}
