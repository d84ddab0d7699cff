package verify

import (
	"context"
	"encoding/json"
	"os"

	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/verdict"
	"github.com/kashguard/go-tee-verifier/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type stateOptions struct {
	id              string
	model           string
	origin          string
	attestedAddress string
	requestFile     string
	responseFile    string
	proofFile       string
}

func newState() *cobra.Command {
	var opts stateOptions

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Derives the verification verdict of an inference call",
		Long: `Records the request/response bodies of an inference call, then either evaluates a
local proof bundle (--proof-file) or prefetches one from the proof backend, and prints the verdict.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			err := command.WithServer(cmd.Context(), cfg, func(ctx context.Context, s *api.Server) error {
				state, err := runState(ctx, s, opts)
				if err != nil {
					return err
				}
				return printJSON(state)
			})
			if err != nil {
				log.Fatal().Err(err).Str("verification_id", opts.id).Msg("Failed to derive verification state")
			}
		},
	}

	cmd.Flags().StringVar(&opts.id, idFlag, "", "Verification (correlation) id")
	cmd.Flags().StringVarP(&opts.model, modelFlag, "m", "", "Model identifier, required unless --proof-file is given")
	cmd.Flags().StringVar(&opts.origin, originFlag, "", "Base URL of the proof backend")
	cmd.Flags().StringVar(&opts.attestedAddress, attestedAddressFlag, "", "Enforce this signer address")
	cmd.Flags().StringVar(&opts.requestFile, requestFileFlag, "", "File holding the serialized inference request")
	cmd.Flags().StringVar(&opts.responseFile, responseFileFlag, "", "File holding the serialized inference response")
	cmd.Flags().StringVar(&opts.proofFile, proofFileFlag, "", "Evaluate this proof bundle instead of prefetching")
	_ = cmd.MarkFlagRequired(idFlag)

	return cmd
}

func runState(ctx context.Context, s *api.Server, opts stateOptions) (verdict.State, error) {
	var reqBody, respBody []byte
	var err error

	if len(opts.requestFile) > 0 {
		if reqBody, err = os.ReadFile(opts.requestFile); err != nil {
			return verdict.State{}, errors.Wrap(err, "failed to read request file")
		}
	}
	if len(opts.responseFile) > 0 {
		if respBody, err = os.ReadFile(opts.responseFile); err != nil {
			return verdict.State{}, errors.Wrap(err, "failed to read response file")
		}
	}
	if reqBody != nil || respBody != nil {
		if sess := s.Verification.RecordInference(ctx, opts.id, reqBody, respBody); sess == nil {
			return verdict.State{}, errors.New("failed to record inference session")
		}
	}

	if len(opts.proofFile) > 0 {
		raw, err := os.ReadFile(opts.proofFile)
		if err != nil {
			return verdict.State{}, errors.Wrap(err, "failed to read proof file")
		}

		var bundle proof.Response
		if err := json.Unmarshal(raw, &bundle); err != nil {
			return verdict.State{}, errors.Wrap(err, "failed to parse proof file")
		}

		return s.Verification.Evaluate(ctx, opts.id, &bundle, opts.attestedAddress), nil
	}

	if len(opts.model) == 0 {
		return verdict.State{}, errors.New("--model is required when no --proof-file is given")
	}

	state, _, err := s.Verification.Verify(ctx, opts.origin, opts.id, opts.model, opts.attestedAddress)
	return state, err
}
