package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/kashguard/go-tee-verifier/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	verboseFlag string = "verbose"
	addressFlag string = "address"
)

// New 创建 probe 命令组
func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
}

func newLiveness() *cobra.Command {
	return newProbe("liveness", "/-/healthy", "Checks that the running server is alive, exits 1 otherwise.",
		func(cfg config.Server) time.Duration { return cfg.Management.LivenessTimeout })
}

func newReadiness() *cobra.Command {
	return newProbe("readiness", "/-/ready", "Checks that the running server is ready to serve requests, exits 1 otherwise.",
		func(cfg config.Server) time.Duration { return cfg.Management.ReadinessTimeout })
}

func newProbe(use string, path string, short string, timeout func(config.Server) time.Duration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse verbose flag")
			}
			address, err := cmd.Flags().GetString(addressFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse address flag")
			}

			cfg := config.DefaultServiceConfigFromEnv()
			command.SetupLogging(cfg)

			if len(address) == 0 {
				address = baseURL(cfg.Echo.ListenAddress)
			}

			body, err := runProbe(cmd.Context(), address+path, timeout(cfg))
			if verbose && len(body) > 0 {
				fmt.Println(strings.TrimSpace(body))
			}
			if err != nil {
				log.Error().Err(err).Str("probe", use).Msg("Probe failed")
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe response")
	cmd.Flags().String(addressFlag, "", "Base URL of the server (default derived from SERVER_ECHO_LISTEN_ADDRESS)")

	return cmd
}

func runProbe(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create probe request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to execute probe request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", errors.Wrap(err, "failed to read probe response")
	}

	if resp.StatusCode != http.StatusOK {
		var status struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(raw, &status)
		return string(raw), errors.Errorf("probe returned status %d (%s)", resp.StatusCode, status.Status)
	}

	return string(raw), nil
}

// baseURL turns a listen address such as ":8080" into a loopback URL.
func baseURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://127.0.0.1" + listen
	}
	if strings.HasPrefix(listen, "0.0.0.0:") {
		return "http://127.0.0.1" + strings.TrimPrefix(listen, "0.0.0.0")
	}
	return "http://" + listen
}
