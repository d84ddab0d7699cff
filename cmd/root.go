package cmd

import (
	"fmt"
	"os"

	"github.com/kashguard/go-tee-verifier/cmd/probe"
	"github.com/kashguard/go-tee-verifier/cmd/server"
	"github.com/kashguard/go-tee-verifier/cmd/verify"
	"github.com/kashguard/go-tee-verifier/internal/config"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Verifies that AI inference responses were produced inside an attested TEE.
Requires configuration through ENV.`, config.ModuleName),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		server.New(),
		probe.New(),
		verify.New(),
	)
}
