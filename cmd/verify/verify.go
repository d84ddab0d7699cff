package verify

import (
	"encoding/json"
	"os"

	"github.com/kashguard/go-tee-verifier/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	modelFlag           string = "model"
	idFlag              string = "id"
	originFlag          string = "origin"
	attestedAddressFlag string = "attested-address"
	requestFileFlag     string = "request-file"
	responseFileFlag    string = "response-file"
	proofFileFlag       string = "proof-file"
)

// New 创建 verify 命令组
func New() *cobra.Command {
	return command.NewSubcommandGroup("verify",
		newExpectations(),
		newState(),
	)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode output")
	}
	return nil
}
