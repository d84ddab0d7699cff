package verify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kashguard/go-tee-verifier/internal/api"
	"github.com/kashguard/go-tee-verifier/internal/infra/proof"
	"github.com/kashguard/go-tee-verifier/internal/infra/verdict"
	"github.com/kashguard/go-tee-verifier/internal/infra/verification"
	"github.com/kashguard/go-tee-verifier/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o600))
	return p
}

func TestRunStateWithProofFile(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		dir := t.TempDir()
		reqBody := []byte(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`)
		respBody := []byte(`{"id":"chatcmpl-9","choices":[]}`)

		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		address := crypto.PubkeyToAddress(key.PublicKey).Hex()

		text := verification.HashBody(reqBody) + ":" + verification.HashBody(respBody)
		sig, err := crypto.Sign(verdict.TextHash([]byte(text)), key)
		require.NoError(t, err)

		verified := true
		bundle, err := json.Marshal(proof.Response{
			Signature:  &proof.SignaturePayload{Text: text, Signature: "0x" + hex.EncodeToString(sig)},
			NonceCheck: &proof.NonceCheck{Valid: true},
			Results:    &proof.Results{Verified: &verified, GPU: &proof.CheckResult{Verified: &verified}},
		})
		require.NoError(t, err)

		state, err := runState(testContext(t), s, stateOptions{
			id:              "chatcmpl-9",
			attestedAddress: address,
			requestFile:     writeFile(t, dir, "request.json", reqBody),
			responseFile:    writeFile(t, dir, "response.json", respBody),
			proofFile:       writeFile(t, dir, "proof.json", bundle),
		})
		require.NoError(t, err)
		assert.Equal(t, verdict.OverallVerified, state.Overall)
		assert.Equal(t, address, state.RecoveredAddress)
	})
}

func TestRunStateRequiresModel(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		_, err := runState(testContext(t), s, stateOptions{id: "chatcmpl-9"})
		assert.Error(t, err)
	})
}

// testContext mirrors testing.T.Context (Go 1.24+): canceled when the test cleans up.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
