package verdict

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var ErrMalformedSignature = errors.New("malformed signature")

// TextHash 计算 EIP-191 personal_sign 消息摘要
func TextHash(message []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256([]byte(prefix), message)
}

// RecoverAddress recovers the checksummed signer address of an EIP-191 personal message.
// The recovery id may be encoded as 0/1 or 27/28.
func RecoverAddress(message string, signature string) (string, error) {
	raw := strings.TrimSpace(signature)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")

	sig, err := hex.DecodeString(raw)
	if err != nil {
		return "", errors.Wrap(ErrMalformedSignature, err.Error())
	}
	if len(sig) != crypto.SignatureLength {
		return "", errors.Wrapf(ErrMalformedSignature, "expected %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", errors.Wrapf(ErrMalformedSignature, "invalid recovery id %d", sig[crypto.RecoveryIDOffset])
	}

	pub, err := crypto.SigToPub(TextHash([]byte(message)), sig)
	if err != nil {
		return "", errors.Wrap(err, "failed to recover public key")
	}

	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
