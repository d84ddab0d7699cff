package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

// NonceSize is the number of random bytes in a generated session nonce.
const NonceSize = 32

// Session correlates an inference call with the hashes of the bytes it produced.
type Session struct {
	ID           string    `json:"id"`
	Nonce        string    `json:"nonce"`
	RequestHash  string    `json:"requestHash,omitempty"`
	ResponseHash string    `json:"responseHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterParams 注册参数. Empty fields mean "not provided".
type RegisterParams struct {
	ID           string
	Nonce        string
	RequestHash  string
	ResponseHash string
}

// HashUpdate 部分更新, empty fields are left untouched.
type HashUpdate struct {
	RequestHash  string
	ResponseHash string
}

// IsEmpty reports whether the update carries no hash.
func (u HashUpdate) IsEmpty() bool {
	return len(u.RequestHash) == 0 && len(u.ResponseHash) == 0
}

// Store owns verification sessions. Implementations must make per-id updates atomic.
type Store interface {
	// Register creates the session if absent (generating a nonce when none is supplied),
	// otherwise updates only the provided hash fields. Repeated calls are idempotent.
	Register(ctx context.Context, params RegisterParams) (*Session, error)

	// UpdateHashes applies a partial update. It returns false, and no error, for unknown ids.
	UpdateHashes(ctx context.Context, id string, update HashUpdate) (bool, error)

	// Get returns the session and whether it exists.
	Get(ctx context.Context, id string) (*Session, bool, error)
}

// ErrEmptySessionID 会话 ID 为空
var ErrEmptySessionID = errors.New("session id is required")

// GenerateNonce returns NonceSize cryptographically random bytes, hex encoded.
func GenerateNonce() (string, error) {
	buf := make([]byte, NonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate nonce")
	}
	return hex.EncodeToString(buf), nil
}
