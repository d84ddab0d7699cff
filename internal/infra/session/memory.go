package session

import (
	"context"
	"sync"

	"github.com/dropbox/godropbox/time2"
	"github.com/rs/zerolog/log"
)

// MemoryStore keeps sessions for the lifetime of the process.
// Entries are never evicted.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	clock    time2.Clock
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore(clock time2.Clock) *MemoryStore {
	if clock == nil {
		clock = time2.DefaultClock
	}

	return &MemoryStore{
		sessions: make(map[string]Session),
		clock:    clock,
	}
}

// Register 注册会话
func (s *MemoryStore) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	if len(params.ID) == 0 {
		return nil, ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[params.ID]
	if !ok {
		nonce := params.Nonce
		if len(nonce) == 0 {
			var err error
			nonce, err = GenerateNonce()
			if err != nil {
				return nil, err
			}
		}
		existing = Session{
			ID:        params.ID,
			Nonce:     nonce,
			CreatedAt: s.clock.Now(),
		}
	}

	if len(params.RequestHash) > 0 {
		existing.RequestHash = params.RequestHash
	}
	if len(params.ResponseHash) > 0 {
		existing.ResponseHash = params.ResponseHash
	}
	s.sessions[params.ID] = existing

	res := existing
	return &res, nil
}

// UpdateHashes 更新会话哈希
func (s *MemoryStore) UpdateHashes(ctx context.Context, id string, update HashUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[id]
	if !ok {
		log.Warn().Str("verification_id", id).Msg("Cannot update hashes of unknown verification session")
		return false, nil
	}

	if len(update.RequestHash) > 0 {
		existing.RequestHash = update.RequestHash
	}
	if len(update.ResponseHash) > 0 {
		existing.ResponseHash = update.ResponseHash
	}
	s.sessions[id] = existing

	return true, nil
}

// Get 查询会话
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[id]
	if !ok {
		return nil, false, nil
	}

	res := existing
	return &res, true, nil
}

// Len returns the number of tracked sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
