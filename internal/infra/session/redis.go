package session

import (
	"context"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	fieldNonce        = "nonce"
	fieldRequestHash  = "request_hash"
	fieldResponseHash = "response_hash"
	fieldCreatedAt    = "created_at"

	maxUpdateAttempts = 3
)

// RedisStore 基于 Redis 的会话存储, one hash per session.
// Creation uses HSETNX so concurrent registrations of the same id agree on a single nonce;
// hash fields are last-writer-wins.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	clock     time2.Clock
}

// NewRedisStore creates a redis backed store. A ttl of 0 keeps sessions until redis evicts them.
func NewRedisStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration, clock time2.Clock) *RedisStore {
	if clock == nil {
		clock = time2.DefaultClock
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		clock:     clock,
	}
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Register 注册会话
func (s *RedisStore) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	if len(params.ID) == 0 {
		return nil, ErrEmptySessionID
	}

	nonce := params.Nonce
	if len(nonce) == 0 {
		var err error
		nonce, err = GenerateNonce()
		if err != nil {
			return nil, err
		}
	}

	key := s.key(params.ID)
	createdAt := s.clock.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, fieldNonce, nonce)
		pipe.HSetNX(ctx, key, fieldCreatedAt, createdAt)
		if len(params.RequestHash) > 0 {
			pipe.HSet(ctx, key, fieldRequestHash, params.RequestHash)
		}
		if len(params.ResponseHash) > 0 {
			pipe.HSet(ctx, key, fieldResponseHash, params.ResponseHash)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to register session %s", params.ID)
	}

	sess, ok, err := s.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("session %s vanished after registration", params.ID)
	}

	return sess, nil
}

// UpdateHashes 更新会话哈希. The existence check and the write run in one WATCH transaction
// so an expiring key is never recreated without its nonce.
func (s *RedisStore) UpdateHashes(ctx context.Context, id string, update HashUpdate) (bool, error) {
	key := s.key(id)

	values := make([]interface{}, 0, 4)
	if len(update.RequestHash) > 0 {
		values = append(values, fieldRequestHash, update.RequestHash)
	}
	if len(update.ResponseHash) > 0 {
		values = append(values, fieldResponseHash, update.ResponseHash)
	}

	var found bool
	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		found = exists > 0
		if !found || len(values) == 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values...)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, errors.Wrapf(err, "failed to update hashes of session %s", id)
		}

		if !found {
			log.Warn().Str("verification_id", id).Msg("Cannot update hashes of unknown verification session")
		}
		return found, nil
	}

	return false, errors.Errorf("failed to update hashes of session %s: too much contention", id)
}

// Get 查询会话
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to get session %s", id)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	sess := &Session{
		ID:           id,
		Nonce:        fields[fieldNonce],
		RequestHash:  fields[fieldRequestHash],
		ResponseHash: fields[fieldResponseHash],
	}

	if raw, ok := fields[fieldCreatedAt]; ok {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			log.Warn().Err(err).Str("verification_id", id).Str("created_at", raw).Msg("Failed to parse session creation time")
		} else {
			sess.CreatedAt = createdAt
		}
	}

	return sess, true, nil
}
