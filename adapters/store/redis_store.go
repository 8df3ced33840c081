package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by the Redis stores
const DefaultRedisPrefix = "walletgate"

// expiredGrace keeps expired challenges around briefly so clients get
// ErrChallengeExpired instead of ErrChallengeNotFound
const expiredGrace = time.Minute

// markUsedScript flips used to 1 only if the stored nonce matches ARGV[1].
// Returns 1 on success, 0 when missing or superseded, -1 when already used.
var markUsedScript = redis.NewScript(`
local nonce = redis.call('HGET', KEYS[1], 'nonce')
if not nonce or nonce ~= ARGV[1] then
	return 0
end
if redis.call('HGET', KEYS[1], 'used') == '1' then
	return -1
end
redis.call('HSET', KEYS[1], 'used', '1')
return 1
`)

// deleteIfNonceScript deletes the challenge only if it has not been superseded
var deleteIfNonceScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'nonce') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisChallengeStore is a ChallengeStore shared between processes through Redis
type RedisChallengeStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisChallengeStore creates a new Redis challenge store
func NewRedisChallengeStore(client redis.UniversalClient, prefix string) *RedisChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: prefix + ":challenge:",
	}
}

var _ ports.ChallengeStore = (*RedisChallengeStore)(nil)

// Put replaces the challenge hash for the address in a single transaction
func (s *RedisChallengeStore) Put(ctx context.Context, c core.Challenge) error {
	key := s.prefix + c.Address

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"message", c.Message,
			"nonce", c.Nonce,
			"issued_at", strconv.FormatInt(c.IssuedAt.UnixMilli(), 10),
			"expires_at", strconv.FormatInt(c.ExpiresAt.UnixMilli(), 10),
			"used", boolFlag(c.Used),
		)
		pipe.PExpireAt(ctx, key, c.ExpiresAt.Add(expiredGrace))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	return nil
}

// Get loads the challenge hash for the address
func (s *RedisChallengeStore) Get(ctx context.Context, address string) (core.Challenge, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+address).Result()
	if err != nil {
		return core.Challenge{}, fmt.Errorf("failed to load challenge: %w", err)
	}
	if len(fields) == 0 {
		return core.Challenge{}, core.ErrChallengeNotFound
	}

	issuedAt, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("corrupt challenge issued_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("corrupt challenge expires_at: %w", err)
	}

	return core.Challenge{
		Address:   address,
		Message:   fields["message"],
		Nonce:     fields["nonce"],
		IssuedAt:  time.UnixMilli(issuedAt),
		ExpiresAt: time.UnixMilli(expiresAt),
		Used:      fields["used"] == "1",
	}, nil
}

// MarkUsed runs the compare-and-set script so concurrent verifiers cannot both succeed
func (s *RedisChallengeStore) MarkUsed(ctx context.Context, address, nonce string) error {
	res, err := markUsedScript.Run(ctx, s.client, []string{s.prefix + address}, nonce).Int()
	if err != nil {
		return fmt.Errorf("failed to mark challenge used: %w", err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return core.ErrChallengeReplayed
	default:
		return core.ErrChallengeNotFound
	}
}

// Delete removes the challenge if nonce still matches
func (s *RedisChallengeStore) Delete(ctx context.Context, address, nonce string) error {
	if err := deleteIfNonceScript.Run(ctx, s.client, []string{s.prefix + address}, nonce).Err(); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}

// Sweep is a no-op: Redis expires challenge keys on its own
func (s *RedisChallengeStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// RedisSessionStore is a SessionStore backed by Redis string keys with a TTL
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSessionStore creates a new Redis session store
func NewRedisSessionStore(client redis.UniversalClient, prefix string) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: prefix + ":session:",
	}
}

var _ ports.SessionStore = (*RedisSessionStore)(nil)

type redisSession struct {
	Address   string `json:"address"`
	CreatedAt int64  `json:"created_at"`
}

// Create writes the session with SET NX so an existing ID is never overwritten
func (s *RedisSessionStore) Create(ctx context.Context, session core.Session, ttl time.Duration) error {
	payload, err := json.Marshal(redisSession{
		Address:   session.Address,
		CreatedAt: session.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.prefix+session.ID, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if !ok {
		return core.ErrTokenConflict
	}

	return nil
}

// Get loads the session for id
func (s *RedisSessionStore) Get(ctx context.Context, id string) (core.Session, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Session{}, core.ErrSessionNotFound
		}
		return core.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	return decodeSession(id, payload)
}

// Take removes the session key with GETDEL and returns what it held
func (s *RedisSessionStore) Take(ctx context.Context, id string) (core.Session, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Session{}, core.ErrSessionNotFound
		}
		return core.Session{}, fmt.Errorf("failed to delete session: %w", err)
	}

	return decodeSession(id, payload)
}

func decodeSession(id string, payload []byte) (core.Session, error) {
	var stored redisSession
	if err := json.Unmarshal(payload, &stored); err != nil {
		return core.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return core.Session{
		ID:        id,
		Address:   stored.Address,
		CreatedAt: time.UnixMilli(stored.CreatedAt),
	}, nil
}

// Sweep is a no-op: session keys carry their own TTL
func (s *RedisSessionStore) Sweep(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	return 0, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
