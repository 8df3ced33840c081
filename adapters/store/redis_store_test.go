package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/layer-3/walletgate/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisChallengeStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	s := NewRedisChallengeStore(client, DefaultRedisPrefix)

	exp := time.Now().Add(5 * time.Minute).Truncate(time.Millisecond)
	require.NoError(t, s.Put(ctx, newChallenge("first", exp)))
	require.NoError(t, s.Put(ctx, newChallenge("second", exp)))

	got, err := s.Get(ctx, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Nonce)
	assert.Equal(t, core.ChallengeMessage(core.DefaultAppName, testAddress, "second"), got.Message)
	assert.True(t, exp.Equal(got.ExpiresAt))
	assert.False(t, got.Used)

	assert.ErrorIs(t, s.MarkUsed(ctx, testAddress, "first"), core.ErrChallengeNotFound)
	require.NoError(t, s.MarkUsed(ctx, testAddress, "second"))
	assert.ErrorIs(t, s.MarkUsed(ctx, testAddress, "second"), core.ErrChallengeReplayed)

	got, err = s.Get(ctx, testAddress)
	require.NoError(t, err)
	assert.True(t, got.Used)

	require.NoError(t, s.Delete(ctx, testAddress, "second"))
	_, err = s.Get(ctx, testAddress)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestRedisChallengeStore_KeyExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	s := NewRedisChallengeStore(client, DefaultRedisPrefix)

	require.NoError(t, s.Put(ctx, newChallenge("n", time.Now().Add(time.Minute))))
	assert.True(t, mr.Exists(DefaultRedisPrefix+":challenge:"+testAddress))

	mr.FastForward(time.Minute + expiredGrace + time.Second)

	_, err := s.Get(ctx, testAddress)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestRedisChallengeStore_MarkUsedConcurrent(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	s := NewRedisChallengeStore(client, DefaultRedisPrefix)
	require.NoError(t, s.Put(ctx, newChallenge("n", time.Now().Add(time.Minute))))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkUsed(ctx, testAddress, "n") == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	s := NewRedisSessionStore(client, DefaultRedisPrefix)

	created := time.Now().Truncate(time.Millisecond)
	session := core.Session{ID: "hash", Address: testAddress, CreatedAt: created}
	require.NoError(t, s.Create(ctx, session, time.Hour))
	assert.ErrorIs(t, s.Create(ctx, session, time.Hour), core.ErrTokenConflict)

	got, err := s.Get(ctx, "hash")
	require.NoError(t, err)
	assert.Equal(t, testAddress, got.Address)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, time.Hour, mr.TTL(DefaultRedisPrefix+":session:hash"))

	taken, err := s.Take(ctx, "hash")
	require.NoError(t, err)
	assert.Equal(t, testAddress, taken.Address)
	assert.False(t, mr.Exists(DefaultRedisPrefix+":session:hash"))

	_, err = s.Take(ctx, "hash")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = s.Get(ctx, "hash")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}
