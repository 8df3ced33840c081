package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore(0)

	session := core.Session{ID: "abc", Address: testAddress, CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, session, time.Hour))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, testAddress, got.Address)

	// Same ID twice is a conflict, the original entry is untouched
	assert.ErrorIs(t, s.Create(ctx, core.Session{ID: "abc", Address: "0x1"}, time.Hour), core.ErrTokenConflict)
	got, err = s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, testAddress, got.Address)

	taken, err := s.Take(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, testAddress, taken.Address)

	_, err = s.Take(ctx, "abc")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestMemorySessionStore_TakeConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore(0)
	require.NoError(t, s.Create(ctx, core.Session{ID: "abc", Address: testAddress, CreatedAt: time.Now()}, time.Hour))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "abc"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemorySessionStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore(0)
	now := time.Now()

	require.NoError(t, s.Create(ctx, core.Session{ID: "old", Address: testAddress, CreatedAt: now.Add(-2 * time.Hour)}, 0))
	require.NoError(t, s.Create(ctx, core.Session{ID: "new", Address: testAddress, CreatedAt: now}, 0))

	n, err := s.Sweep(ctx, now, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = s.Get(ctx, "new")
	assert.NoError(t, err)
}
