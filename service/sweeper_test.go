package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithSessionTTL(time.Hour))
	w := newWallet(t)

	msg, err := f.svc.CreateChallenge(ctx, w.address)
	require.NoError(t, err)
	_, _, err = f.svc.Login(ctx, w.address, w.sign(t, msg), msg)
	require.NoError(t, err)

	// An abandoned challenge for another wallet
	_, err = f.svc.CreateChallenge(ctx, newWallet(t).address)
	require.NoError(t, err)

	require.NoError(t, f.svc.Sweep(ctx))
	assert.Equal(t, 2, f.challenges.Len())
	assert.Equal(t, 1, f.sessions.Len())

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.svc.Sweep(ctx))
	assert.Equal(t, 0, f.challenges.Len())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestSweep_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.challengeStore = brokenChallengeStore{}

	assert.ErrorIs(t, f.svc.Sweep(context.Background()), errStoreDown)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.svc.RunSweeper(ctx, time.Millisecond)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweeper_DisabledReturnsImmediately(t *testing.T) {
	f := newFixture(t)
	f.svc.RunSweeper(context.Background(), 0)
}
