package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletgate/adapters/profiles"
	"github.com/layer-3/walletgate/adapters/signer"
	"github.com/layer-3/walletgate/adapters/store"
	"github.com/layer-3/walletgate/core"
	"github.com/stretchr/testify/require"
)

type wallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

func (w wallet) lower() string {
	return strings.ToLower(w.address)
}

func (w wallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedEvent struct {
	kind      string
	address   string
	sessionID string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) PublishLogin(_ context.Context, address, sessionID string) error {
	return p.record("login", address, sessionID)
}

func (p *fakePublisher) PublishLogout(_ context.Context, address, sessionID string) error {
	return p.record("logout", address, sessionID)
}

func (p *fakePublisher) record(kind, address, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: kind, address: address, sessionID: sessionID})
	return p.err
}

func (p *fakePublisher) recorded() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

type fixture struct {
	svc        *AuthService
	clock      *fakeClock
	challenges *store.MemoryChallengeStore
	sessions   *store.MemorySessionStore
	events     *fakePublisher
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	f := fixture{
		clock:      newFakeClock(),
		challenges: store.NewMemoryChallengeStore(),
		sessions:   store.NewMemorySessionStore(0),
		events:     &fakePublisher{},
	}

	opts = append([]Option{
		WithClock(f.clock.Now),
		WithEventPublisher(f.events),
	}, opts...)

	f.svc = NewAuthService(
		f.challenges,
		f.sessions,
		signer.NewPersonalSignRecoverer(),
		profiles.NewMemoryProfileStore(),
		opts...,
	)
	return f
}

var errStoreDown = errors.New("store down")

// brokenChallengeStore fails every call
type brokenChallengeStore struct{}

func (brokenChallengeStore) Put(context.Context, core.Challenge) error { return errStoreDown }

func (brokenChallengeStore) Get(context.Context, string) (core.Challenge, error) {
	return core.Challenge{}, errStoreDown
}

func (brokenChallengeStore) MarkUsed(context.Context, string, string) error { return errStoreDown }

func (brokenChallengeStore) Delete(context.Context, string, string) error { return errStoreDown }

func (brokenChallengeStore) Sweep(context.Context, time.Time) (int, error) { return 0, errStoreDown }

// brokenSessionStore fails every call
type brokenSessionStore struct{}

func (brokenSessionStore) Create(context.Context, core.Session, time.Duration) error {
	return errStoreDown
}

func (brokenSessionStore) Get(context.Context, string) (core.Session, error) {
	return core.Session{}, errStoreDown
}

func (brokenSessionStore) Take(context.Context, string) (core.Session, error) {
	return core.Session{}, errStoreDown
}

func (brokenSessionStore) Sweep(context.Context, time.Time, time.Duration) (int, error) {
	return 0, errStoreDown
}
