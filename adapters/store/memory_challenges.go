package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
)

// MemoryChallengeStore is an in-memory ChallengeStore guarded by a single mutex
type MemoryChallengeStore struct {
	challenges map[string]core.Challenge
	mu         sync.Mutex
}

// NewMemoryChallengeStore creates an empty in-memory challenge store
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]core.Challenge),
	}
}

var _ ports.ChallengeStore = (*MemoryChallengeStore)(nil)

// Put overwrites whatever challenge the address had before
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[challenge.Address] = challenge
	return nil
}

// Get returns a copy of the stored challenge
func (s *MemoryChallengeStore) Get(ctx context.Context, address string) (core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok {
		return core.Challenge{}, core.ErrChallengeNotFound
	}
	return challenge, nil
}

// MarkUsed consumes the challenge if nonce still identifies the current one
func (s *MemoryChallengeStore) MarkUsed(ctx context.Context, address, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok || challenge.Nonce != nonce {
		return core.ErrChallengeNotFound
	}
	if challenge.Used {
		return core.ErrChallengeReplayed
	}

	challenge.Used = true
	s.challenges[address] = challenge
	return nil
}

// Delete removes the challenge unless it has already been superseded
func (s *MemoryChallengeStore) Delete(ctx context.Context, address, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if challenge, ok := s.challenges[address]; ok && challenge.Nonce == nonce {
		delete(s.challenges, address)
	}
	return nil
}

// Sweep removes expired challenges, used or not
func (s *MemoryChallengeStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for address, challenge := range s.challenges {
		if challenge.Expired(now) {
			delete(s.challenges, address)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored challenges
func (s *MemoryChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.challenges)
}
