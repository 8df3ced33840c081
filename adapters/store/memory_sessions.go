package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	"github.com/patrickmn/go-cache"
)

// MemorySessionStore is an in-memory SessionStore backed by go-cache.
// go-cache serializes access internally and its janitor evicts entries once
// their TTL passes. Callers still check CreatedAt on lookup so a lagging
// janitor never extends a session.
type MemorySessionStore struct {
	sessions *cache.Cache
	takeMu   sync.Mutex // go-cache has no get-and-delete
}

// NewMemorySessionStore creates a store whose janitor runs every cleanupInterval.
// A non-positive interval disables the janitor; Sweep can then be called directly.
func NewMemorySessionStore(cleanupInterval time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

var _ ports.SessionStore = (*MemorySessionStore)(nil)

// Create adds the session; an existing ID is reported as core.ErrTokenConflict
func (s *MemorySessionStore) Create(ctx context.Context, session core.Session, ttl time.Duration) error {
	if err := s.sessions.Add(session.ID, session, ttl); err != nil {
		return core.ErrTokenConflict
	}
	return nil
}

// Get returns the session for id
func (s *MemorySessionStore) Get(ctx context.Context, id string) (core.Session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return core.Session{}, core.ErrSessionNotFound
	}

	session, ok := v.(core.Session)
	if !ok {
		return core.Session{}, core.ErrSessionNotFound
	}
	return session, nil
}

// Take removes and returns the session for id
func (s *MemorySessionStore) Take(ctx context.Context, id string) (core.Session, error) {
	s.takeMu.Lock()
	defer s.takeMu.Unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return core.Session{}, err
	}
	s.sessions.Delete(id)
	return session, nil
}

// Sweep removes sessions older than ttl, plus anything go-cache already considers expired
func (s *MemorySessionStore) Sweep(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	before := s.sessions.ItemCount()
	s.sessions.DeleteExpired()

	for id, item := range s.sessions.Items() {
		session, ok := item.Object.(core.Session)
		if !ok || session.ExpiredAfter(ttl, now) {
			s.sessions.Delete(id)
		}
	}

	return max(0, before-s.sessions.ItemCount()), nil
}

// Len returns the number of stored sessions, including expired ones not yet evicted
func (s *MemorySessionStore) Len() int {
	return s.sessions.ItemCount()
}
