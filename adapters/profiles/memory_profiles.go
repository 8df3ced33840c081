package profiles

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
)

// MemoryProfileStore keeps profiles in memory, keyed by lowercase address
type MemoryProfileStore struct {
	profiles map[string]core.Profile
	mu       sync.RWMutex
}

// NewMemoryProfileStore creates an empty profile store
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		profiles: make(map[string]core.Profile),
	}
}

var _ ports.ProfileStore = (*MemoryProfileStore)(nil)

// ResolveByAddress returns the profile for address or nil if there is none
func (s *MemoryProfileStore) ResolveByAddress(ctx context.Context, address string) (*core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

// Create assigns an ID and creation time and stores the profile
func (s *MemoryProfileStore) Create(ctx context.Context, profile core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(profile.Address)
	if _, ok := s.profiles[key]; ok {
		return core.Profile{}, core.ErrProfileExists
	}

	profile.ID = uuid.New().String()
	profile.Address = key
	profile.CreatedAt = time.Now().UTC()
	s.profiles[key] = profile

	return profile, nil
}
