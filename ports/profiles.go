package ports

import (
	"context"

	"github.com/layer-3/walletgate/core"
)

// ProfileResolver looks up the domain profile for an authenticated address.
// A missing profile is reported as (nil, nil), not as an error.
type ProfileResolver interface {
	ResolveByAddress(ctx context.Context, address string) (*core.Profile, error)
}

// ProfileStore is a ProfileResolver that can also create profiles
type ProfileStore interface {
	ProfileResolver

	// Create stores a new profile; core.ErrProfileExists if the address already has one
	Create(ctx context.Context, profile core.Profile) (core.Profile, error)
}
