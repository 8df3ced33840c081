package ports

import (
	"context"
	"time"

	"github.com/layer-3/walletgate/core"
)

// ChallengeStore holds at most one challenge per normalized address
type ChallengeStore interface {
	// Put stores the challenge, replacing any earlier one for the same address.
	// The latest challenge wins; a superseded nonce can never verify again.
	Put(ctx context.Context, challenge core.Challenge) error

	// Get returns the current challenge or core.ErrChallengeNotFound
	Get(ctx context.Context, address string) (core.Challenge, error)

	// MarkUsed atomically flips used from false to true for the challenge with
	// the given nonce. It returns core.ErrChallengeReplayed if the challenge was
	// already used, and core.ErrChallengeNotFound if it was superseded or removed.
	MarkUsed(ctx context.Context, address, nonce string) error

	// Delete removes the challenge for address if its nonce still matches
	Delete(ctx context.Context, address, nonce string) error

	// Sweep drops every challenge expired at now and reports how many were removed
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// SessionStore maps session IDs (token hashes) to sessions
type SessionStore interface {
	// Create stores a new session. It returns core.ErrTokenConflict if the ID is taken.
	Create(ctx context.Context, session core.Session, ttl time.Duration) error

	// Get returns the session or core.ErrSessionNotFound. It never mutates state.
	Get(ctx context.Context, id string) (core.Session, error)

	// Take atomically removes the session and returns it, or core.ErrSessionNotFound.
	// Of concurrent calls for the same ID at most one gets the session.
	Take(ctx context.Context, id string) (core.Session, error)

	// Sweep drops sessions created more than ttl before now
	Sweep(ctx context.Context, now time.Time, ttl time.Duration) (int, error)
}
