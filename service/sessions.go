package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	"github.com/samber/oops"
)

// Session token configuration
const (
	SessionTokenBytes  = 32 // 256 bits, rendered as 64 hex chars
	sessionTokenLength = SessionTokenBytes * 2

	// createAttempts bounds regeneration on the (practically impossible) ID collision
	createAttempts = 3
)

// Sessions issues opaque session tokens and resolves them back to addresses.
// Only the SHA-256 of a token is handed to the store.
type Sessions struct {
	store  ports.SessionStore
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// NewSessions creates a session manager; sessions older than ttl stop resolving
func NewSessions(store ports.SessionStore, ttl time.Duration, now func() time.Time) *Sessions {
	return &Sessions{
		store:  store,
		ttl:    ttl,
		now:    now,
		random: rand.Reader,
	}
}

// TTL returns the maximum session age
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Create binds a new token to address
func (s *Sessions) Create(ctx context.Context, address string) (string, core.Session, error) {
	for range createAttempts {
		token, err := s.newToken()
		if err != nil {
			return "", core.Session{}, oops.In("sessions").Code("TOKEN_FAILED").Wrapf(err, "generating session token")
		}

		session := core.Session{
			ID:        SessionID(token),
			Address:   address,
			CreatedAt: s.now(),
		}

		err = s.store.Create(ctx, session, s.ttl)
		if err == nil {
			return token, session, nil
		}
		if !errors.Is(err, core.ErrTokenConflict) {
			return "", core.Session{}, oops.In("sessions").
				Code("SESSION_STORE_FAILED").
				With("address", address).
				Wrapf(err, "storing session")
		}
	}

	return "", core.Session{}, oops.In("sessions").
		Code("TOKEN_COLLISION").
		Errorf("could not allocate a unique session token after %d attempts", createAttempts)
}

// Lookup resolves token to its session without changing any state
func (s *Sessions) Lookup(ctx context.Context, token string) (core.Session, error) {
	if !wellFormedToken(token) {
		return core.Session{}, core.ErrSessionNotFound
	}

	session, err := s.store.Get(ctx, SessionID(token))
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return core.Session{}, core.ErrSessionNotFound
		}
		return core.Session{}, oops.In("sessions").Code("SESSION_STORE_FAILED").Wrapf(err, "loading session")
	}

	if session.ExpiredAfter(s.ttl, s.now()) {
		return core.Session{}, core.ErrSessionExpired
	}

	return session, nil
}

// Revoke deletes the session for token. It reports the session that was
// removed, if any; revoking an unknown token is not an error. When several
// revocations of one token race, exactly one reports the session.
func (s *Sessions) Revoke(ctx context.Context, token string) (core.Session, bool, error) {
	if !wellFormedToken(token) {
		return core.Session{}, false, nil
	}

	session, err := s.store.Take(ctx, SessionID(token))
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return core.Session{}, false, nil
	case err != nil:
		return core.Session{}, false, oops.In("sessions").Code("SESSION_STORE_FAILED").Wrapf(err, "deleting session")
	}

	return session, true, nil
}

// SessionID derives the store key for token
func SessionID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Sessions) newToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func wellFormedToken(token string) bool {
	if len(token) != sessionTokenLength {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
