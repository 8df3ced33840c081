package service

import (
	"context"
	"time"

	slogctx "github.com/veqryn/slog-context"
)

// Sweep removes expired challenges and sessions once. Lookups enforce expiry
// on their own; sweeping only bounds memory held by abandoned entries.
func (s *AuthService) Sweep(ctx context.Context) error {
	now := s.sessions.now()

	challenges, err := s.challengeStore.Sweep(ctx, now)
	if err != nil {
		return err
	}
	s.metrics.Swept("challenge", challenges)

	sessions, err := s.sessionStore.Sweep(ctx, now, s.sessions.TTL())
	if err != nil {
		return err
	}
	s.metrics.Swept("session", sessions)

	if challenges > 0 || sessions > 0 {
		slogctx.Debug(ctx, "Swept expired entries", "challenges", challenges, "sessions", sessions)
	}
	return nil
}

// RunSweeper calls Sweep every interval until ctx is cancelled
func (s *AuthService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				slogctx.Warn(ctx, "Sweep failed", "error", err)
			}
		}
	}
}
