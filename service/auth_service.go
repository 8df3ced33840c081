package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	"github.com/samber/oops"
	slogctx "github.com/veqryn/slog-context"
)

// Default lifetimes
const (
	DefaultChallengeTTL = 5 * time.Minute
	DefaultSessionTTL   = 7 * 24 * time.Hour
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

const maxReferrerLength = 64

// AuthService handles wallet authentication business logic
type AuthService struct {
	issuer   *ChallengeIssuer
	verifier *SignatureVerifier
	sessions *Sessions

	challengeStore ports.ChallengeStore
	sessionStore   ports.SessionStore
	profiles       ports.ProfileStore
	eventPub       ports.EventPublisher
	metrics        ports.Metrics
}

type options struct {
	appName      string
	challengeTTL time.Duration
	sessionTTL   time.Duration
	now          func() time.Time
	eventPub     ports.EventPublisher
	metrics      ports.Metrics
}

// Option configures an AuthService
type Option func(*options)

// WithAppName sets the first line of challenge messages
func WithAppName(name string) Option {
	return func(o *options) { o.appName = name }
}

// WithChallengeTTL overrides DefaultChallengeTTL
func WithChallengeTTL(ttl time.Duration) Option {
	return func(o *options) { o.challengeTTL = ttl }
}

// WithSessionTTL overrides DefaultSessionTTL
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) { o.sessionTTL = ttl }
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEventPublisher publishes login and logout events
func WithEventPublisher(pub ports.EventPublisher) Option {
	return func(o *options) { o.eventPub = pub }
}

// WithMetrics records outcomes on m
func WithMetrics(m ports.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewAuthService creates a new authentication service
func NewAuthService(
	challenges ports.ChallengeStore,
	sessions ports.SessionStore,
	recoverer ports.SignatureRecoverer,
	profiles ports.ProfileStore,
	opts ...Option,
) *AuthService {
	o := options{
		appName:      core.DefaultAppName,
		challengeTTL: DefaultChallengeTTL,
		sessionTTL:   DefaultSessionTTL,
		now:          time.Now,
		metrics:      ports.NopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return &AuthService{
		issuer:         NewChallengeIssuer(challenges, o.appName, o.challengeTTL, o.now),
		verifier:       NewSignatureVerifier(challenges, recoverer, o.now),
		sessions:       NewSessions(sessions, o.sessionTTL, o.now),
		challengeStore: challenges,
		sessionStore:   sessions,
		profiles:       profiles,
		eventPub:       o.eventPub,
		metrics:        o.metrics,
	}
}

// SessionTTL is the maximum session age, also used for the cookie Max-Age
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

// CreateChallenge issues a new login message for address
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (string, error) {
	challenge, err := s.issuer.Issue(ctx, address)
	if err != nil {
		return "", err
	}

	s.metrics.ChallengeIssued()
	slogctx.Debug(ctx, "Challenge issued", "address", challenge.Address, "expires_at", challenge.ExpiresAt)

	return challenge.Message, nil
}

// Login verifies the signed challenge and opens a session. The challenge is
// consumed even when session creation fails afterwards.
func (s *AuthService) Login(ctx context.Context, address, signature, message string) (string, core.Session, error) {
	normalized, err := s.verifier.Verify(ctx, address, signature, message)
	if err != nil {
		s.metrics.VerificationResult(verificationOutcome(err))
		if core.IsChallengeError(err) || errors.Is(err, core.ErrInvalidSignature) {
			slogctx.Warn(ctx, "Wallet verification failed", "address", address, "reason", err.Error())
		}
		return "", core.Session{}, err
	}
	s.metrics.VerificationResult(ports.OutcomeSuccess)

	token, session, err := s.sessions.Create(ctx, normalized)
	if err != nil {
		return "", core.Session{}, err
	}
	s.metrics.SessionCreated()
	slogctx.Info(ctx, "Session created", "address", normalized, "session_id", session.ID)

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogin(ctx, normalized, session.ID); err != nil {
			// The session exists either way
			slogctx.Warn(ctx, "Failed to publish login event", "error", err)
		}
	}

	return token, session, nil
}

// Authenticate resolves token to a live session
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, core.ErrUnauthenticated
	}
	return s.sessions.Lookup(ctx, token)
}

// Logout revokes the session for token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, revoked, err := s.sessions.Revoke(ctx, token)
	if err != nil {
		return err
	}
	if !revoked {
		return nil
	}

	s.metrics.SessionRevoked()
	slogctx.Info(ctx, "Session revoked", "address", session.Address, "session_id", session.ID)

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogout(ctx, session.Address, session.ID); err != nil {
			slogctx.Warn(ctx, "Failed to publish logout event", "error", err)
		}
	}

	return nil
}

// Profile returns the profile for an authenticated address, or nil when none exists yet
func (s *AuthService) Profile(ctx context.Context, address string) (*core.Profile, error) {
	profile, err := s.profiles.ResolveByAddress(ctx, address)
	if err != nil {
		return nil, oops.In("profiles").
			Code("PROFILE_LOOKUP_FAILED").
			With("address", address).
			Wrapf(err, "resolving profile")
	}
	return profile, nil
}

// SignUp creates the profile for an authenticated address
func (s *AuthService) SignUp(ctx context.Context, address, username, referrer string) (core.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.Profile{}, core.ErrMissingField
	}
	if !usernamePattern.MatchString(username) {
		return core.Profile{}, core.ErrInvalidUsername
	}

	referrer = strings.TrimSpace(referrer)
	if len(referrer) > maxReferrerLength {
		return core.Profile{}, core.ErrInvalidReferrer
	}

	profile, err := s.profiles.Create(ctx, core.Profile{
		Address:  address,
		Username: username,
		Referrer: referrer,
	})
	if err != nil {
		if errors.Is(err, core.ErrProfileExists) {
			return core.Profile{}, core.ErrProfileExists
		}
		return core.Profile{}, oops.In("profiles").
			Code("PROFILE_CREATE_FAILED").
			With("address", address).
			Wrapf(err, "creating profile")
	}

	slogctx.Info(ctx, "Profile created", "address", address, "profile_id", profile.ID)
	return profile, nil
}

func verificationOutcome(err error) string {
	switch {
	case errors.Is(err, core.ErrChallengeNotFound):
		return ports.OutcomeNotFound
	case errors.Is(err, core.ErrChallengeReplayed):
		return ports.OutcomeReplayed
	case errors.Is(err, core.ErrChallengeExpired):
		return ports.OutcomeExpired
	case errors.Is(err, core.ErrMessageMismatch):
		return ports.OutcomeMismatch
	case errors.Is(err, core.ErrInvalidSignature):
		return ports.OutcomeSignature
	default:
		return ports.OutcomeError
	}
}
