package core

import "time"

// Challenge is a single-use login message issued to a wallet address
type Challenge struct {
	Address   string    // Normalized (lowercase) wallet address
	Message   string    // Exact text the wallet is asked to sign
	Nonce     string    // Random value embedded in Message
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // After this instant the challenge can never verify
	Used      bool      // Set once, on successful verification
}

// Expired reports whether the challenge is past its expiry at now
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Session is the server-side state bound to an opaque session token
type Session struct {
	ID        string    // SHA-256 of the token, hex encoded; safe to log
	Address   string    // Normalized wallet address
	CreatedAt time.Time // When the session was created
}

// ExpiredAfter reports whether the session is older than ttl at now
func (s Session) ExpiredAfter(ttl time.Duration, now time.Time) bool {
	return now.After(s.CreatedAt.Add(ttl))
}

// Profile is the domain record attached to a wallet address
type Profile struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Username  string    `json:"username"`
	Referrer  string    `json:"referrer,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
