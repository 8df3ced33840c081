package core

import "errors"

// Validation errors
var (
	ErrInvalidAddress  = errors.New("invalid wallet address")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidReferrer = errors.New("invalid referrer")
)

// Challenge errors
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExpired  = errors.New("challenge has expired")
	ErrChallengeReplayed = errors.New("challenge already used")
	ErrMessageMismatch   = errors.New("message does not match challenge")
)

var (
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrUnauthenticated covers every way a request can fail to carry a usable session
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")

	ErrProfileExists = errors.New("profile already exists")
	ErrTokenConflict = errors.New("session token already exists")
)

// IsChallengeError reports whether err is one of the challenge lifecycle failures
func IsChallengeError(err error) bool {
	return errors.Is(err, ErrChallengeNotFound) ||
		errors.Is(err, ErrChallengeExpired) ||
		errors.Is(err, ErrChallengeReplayed) ||
		errors.Is(err, ErrMessageMismatch)
}

// IsValidationError reports whether err stems from malformed client input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrInvalidReferrer)
}

// IsUnauthenticated reports whether err means the caller has no valid session
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired)
}
