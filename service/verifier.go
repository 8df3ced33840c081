package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	"github.com/samber/oops"
)

// SignatureVerifier checks a signed challenge and consumes it
type SignatureVerifier struct {
	challenges ports.ChallengeStore
	recoverer  ports.SignatureRecoverer
	now        func() time.Time
}

// NewSignatureVerifier creates a new verifier
func NewSignatureVerifier(challenges ports.ChallengeStore, recoverer ports.SignatureRecoverer, now func() time.Time) *SignatureVerifier {
	return &SignatureVerifier{
		challenges: challenges,
		recoverer:  recoverer,
		now:        now,
	}
}

// Verify returns the normalized address once the signature over the stored
// challenge checks out. Each check fails with its own sentinel; on success the
// challenge is consumed before returning, so it can never verify again.
func (v *SignatureVerifier) Verify(ctx context.Context, address, signature, message string) (string, error) {
	normalized, err := core.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	if signature == "" || message == "" {
		return "", core.ErrMissingField
	}

	challenge, err := v.challenges.Get(ctx, normalized)
	if err != nil {
		if errors.Is(err, core.ErrChallengeNotFound) {
			return "", core.ErrChallengeNotFound
		}
		return "", storeFailure(err, normalized, "loading challenge")
	}

	if challenge.Used {
		return "", core.ErrChallengeReplayed
	}

	if challenge.Expired(v.now()) {
		if err := v.challenges.Delete(ctx, normalized, challenge.Nonce); err != nil {
			return "", storeFailure(err, normalized, "deleting expired challenge")
		}
		return "", core.ErrChallengeExpired
	}

	if challenge.Message != message {
		return "", core.ErrMessageMismatch
	}

	recovered, err := v.recoverer.RecoverAddress(message, signature)
	if err != nil {
		return "", fmt.Errorf("recovering signer: %w", core.ErrInvalidSignature)
	}
	if !core.SameAddress(recovered, normalized) {
		return "", core.ErrInvalidSignature
	}

	// Only one of any number of concurrent verifiers gets past this point
	if err := v.challenges.MarkUsed(ctx, normalized, challenge.Nonce); err != nil {
		switch {
		case errors.Is(err, core.ErrChallengeReplayed):
			return "", core.ErrChallengeReplayed
		case errors.Is(err, core.ErrChallengeNotFound):
			// Superseded by a newer challenge between Get and MarkUsed
			return "", core.ErrChallengeNotFound
		}
		return "", storeFailure(err, normalized, "consuming challenge")
	}

	return normalized, nil
}

func storeFailure(err error, address, action string) error {
	return oops.In("verifier").
		Code("CHALLENGE_STORE_FAILED").
		With("address", address).
		Wrapf(err, "%s", action)
}
