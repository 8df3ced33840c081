package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	"github.com/samber/oops"
)

// nonceBytes gives 128 bits of entropy per challenge
const nonceBytes = 16

// ChallengeIssuer creates single-use login messages
type ChallengeIssuer struct {
	store   ports.ChallengeStore
	appName string
	ttl     time.Duration
	now     func() time.Time
	random  io.Reader
}

// NewChallengeIssuer creates an issuer whose challenges live for ttl
func NewChallengeIssuer(store ports.ChallengeStore, appName string, ttl time.Duration, now func() time.Time) *ChallengeIssuer {
	return &ChallengeIssuer{
		store:   store,
		appName: appName,
		ttl:     ttl,
		now:     now,
		random:  rand.Reader,
	}
}

// Issue stores a fresh challenge for address, superseding any earlier one
func (i *ChallengeIssuer) Issue(ctx context.Context, address string) (core.Challenge, error) {
	normalized, err := core.NormalizeAddress(address)
	if err != nil {
		return core.Challenge{}, err
	}

	nonce, err := i.nonce()
	if err != nil {
		return core.Challenge{}, oops.In("challenge").Code("NONCE_FAILED").Wrapf(err, "generating nonce")
	}

	now := i.now()
	challenge := core.Challenge{
		Address:   normalized,
		Message:   core.ChallengeMessage(i.appName, normalized, nonce),
		Nonce:     nonce,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}

	if err := i.store.Put(ctx, challenge); err != nil {
		return core.Challenge{}, oops.In("challenge").
			Code("CHALLENGE_STORE_FAILED").
			With("address", normalized).
			Wrapf(err, "storing challenge")
	}

	return challenge, nil
}

func (i *ChallengeIssuer) nonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := io.ReadFull(i.random, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
