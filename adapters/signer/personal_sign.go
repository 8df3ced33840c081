package signer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
)

// signatureLength is R || S || V
const signatureLength = crypto.SignatureLength

// PersonalSignRecoverer recovers signers of EIP-191 personal messages,
// the scheme wallets use for personal_sign and eth_sign with text
type PersonalSignRecoverer struct{}

// NewPersonalSignRecoverer creates a new recoverer
func NewPersonalSignRecoverer() ports.SignatureRecoverer {
	return PersonalSignRecoverer{}
}

// RecoverAddress hashes message with the "\x19Ethereum Signed Message:\n<len>" prefix,
// recovers the public key from signature and returns the lowercase 0x address
func (PersonalSignRecoverer) RecoverAddress(message, signature string) (string, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(signature))
	if err != nil {
		return "", fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != signatureLength {
		return "", fmt.Errorf("signature must be %d bytes: %w", signatureLength, core.ErrInvalidSignature)
	}

	// Wallets emit V as 27/28; SigToPub expects the raw recovery id 0/1
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", fmt.Errorf("unsupported recovery id: %w", core.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}
