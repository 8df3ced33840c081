package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates an Ethereum address and returns its lowercase 0x form.
// The 0x prefix is mandatory; checksum casing is accepted but not enforced.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrMissingField
	}
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", ErrInvalidAddress
	}
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}

	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// SameAddress compares two addresses case-insensitively
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
