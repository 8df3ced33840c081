package core

import "fmt"

// DefaultAppName is the fixed application identifier placed on the first line of every challenge
const DefaultAppName = "Nexura Wallet Login"

// ChallengeMessage renders the text a wallet signs to prove control of address.
//
// The layout is line oriented so that wallets show it verbatim:
//
//	Nexura Wallet Login
//	Address: 0x...
//	Nonce: 5f0c...
func ChallengeMessage(appName, address, nonce string) string {
	return fmt.Sprintf("%s\nAddress: %s\nNonce: %s", appName, address, nonce)
}
