package ports

// SignatureRecoverer derives the signing address from a personal message and its signature
type SignatureRecoverer interface {
	RecoverAddress(message, signature string) (string, error)
}
