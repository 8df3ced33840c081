package ports

// Verification outcomes reported to Metrics.VerificationResult
const (
	OutcomeSuccess   = "success"
	OutcomeNotFound  = "not_found"
	OutcomeReplayed  = "replayed"
	OutcomeExpired   = "expired"
	OutcomeMismatch  = "message_mismatch"
	OutcomeSignature = "invalid_signature"
	OutcomeError     = "error"
)

// Metrics records authentication outcomes
type Metrics interface {
	ChallengeIssued()
	VerificationResult(outcome string)
	SessionCreated()
	SessionRevoked()
	Swept(kind string, n int)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) ChallengeIssued()          {}
func (NopMetrics) VerificationResult(string) {}
func (NopMetrics) SessionCreated()           {}
func (NopMetrics) SessionRevoked()           {}
func (NopMetrics) Swept(string, int)         {}
