package metrics

import (
	"github.com/layer-3/walletgate/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements ports.Metrics with Prometheus collectors
type Prometheus struct {
	challengesIssued prometheus.Counter
	verifications    *prometheus.CounterVec
	sessionsCreated  prometheus.Counter
	sessionsRevoked  prometheus.Counter
	swept            *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		challengesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletgate_challenges_issued_total",
			Help: "Total number of login challenges issued",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_verifications_total",
			Help: "Total number of signature verifications by outcome",
		}, []string{"outcome"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletgate_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		sessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletgate_sessions_revoked_total",
			Help: "Total number of sessions revoked by logout",
		}),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletgate_swept_total",
			Help: "Total number of expired entries removed by the sweeper",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.challengesIssued, m.verifications, m.sessionsCreated, m.sessionsRevoked, m.swept)

	return m
}

var _ ports.Metrics = (*Prometheus)(nil)

func (m *Prometheus) ChallengeIssued() { m.challengesIssued.Inc() }

func (m *Prometheus) VerificationResult(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Prometheus) SessionCreated() { m.sessionsCreated.Inc() }

func (m *Prometheus) SessionRevoked() { m.sessionsRevoked.Inc() }

func (m *Prometheus) Swept(kind string, n int) {
	if n > 0 {
		m.swept.WithLabelValues(kind).Add(float64(n))
	}
}
