package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the OAuth flow metrics. Store-level latency histograms live
// next to the stores they measure.
type Metrics struct {
	TokensMinted         *prometheus.CounterVec
	Rotations            *prometheus.CounterVec
	Revocations          *prometheus.CounterVec
	CodesIssued          prometheus.Counter
	CodeExchangeDuration prometheus.Histogram
	MintDuration         prometheus.Histogram
}

// New registers the metrics on reg. Tests pass a fresh prometheus.NewRegistry()
// so repeated construction does not collide on the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TokensMinted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_tokens_minted_total",
			Help: "Tokens minted, by kind (access, refresh, id, sso)",
		}, []string{"kind"}),
		Rotations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_refresh_rotations_total",
			Help: "Refresh token rotations, by outcome",
		}, []string{"outcome"}),
		Revocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_revocations_total",
			Help: "Revocations, by target kind",
		}, []string{"target"}),
		CodesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardian_authorization_codes_issued_total",
			Help: "Authorization codes issued",
		}),
		CodeExchangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardian_code_exchange_duration_seconds",
			Help:    "Duration of authorization code exchange",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		MintDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardian_token_mint_duration_seconds",
			Help:    "Duration of token minting including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncTokenMinted counts one minted token of kind.
func (m *Metrics) IncTokenMinted(kind string) {
	if m == nil {
		return
	}
	m.TokensMinted.WithLabelValues(kind).Inc()
}

// IncRotation counts a rotation attempt by outcome ("success", "inactive", "expired", "error").
func (m *Metrics) IncRotation(outcome string) {
	if m == nil {
		return
	}
	m.Rotations.WithLabelValues(outcome).Inc()
}

// IncRevocation counts a revocation by target kind.
func (m *Metrics) IncRevocation(target string) {
	if m == nil {
		return
	}
	m.Revocations.WithLabelValues(target).Inc()
}

// IncCodeIssued counts an issued authorization code.
func (m *Metrics) IncCodeIssued() {
	if m == nil {
		return
	}
	m.CodesIssued.Inc()
}

// ObserveCodeExchange records the duration of a code exchange.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCodeExchange(start time.Time) {
	if m == nil {
		return
	}
	m.CodeExchangeDuration.Observe(time.Since(start).Seconds())
}

// ObserveMint records the duration of a mint.
func (m *Metrics) ObserveMint(start time.Time) {
	if m == nil {
		return
	}
	m.MintDuration.Observe(time.Since(start).Seconds())
}
