// Package metrics defines the Prometheus collectors Aegis exposes on its
// control-plane port at /metrics: prompt decision counts, classification
// latency by tier, and certificate mint outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector Aegis records against.
// Registered against an explicit prometheus.Registerer (rather than the
// global default registry) so tests can construct a fresh instance
// without risking a duplicate-registration panic across packages.
type Metrics struct {
	PromptsTotal           *prometheus.CounterVec
	PromptsBlockedTotal    prometheus.Counter
	ClassificationDuration *prometheus.HistogramVec
	MITMCertMintTotal      *prometheus.CounterVec
}

// New creates and registers Aegis's metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		PromptsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aegis",
				Name:      "prompts_total",
				Help:      "Total prompts evaluated, labeled by decision.",
			},
			[]string{"decision"}, // decision=allow/warn/block
		),
		PromptsBlockedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "aegis",
				Name:      "prompts_blocked_total",
				Help:      "Total prompts blocked by the rule engine.",
			},
		),
		ClassificationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "aegis",
				Name:      "classification_duration_seconds",
				Help:      "Time spent classifying a single prompt or image, by tier.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tier"}, // tier=tier1_keyword/tier2_sentiment/tier3_ml
		),
		MITMCertMintTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aegis",
				Name:      "mitm_cert_mint_total",
				Help:      "Leaf certificates minted or served from cache during MITM handshakes.",
			},
			[]string{"outcome"}, // outcome=cache_hit/signed
		),
	}
}

// RecordDecision increments PromptsTotal and, if blocked,
// PromptsBlockedTotal. decision matches internal/audit's Entry.Decision
// values ("allow", "warn", "block").
func (m *Metrics) RecordDecision(decision string) {
	m.PromptsTotal.WithLabelValues(decision).Inc()
	if decision == "block" {
		m.PromptsBlockedTotal.Inc()
	}
}

// ObserveClassification records how long a classification took for tier.
func (m *Metrics) ObserveClassification(tier string, d time.Duration) {
	m.ClassificationDuration.WithLabelValues(tier).Observe(d.Seconds())
}

// RecordCertMint records a leaf certificate mint outcome.
func (m *Metrics) RecordCertMint(outcome string) {
	m.MITMCertMintTotal.WithLabelValues(outcome).Inc()
}
