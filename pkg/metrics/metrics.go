package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the relay's collectors so each server owns its own registry.
type Metrics struct {
	requests         *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	tokens           *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_generate_requests_total",
				Help: "Generate requests by outcome",
			},
			[]string{"variant", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_upstream_duration_seconds",
				Help:    "Upstream chat-completion call duration",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
			[]string{"variant"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_upstream_tokens_total",
				Help: "Tokens reported by the upstream",
			},
			[]string{"variant", "kind"},
		),
	}
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requests, m.upstreamDuration, m.tokens} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordRequest counts one /generate call. Outcome is one of success,
// upstream_error, invalid_request, missing_credential or transport_error.
func (m *Metrics) RecordRequest(variant, outcome string) {
	m.requests.WithLabelValues(variant, outcome).Inc()
}

// RecordUpstream observes one upstream round trip and the tokens it reported.
func (m *Metrics) RecordUpstream(variant string, d time.Duration, promptTokens, completionTokens int) {
	m.upstreamDuration.WithLabelValues(variant).Observe(d.Seconds())
	if promptTokens > 0 {
		m.tokens.WithLabelValues(variant, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.tokens.WithLabelValues(variant, "completion").Add(float64(completionTokens))
	}
}
