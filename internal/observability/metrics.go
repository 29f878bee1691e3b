package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Extraction outcomes.
const (
	ExtractionOK           = "ok"
	ExtractionGatewayError = "gateway_error"
	ExtractionParseError   = "parse_error"
	ExtractionSkipped      = "skipped"
)

// Brief delivery outcomes.
const (
	DeliveryOK            = "ok"
	DeliveryFailed        = "failed"
	DeliveryDuplicate     = "duplicate"
	DeliveryNotConfigured = "not_configured"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Turns              *prometheus.CounterVec
	PhaseTransitions   *prometheus.CounterVec
	Extractions        *prometheus.CounterVec
	CompletionLatency  *prometheus.HistogramVec
	ReadinessDecisions *prometheus.CounterVec
	BriefDeliveries    *prometheus.CounterVec
	WSMessages         *prometheus.CounterVec
}

// NewMetrics registers the instruments with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns handled, by resulting phase and status.",
		}, []string{"phase", "status"}),
		PhaseTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Conversation phase transitions.",
		}, []string{"from", "to"}),
		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Lead field extractions by outcome.",
		}, []string{"outcome"}),
		CompletionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_seconds",
			Help:      "Completion gateway latency by call kind and status.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"kind", "status"}),
		ReadinessDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readiness_decisions_total",
			Help:      "Readiness gate decisions by policy and result.",
		}, []string{"policy", "ready"}),
		BriefDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brief_deliveries_total",
			Help:      "Brief webhook deliveries by outcome.",
		}, []string{"outcome"}),
		WSMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction.",
		}, []string{"direction"}),
	}
}

func (m *Metrics) ObserveTurn(phase, status string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(phase, status).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.PhaseTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveExtraction(outcome string) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCompletion(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CompletionLatency.WithLabelValues(kind, status).Observe(d.Seconds())
}

func (m *Metrics) ObserveReadiness(policy string, ready bool) {
	if m == nil {
		return
	}
	v := "false"
	if ready {
		v = "true"
	}
	m.ReadinessDecisions.WithLabelValues(policy, v).Inc()
}

func (m *Metrics) ObserveDelivery(outcome string) {
	if m == nil {
		return
	}
	m.BriefDeliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWSMessage(direction string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction).Inc()
}

// MetricsHandler serves the metrics registered with g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
