package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// RetrievalMetrics implements the engine's RetrievalObserver and tracks breaker states of
// the remote adapters.
type RetrievalMetrics struct {
	service string

	degradeTotal    *prometheus.CounterVec
	routedLawCodes  prometheus.Histogram
	breakerState    *prometheus.GaugeVec
	breakerSwitches *prometheus.CounterVec
}

func NewRetrievalMetrics(registry prometheus.Registerer, service string) *RetrievalMetrics {
	degradeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "degrade_total",
			Help:      "Recovered retrieval failures by kind.",
		},
		[]string{"service", "kind"},
	)
	routedLawCodes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "rag",
			Name:        "routed_law_codes",
			Help:        "Law codes selected by the domain router per query.",
			Buckets:     []float64{0, 1, 2, 3, 4, 6, 8},
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	breakerSwitches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions per operation and target state.",
		},
		[]string{"service", "operation", "to"},
	)

	registry.MustRegister(degradeTotal, routedLawCodes, breakerState, breakerSwitches)

	return &RetrievalMetrics{
		service:         service,
		degradeTotal:    degradeTotal,
		routedLawCodes:  routedLawCodes,
		breakerState:    breakerState,
		breakerSwitches: breakerSwitches,
	}
}

func (m *RetrievalMetrics) ObserveDegrade(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.degradeTotal.WithLabelValues(m.service, kind).Inc()
}

func (m *RetrievalMetrics) ObserveRoutedLawCodes(count int) {
	m.routedLawCodes.Observe(float64(count))
}

// ObserveBreakerState matches resilience.StateListener.
func (m *RetrievalMetrics) ObserveBreakerState(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(breakerStateValue(to))
	m.breakerSwitches.WithLabelValues(m.service, operation, to.String()).Inc()
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
