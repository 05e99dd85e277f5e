package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking form engine.
type BookingMetrics struct {
	turnsTotal         *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	outcomesTotal      *prometheus.CounterVec
	turnLatency        prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "booking",
			Name:      "turns_total",
			Help:      "Total form engine turns by resulting state",
		}, []string{"state"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "booking",
			Name:      "validation_failures_total",
			Help:      "Rejected field inputs by field and kind",
		}, []string{"field", "kind"}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Terminal booking outcomes",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docchat",
			Subsystem: "booking",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a single form engine turn",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.validationFailures, m.outcomesTotal, m.turnLatency)
	return m
}

func (m *BookingMetrics) ObserveTurn(state string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(state).Inc()
}

func (m *BookingMetrics) ObserveValidationFailure(field, kind string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(field, kind).Inc()
}

func (m *BookingMetrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTurnLatency(seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.Observe(seconds)
}
