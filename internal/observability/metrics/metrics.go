package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the conversation
// pipeline.
type AssistantMetrics struct {
	turnsTotal   *prometheus.CounterVec
	turnLatency  prometheus.Histogram
	errorsTotal  prometheus.Counter
	scoringTotal *prometheus.CounterVec
	hotLeadTotal prometheus.Counter
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supply",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Total conversation turns by classified intent",
		}, []string{"intent"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "supply",
			Subsystem: "assistant",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one conversation turn",
			Buckets:   prometheus.DefBuckets,
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supply",
			Subsystem: "assistant",
			Name:      "errors_total",
			Help:      "Turns that ended in the generic error response",
		}),
		scoringTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supply",
			Subsystem: "scoring",
			Name:      "events_total",
			Help:      "Scoring events recorded by event type",
		}, []string{"event_type"}),
		hotLeadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supply",
			Subsystem: "scoring",
			Name:      "hot_lead_notifications_total",
			Help:      "Hot-lead notifications dispatched",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.errorsTotal, m.scoringTotal, m.hotLeadTotal)
	return m
}

func (m *AssistantMetrics) ObserveTurn(intent string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *AssistantMetrics) ObserveError() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

func (m *AssistantMetrics) ObserveScoringEvent(eventType string) {
	if m == nil {
		return
	}
	m.scoringTotal.WithLabelValues(eventType).Inc()
}

func (m *AssistantMetrics) ObserveHotLead() {
	if m == nil {
		return
	}
	m.hotLeadTotal.Inc()
}
