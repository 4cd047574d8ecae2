package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestionMetrics exposes counters/histograms for the lead webhook.
type IngestionMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	storeLatency  *prometheus.HistogramVec
}

func NewIngestionMetrics(reg prometheus.Registerer) *IngestionMetrics {
	m := &IngestionMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Lead webhook requests by outcome and rejection reason",
		}, []string{"outcome", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leads",
			Subsystem: "webhook",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling lead webhook requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leads",
			Subsystem: "store",
			Name:      "insert_latency_seconds",
			Help:      "Latency of lead store inserts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.duration, m.storeLatency)
	return m
}

// ObserveOutcome counts one request. reason is empty for accepted leads.
func (m *IngestionMetrics) ObserveOutcome(outcome, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.requestsTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *IngestionMetrics) ObserveDuration(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(outcome).Observe(seconds)
}

func (m *IngestionMetrics) ObserveStoreLatency(ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.storeLatency.WithLabelValues(result).Observe(seconds)
}
