// Package metrics exposes submission lifecycle metrics to Prometheus
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/promptly/client/internal/orchestrator"
)

const namespace = "promptly"

// Metrics tracks submissions as an orchestrator listener
type Metrics struct {
	submissions prometheus.Counter
	outcomes    *prometheus.CounterVec
	latency     prometheus.Histogram
	loading     prometheus.Gauge
	fallbacks   prometheus.Counter
	serviceUp   prometheus.Gauge

	mu           sync.Mutex
	loadingSince time.Time
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		submissions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_started_total",
			Help:      "Transitions into the loading state.",
		}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_outcomes_total",
			Help:      "Finished submissions by outcome and error kind.",
		}, []string{"outcome", "error_kind"}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time from loading to a terminal state.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		loading: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "submission_loading",
			Help:      "1 while a submission is loading.",
		}),
		fallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Successful generations served by a fallback provider.",
		}),
		serviceUp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_service_up",
			Help:      "Result of the last generation service health probe.",
		}),
	}
}

// Observe is registered as an orchestrator listener
func (m *Metrics) Observe(st orchestrator.State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch st.Kind {
	case orchestrator.KindLoading:
		m.submissions.Inc()
		m.loading.Set(1)
		m.loadingSince = st.UpdatedAt
		return
	case orchestrator.KindSuccess:
		m.outcomes.WithLabelValues("success", "").Inc()
		if st.Result != nil && st.Result.FallbackUsed {
			m.fallbacks.Inc()
		}
	case orchestrator.KindFailure:
		kind := ""
		if st.Error != nil {
			kind = string(st.Error.Kind)
		}
		m.outcomes.WithLabelValues("failure", kind).Inc()
	case orchestrator.KindIdle:
		if m.loadingSince.IsZero() {
			return
		}
		m.outcomes.WithLabelValues("reset", "").Inc()
	}

	m.loading.Set(0)
	if !m.loadingSince.IsZero() {
		m.latency.Observe(st.UpdatedAt.Sub(m.loadingSince).Seconds())
		m.loadingSince = time.Time{}
	}
}

// ObserveHealth records a generation service health probe
func (m *Metrics) ObserveHealth(healthy bool) {
	if healthy {
		m.serviceUp.Set(1)
		return
	}
	m.serviceUp.Set(0)
}

// Handler serves the exposition format for g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
