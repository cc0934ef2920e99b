package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopfloor"

type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec
	Transitions     *prometheus.CounterVec
	Submissions     *prometheus.CounterVec
	SubmittedItems  prometheus.Histogram
}

// New регистрирует метрики в reg (nil - DefaultRegisterer, его отдаёт /metrics).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests to the MES backend by operation and outcome.",
		}, []string{"operation", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "MES backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Operator workflow transitions by target step.",
		}, []string{"step"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_submissions_total",
			Help:      "Usage submissions by outcome.",
		}, []string{"outcome"}),
		SubmittedItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usage_submission_items",
			Help:      "Number of items per successful submission.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
	reg.MustRegister(m.BackendRequests, m.BackendDuration, m.BreakerState,
		m.Transitions, m.Submissions, m.SubmittedItems)
	return m
}

// ObserveBackend фиксирует один вызов бэкенда. Безопасен для nil.
func (m *Metrics) ObserveBackend(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BackendRequests.WithLabelValues(operation, outcome).Inc()
	m.BackendDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) Transition(step string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(step).Inc()
}

func (m *Metrics) Submission(outcome string, items int) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.SubmittedItems.Observe(float64(items))
	}
}
