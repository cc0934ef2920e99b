package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveBackend(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBackend("stock", time.Now(), nil)
	m.ObserveBackend("stock", time.Now(), errors.New("boom"))
	m.ObserveBackend("stock", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("stock", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("stock", "error")))
}

func TestMetrics_Submission(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Submission("success", 3)
	m.Submission("rejected", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("rejected")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackend("stock", time.Now(), nil)
		m.Transition("2")
		m.Submission("success", 1)
		m.SetBreakerState("mes", 2)
	})
}
