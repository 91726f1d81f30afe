package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "llm_bench"

// Metrics holds the collectors recorded by the bench facade and the run pipeline.
type Metrics struct {
	// OperationCounter counts facade operations.
	// Labels: operation, status (success|error)
	OperationCounter *prometheus.CounterVec

	// OperationDuration measures facade operation latency in seconds.
	// Labels: operation
	OperationDuration *prometheus.HistogramVec

	// CasesScored counts scored test cases.
	// Labels: scoring_method
	CasesScored *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of bench operations by operation and status.",
		}, []string{"operation", "status"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of bench operations in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),
		CasesScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cases_scored_total",
			Help:      "Total number of test cases scored by scoring method.",
		}, []string{"scoring_method"}),
	}
}

// Observe records one operation outcome. A nil receiver records nothing.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.OperationCounter.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// AddScored records n scored cases for a scoring method. A nil receiver records nothing.
func (m *Metrics) AddScored(method string, n int) {
	if m == nil {
		return
	}
	m.CasesScored.WithLabelValues(method).Add(float64(n))
}
