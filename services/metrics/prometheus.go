package metricsvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/speakmate/speakmate/core"
)

type PrometheusMetrics struct {
	distributions   *prometheus.CounterVec
	distributedTo   *prometheus.CounterVec
	retractions     *prometheus.CounterVec
	retractedFrom   *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	partialFailures *prometheus.CounterVec
}

var _ core.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the fan-out counters on `reg`
// (prometheus.DefaultRegisterer when nil).
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		distributions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speakmate_distributions_total",
			Help: "Content distributions applied to a roster",
		}, []string{"module"}),
		distributedTo: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speakmate_distributed_students_total",
			Help: "Student documents modified by content distributions",
		}, []string{"module"}),
		retractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speakmate_retractions_total",
			Help: "Assignments retracted",
		}, []string{"module"}),
		retractedFrom: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speakmate_retracted_students_total",
			Help: "Student documents modified by retractions",
		}, []string{"module"}),
		compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speakmate_score_compensations_total",
			Help: "Tier score points taken back for retracted solved entries",
		}, []string{"module"}),
		partialFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "speakmate_partial_failures_total",
			Help: "Multi-document operations left partially applied",
		}, []string{"op"}),
	}
}

func (m *PrometheusMetrics) Distributed(module string, students int) {
	m.distributions.WithLabelValues(module).Inc()
	m.distributedTo.WithLabelValues(module).Add(float64(students))
}

func (m *PrometheusMetrics) Retracted(module string, students, compensations int) {
	m.retractions.WithLabelValues(module).Inc()
	m.retractedFrom.WithLabelValues(module).Add(float64(students))
	m.compensations.WithLabelValues(module).Add(float64(compensations))
}

func (m *PrometheusMetrics) Partial(op string) {
	m.partialFailures.WithLabelValues(op).Inc()
}
