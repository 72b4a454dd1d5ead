package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BatchMetrics records scheduler job runs and outbox publisher batches.
type BatchMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewBatchMetrics registers the batch metrics on the provided registerer.
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	if reg == nil {
		return &BatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solarpo_batch_duration_seconds",
		Help:    "Duration of batch runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"batch"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarpo_batch_success_total",
		Help: "Successful batch items.",
	}, []string{"batch"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarpo_batch_failure_total",
		Help: "Failed batch items.",
	}, []string{"batch"})
	reg.MustRegister(duration, success, failure)
	return &BatchMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named batch.
func (b *BatchMetrics) ObserveDuration(batch string, duration time.Duration) {
	if b == nil || b.duration == nil {
		return
	}
	b.duration.WithLabelValues(normalizeLabel(batch)).Observe(duration.Seconds())
}

func (b *BatchMetrics) IncSuccess(batch string) {
	if b == nil || b.success == nil {
		return
	}
	b.success.WithLabelValues(normalizeLabel(batch)).Inc()
}

func (b *BatchMetrics) IncFailure(batch string) {
	if b == nil || b.failure == nil {
		return
	}
	b.failure.WithLabelValues(normalizeLabel(batch)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
