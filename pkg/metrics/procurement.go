package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation outcomes.
const (
	OutcomeCreated    = "created"
	OutcomeExisting   = "existing"
	OutcomeNotReady   = "not_ready"
	OutcomeInProgress = "in_progress"
	OutcomeFailed     = "failed"
)

// ProcurementMetrics tracks material order generation runs.
type ProcurementMetrics struct {
	duration   *prometheus.HistogramVec
	runs       *prometheus.CounterVec
	orders     prometheus.Counter
	unresolved *prometheus.CounterVec
}

// NewProcurementMetrics registers the generation metrics on reg. A nil
// registerer yields a no-op recorder.
func NewProcurementMetrics(reg prometheus.Registerer) *ProcurementMetrics {
	if reg == nil {
		return &ProcurementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solarpo_material_generation_duration_seconds",
		Help:    "Duration of material order generation runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarpo_material_generation_runs_total",
		Help: "Material order generation runs by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solarpo_material_orders_created_total",
		Help: "Purchase orders created.",
	})
	unresolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solarpo_material_unresolved_items_total",
		Help: "Bill-of-materials lines without an eligible supplier.",
	}, []string{"category"})
	reg.MustRegister(duration, runs, orders, unresolved)
	return &ProcurementMetrics{
		duration:   duration,
		runs:       runs,
		orders:     orders,
		unresolved: unresolved,
	}
}

// ObserveRun records one generation attempt.
func (p *ProcurementMetrics) ObserveRun(outcome string, duration time.Duration) {
	if p == nil || p.runs == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	p.runs.WithLabelValues(outcome).Inc()
	p.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (p *ProcurementMetrics) AddOrders(n int) {
	if p == nil || p.orders == nil || n <= 0 {
		return
	}
	p.orders.Add(float64(n))
}

func (p *ProcurementMetrics) IncUnresolved(category string) {
	if p == nil || p.unresolved == nil {
		return
	}
	p.unresolved.WithLabelValues(normalizeLabel(category)).Inc()
}
