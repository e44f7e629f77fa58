package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the calendar engine.
type Metrics struct {
	InstancesCreated    prometheus.Counter
	DuplicatesSkipped   prometheus.Counter
	GenerationFailures  prometheus.Counter
	OverdueTransitions  prometheus.Counter
	TemplatesSeeded     prometheus.Counter
	GenerationDurations prometheus.Histogram
}

// New creates and registers all calendar metrics.
func New() *Metrics {
	return &Metrics{
		InstancesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxcal_calendar_instances_created_total",
			Help: "Total number of event instances materialized",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxcal_calendar_duplicate_periods_skipped_total",
			Help: "Total number of (template, period) pairs skipped because an instance already existed",
		}),
		GenerationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxcal_calendar_generation_failures_total",
			Help: "Total number of per-template or per-period materialization failures",
		}),
		OverdueTransitions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxcal_calendar_overdue_transitions_total",
			Help: "Total number of instances promoted to OVERDUE by the sweep",
		}),
		TemplatesSeeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxcal_calendar_templates_seeded_total",
			Help: "Total number of default templates created by profile seeding",
		}),
		GenerationDurations: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxcal_calendar_generation_duration_seconds",
			Help:    "Duration of generation runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) AddInstancesCreated(n int) {
	m.InstancesCreated.Add(float64(n))
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.DuplicatesSkipped.Inc()
}

func (m *Metrics) IncrementGenerationFailures() {
	m.GenerationFailures.Inc()
}

func (m *Metrics) AddOverdueTransitions(n int64) {
	m.OverdueTransitions.Add(float64(n))
}

func (m *Metrics) AddTemplatesSeeded(n int) {
	m.TemplatesSeeded.Add(float64(n))
}

func (m *Metrics) ObserveGenerationDuration(seconds float64) {
	m.GenerationDurations.Observe(seconds)
}
