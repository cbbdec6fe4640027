// Package metrics instruments a Scheduler with Prometheus collectors, the
// way github.com/purpleidea/mgmt's prometheus.Prometheus instruments a
// resource graph: a plain struct holding Gauge/Counter/Histogram fields,
// populated by New, and otherwise dormant until a caller opts in by
// registering it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the tick-level instrumentation described in SPEC_FULL.md
// §11. It is entirely optional (§6: "no persisted state at the core level");
// every method is nil-receiver safe so an embedder that never calls New can
// still pass a nil *Metrics through Config without a guard at every call
// site, matching mgmt's Prometheus.Listen being opt-in.
type Metrics struct {
	tickDuration      prometheus.Histogram
	scheduledCommands prometheus.Gauge
	conflictsDropped  prometheus.Counter
	absorbedTotal     prometheus.Counter
	unabsorbedTotal   prometheus.Counter
}

// New builds an unregistered Metrics. Call Register to expose it on reg (use
// prometheus.NewRegistry for tests so samples don't leak into the global
// default registry across parallel test runs).
func New() *Metrics {
	return &Metrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sched_tick_duration_seconds",
			Help:    "Duration of one run_once tick.",
			Buckets: prometheus.DefBuckets,
		}),
		scheduledCommands: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sched_scheduled_commands",
			Help: "Number of commands in the scheduled population after the last tick.",
		}),
		conflictsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sched_conflicts_dropped_total",
			Help: "Number of candidate commands dropped by the conflict arbiter.",
		}),
		absorbedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sched_execute_absorbed_total",
			Help: "Number of execute() failures absorbed by handle_exception.",
		}),
		unabsorbedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sched_execute_unabsorbed_total",
			Help: "Number of execute() failures that forced an interrupt.",
		}),
	}
}

// Register adds every collector to reg. Call once, after New.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	collectors := []prometheus.Collector{
		m.tickDuration,
		m.scheduledCommands,
		m.conflictsDropped,
		m.absorbedTotal,
		m.unabsorbedTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) SetScheduledCount(n int) {
	if m == nil {
		return
	}
	m.scheduledCommands.Set(float64(n))
}

func (m *Metrics) AddConflictsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.conflictsDropped.Add(float64(n))
}

func (m *Metrics) AddAbsorbed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.absorbedTotal.Add(float64(n))
}

func (m *Metrics) AddUnabsorbed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unabsorbedTotal.Add(float64(n))
}
