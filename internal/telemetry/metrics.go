// Package telemetry wires the executor's per-phase spans and histograms:
// each phase runs inside an OpenTelemetry span and reports a Prometheus
// histogram observation. Metrics are grouped into a struct of
// pre-registered collectors built once per component, rather than ad hoc
// metric lookups at call sites.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one executor instance.
// Each Metrics owns a private Registry rather than registering against
// prometheus.DefaultRegisterer, so multiple Executors (as in tests, or a
// process hosting more than one project root) never collide on
// duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	// PhaseDuration observes how long each of the executor's Phase
	// 0-7 methods takes, labeled by phase name.
	PhaseDuration *prometheus.HistogramVec

	// PlansTotal counts completed plan applications by outcome
	// ("success", "rolled_back").
	PlansTotal *prometheus.CounterVec

	// RollbackTotal counts rollbacks, labeled by the phase that
	// triggered them.
	RollbackTotal *prometheus.CounterVec

	// LockWaitSeconds is a histogram for time spent blocked acquiring a
	// lockmgr handle, labeled by lock kind ("read", "write"). It is
	// registered and served, but no code in this module observes into it.
	LockWaitSeconds *prometheus.HistogramVec

	// QueueDepth is the Operation Queue depth gauge. Phase 0 sets it to
	// 0 before draining the queue; the queue's pending-op count is not
	// read.
	QueueDepth prometheus.Gauge

	// PluginRequestsTotal counts the executor's plugin dispatches
	// (ImportSupport.UpdateImportReference and
	// WorkspaceSupport.ExecuteConsolidationPostProcessing), labeled by
	// plugin name and outcome ("ok", "error").
	PluginRequestsTotal *prometheus.CounterVec

	// PluginProcessingSeconds observes how long each plugin dispatch
	// takes, labeled by plugin name.
	PluginProcessingSeconds *prometheus.HistogramVec
}

// NewMetrics creates and registers a fresh set of collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "refactorcore",
			Subsystem: "executor",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each edit plan executor phase.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		PlansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "refactorcore",
			Subsystem: "executor",
			Name:      "plans_total",
			Help:      "Total edit plans applied, by outcome.",
		}, []string{"outcome"}),
		RollbackTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "refactorcore",
			Subsystem: "executor",
			Name:      "rollback_total",
			Help:      "Total rollbacks, by the phase that triggered them.",
		}, []string{"phase"}),
		LockWaitSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "refactorcore",
			Subsystem: "lockmgr",
			Name:      "wait_seconds",
			Help:      "Time spent waiting to acquire a path lock.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "refactorcore",
			Subsystem: "opqueue",
			Name:      "depth",
			Help:      "Operation Queue depth observed at Phase 0 drain.",
		}),
		PluginRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "refactorcore",
			Subsystem: "plugin",
			Name:      "requests_total",
			Help:      "Total plugin dispatches, by plugin name and outcome.",
		}, []string{"plugin", "outcome"}),
		PluginProcessingSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "refactorcore",
			Subsystem: "plugin",
			Name:      "processing_seconds",
			Help:      "Time spent inside one plugin dispatch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plugin"}),
	}
}

// ObservePlugin records one plugin dispatch's outcome and duration,
// labeled by the dispatching plugin's name.
func (m *Metrics) ObservePlugin(name string, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PluginRequestsTotal.WithLabelValues(name, outcome).Inc()
	m.PluginProcessingSeconds.WithLabelValues(name).Observe(took.Seconds())
}

// Registry exposes the underlying Prometheus registry for an operator
// HTTP handler to serve at /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
