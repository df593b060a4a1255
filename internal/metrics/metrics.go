package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"maccleanup/internal/cleanup"
)

// Metrics holds the counters of a single run. Each run gets its own registry;
// nothing is registered with the prometheus default registerer.
type Metrics struct {
	registry *prometheus.Registry

	run  runMetrics
	disk diskMetrics
}

// New creates and registers all run metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		run:      newRunMetrics(),
		disk:     newDiskMetrics(),
	}
	m.run.register(m.registry)
	m.disk.register(m.registry)

	// Mode gauge appears even before the first run is recorded
	m.run.lastMode.WithLabelValues("none").Set(0)
	return m
}

// Registry exposes the underlying registry (tests, gathering).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe mirrors one execution result into the counters.
func (m *Metrics) Observe(res cleanup.Result) {
	id := res.TargetID
	m.run.filesDeleted.WithLabelValues(id).Add(float64(res.FilesRemoved))
	m.run.bytesFreed.WithLabelValues(id).Add(float64(res.BytesFreed))
	m.run.errors.WithLabelValues(id).Add(float64(len(res.Errors)))
	if res.Declined {
		m.run.declined.WithLabelValues(id).Inc()
	}
}

// RecordPlan records the estimated size of a target's plan.
func (m *Metrics) RecordPlan(targetID string, candidates int, estimatedBytes int64) {
	m.run.planCandidates.WithLabelValues(targetID).Set(float64(candidates))
	m.run.planBytes.WithLabelValues(targetID).Set(float64(estimatedBytes))
	m.run.planSize.Observe(float64(estimatedBytes))
}

// RecordRun records mode, duration and completion time of the run.
func (m *Metrics) RecordRun(mode string, d time.Duration) {
	m.run.lastMode.Reset()
	m.run.lastMode.WithLabelValues(mode).Set(1)
	m.run.duration.Observe(d.Seconds())
	m.run.lastRun.Set(float64(time.Now().Unix()))
}

// WriteFile writes the text exposition of all metrics to path.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
