package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Filesystem metrics sampled before and after the run
type diskMetrics struct {
	freeBytes   *prometheus.GaugeVec
	totalBytes  *prometheus.GaugeVec
	freePercent *prometheus.GaugeVec
}

func newDiskMetrics() diskMetrics {
	return diskMetrics{
		freeBytes: gaugeVec(
			"maccleanup_disk_free_bytes",
			"Free space on the filesystem containing the path.",
			"path", "phase",
		),
		totalBytes: gaugeVec(
			"maccleanup_disk_total_bytes",
			"Total capacity of the filesystem containing the path.",
			"path",
		),
		freePercent: gaugeVec(
			"maccleanup_disk_free_percent",
			"Free space percentage of the filesystem containing the path.",
			"path", "phase",
		),
	}
}

func (d diskMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(d.freeBytes, d.totalBytes, d.freePercent)
}

// RecordDisk stores a disk usage sample. phase is "before" or "after".
func (m *Metrics) RecordDisk(path, phase string, free, total uint64) {
	freePercent := 100.0
	if total > 0 {
		freePercent = float64(free) / float64(total) * 100.0
	}
	m.disk.freeBytes.WithLabelValues(path, phase).Set(float64(free))
	m.disk.totalBytes.WithLabelValues(path).Set(float64(total))
	m.disk.freePercent.WithLabelValues(path, phase).Set(freePercent)
}
