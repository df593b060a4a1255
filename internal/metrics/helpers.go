package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// A run includes interactive prompts, so it spans seconds to half an hour.
	runDurationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}

	// 1 MiB to 64 GiB in factors of four.
	planSizeBuckets = prometheus.ExponentialBuckets(1<<20, 4, 9)
)

func histogram(name, help string, buckets []float64) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

func gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
}

// perTarget counters and gauges are labelled by catalog target id.
func perTargetCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{"target"})
}

func perTargetGauge(name, help string) *prometheus.GaugeVec {
	return gaugeVec(name, help, "target")
}
